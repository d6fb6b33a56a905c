// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package voter

import (
	"context"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
)

// Client issues top-level calls to voter applications on behalf of a delegator
// or its manager
type Client struct {
	ledger *ledger.Ledger
}

func NewClient(l *ledger.Ledger) *Client {
	return &Client{ledger: l}
}

func (c *Client) call(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	method string,
	fn func(*ledger.Exec) error,
) error {
	return c.ledger.Call(
		ctx,
		ledger.Call{
			Sender: sender,
			App:    app,
			Kind:   Kind,
			Method: method,
		},
		fn,
	)
}

func (c *Client) SetManager(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	manager ledger.Address,
) error {
	return c.call(ctx, sender, app, "set_manager", func(x *ledger.Exec) error {
		return SetManager(x, manager)
	})
}

func (c *Client) SetRepresentative(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	rep ledger.AppID,
) error {
	return c.call(ctx, sender, app, "set_representative", func(x *ledger.Exec) error {
		return SetRepresentative(x, rep)
	})
}

func (c *Client) SetWindow(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	windowSeconds uint64,
) error {
	return c.call(ctx, sender, app, "set_window", func(x *ledger.Exec) error {
		return SetWindow(x, windowSeconds)
	})
}

func (c *Client) VoteDirect(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	proposal ledger.AppID,
	raw types.VoteRaw,
) error {
	return c.call(ctx, sender, app, "vote_direct", func(x *ledger.Exec) error {
		return VoteDirect(x, proposal, raw)
	})
}

func (c *Client) YieldVotingRights(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	votingAddress ledger.Address,
) error {
	return c.call(ctx, sender, app, "yield_voting_rights", func(x *ledger.Exec) error {
		return YieldVotingRights(x, votingAddress)
	})
}

func (c *Client) State(ctx context.Context, app ledger.AppID) (State, error) {
	var ret State
	err := c.ledger.View(
		ctx,
		ledger.Call{App: app, Kind: Kind, Method: "state"},
		func(x *ledger.Exec) error {
			var err error
			ret, err = load(x)
			return err
		},
	)
	return ret, err
}
