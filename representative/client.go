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

package representative

import (
	"context"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
)

// Client issues top-level calls to representative applications
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
	payment *ledger.Payment,
	fn func(*ledger.Exec) error,
) error {
	return c.ledger.Call(
		ctx,
		ledger.Call{
			Sender:  sender,
			App:     app,
			Kind:    Kind,
			Method:  method,
			Payment: payment,
		},
		fn,
	)
}

func (c *Client) Pause(ctx context.Context, sender ledger.Address, app ledger.AppID) error {
	return c.call(ctx, sender, app, "pause", nil, Pause)
}

func (c *Client) Resume(ctx context.Context, sender ledger.Address, app ledger.AppID) error {
	return c.call(ctx, sender, app, "resume", nil, Resume)
}

// PublishVote publishes a vote. The payment must go to the representative
// application and cover the vote box
func (c *Client) PublishVote(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	proposal ledger.AppID,
	vote types.Vote,
	payment *ledger.Payment,
) error {
	return c.call(ctx, sender, app, "publish_vote", payment, func(x *ledger.Exec) error {
		return PublishVote(x, proposal, vote)
	})
}

func (c *Client) DeleteVote(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	proposal ledger.AppID,
) error {
	return c.call(ctx, sender, app, "delete_vote", nil, func(x *ledger.Exec) error {
		return DeleteVote(x, proposal)
	})
}

// GetVote returns the vote on a proposal and whether it is currently valid
func (c *Client) GetVote(
	ctx context.Context,
	app ledger.AppID,
	proposal ledger.AppID,
) (types.Vote, bool, error) {
	var vote types.Vote
	var valid bool
	err := c.view(ctx, app, "get_vote", func(x *ledger.Exec) error {
		var err error
		vote, valid, err = GetVote(x, proposal)
		return err
	})
	return vote, valid, err
}

// GetVoteBox returns the stored vote on a proposal and whether it exists
func (c *Client) GetVoteBox(
	ctx context.Context,
	app ledger.AppID,
	proposal ledger.AppID,
) (types.Vote, bool, error) {
	var vote types.Vote
	var exists bool
	err := c.view(ctx, app, "get_vote_box", func(x *ledger.Exec) error {
		var err error
		vote, exists, err = GetVoteBox(x, proposal)
		return err
	})
	return vote, exists, err
}

func (c *Client) State(ctx context.Context, app ledger.AppID) (State, error) {
	var ret State
	err := c.view(ctx, app, "state", func(x *ledger.Exec) error {
		var err error
		ret, err = load(x)
		return err
	})
	return ret, err
}

func (c *Client) view(
	ctx context.Context,
	app ledger.AppID,
	method string,
	fn func(*ledger.Exec) error,
) error {
	return c.ledger.View(
		ctx,
		ledger.Call{App: app, Kind: Kind, Method: method},
		fn,
	)
}
