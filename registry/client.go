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

package registry

import (
	"context"
	"io"
	"log/slog"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/prometheus/client_golang/prometheus"
)

type ClientConfig struct {
	Ledger       *ledger.Ledger
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
}

// Client issues top-level calls to a delegation registry
type Client struct {
	ledger  *ledger.Ledger
	logger  *slog.Logger
	metrics registryMetrics
}

// Status summarizes a registry for operators
type Status struct {
	App             ledger.AppID
	State           State
	Balance         uint64
	MinBalance      uint64
	Voters          int
	Unassigned      int
	Representatives int
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c := &Client{
		ledger: cfg.Ledger,
		logger: cfg.Logger.With("component", "registry"),
	}
	if cfg.PromRegistry != nil {
		c.metrics.init(cfg.PromRegistry)
	}
	return c
}

func (c *Client) call(
	ctx context.Context,
	call ledger.Call,
	fn func(*ledger.Exec) error,
) error {
	call.Kind = Kind
	err := c.ledger.Call(ctx, call, fn)
	if err != nil {
		c.logger.Debug(
			"registry call failed",
			"method", call.Method,
			"app_id", call.App,
			"error", err,
		)
		return err
	}
	c.observe(ctx, call.App)
	return nil
}

func (c *Client) observe(ctx context.Context, app ledger.AppID) {
	if c.metrics.votesLeft == nil {
		return
	}
	status, err := c.Status(ctx, app)
	if err != nil {
		c.logger.Warn(
			"failed to refresh registry metrics",
			"app_id", app,
			"error", err,
		)
		return
	}
	c.metrics.observe(status)
}

// Deploy creates a registry bound to an xGov registry. The sender becomes its
// manager
func (c *Client) Deploy(
	ctx context.Context,
	sender ledger.Address,
	program []byte,
	xgovRegistry ledger.AppID,
	entropy []byte,
) (ledger.AppID, error) {
	id, err := c.ledger.Create(
		ctx,
		sender,
		NewCreateParams(program, entropy),
		nil,
		func(x *ledger.Exec) error {
			return Create(x, xgovRegistry, entropy)
		},
	)
	if err != nil {
		return 0, err
	}
	c.logger.Info(
		"deployed delegation registry",
		"app_id", id,
		"xgov_registry", xgovRegistry,
		"manager", sender.String(),
	)
	c.observe(ctx, id)
	return id, nil
}

func (c *Client) SetManager(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	manager ledger.Address,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "set_manager"},
		func(x *ledger.Exec) error {
			return SetManager(x, manager)
		},
	)
}

func (c *Client) Configure(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	fees types.Fees,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "config_delegation_registry"},
		func(x *ledger.Exec) error {
			return Configure(x, fees)
		},
	)
}

func (c *Client) Pause(ctx context.Context, sender ledger.Address, app ledger.AppID) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "pause_registry"},
		Pause,
	)
}

func (c *Client) Resume(ctx context.Context, sender ledger.Address, app ledger.AppID) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "resume_registry"},
		Resume,
	)
}

func (c *Client) WithdrawBalance(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
) (uint64, error) {
	var amount uint64
	err := c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "withdraw_balance"},
		func(x *ledger.Exec) error {
			var err error
			amount, err = WithdrawBalance(x)
			return err
		},
	)
	return amount, err
}

// InitContractCode allocates the staging box of a child contract. The payment
// covers the minimum balance of the box
func (c *Client) InitContractCode(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	name types.ContractName,
	size uint64,
	payment *ledger.Payment,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "init_contract", Payment: payment},
		func(x *ledger.Exec) error {
			return InitContractCode(x, name, size)
		},
	)
}

func (c *Client) LoadContractCode(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	name types.ContractName,
	offset uint64,
	data []byte,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "load_contract"},
		func(x *ledger.Exec) error {
			return LoadContractCode(x, name, offset, data)
		},
	)
}

func (c *Client) IssueKeyRegistration(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	info types.KeyRegInfo,
	payment *ledger.Payment,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "key_reg_registry", Payment: payment},
		func(x *ledger.Exec) error {
			return IssueKeyRegistration(x, info)
		},
	)
}

// UpdateRegistryCode replaces the program of the registry
func (c *Client) UpdateRegistryCode(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	program []byte,
) error {
	return c.call(
		ctx,
		ledger.Call{
			Sender:       sender,
			App:          app,
			Method:       "update_registry",
			OnCompletion: ledger.UpdateApplication,
			Program:      program,
		},
		UpdateRegistryCode,
	)
}

func (c *Client) UpdateVoter(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	delegator ledger.Address,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "update_voter"},
		func(x *ledger.Exec) error {
			return UpdateVoter(x, delegator)
		},
	)
}

func (c *Client) UpdateRepresentative(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	rep ledger.Address,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "update_representative"},
		func(x *ledger.Exec) error {
			return UpdateRepresentative(x, rep)
		},
	)
}

func (c *Client) PrepareVoter(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	payment *ledger.Payment,
) (ledger.AppID, error) {
	var id ledger.AppID
	err := c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "prepare_voter", Payment: payment},
		func(x *ledger.Exec) error {
			var err error
			id, err = PrepareVoter(x)
			return err
		},
	)
	return id, err
}

func (c *Client) RegisterVoter(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	delegator ledger.Address,
	availableVoter ledger.AppID,
	payment *ledger.Payment,
) (ledger.AppID, error) {
	var id ledger.AppID
	err := c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "register_voter", Payment: payment},
		func(x *ledger.Exec) error {
			var err error
			id, err = RegisterVoter(x, delegator, availableVoter)
			return err
		},
	)
	return id, err
}

func (c *Client) AddVotes(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	delegator ledger.Address,
	count uint64,
	payment *ledger.Payment,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "add_votes", Payment: payment},
		func(x *ledger.Exec) error {
			return AddVotes(x, delegator, count)
		},
	)
}

func (c *Client) TriggerVote(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	delegator ledger.Address,
	proposal ledger.AppID,
) (types.VoteRaw, error) {
	var raw types.VoteRaw
	err := c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "trigger_vote"},
		func(x *ledger.Exec) error {
			var err error
			raw, err = TriggerVote(x, delegator, proposal)
			return err
		},
	)
	return raw, err
}

func (c *Client) UnregisterVoter(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	delegator ledger.Address,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "unregister_voter"},
		func(x *ledger.Exec) error {
			return UnregisterVoter(x, delegator)
		},
	)
}

func (c *Client) RegisterRepresentative(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
	payment *ledger.Payment,
) (ledger.AppID, error) {
	var id ledger.AppID
	err := c.call(
		ctx,
		ledger.Call{
			Sender:  sender,
			App:     app,
			Method:  "register_representative",
			Payment: payment,
		},
		func(x *ledger.Exec) error {
			var err error
			id, err = RegisterRepresentative(x)
			return err
		},
	)
	return id, err
}

func (c *Client) UnregisterRepresentative(
	ctx context.Context,
	sender ledger.Address,
	app ledger.AppID,
) error {
	return c.call(
		ctx,
		ledger.Call{Sender: sender, App: app, Method: "unregister_representative"},
		UnregisterRepresentative,
	)
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

// GetVoterRef returns the voter of an xGov and whether it exists
func (c *Client) GetVoterRef(
	ctx context.Context,
	app ledger.AppID,
	delegator ledger.Address,
) (ledger.AppID, bool, error) {
	var id ledger.AppID
	var exists bool
	err := c.view(ctx, app, "get_voter_app_id", func(x *ledger.Exec) error {
		var err error
		id, exists, err = GetVoterRef(x, delegator)
		return err
	})
	return id, exists, err
}

// GetRepresentativeRef returns the application of a representative and whether
// it exists
func (c *Client) GetRepresentativeRef(
	ctx context.Context,
	app ledger.AppID,
	rep ledger.Address,
) (ledger.AppID, bool, error) {
	var id ledger.AppID
	var exists bool
	err := c.view(ctx, app, "get_representative_app_id", func(x *ledger.Exec) error {
		var err error
		id, exists, err = GetRepresentativeRef(x, rep)
		return err
	})
	return id, exists, err
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

func (c *Client) Voters(
	ctx context.Context,
	app ledger.AppID,
) (map[ledger.Address]ledger.AppID, error) {
	var ret map[ledger.Address]ledger.AppID
	err := c.view(ctx, app, "voters", func(x *ledger.Exec) error {
		var err error
		ret, err = Voters(x)
		return err
	})
	return ret, err
}

func (c *Client) Representatives(
	ctx context.Context,
	app ledger.AppID,
) (map[ledger.Address]ledger.AppID, error) {
	var ret map[ledger.Address]ledger.AppID
	err := c.view(ctx, app, "representatives", func(x *ledger.Exec) error {
		var err error
		ret, err = Representatives(x)
		return err
	})
	return ret, err
}

// Status reads the state, balances and membership counts of a registry
func (c *Client) Status(ctx context.Context, app ledger.AppID) (Status, error) {
	ret := Status{App: app}
	err := c.view(ctx, app, "status", func(x *ledger.Exec) error {
		var err error
		if ret.State, err = load(x); err != nil {
			return err
		}
		acct, err := x.Account(x.AppAddress())
		if err != nil {
			return err
		}
		ret.Balance = acct.Balance
		ret.MinBalance = acct.MinBalance
		voters, err := Voters(x)
		if err != nil {
			return err
		}
		reps, err := Representatives(x)
		if err != nil {
			return err
		}
		unassigned, err := UnassignedVoters(x)
		if err != nil {
			return err
		}
		ret.Voters = len(voters)
		ret.Unassigned = len(unassigned)
		ret.Representatives = len(reps)
		return nil
	})
	return ret, err
}

// AvailableVoter returns a prepared voter that a registration can claim
func (c *Client) AvailableVoter(ctx context.Context, app ledger.AppID) (ledger.AppID, bool, error) {
	var ids []ledger.AppID
	err := c.view(ctx, app, "available_voter", func(x *ledger.Exec) error {
		var err error
		ids, err = UnassignedVoters(x)
		return err
	})
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

// Refresh updates the registry gauges from the committed state of app without
// making a call
func (c *Client) Refresh(ctx context.Context, app ledger.AppID) error {
	status, err := c.Status(ctx, app)
	if err != nil {
		return err
	}
	c.metrics.observe(status)
	return nil
}

// Find returns the registries created by an account, oldest first
func (c *Client) Find(creator ledger.Address) ([]ledger.AppID, error) {
	apps, err := c.ledger.AppsCreatedBy(creator)
	if err != nil {
		return nil, err
	}
	var ret []ledger.AppID
	for _, app := range apps {
		if app.Kind == Kind {
			ret = append(ret, app.ID)
		}
	}
	return ret, nil
}
