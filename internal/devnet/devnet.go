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

// Package devnet seeds a ledger with a working delegation setup: an xGov
// registry, a delegation registry, a representative and a set of delegating
// xGovs whose votes have been triggered on a sample proposal.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/delegato"
	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/xgov"
	"golang.org/x/crypto/blake2b"
)

const (
	// DeployerFunds is credited to the deployer before anything is created
	DeployerFunds uint64 = 10_000_000_000
	// AccountFunds is credited to every other devnet account
	AccountFunds uint64 = 1_000_000_000

	DefaultXgovs        = 3
	DefaultVotingPeriod = time.Hour
	DefaultVersion      = "devnet"
)

var ErrXgovDisabled = errors.New("devnet requires the in-process xGov contracts")

type Config struct {
	Logger       *slog.Logger
	Version      string
	Fees         *types.Fees
	Xgovs        int
	VotingPeriod time.Duration
	// Vote is the representative vote published on the sample proposal
	Vote types.Vote
}

type Result struct {
	Deployer          ledger.Address
	Keeper            ledger.Address
	XgovRegistry      ledger.AppID
	Registry          ledger.AppID
	Proposal          ledger.AppID
	Representative    ledger.Address
	RepresentativeApp ledger.AppID
	Xgovs             []ledger.Address
	Voters            []ledger.AppID
	Votes             []types.VoteRaw
	Awards            uint64
}

// Account derives the address of a named devnet account
func Account(name string) ledger.Address {
	return ledger.Address(blake2b.Sum256([]byte("devnet:" + name)))
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Xgovs <= 0 {
		c.Xgovs = DefaultXgovs
	}
	if c.VotingPeriod <= 0 {
		c.VotingPeriod = DefaultVotingPeriod
	}
	if c.Vote == (types.Vote{}) {
		c.Vote = types.Vote{ApprovalPPM: 600_000, RejectionPPM: 400_000}
	}
}

type runner struct {
	cfg    Config
	svc    *delegato.Service
	ledger *ledger.Ledger
	result *Result
}

// Run seeds the ledger of a started service
func Run(ctx context.Context, svc *delegato.Service, cfg Config) (*Result, error) {
	cfg.applyDefaults()
	if svc.Xgov() == nil {
		return nil, ErrXgovDisabled
	}
	r := &runner{
		cfg:    cfg,
		svc:    svc,
		ledger: svc.Ledger(),
		result: &Result{
			Deployer:       Account("deployer"),
			Keeper:         Account("keeper"),
			Representative: Account("representative"),
		},
	}
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"fund", r.fund},
		{"deploy", r.deploy},
		{"representative", r.representative},
		{"xgovs", r.xgovs},
		{"trigger", r.trigger},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return nil, fmt.Errorf("devnet %s: %w", step.name, err)
		}
		cfg.Logger.Debug(
			"devnet step complete",
			"component", "devnet",
			"step", step.name,
		)
	}
	cfg.Logger.Info(
		"devnet ready",
		"component", "devnet",
		"registry_app_id", r.result.Registry,
		"xgov_registry_app_id", r.result.XgovRegistry,
		"proposal_app_id", r.result.Proposal,
	)
	return r.result, nil
}

func (r *runner) fund(ctx context.Context) error {
	if err := r.ledger.Fund(ctx, r.result.Deployer, DeployerFunds); err != nil {
		return err
	}
	for _, addr := range []ledger.Address{r.result.Keeper, r.result.Representative} {
		if err := r.ledger.Fund(ctx, addr, AccountFunds); err != nil {
			return err
		}
	}
	for i := range r.cfg.Xgovs {
		addr := Account(fmt.Sprintf("xgov-%d", i))
		if err := r.ledger.Fund(ctx, addr, AccountFunds); err != nil {
			return err
		}
		r.result.Xgovs = append(r.result.Xgovs, addr)
	}
	return nil
}

func (r *runner) deploy(ctx context.Context) error {
	var err error
	r.result.XgovRegistry, err = r.svc.Xgov().Deploy(ctx, r.result.Deployer)
	if err != nil {
		return err
	}
	programs, err := deploy.BuiltinPrograms(r.cfg.Version)
	if err != nil {
		return err
	}
	res, err := deploy.Run(ctx, deploy.Config{
		Ledger:       r.ledger,
		Registry:     r.svc.Registry(),
		Logger:       r.cfg.Logger,
		Deployer:     r.result.Deployer,
		XgovRegistry: r.result.XgovRegistry,
		Programs:     programs,
		FreshDeploy:  true,
		Fees:         r.cfg.Fees,
	})
	if err != nil {
		return err
	}
	r.result.Registry = res.App
	now := uint64(r.ledger.Clock().Now().Unix()) // #nosec G115
	r.result.Proposal, err = r.svc.Xgov().CreateProposal(
		ctx,
		r.result.Deployer,
		r.result.XgovRegistry,
		xgov.ProposalState{
			Status:         xgov.StatusVoting,
			VoteOpenTs:     now,
			VotingDuration: uint64(r.cfg.VotingPeriod / time.Second), // #nosec G115
		},
	)
	return err
}

func (r *runner) representative(ctx context.Context) error {
	state, err := r.svc.Registry().State(ctx, r.result.Registry)
	if err != nil {
		return err
	}
	rep := r.result.Representative
	r.result.RepresentativeApp, err = r.svc.Registry().RegisterRepresentative(
		ctx,
		rep,
		r.result.Registry,
		ledger.PaymentTo(rep, r.result.Registry, registry.RepresentativeMBR()+state.Fees.Representative),
	)
	if err != nil {
		return err
	}
	return r.svc.Representatives().PublishVote(
		ctx,
		rep,
		r.result.RepresentativeApp,
		r.result.Proposal,
		r.cfg.Vote,
		ledger.PaymentTo(rep, r.result.RepresentativeApp, registry.VoteBoxMBR()),
	)
}

// xgovs registers every sample xGov, delegates it to the representative and
// buys a single vote
func (r *runner) xgovs(ctx context.Context) error {
	state, err := r.svc.Registry().State(ctx, r.result.Registry)
	if err != nil {
		return err
	}
	for i, addr := range r.result.Xgovs {
		if err := r.svc.Xgov().SetXgov(ctx, r.result.XgovRegistry, addr, addr); err != nil {
			return err
		}
		if err := r.svc.Xgov().SetVoterWeight(
			ctx,
			r.result.Deployer,
			r.result.Proposal,
			addr,
			uint64(i+1), // #nosec G115
		); err != nil {
			return err
		}
		available, ok, err := r.svc.Registry().AvailableVoter(ctx, r.result.Registry)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no prepared voter available")
		}
		app, err := r.svc.Registry().RegisterVoter(
			ctx,
			addr,
			r.result.Registry,
			addr,
			available,
			ledger.PaymentTo(addr, r.result.Registry, registry.VoterMBR()),
		)
		if err != nil {
			return fmt.Errorf("register voter %s: %w", addr, err)
		}
		r.result.Voters = append(r.result.Voters, app)
		if err := r.svc.Voters().SetRepresentative(ctx, addr, app, r.result.RepresentativeApp); err != nil {
			return err
		}
		if err := r.svc.Registry().AddVotes(
			ctx,
			addr,
			r.result.Registry,
			addr,
			1,
			ledger.PaymentTo(addr, r.result.Registry, state.Fees.Vote.Xgov),
		); err != nil {
			return err
		}
	}
	return nil
}

// trigger casts the representative vote of every xGov from the keeper account
func (r *runner) trigger(ctx context.Context) error {
	before, err := r.ledger.Balance(r.result.Keeper)
	if err != nil {
		return err
	}
	for _, addr := range r.result.Xgovs {
		raw, err := r.svc.Registry().TriggerVote(
			ctx,
			r.result.Keeper,
			r.result.Registry,
			addr,
			r.result.Proposal,
		)
		if err != nil {
			return fmt.Errorf("trigger vote of %s: %w", addr, err)
		}
		r.result.Votes = append(r.result.Votes, raw)
	}
	after, err := r.ledger.Balance(r.result.Keeper)
	if err != nil {
		return err
	}
	r.result.Awards = after - before
	return nil
}
