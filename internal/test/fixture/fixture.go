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

// Package fixture bootstraps a delegation registry against the mock xGov
// contracts for tests.
package fixture

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/internal/xgovmock"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/representative"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/voter"
	"github.com/blinklabs-io/delegato/xgov"
	"github.com/stretchr/testify/require"
)

// InitialFunds is credited to every account created by the fixture
const InitialFunds uint64 = 1_000_000_000

type Fixture struct {
	*testutil.Env
	Mock         *xgovmock.Mock
	Registry     *registry.Client
	Voters       *voter.Client
	Reps         *representative.Client
	Manager      ledger.Address
	App          ledger.AppID
	XgovRegistry ledger.AppID
}

// New deploys a registry bound to a mock xGov registry and leaves it resumed
// with one prepared voter
func New(t *testing.T) *Fixture {
	t.Helper()
	ctx := context.Background()
	env := testutil.NewLedger(t)
	f := &Fixture{
		Env:  env,
		Mock: xgovmock.New(env.Ledger),
		Registry: registry.NewClient(registry.ClientConfig{
			Ledger:       env.Ledger,
			PromRegistry: env.Registry,
		}),
		Voters: voter.NewClient(env.Ledger),
		Reps:   representative.NewClient(env.Ledger),
	}
	f.Manager = env.FundedAccount(t, "manager", InitialFunds)
	var err error
	f.XgovRegistry, err = f.Mock.Deploy(ctx, f.Manager)
	require.NoError(t, err)
	programs, err := deploy.BuiltinPrograms("test")
	require.NoError(t, err)
	res, err := deploy.Run(ctx, deploy.Config{
		Ledger:       env.Ledger,
		Registry:     f.Registry,
		Deployer:     f.Manager,
		XgovRegistry: f.XgovRegistry,
		Programs:     programs,
		FreshDeploy:  true,
	})
	require.NoError(t, err)
	f.App = res.App
	return f
}

// Account returns a funded account
func (f *Fixture) Account(t *testing.T, name string) ledger.Address {
	t.Helper()
	return f.FundedAccount(t, name, InitialFunds)
}

// Xgov returns a funded account registered as an xGov voting for itself
func (f *Fixture) Xgov(t *testing.T, name string) ledger.Address {
	t.Helper()
	addr := f.Account(t, name)
	require.NoError(t, f.Mock.SetXgov(context.Background(), f.XgovRegistry, addr, addr))
	return addr
}

func (f *Fixture) Configure(t *testing.T, fees types.Fees) {
	t.Helper()
	require.NoError(t, f.Registry.Configure(context.Background(), f.Manager, f.App, fees))
}

func (f *Fixture) State(t *testing.T) registry.State {
	t.Helper()
	state, err := f.Registry.State(context.Background(), f.App)
	require.NoError(t, err)
	return state
}

// AvailableVoter returns the prepared voter a registration should claim
func (f *Fixture) AvailableVoter(t *testing.T) ledger.AppID {
	t.Helper()
	id, ok, err := f.Registry.AvailableVoter(context.Background(), f.App)
	require.NoError(t, err)
	require.True(t, ok, "no prepared voter available")
	return id
}

// RegisterVoter registers the voter of an xGov, sent by the xGov itself
func (f *Fixture) RegisterVoter(t *testing.T, delegator ledger.Address) ledger.AppID {
	t.Helper()
	id, err := f.Registry.RegisterVoter(
		context.Background(),
		delegator,
		f.App,
		delegator,
		f.AvailableVoter(t),
		ledger.PaymentTo(delegator, f.App, registry.VoterMBR()),
	)
	require.NoError(t, err)
	return id
}

// AddVotes buys votes for an xGov at the xGov price
func (f *Fixture) AddVotes(t *testing.T, delegator ledger.Address, count uint64) {
	t.Helper()
	state := f.State(t)
	require.NoError(t, f.Registry.AddVotes(
		context.Background(),
		delegator,
		f.App,
		delegator,
		count,
		ledger.PaymentTo(delegator, f.App, state.Fees.Vote.Xgov*count),
	))
}

// RegisterRepresentative registers a new funded account as a representative
func (f *Fixture) RegisterRepresentative(t *testing.T, name string) (ledger.Address, ledger.AppID) {
	t.Helper()
	rep := f.Account(t, name)
	state := f.State(t)
	id, err := f.Registry.RegisterRepresentative(
		context.Background(),
		rep,
		f.App,
		ledger.PaymentTo(rep, f.App, registry.RepresentativeMBR()+state.Fees.Representative),
	)
	require.NoError(t, err)
	return rep, id
}

// PublishVote publishes a representative vote paying for the vote box
func (f *Fixture) PublishVote(
	t *testing.T,
	rep ledger.Address,
	repApp ledger.AppID,
	proposal ledger.AppID,
	vote types.Vote,
) {
	t.Helper()
	require.NoError(t, f.Reps.PublishVote(
		context.Background(),
		rep,
		repApp,
		proposal,
		vote,
		ledger.PaymentTo(rep, repApp, registry.VoteBoxMBR()),
	))
}

// Proposal creates a proposal of the mock xGov registry with the given status
// whose voting period opened now and closes after closesIn
func (f *Fixture) Proposal(
	t *testing.T,
	status xgov.ProposalStatus,
	closesIn time.Duration,
) ledger.AppID {
	t.Helper()
	id, err := f.Mock.CreateProposal(
		context.Background(),
		f.Manager,
		f.XgovRegistry,
		xgov.ProposalState{
			Status:         status,
			VoteOpenTs:     f.Now(),
			VotingDuration: uint64(closesIn / time.Second), // #nosec G115
		},
	)
	require.NoError(t, err)
	return id
}

// SetWeight sets the voting weight of an xGov on a proposal
func (f *Fixture) SetWeight(t *testing.T, proposal ledger.AppID, addr ledger.Address, weight uint64) {
	t.Helper()
	require.NoError(t, f.Mock.SetVoterWeight(context.Background(), f.Manager, proposal, addr, weight))
}

// Now returns the current ledger time in seconds
func (f *Fixture) Now() uint64 {
	return uint64(f.Clock.Now().Unix()) // #nosec G115
}
