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

package registry_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/delegato/database/models"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/internal/test/fixture"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/xgov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// delegation is an xGov following a representative that voted on a proposal
type delegation struct {
	delegator ledger.Address
	voterApp  ledger.AppID
	rep       ledger.Address
	repApp    ledger.AppID
	proposal  ledger.AppID
}

func newDelegation(t *testing.T, f *fixture.Fixture, closesIn time.Duration, vote types.Vote) delegation {
	t.Helper()
	d := delegation{}
	d.delegator = f.Xgov(t, "xgov")
	d.voterApp = f.RegisterVoter(t, d.delegator)
	d.rep, d.repApp = f.RegisterRepresentative(t, "rep")
	require.NoError(t, f.Voters.SetRepresentative(context.Background(), d.delegator, d.voterApp, d.repApp))
	d.proposal = f.Proposal(t, xgov.StatusVoting, closesIn)
	f.PublishVote(t, d.rep, d.repApp, d.proposal, vote)
	f.SetWeight(t, d.proposal, d.delegator, 1)
	return d
}

func requireTriggerFundInvariant(t *testing.T, f *fixture.Fixture) {
	t.Helper()
	state := f.State(t)
	assert.Equal(t, state.Fees.VoteTriggerAward*state.VotesLeft, state.TriggerFund)
	acct, err := f.Ledger.Account(f.App.Address())
	require.NoError(t, err)
	assert.LessOrEqual(t, state.TriggerFund, acct.Balance-acct.MinBalance)
}

func TestDeployedRegistry(t *testing.T) {
	f := fixture.New(t)
	state := f.State(t)
	assert.Equal(t, f.Manager, state.Manager)
	assert.Equal(t, f.XgovRegistry, state.XgovRegistry)
	assert.Equal(t, types.DefaultFees(), state.Fees)
	assert.False(t, state.Paused)
	assert.Zero(t, state.VotesLeft)
	assert.Zero(t, state.TriggerFund)
}

func TestMinBalanceHelpers(t *testing.T) {
	assert.Equal(t, uint64(2_912_000), registry.ChildAppMBR())
	assert.Equal(t, uint64(3_012_000), registry.UnassignedVoterMBR())
	assert.Equal(t, uint64(3_030_900), registry.VoterMBR())
	assert.Equal(t, uint64(3_030_900), registry.RepresentativeMBR())
	assert.Equal(t, uint64(12_900), registry.VoteBoxMBR())
}

// An xGov voting for itself buys one vote which a representative vote then
// consumes, paying the award to the caller
func TestTriggerVoteScenario(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	f.Configure(t, types.Fees{
		Vote: types.VoteFees{
			Xgov:  1_000_000,
			Other: 10_000_000,
		},
		Representative:   types.DefaultRepresentativeFee,
		VoteTriggerAward: 500_000,
	})
	d := newDelegation(t, f, 24*time.Hour, types.Vote{ApprovalPPM: types.PPM})

	f.AddVotes(t, d.delegator, 1)
	state := f.State(t)
	assert.Equal(t, uint64(1), state.VotesLeft)
	assert.Equal(t, uint64(500_000), state.TriggerFund)
	requireTriggerFundInvariant(t, f)

	_, triggered := f.Bus.Subscribe(event.VoteTriggeredEventType)
	before := f.Balance(t, d.delegator)
	raw, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
	require.NoError(t, err)
	assert.Equal(t, types.VoteRaw{Approvals: 1, Rejections: 0}, raw)
	assert.Equal(t, before+500_000, f.Balance(t, d.delegator))

	state = f.State(t)
	assert.Zero(t, state.VotesLeft)
	assert.Zero(t, state.TriggerFund)
	voterState, err := f.Voters.State(ctx, d.voterApp)
	require.NoError(t, err)
	assert.Zero(t, voterState.VotesLeft)

	tally, exists, err := f.Mock.Tally(ctx, d.proposal, d.delegator)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, raw, tally)

	casts, err := f.Ledger.VoteCasts(d.proposal)
	require.NoError(t, err)
	require.Len(t, casts, 1)
	assert.Equal(t, models.VoteSourceRepresentative, casts[0].Source)
	assert.Equal(t, uint64(d.repApp), casts[0].RepresentativeID)

	evt := testutil.RequireReceive(t, triggered, time.Second, "vote triggered event")
	data, ok := evt.Data.(event.VoteTriggeredEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(500_000), data.Award)
	assert.Equal(t, uint64(d.proposal), data.ProposalAppId)
}

func TestTriggerVoteByKeeper(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	d := newDelegation(t, f, time.Hour, types.Vote{ApprovalPPM: 250_000, RejectionPPM: 750_000})
	f.SetWeight(t, d.proposal, d.delegator, 8)
	f.AddVotes(t, d.delegator, 2)

	keeper := f.Account(t, "keeper")
	before := f.Balance(t, keeper)
	raw, err := f.Registry.TriggerVote(ctx, keeper, f.App, d.delegator, d.proposal)
	require.NoError(t, err)
	assert.Equal(t, types.VoteRaw{Approvals: 2, Rejections: 6}, raw)
	assert.Equal(t, before+types.DefaultVoteTriggerAward, f.Balance(t, keeper))
	assert.Equal(t, uint64(1), f.State(t).VotesLeft)
	requireTriggerFundInvariant(t, f)
}

func TestTriggerVoteWithoutVotes(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	d := newDelegation(t, f, time.Hour, types.Vote{ApprovalPPM: types.PPM})

	delegatorBefore := f.Balance(t, d.delegator)
	registryBefore := f.Balance(t, f.App.Address())
	voterBefore := f.Balance(t, d.voterApp.Address())
	_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
	require.ErrorIs(t, err, types.ErrNoVotesLeft)
	assert.Equal(t, delegatorBefore, f.Balance(t, d.delegator))
	assert.Equal(t, registryBefore, f.Balance(t, f.App.Address()))
	assert.Equal(t, voterBefore, f.Balance(t, d.voterApp.Address()))
	_, exists, err := f.Mock.Tally(ctx, d.proposal, d.delegator)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTriggerVoteWindow(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	// voting closes in three days and the default window covers the last two
	d := newDelegation(t, f, 3*24*time.Hour, types.Vote{ApprovalPPM: types.PPM})
	f.AddVotes(t, d.delegator, 1)

	_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
	require.ErrorIs(t, err, types.ErrTooSoonToVote)

	f.Clock.Advance(24 * time.Hour)
	_, err = f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
	require.ErrorIs(t, err, types.ErrTooSoonToVote)

	f.Clock.Advance(time.Second)
	raw, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), raw.Approvals)
}

func TestTriggerVoteFailures(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	d := newDelegation(t, f, time.Hour, types.Vote{ApprovalPPM: types.PPM})
	f.AddVotes(t, d.delegator, 5)

	t.Run("not a voter", func(t *testing.T) {
		stranger := f.Account(t, "stranger")
		_, err := f.Registry.TriggerVote(ctx, stranger, f.App, stranger, d.proposal)
		require.ErrorIs(t, err, types.ErrNotVoter)
	})

	t.Run("representative paused", func(t *testing.T) {
		require.NoError(t, f.Reps.Pause(ctx, d.rep, d.repApp))
		defer func() {
			require.NoError(t, f.Reps.Resume(ctx, d.rep, d.repApp))
		}()
		_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
		require.ErrorIs(t, err, types.ErrVoteInvalid)
	})

	t.Run("representative did not vote", func(t *testing.T) {
		other := f.Proposal(t, xgov.StatusVoting, time.Hour)
		f.SetWeight(t, other, d.delegator, 1)
		_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, other)
		require.ErrorIs(t, err, types.ErrVoteInvalid)
	})

	t.Run("no voting weight", func(t *testing.T) {
		other := f.Proposal(t, xgov.StatusVoting, time.Hour)
		f.PublishVote(t, d.rep, d.repApp, other, types.Vote{ApprovalPPM: types.PPM})
		_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, other)
		require.ErrorIs(t, err, types.ErrNoVotes)
	})

	t.Run("no representative", func(t *testing.T) {
		require.NoError(t, f.Voters.SetRepresentative(ctx, d.delegator, d.voterApp, 0))
		defer func() {
			require.NoError(t, f.Voters.SetRepresentative(ctx, d.delegator, d.voterApp, d.repApp))
		}()
		_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
		require.ErrorIs(t, err, types.ErrRepresentativeNonexistent)
	})

	t.Run("registry paused", func(t *testing.T) {
		require.NoError(t, f.Registry.Pause(ctx, f.Manager, f.App))
		defer func() {
			require.NoError(t, f.Registry.Resume(ctx, f.Manager, f.App))
		}()
		_, err := f.Registry.TriggerVote(ctx, d.delegator, f.App, d.delegator, d.proposal)
		require.ErrorIs(t, err, types.ErrPaused)
	})

	// failures leave the paid votes untouched
	assert.Equal(t, uint64(5), f.State(t).VotesLeft)
	requireTriggerFundInvariant(t, f)
}

func TestConcurrentRegisterSameVoter(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	first := f.Xgov(t, "first")
	second := f.Xgov(t, "second")
	available := f.AvailableVoter(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, delegator := range []ledger.Address{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.Registry.RegisterVoter(
				ctx,
				delegator,
				f.App,
				delegator,
				available,
				ledger.PaymentTo(delegator, f.App, registry.VoterMBR()),
			)
		}()
	}
	wg.Wait()

	var succeeded, assigned int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, types.ErrVoterAssigned)
		assigned++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, assigned)

	voters, err := f.Registry.Voters(ctx, f.App)
	require.NoError(t, err)
	assert.Len(t, voters, 1)
}

func TestRegisterVoter(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	registryMBRBefore := registryMinBalance(t, f)

	before := f.Balance(t, delegator)
	app := f.RegisterVoter(t, delegator)
	assert.Equal(t, before-registry.VoterMBR(), f.Balance(t, delegator))

	ref, exists, err := f.Registry.GetVoterRef(ctx, f.App, delegator)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, app, ref)

	// a replacement voter is prepared in the same call
	replacement := f.AvailableVoter(t)
	assert.NotEqual(t, app, replacement)
	status, err := f.Registry.Status(ctx, f.App)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Voters)
	assert.Equal(t, 1, status.Unassigned)
	assert.Equal(t, registryMBRBefore+registry.VoterMBR()-ledger.AccountMinBalance, registryMinBalance(t, f))

	_, err = f.Registry.RegisterVoter(ctx, delegator, f.App, delegator, replacement,
		ledger.PaymentTo(delegator, f.App, registry.VoterMBR()))
	require.ErrorIs(t, err, types.ErrAlreadyVoter)
}

func registryMinBalance(t *testing.T, f *fixture.Fixture) uint64 {
	t.Helper()
	acct, err := f.Ledger.Account(f.App.Address())
	require.NoError(t, err)
	return acct.MinBalance
}

func TestRegisterVoterFailures(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	available := f.AvailableVoter(t)
	payment := ledger.PaymentTo(delegator, f.App, registry.VoterMBR())

	t.Run("not an xGov", func(t *testing.T) {
		stranger := f.Account(t, "stranger")
		_, err := f.Registry.RegisterVoter(ctx, stranger, f.App, stranger, available,
			ledger.PaymentTo(stranger, f.App, registry.VoterMBR()))
		require.ErrorIs(t, err, types.ErrNotXgov)
	})

	t.Run("unauthorized sender", func(t *testing.T) {
		stranger := f.Account(t, "stranger")
		_, err := f.Registry.RegisterVoter(ctx, stranger, f.App, delegator, available,
			ledger.PaymentTo(stranger, f.App, registry.VoterMBR()))
		require.ErrorIs(t, err, types.ErrUnauthorized)
	})

	t.Run("wrong payment", func(t *testing.T) {
		_, err := f.Registry.RegisterVoter(ctx, delegator, f.App, delegator, available,
			ledger.PaymentTo(delegator, f.App, registry.VoterMBR()-1))
		var payErr types.PaymentError
		require.ErrorAs(t, err, &payErr)
		assert.ErrorIs(t, err, types.ErrWrongPaymentAmount)
		assert.Equal(t, registry.VoterMBR(), payErr.Expected)
	})

	t.Run("unrelated app", func(t *testing.T) {
		_, err := f.Registry.RegisterVoter(ctx, delegator, f.App, delegator, f.XgovRegistry, payment)
		require.ErrorIs(t, err, types.ErrUnrelatedApp)
	})

	t.Run("paused", func(t *testing.T) {
		require.NoError(t, f.Registry.Pause(ctx, f.Manager, f.App))
		defer func() {
			require.NoError(t, f.Registry.Resume(ctx, f.Manager, f.App))
		}()
		_, err := f.Registry.RegisterVoter(ctx, delegator, f.App, delegator, available, payment)
		require.ErrorIs(t, err, types.ErrPaused)
	})

	// none of the failures consumed the prepared voter
	assert.Equal(t, available, f.AvailableVoter(t))
	_, exists, err := f.Registry.GetVoterRef(ctx, f.App, delegator)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegisterVoterByVotingAddress(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Account(t, "xgov")
	proxy := f.Account(t, "proxy")
	require.NoError(t, f.Mock.SetXgov(ctx, f.XgovRegistry, delegator, proxy))

	app, err := f.Registry.RegisterVoter(ctx, proxy, f.App, delegator, f.AvailableVoter(t),
		ledger.PaymentTo(proxy, f.App, registry.VoterMBR()))
	require.NoError(t, err)
	state, err := f.Voters.State(ctx, app)
	require.NoError(t, err)
	require.NotNil(t, state.Delegator)
	assert.Equal(t, delegator, *state.Delegator)
	assert.Equal(t, proxy, state.Manager)
}

func TestAddVotes(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Account(t, "xgov")
	proxy := f.Account(t, "proxy")
	require.NoError(t, f.Mock.SetXgov(ctx, f.XgovRegistry, delegator, proxy))
	app := f.RegisterVoter(t, delegator)
	fees := types.DefaultFees()

	f.AddVotes(t, delegator, 3)

	// anyone but the xGov pays the higher price
	err := f.Registry.AddVotes(ctx, proxy, f.App, delegator, 2,
		ledger.PaymentTo(proxy, f.App, fees.Vote.Xgov*2))
	var payErr types.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, fees.Vote.Other*2, payErr.Expected)
	require.NoError(t, f.Registry.AddVotes(ctx, proxy, f.App, delegator, 2,
		ledger.PaymentTo(proxy, f.App, fees.Vote.Other*2)))

	stranger := f.Account(t, "stranger")
	err = f.Registry.AddVotes(ctx, stranger, f.App, delegator, 1,
		ledger.PaymentTo(stranger, f.App, fees.Vote.Other))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	err = f.Registry.AddVotes(ctx, stranger, f.App, stranger, 1,
		ledger.PaymentTo(stranger, f.App, fees.Vote.Xgov))
	require.ErrorIs(t, err, types.ErrNotVoter)

	state := f.State(t)
	assert.Equal(t, uint64(5), state.VotesLeft)
	assert.Equal(t, 5*fees.VoteTriggerAward, state.TriggerFund)
	voterState, err := f.Voters.State(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), voterState.VotesLeft)
	requireTriggerFundInvariant(t, f)
}

func TestAddVotesOverflow(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	f.Configure(t, types.Fees{})
	delegator := f.Xgov(t, "xgov")
	app := f.RegisterVoter(t, delegator)

	require.NoError(t, f.Registry.AddVotes(ctx, delegator, f.App, delegator, math.MaxUint64,
		ledger.PaymentTo(delegator, f.App, 0)))
	err := f.Registry.AddVotes(ctx, delegator, f.App, delegator, 2,
		ledger.PaymentTo(delegator, f.App, 0))
	require.ErrorIs(t, err, types.ErrVoteCountOutOfRange)
	assert.Equal(t, types.CategoryConsistency, types.CategoryOf(err))

	state := f.State(t)
	assert.Equal(t, uint64(math.MaxUint64), state.VotesLeft)
	voterState, err := f.Voters.State(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), voterState.VotesLeft)
}

func TestAddVotesByManager(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Account(t, "xgov")
	proxy := f.Account(t, "proxy")
	require.NoError(t, f.Mock.SetXgov(ctx, f.XgovRegistry, delegator, proxy))
	_, err := f.Registry.RegisterVoter(ctx, proxy, f.App, delegator, f.AvailableVoter(t),
		ledger.PaymentTo(proxy, f.App, registry.VoterMBR()))
	require.NoError(t, err)

	// the manager keeps its rights after the xGov moves its voting address
	other := f.Account(t, "other")
	require.NoError(t, f.Mock.SetXgov(ctx, f.XgovRegistry, delegator, other))
	fee := types.DefaultVoteFeeOther
	require.NoError(t, f.Registry.AddVotes(ctx, proxy, f.App, delegator, 1,
		ledger.PaymentTo(proxy, f.App, fee)))
	require.NoError(t, f.Registry.AddVotes(ctx, other, f.App, delegator, 1,
		ledger.PaymentTo(other, f.App, fee)))
	assert.Equal(t, uint64(2), f.State(t).VotesLeft)
}

func TestUnregisterVoter(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	app := f.RegisterVoter(t, delegator)
	f.AddVotes(t, delegator, 4)
	_, unregistered := f.Bus.Subscribe(event.VoterUnregisteredEventType)

	stranger := f.Account(t, "stranger")
	err := f.Registry.UnregisterVoter(ctx, stranger, f.App, delegator)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	before := f.Balance(t, delegator)
	require.NoError(t, f.Registry.UnregisterVoter(ctx, delegator, f.App, delegator))
	refund := registry.VoterMBR() - ledger.AccountMinBalance
	assert.Equal(t, before+refund, f.Balance(t, delegator))

	state := f.State(t)
	assert.Zero(t, state.VotesLeft)
	assert.Zero(t, state.TriggerFund)
	_, exists, err := f.Registry.GetVoterRef(ctx, f.App, delegator)
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = f.Ledger.AppInfo(app)
	require.ErrorIs(t, err, ledger.ErrAppNotFound)

	evt := testutil.RequireReceive(t, unregistered, time.Second, "voter unregistered event")
	data, ok := evt.Data.(event.VoterUnregisteredEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(4), data.VotesReleased)
	assert.Equal(t, refund, data.Refund)

	err = f.Registry.UnregisterVoter(ctx, delegator, f.App, delegator)
	require.ErrorIs(t, err, types.ErrNotVoter)
}

func TestUnregisterVoterInconsistentVotes(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	app := f.RegisterVoter(t, delegator)
	f.AddVotes(t, delegator, 3)

	// Drop the aggregate below what the voter holds
	err := f.Ledger.Call(
		ctx,
		ledger.Call{Sender: f.Manager, App: f.App, Kind: registry.Kind, Method: "rewrite_state"},
		func(x *ledger.Exec) error {
			state, err := registry.ReadState(x, x.App())
			if err != nil {
				return err
			}
			state.VotesLeft = 1
			return x.StoreGlobal(&state)
		},
	)
	require.NoError(t, err)

	err = f.Registry.UnregisterVoter(ctx, delegator, f.App, delegator)
	require.ErrorIs(t, err, types.ErrVoteCountOutOfRange)
	ref, exists, err := f.Registry.GetVoterRef(ctx, f.App, delegator)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, app, ref)
	assert.Equal(t, uint64(1), f.State(t).VotesLeft)
}

func TestUnregisterVoterReturnsVotingRights(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Account(t, "xgov")
	proxy := f.Account(t, "proxy")
	require.NoError(t, f.Mock.SetXgov(ctx, f.XgovRegistry, delegator, proxy))
	app, err := f.Registry.RegisterVoter(ctx, proxy, f.App, delegator, f.AvailableVoter(t),
		ledger.PaymentTo(proxy, f.App, registry.VoterMBR()))
	require.NoError(t, err)
	require.NoError(t, f.Voters.YieldVotingRights(ctx, delegator, app, app.Address()))

	require.NoError(t, f.Registry.UnregisterVoter(ctx, proxy, f.App, delegator))
	box, exists, err := f.Mock.GetXgov(ctx, f.XgovRegistry, delegator)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, proxy, box.VotingAddress)
}

func TestUnregisterVoterAfterXgovLeaves(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	f.RegisterVoter(t, delegator)
	require.NoError(t, f.Mock.DeleteXgov(ctx, f.XgovRegistry, delegator))

	keeper := f.Account(t, "keeper")
	keeperBefore := f.Balance(t, keeper)
	delegatorBefore := f.Balance(t, delegator)
	require.NoError(t, f.Registry.UnregisterVoter(ctx, keeper, f.App, delegator))
	assert.Equal(t, keeperBefore, f.Balance(t, keeper))
	assert.Equal(t, delegatorBefore+registry.VoterMBR()-ledger.AccountMinBalance, f.Balance(t, delegator))
}

func TestVoterRegistrationIsRepeatable(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	first := f.RegisterVoter(t, delegator)
	require.NoError(t, f.Registry.UnregisterVoter(ctx, delegator, f.App, delegator))
	second := f.RegisterVoter(t, delegator)
	assert.NotEqual(t, first, second)

	voters, err := f.Registry.Voters(ctx, f.App)
	require.NoError(t, err)
	assert.Equal(t, map[ledger.Address]ledger.AppID{delegator: second}, voters)
}
