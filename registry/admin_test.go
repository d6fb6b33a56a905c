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
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/internal/test/fixture"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/types"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureRejectsInvalidFees(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	testDefs := []struct {
		name string
		fees types.Fees
		err  error
	}{
		{
			name: "xgov fee above other fee",
			fees: types.Fees{Vote: types.VoteFees{Xgov: 2_000_000, Other: 1_999_999}},
			err:  types.ErrVoteFeesInvalid,
		},
		{
			name: "other fee zero",
			fees: types.Fees{Vote: types.VoteFees{Xgov: 1, Other: 0}},
			err:  types.ErrVoteFeesInvalid,
		},
		{
			name: "award above xgov fee",
			fees: types.Fees{
				Vote:             types.VoteFees{Xgov: 1_000_000, Other: 10_000_000},
				VoteTriggerAward: 1_000_001,
			},
			err: types.ErrTriggerAwardInvalid,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := f.Registry.Configure(ctx, f.Manager, f.App, testDef.fees)
			require.ErrorIs(t, err, testDef.err)
		})
	}
	assert.Equal(t, types.DefaultFees(), f.State(t).Fees)
}

func TestConfigure(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	fees := types.Fees{
		Vote:             types.VoteFees{Xgov: 2_000_000, Other: 2_000_000},
		Representative:   0,
		VoteTriggerAward: 2_000_000,
	}
	_, configured := f.Bus.Subscribe(event.RegistryConfiguredEventType)

	stranger := f.Account(t, "stranger")
	require.ErrorIs(t, f.Registry.Configure(ctx, stranger, f.App, fees), types.ErrUnauthorized)

	f.Configure(t, fees)
	assert.Equal(t, fees, f.State(t).Fees)
	evt := testutil.RequireReceive(t, configured, time.Second, "registry configured event")
	data, ok := evt.Data.(event.RegistryConfiguredEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(f.App), data.RegistryAppId)
	assert.Equal(t, fees.VoteTriggerAward, data.VoteTriggerAward)
}

func TestConfigureKeepsTriggerFundCovered(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	f.RegisterVoter(t, delegator)
	f.AddVotes(t, delegator, 10)
	requireTriggerFundInvariant(t, f)

	// leave exactly the trigger fund above the minimum balance
	_, err := f.Registry.WithdrawBalance(ctx, f.Manager, f.App)
	require.NoError(t, err)
	requireTriggerFundInvariant(t, f)

	fees := types.DefaultFees()
	fees.VoteTriggerAward = fees.Vote.Xgov
	err = f.Registry.Configure(ctx, f.Manager, f.App, fees)
	require.ErrorIs(t, err, types.ErrTriggerFundInsufficient)
	assert.Equal(t, 10*types.DefaultVoteTriggerAward, f.State(t).TriggerFund)

	// a lower award shrinks the reserve and frees funds
	fees.VoteTriggerAward = 100_000
	f.Configure(t, fees)
	assert.Equal(t, uint64(1_000_000), f.State(t).TriggerFund)
	amount, err := f.Registry.WithdrawBalance(ctx, f.Manager, f.App)
	require.NoError(t, err)
	assert.Equal(t, 10*(types.DefaultVoteTriggerAward-100_000), amount)
	requireTriggerFundInvariant(t, f)
}

func TestWithdrawBalance(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	stranger := f.Account(t, "stranger")
	_, err := f.Registry.WithdrawBalance(ctx, stranger, f.App)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	acct, err := f.Ledger.Account(f.App.Address())
	require.NoError(t, err)
	available := acct.Balance - acct.MinBalance
	before := f.Balance(t, f.Manager)
	amount, err := f.Registry.WithdrawBalance(ctx, f.Manager, f.App)
	require.NoError(t, err)
	assert.Equal(t, available, amount)
	assert.Equal(t, before+amount, f.Balance(t, f.Manager))

	_, err = f.Registry.WithdrawBalance(ctx, f.Manager, f.App)
	require.ErrorIs(t, err, types.ErrInsufficientFunds)
}

func TestSetManager(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	next := f.Account(t, "next")
	require.ErrorIs(t, f.Registry.SetManager(ctx, next, f.App, next), types.ErrUnauthorized)
	require.NoError(t, f.Registry.SetManager(ctx, f.Manager, f.App, next))
	assert.Equal(t, next, f.State(t).Manager)
	require.ErrorIs(t, f.Registry.Pause(ctx, f.Manager, f.App), types.ErrUnauthorized)
	require.NoError(t, f.Registry.Pause(ctx, next, f.App))
}

func TestPauseResume(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	_, paused := f.Bus.Subscribe(event.RegistryPauseEventType)
	stranger := f.Account(t, "stranger")
	require.ErrorIs(t, f.Registry.Pause(ctx, stranger, f.App), types.ErrUnauthorized)

	require.NoError(t, f.Registry.Pause(ctx, f.Manager, f.App))
	assert.True(t, f.State(t).Paused)
	evt := testutil.RequireReceive(t, paused, time.Second, "registry pause event")
	assert.Equal(t, event.RegistryPauseEvent{RegistryAppId: uint64(f.App), Paused: true}, evt.Data)

	// administration keeps working while paused
	_, err := f.Registry.PrepareVoter(ctx, f.Manager, f.App,
		ledger.PaymentTo(f.Manager, f.App, registry.UnassignedVoterMBR()))
	require.NoError(t, err)

	require.ErrorIs(t, f.Registry.Resume(ctx, stranger, f.App), types.ErrUnauthorized)
	require.NoError(t, f.Registry.Resume(ctx, f.Manager, f.App))
	assert.False(t, f.State(t).Paused)
	evt = testutil.RequireReceive(t, paused, time.Second, "registry resume event")
	assert.Equal(t, event.RegistryPauseEvent{RegistryAppId: uint64(f.App), Paused: false}, evt.Data)
}

func TestIssueKeyRegistration(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	info := types.KeyRegInfo{
		VoteFirst:       1,
		VoteLast:        3_000_000,
		VoteKeyDilution: 1733,
	}
	copy(info.VoteKey[:], "vote-key")
	copy(info.SelectionKey[:], "selection-key")
	copy(info.StateProofKey[:], "state-proof-key")
	const fee = 2_000_000

	err := f.Registry.IssueKeyRegistration(ctx, f.Manager, f.App, info,
		&ledger.Payment{Sender: f.Manager, Receiver: f.Manager, Amount: fee})
	require.ErrorIs(t, err, types.ErrWrongReceiver)
	err = f.Registry.IssueKeyRegistration(ctx, f.Manager, f.App, info, nil)
	require.ErrorIs(t, err, types.ErrWrongReceiver)

	stranger := f.Account(t, "stranger")
	err = f.Registry.IssueKeyRegistration(ctx, stranger, f.App, info,
		ledger.PaymentTo(stranger, f.App, fee))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	before := f.Balance(t, f.App.Address())
	require.NoError(t, f.Registry.IssueKeyRegistration(ctx, f.Manager, f.App, info,
		ledger.PaymentTo(f.Manager, f.App, fee)))
	acct, err := f.Ledger.Account(f.App.Address())
	require.NoError(t, err)
	assert.Equal(t, before, acct.Balance)
	require.NotNil(t, acct.Participation)
	assert.Equal(t, info, *acct.Participation)

	// an empty registration takes the account offline
	require.NoError(t, f.Registry.IssueKeyRegistration(ctx, f.Manager, f.App, types.KeyRegInfo{},
		ledger.PaymentTo(f.Manager, f.App, 1_000)))
	acct, err = f.Ledger.Account(f.App.Address())
	require.NoError(t, err)
	assert.Nil(t, acct.Participation)
}

func TestContractCodeStaging(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	stranger := f.Account(t, "stranger")
	err := f.Registry.InitContractCode(ctx, stranger, f.App, types.ContractVoter, 16, nil)
	require.ErrorIs(t, err, types.ErrUnauthorized)
	err = f.Registry.InitContractCode(ctx, f.Manager, f.App, types.ContractName("registry"), 16, nil)
	require.ErrorIs(t, err, types.ErrInvalidContractName)
	err = f.Registry.LoadContractCode(ctx, stranger, f.App, types.ContractVoter, 0, []byte{1})
	require.ErrorIs(t, err, types.ErrUnauthorized)
}

func stageCode(t *testing.T, f *fixture.Fixture, name types.ContractName, program []byte) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.Registry.InitContractCode(
		ctx, f.Manager, f.App, name, uint64(len(program)), nil))
	require.NoError(t, f.Registry.LoadContractCode(ctx, f.Manager, f.App, name, 0, program))
}

func TestUpdateChildren(t *testing.T) {
	f := fixture.New(t)
	ctx := context.Background()
	delegator := f.Xgov(t, "xgov")
	voterApp := f.RegisterVoter(t, delegator)
	rep, repApp := f.RegisterRepresentative(t, "rep")

	programs, err := deploy.BuiltinPrograms("v2")
	require.NoError(t, err)
	stageCode(t, f, types.ContractVoter, programs.Voter)
	stageCode(t, f, types.ContractRepresentative, programs.Representative)

	stranger := f.Account(t, "stranger")
	require.ErrorIs(t, f.Registry.UpdateVoter(ctx, stranger, f.App, delegator), types.ErrUnauthorized)
	require.ErrorIs(t, f.Registry.UpdateVoter(ctx, f.Manager, f.App, stranger), types.ErrNotVoter)
	require.ErrorIs(
		t,
		f.Registry.UpdateRepresentative(ctx, f.Manager, f.App, stranger),
		types.ErrNotRepresentative,
	)

	require.NoError(t, f.Registry.UpdateVoter(ctx, f.Manager, f.App, delegator))
	require.NoError(t, f.Registry.UpdateRepresentative(ctx, f.Manager, f.App, rep))
	for _, id := range []ledger.AppID{voterApp, repApp} {
		app, err := f.Ledger.AppInfo(id)
		require.NoError(t, err)
		assert.Equal(t, "v2", app.Version)
	}

	// the staged code also backs new children
	newApp := f.AvailableVoter(t)
	app, err := f.Ledger.AppInfo(newApp)
	require.NoError(t, err)
	assert.Equal(t, "test", app.Version)
	prepared, err := f.Registry.PrepareVoter(ctx, f.Manager, f.App,
		ledger.PaymentTo(f.Manager, f.App, registry.UnassignedVoterMBR()))
	require.NoError(t, err)
	app, err = f.Ledger.AppInfo(prepared)
	require.NoError(t, err)
	assert.Equal(t, "v2", app.Version)
	status, err := f.Registry.Status(ctx, f.App)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Unassigned)
}

func TestMetrics(t *testing.T) {
	f := fixture.New(t)
	delegator := f.Xgov(t, "xgov")
	f.RegisterVoter(t, delegator)
	f.RegisterRepresentative(t, "rep")
	f.AddVotes(t, delegator, 3)

	expected := `
# HELP delegato_registry_paused 1 if the registry is paused
# TYPE delegato_registry_paused gauge
delegato_registry_paused{registry_app_id="%[1]d"} 0
# HELP delegato_registry_representatives registered representatives
# TYPE delegato_registry_representatives gauge
delegato_registry_representatives{registry_app_id="%[1]d"} 1
# HELP delegato_registry_trigger_fund_microalgos balance reserved for trigger awards
# TYPE delegato_registry_trigger_fund_microalgos gauge
delegato_registry_trigger_fund_microalgos{registry_app_id="%[1]d"} 1.5e+06
# HELP delegato_registry_voters registered voters
# TYPE delegato_registry_voters gauge
delegato_registry_voters{registry_app_id="%[1]d"} 1
# HELP delegato_registry_votes_left paid votes not yet cast
# TYPE delegato_registry_votes_left gauge
delegato_registry_votes_left{registry_app_id="%[1]d"} 3
`
	err := promtestutil.GatherAndCompare(
		f.Env.Registry,
		strings.NewReader(fmt.Sprintf(expected, f.App)),
		"delegato_registry_paused",
		"delegato_registry_representatives",
		"delegato_registry_trigger_fund_microalgos",
		"delegato_registry_voters",
		"delegato_registry_votes_left",
	)
	require.NoError(t, err)
}
