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

package deploy_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/internal/xgovmock"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/voter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env      *testutil.Env
	client   *registry.Client
	deployer ledger.Address
	xgov     ledger.AppID
	programs deploy.Programs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewLedger(t)
	deployer := env.FundedAccount(t, "deployer", 1_000_000_000)
	mock := xgovmock.New(env.Ledger)
	xgovApp, err := mock.Deploy(context.Background(), deployer)
	require.NoError(t, err)
	programs, err := deploy.BuiltinPrograms("test")
	require.NoError(t, err)
	// Large enough to need several upload calls
	programs.Voter = testutil.Program(t, voter.Kind, 5000)
	return &fixture{
		env:      env,
		client:   registry.NewClient(registry.ClientConfig{Ledger: env.Ledger}),
		deployer: deployer,
		xgov:     xgovApp,
		programs: programs,
	}
}

func (f *fixture) config() deploy.Config {
	return deploy.Config{
		Ledger:       f.env.Ledger,
		Registry:     f.client,
		Deployer:     f.deployer,
		XgovRegistry: f.xgov,
		Programs:     f.programs,
	}
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 2028, deploy.ChunkSize)
}

func TestRunFreshDeploy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.config()
	cfg.FreshDeploy = true

	res, err := deploy.Run(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotZero(t, res.App)
	require.NotZero(t, res.Voter)

	status, err := f.client.Status(ctx, res.App)
	require.NoError(t, err)
	assert.False(t, status.State.Paused)
	assert.Equal(t, f.deployer, status.State.Manager)
	assert.Equal(t, f.xgov, status.State.XgovRegistry)
	assert.Equal(t, types.DefaultFees(), status.State.Fees)
	assert.Equal(t, 1, status.Unassigned)
	assert.Equal(t, 0, status.Voters)

	// The prepared voter runs the uploaded program
	app, err := f.env.Ledger.AppInfo(res.Voter)
	require.NoError(t, err)
	assert.Equal(t, voter.Kind, app.Kind)
	assert.Equal(t, uint64(len(f.programs.Voter)), app.ProgramLen)
	regApp, err := f.env.Ledger.AppInfo(res.App)
	require.NoError(t, err)
	assert.Len(t, regApp.Template[registry.EntropyTemplate], 16)

	available, ok, err := f.client.AvailableVoter(ctx, res.App)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Voter, available)
}

func TestRunFreshDeployAlwaysCreates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cfg := f.config()
	cfg.FreshDeploy = true

	first, err := deploy.Run(ctx, cfg)
	require.NoError(t, err)
	second, err := deploy.Run(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.NotEqual(t, first.App, second.App)
}

func TestRunUpdatesExistingRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := deploy.Run(ctx, f.config())
	require.NoError(t, err)
	assert.True(t, first.Created)

	programs, err := deploy.BuiltinPrograms("next")
	require.NoError(t, err)
	cfg := f.config()
	cfg.Programs.Registry = programs.Registry
	second, err := deploy.Run(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.App, second.App)

	app, err := f.env.Ledger.AppInfo(first.App)
	require.NoError(t, err)
	assert.Equal(t, "next", app.Version)

	status, err := f.client.Status(ctx, first.App)
	require.NoError(t, err)
	assert.Equal(t, 2, status.Unassigned)
}

func TestRunConfiguresFees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	fees := types.Fees{
		Vote: types.VoteFees{
			Xgov:  2_000,
			Other: 3_000,
		},
		Representative:   5_000_000,
		VoteTriggerAward: 1_000,
	}
	cfg := f.config()
	cfg.Fees = &fees

	res, err := deploy.Run(ctx, cfg)
	require.NoError(t, err)
	state, err := f.client.State(ctx, res.App)
	require.NoError(t, err)
	assert.Equal(t, fees, state.Fees)
}

func TestRunFundsRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := deploy.Run(ctx, f.config())
	require.NoError(t, err)
	acct, err := f.env.Ledger.Account(res.App.Address())
	require.NoError(t, err)
	assert.Greater(t, acct.Balance, acct.MinBalance)
}

func TestRunRequiresDeployer(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.Deployer = ledger.Address{}

	_, err := deploy.Run(context.Background(), cfg)
	require.ErrorIs(t, err, deploy.ErrNoDeployer)
}

func TestRunFailsWithoutFunds(t *testing.T) {
	f := newFixture(t)
	cfg := f.config()
	cfg.Deployer = testutil.Account("pauper")

	_, err := deploy.Run(context.Background(), cfg)
	require.Error(t, err)
}
