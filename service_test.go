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

package delegato_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/delegato"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startService(t *testing.T, opts ...delegato.ConfigOptionFunc) *delegato.Service {
	t.Helper()
	opts = append(
		[]delegato.ConfigOptionFunc{
			delegato.WithClock(ledger.NewManualClock(testutil.GenesisTime)),
		},
		opts...,
	)
	svc, err := delegato.New(delegato.NewConfig(opts...))
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	return svc
}

func deployRegistry(t *testing.T, svc *delegato.Service) (ledger.Address, ledger.AppID) {
	t.Helper()
	ctx := context.Background()
	manager := testutil.Account("manager")
	require.NoError(t, svc.Ledger().Fund(ctx, manager, 1_000_000_000))
	xgovRegistry, err := svc.Xgov().Deploy(ctx, manager)
	require.NoError(t, err)
	programs, err := deploy.BuiltinPrograms("test")
	require.NoError(t, err)
	res, err := deploy.Run(ctx, deploy.Config{
		Ledger:       svc.Ledger(),
		Registry:     svc.Registry(),
		Deployer:     manager,
		XgovRegistry: xgovRegistry,
		Programs:     programs,
		FreshDeploy:  true,
	})
	require.NoError(t, err)
	return manager, res.App
}

func TestServiceLifecycle(t *testing.T) {
	svc := startService(t, delegato.WithPromRegistry(prometheus.NewRegistry()))
	require.ErrorIs(t, svc.Start(), delegato.ErrAlreadyStarted)
	_, registered := svc.EventBus().Subscribe(event.VoterRegisteredEventType)

	manager, app := deployRegistry(t, svc)
	ctx := context.Background()
	delegator := testutil.Account("xgov")
	require.NoError(t, svc.Ledger().Fund(ctx, delegator, 100_000_000))
	state, err := svc.Registry().State(ctx, app)
	require.NoError(t, err)
	require.NoError(t, svc.Xgov().SetXgov(ctx, state.XgovRegistry, delegator, delegator))
	available, ok, err := svc.Registry().AvailableVoter(ctx, app)
	require.NoError(t, err)
	require.True(t, ok)
	voterApp, err := svc.Registry().RegisterVoter(ctx, delegator, app, delegator, available,
		ledger.PaymentTo(delegator, app, registry.VoterMBR()))
	require.NoError(t, err)

	status, err := svc.Status(ctx, app)
	require.NoError(t, err)
	assert.Equal(t, manager, status.State.Manager)
	assert.Equal(t, 1, status.Voters)
	assert.Equal(t, 1, status.Unassigned)

	voterState, err := svc.Voters().State(ctx, voterApp)
	require.NoError(t, err)
	assert.Equal(t, delegator, voterState.Manager)

	evt := testutil.RequireReceive(t, registered, time.Second, "voter registered event")
	data, ok := evt.Data.(event.VoterRegisteredEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(voterApp), data.VoterAppId)

	var stopped bool
	svc.AddShutdownFunc(func(context.Context) error {
		stopped = true
		return nil
	})
	require.NoError(t, svc.Stop())
	assert.True(t, stopped)
	// stopping twice is harmless
	require.NoError(t, svc.Stop())
}

func TestServicePersistsState(t *testing.T) {
	dataDir := t.TempDir()
	svc := startService(t, delegato.WithDataDir(dataDir))
	manager, app := deployRegistry(t, svc)
	round, err := svc.Ledger().Round()
	require.NoError(t, err)
	require.NoError(t, svc.Stop())

	svc = startService(t, delegato.WithDataDir(dataDir), delegato.WithXgovMock(false))
	defer func() {
		require.NoError(t, svc.Stop())
	}()
	assert.Nil(t, svc.Xgov())
	reopened, err := svc.Ledger().Round()
	require.NoError(t, err)
	assert.Equal(t, round, reopened)
	status, err := svc.Status(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, manager, status.State.Manager)
	assert.Equal(t, 1, status.Unassigned)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc, err := delegato.New(delegato.NewConfig())
	require.NoError(t, err)
	_, err = svc.Status(context.Background(), 1)
	require.ErrorIs(t, err, delegato.ErrNotStarted)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx)
	}()
	testutil.WaitForCondition(t, func() bool {
		return svc.Ledger() != nil
	}, time.Second, "service did not start")
	cancel()
	err = testutil.RequireReceive(t, errCh, 5*time.Second, "service did not stop")
	require.NoError(t, err)
}
