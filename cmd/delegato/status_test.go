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

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/blinklabs-io/delegato"
	"github.com/blinklabs-io/delegato/internal/devnet"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestRenderStatus(t *testing.T) {
	manager := testutil.Account("manager")
	xgov := testutil.Account("xgov")
	state := registry.State{
		Manager:      manager,
		XgovRegistry: 7,
		Fees:         types.DefaultFees(),
		Paused:       true,
		VotesLeft:    3,
		TriggerFund:  1_500_000,
	}
	status := registry.Status{
		App:             1042,
		State:           state,
		Balance:         13_000_000,
		MinBalance:      3_100_000,
		Voters:          1,
		Unassigned:      2,
		Representatives: 0,
	}
	var buf bytes.Buffer
	renderStatus(&buf, status, map[ledger.Address]ledger.AppID{xgov: 1043})
	out := buf.String()
	assert.Contains(t, out, "Registry 1042")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, manager.String())
	assert.Contains(t, out, "1500000")
	assert.Contains(t, out, "Vote trigger award")
	assert.Contains(t, out, xgov.String())
	assert.Contains(t, out, "1043")
}

func TestRenderStatusWithoutVoters(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, registry.Status{App: 5}, nil)
	out := buf.String()
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "no registered voters")
	assert.NotContains(t, out, "Voter app")
}

func TestRenderDevnet(t *testing.T) {
	svc, err := delegato.New(
		delegato.NewConfig(
			delegato.WithClock(ledger.NewManualClock(testutil.GenesisTime)),
		),
	)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	t.Cleanup(func() {
		require.NoError(t, svc.Stop())
	})
	res, err := devnet.Run(context.Background(), svc, devnet.Config{Xgovs: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	renderDevnet(&buf, res)
	out := buf.String()
	assert.Contains(t, out, res.Deployer.String())
	for _, addr := range res.Xgovs {
		assert.Contains(t, out, addr.String())
	}
	assert.Contains(t, out, "Approvals")
}
