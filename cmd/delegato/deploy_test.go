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
	"testing"

	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/internal/test/testutil"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployConfig(t *testing.T) {
	deployer := testutil.Account("deployer")
	cfg := config.DeployConfig{
		Deployer:          deployer.String(),
		XgovRegistryID:    7,
		RegistryVersion:   "v1",
		FeeVoteXgov:       1,
		FeeVoteOther:      2,
		FeeRepresentative: 3,
		VoteTriggerAward:  4,
	}

	ret, err := deployConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, deployer, ret.Deployer)
	assert.Equal(t, ledger.AppID(7), ret.XgovRegistry)
	assert.Nil(t, ret.Fees, "fees are only applied when configuring")
	programs, err := deploy.BuiltinPrograms("v1")
	require.NoError(t, err)
	assert.Equal(t, programs, ret.Programs)

	cfg.Configure = true
	cfg.FreshDeploy = true
	ret, err = deployConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, ret.Fees)
	assert.Equal(t, cfg.Fees(), *ret.Fees)
	assert.True(t, ret.FreshDeploy)
}

func TestDeployConfigErrors(t *testing.T) {
	_, err := deployConfig(config.DeployConfig{XgovRegistryID: 7})
	require.ErrorIs(t, err, config.ErrDeployerMissing)

	_, err = deployConfig(config.DeployConfig{Deployer: testutil.Account("d").String()})
	require.ErrorIs(t, err, errXgovRegistryMissing)

	_, err = deployConfig(config.DeployConfig{Deployer: "not-an-address", XgovRegistryID: 7})
	require.Error(t, err)
}

func TestPrintDeployResult(t *testing.T) {
	var buf bytes.Buffer
	printDeployResult(&buf, deploy.Result{App: 12, Created: true, Voter: 13})
	assert.Equal(t, "created registry 12\nprepared voter 13\n", buf.String())

	buf.Reset()
	printDeployResult(&buf, deploy.Result{App: 12})
	assert.Equal(t, "updated registry 12\n", buf.String())
}

func TestListPlugins(t *testing.T) {
	shouldExit, out := listPlugins("list", "sqlite")
	assert.True(t, shouldExit)
	assert.Contains(t, out, "Available blob plugins")
	assert.NotContains(t, out, "metadata plugins")

	shouldExit, _ = listPlugins(config.DefaultBlobPlugin, config.DefaultMetadataPlugin)
	assert.False(t, shouldExit)

	assert.Contains(t, listAllPlugins(), "Metadata Storage Plugins")
}
