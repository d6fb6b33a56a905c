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

package delegato

import (
	"testing"
	"time"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.True(t, cfg.xgovMock)
	assert.Empty(t, cfg.dataDir)

	cfg.applyDefaults()
	assert.Equal(t, "badger", cfg.blobPlugin)
	assert.Equal(t, "sqlite", cfg.metadataPlugin)
	assert.Equal(t, ledger.SystemClock(), cfg.clock)
	assert.Equal(t, 30*time.Second, cfg.shutdownTimeout)
}

func TestConfigOptions(t *testing.T) {
	clock := ledger.NewManualClock(time.Unix(1_700_000_000, 0))
	cfg := NewConfig(
		WithDataDir("/tmp/delegato"),
		WithBlobPlugin("badger"),
		WithMetadataPlugin("sqlite"),
		WithClock(clock),
		WithXgovMock(false),
		WithShutdownTimeout(time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)
	cfg.applyDefaults()
	assert.Equal(t, "/tmp/delegato", cfg.dataDir)
	assert.Same(t, clock, cfg.clock)
	assert.False(t, cfg.xgovMock)
	assert.Equal(t, time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
}
