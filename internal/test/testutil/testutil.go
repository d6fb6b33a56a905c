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

// Package testutil provides common test helpers: in-memory storage, a ledger
// on a manual clock, and deterministic channel synchronization.
package testutil

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/blinklabs-io/delegato/database"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

// GenesisTime is the initial time of ledgers created by NewLedger
var GenesisTime = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

// Env bundles a ledger and its collaborators for tests
type Env struct {
	DB       *database.Database
	Bus      *event.EventBus
	Ledger   *ledger.Ledger
	Clock    *ledger.ManualClock
	Registry *prometheus.Registry
}

// NewTestDB opens an in-memory database that is closed when the test ends
func NewTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err, "failed to create test database")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "failed to close test database")
	})
	return db
}

// NewLedger creates a ledger on an in-memory database with a manual clock
func NewLedger(t *testing.T) *Env {
	t.Helper()
	reg := prometheus.NewRegistry()
	bus := event.NewEventBus(reg, nil)
	t.Cleanup(bus.Stop)
	clock := ledger.NewManualClock(GenesisTime)
	db := NewTestDB(t)
	l, err := ledger.New(ledger.LedgerConfig{
		Database:     db,
		EventBus:     bus,
		PromRegistry: reg,
		Clock:        clock,
	})
	require.NoError(t, err, "failed to create test ledger")
	return &Env{
		DB:       db,
		Bus:      bus,
		Ledger:   l,
		Clock:    clock,
		Registry: reg,
	}
}

// Account derives a deterministic address from a name
func Account(name string) ledger.Address {
	return ledger.Address(blake2b.Sum256([]byte("account:" + name)))
}

// FundedAccount derives an address from a name and credits it with amount
func (e *Env) FundedAccount(t *testing.T, name string, amount uint64) ledger.Address {
	t.Helper()
	addr := Account(name)
	require.NoError(t, e.Ledger.Fund(context.Background(), addr, amount))
	return addr
}

// Balance returns the committed balance of an account
func (e *Env) Balance(t *testing.T, addr ledger.Address) uint64 {
	t.Helper()
	bal, err := e.Ledger.Balance(addr)
	require.NoError(t, err)
	return bal
}

// Program builds a program for the given kind with a body of the given size
func Program(t *testing.T, kind ledger.Kind, size int) []byte {
	t.Helper()
	src := make([]byte, size)
	if size >= 8 {
		binary.BigEndian.PutUint64(src, uint64(size))
	}
	prog, err := ledger.Program{Kind: kind, Version: "test", Source: src}.Encode()
	require.NoError(t, err)
	return prog
}

// WaitForCondition polls the given condition function until it returns true
// or the timeout expires.
func WaitForCondition(
	t *testing.T,
	condition func() bool,
	timeout time.Duration,
	msg string,
) {
	t.Helper()
	require.Eventually(
		t,
		condition,
		timeout,
		10*time.Millisecond,
		msg,
	)
}

// RequireReceive waits for a value on the given channel or fails the test
// if the timeout expires.
func RequireReceive[T any](
	t *testing.T,
	ch <-chan T,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for channel receive: %s", msg)
		var zero T
		return zero // unreachable
	}
}

// RequireNoReceive verifies that no value is received on the given channel
// within the specified duration.
func RequireNoReceive[T any](
	t *testing.T,
	ch <-chan T,
	duration time.Duration,
	msg string,
) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf(
			"unexpected value received on channel: %v: %s",
			v,
			msg,
		)
	case <-time.After(duration):
		// Expected: nothing received
	}
}
