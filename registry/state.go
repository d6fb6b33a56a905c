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

// Package registry implements the delegation registry: the contract that
// provisions voter and representative applications, sells paid votes and keeps
// the trigger fund that rewards whoever drives a vote forward.
package registry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const Kind ledger.Kind = "delegation_registry"

const (
	ExtraPages = ledger.MaxExtraPages
	// EntropyTemplate names the template value that must match the entropy
	// passed at creation
	EntropyTemplate = "entropy"
)

var Schema = ledger.StateSchema{NumUint: 32, NumByteSlice: 32}

var (
	votersPrefix          = []byte("v")
	representativesPrefix = []byte("r")
)

var ErrEntropyMismatch = errors.New("entropy does not match the deployed template")

// State is the global state of the delegation registry
type State struct {
	cbor.StructAsArray
	Manager      ledger.Address
	XgovRegistry ledger.AppID
	Fees         types.Fees
	Paused       bool
	VotesLeft    uint64
	TriggerFund  uint64
}

// NewCreateParams returns the creation parameters of a registry running program.
// The entropy is baked into the application so every deployment gets a fresh
// identity
func NewCreateParams(program []byte, entropy []byte) ledger.CreateParams {
	return ledger.CreateParams{
		Kind:       Kind,
		Program:    program,
		ExtraPages: ExtraPages,
		Schema:     Schema,
		Template:   map[string][]byte{EntropyTemplate: slices.Clone(entropy)},
		Method:     "create",
	}
}

// ReadState returns the global state of a registry application
func ReadState(x *ledger.Exec, app ledger.AppID) (State, error) {
	var ret State
	err := x.LoadGlobal(app, &ret)
	return ret, err
}

func load(x *ledger.Exec) (State, error) {
	return ReadState(x, x.App())
}

func store(x *ledger.Exec, state *State) error {
	return x.StoreGlobal(state)
}

func voterBoxName(delegator ledger.Address) []byte {
	return append(slices.Clone(votersPrefix), delegator.Bytes()...)
}

func representativeBoxName(rep ledger.Address) []byte {
	return append(slices.Clone(representativesPrefix), rep.Bytes()...)
}

func encodeAppID(id ledger.AppID) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(id))
}

func decodeAppID(data []byte) (ledger.AppID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid app reference of %d bytes", len(data))
	}
	return ledger.AppID(binary.BigEndian.Uint64(data)), nil
}

// lookup returns the application referenced by a box, if any
func lookup(x *ledger.Exec, name []byte) (ledger.AppID, bool, error) {
	data, exists, err := x.BoxGet(name)
	if err != nil || !exists {
		return 0, false, err
	}
	id, err := decodeAppID(data)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func addressFromBoxName(name []byte) (ledger.Address, error) {
	return ledger.NewAddress(name[1:])
}
