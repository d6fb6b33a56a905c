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

package ledger

import (
	"fmt"

	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/gouroboros/cbor"
	"golang.org/x/crypto/blake2b"
)

// Kind tags an application with the contract that implements it
type Kind string

type StateSchema struct {
	cbor.StructAsArray
	NumUint      uint64
	NumByteSlice uint64
}

// Program is the deployable form of a contract. The ledger only checks that a
// program targets the kind of application it is installed on
type Program struct {
	cbor.StructAsArray
	Kind    Kind
	Version string
	Source  []byte
}

func (p Program) Encode() ([]byte, error) {
	return cbor.Encode(&p)
}

func DecodeProgram(data []byte) (Program, error) {
	var ret Program
	if _, err := cbor.Decode(data, &ret); err != nil {
		return ret, fmt.Errorf("%w: %w", ErrInvalidProgram, err)
	}
	return ret, nil
}

// App is the ledger record of an application
type App struct {
	cbor.StructAsArray
	ID          AppID
	Kind        Kind
	Creator     Address
	ProgramHash [32]byte
	ProgramLen  uint64
	Version     string
	ExtraPages  uint64
	Schema      StateSchema
	Template    map[string][]byte
	CreationMBR uint64
	CreatedAt   uint64 // round
}

// Address returns the account address controlled by the application
func (a App) Address() Address {
	return a.ID.Address()
}

// account is the ledger record of an account balance and its allocations
type account struct {
	cbor.StructAsArray
	Balance        uint64
	AppsMinBalance uint64
	BoxCount       uint64
	BoxBytes       uint64
	Participation  *types.KeyRegInfo
}

func (a account) minBalance() uint64 {
	return AccountMinBalance +
		a.AppsMinBalance +
		BoxFlatMinBalance*a.BoxCount +
		BoxByteMinBalance*a.BoxBytes
}

// empty reports whether the account holds nothing and can be dropped
func (a account) empty() bool {
	return a.Balance == 0 &&
		a.AppsMinBalance == 0 &&
		a.BoxCount == 0 &&
		a.BoxBytes == 0 &&
		a.Participation == nil
}

// AccountInfo is a read-only snapshot of an account
type AccountInfo struct {
	Address       Address
	Balance       uint64
	MinBalance    uint64
	BoxCount      uint64
	BoxBytes      uint64
	Participation *types.KeyRegInfo
}

func (a account) info(addr Address) AccountInfo {
	return AccountInfo{
		Address:       addr,
		Balance:       a.Balance,
		MinBalance:    a.minBalance(),
		BoxCount:      a.BoxCount,
		BoxBytes:      a.BoxBytes,
		Participation: a.Participation,
	}
}

// validateProgram checks that a program fits the application pages and
// targets the expected kind
func validateProgram(data []byte, kind Kind, extraPages uint64) (Program, [32]byte, error) {
	var hash [32]byte
	if len(data) == 0 {
		return Program{}, hash, ErrInvalidProgram
	}
	if extraPages > MaxExtraPages {
		return Program{}, hash, ErrTooManyExtraPages
	}
	if uint64(len(data)) > PageSize*(1+extraPages) {
		return Program{}, hash, ErrProgramTooLarge
	}
	prog, err := DecodeProgram(data)
	if err != nil {
		return Program{}, hash, err
	}
	if prog.Kind != kind {
		return Program{}, hash, fmt.Errorf(
			"%w: program is for %q, application is %q",
			ErrProgramKindMismatch,
			prog.Kind,
			kind,
		)
	}
	hash = blake2b.Sum256(data)
	return prog, hash, nil
}
