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

package registry

import (
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/representative"
	"github.com/blinklabs-io/delegato/voter"
)

const appRefSize = 8

// ChildAppMBR is the minimum balance charged to the registry for creating a
// voter or representative application
func ChildAppMBR() uint64 {
	return ledger.AppMinBalance(voter.ExtraPages, voter.Schema)
}

// UnassignedVoterMBR is the payment required to prepare a voter: the creation
// cost plus the minimum balance of the voter account
func UnassignedVoterMBR() uint64 {
	return ChildAppMBR() + ledger.AccountMinBalance
}

// VoterMBR is the payment required to register a voter. Registration creates a
// replacement unassigned voter and stores the delegator reference
func VoterMBR() uint64 {
	return UnassignedVoterMBR() +
		ledger.BoxMinBalance(uint64(len(votersPrefix))+ledger.AddressLength, appRefSize)
}

// RepresentativeMBR is the payment required to register a representative, not
// counting the representative fee
func RepresentativeMBR() uint64 {
	return ledger.AppMinBalance(representative.ExtraPages, representative.Schema) +
		ledger.AccountMinBalance +
		ledger.BoxMinBalance(uint64(len(representativesPrefix))+ledger.AddressLength, appRefSize)
}

// VoteBoxMBR is the payment required to publish a representative vote
func VoteBoxMBR() uint64 {
	return ledger.BoxMinBalance(
		uint64(len(representative.VoteBoxName(0))),
		representative.VoteBoxSize,
	)
}

// CodeBoxMBR is the minimum balance of a staged code box of the given size
func CodeBoxMBR(nameLen uint64, size uint64) uint64 {
	return ledger.BoxMinBalance(nameLen, size)
}
