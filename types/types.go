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

package types

import (
	"math/bits"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// PPM is the parts-per-million denominator used for vote splits
const PPM uint64 = 1_000_000

// DefaultVoterWindow is the window assigned to new voters, in seconds
const DefaultVoterWindow uint64 = 2 * 24 * 60 * 60

// Default fee configuration, in microalgos
const (
	DefaultVoteFeeXgov       uint64 = 1_000_000
	DefaultVoteFeeOther      uint64 = 10_000_000
	DefaultRepresentativeFee uint64 = 50_000_000
	DefaultVoteTriggerAward  uint64 = 500_000
)

// VoteFees is the price of a single paid vote
type VoteFees struct {
	cbor.StructAsArray
	// Charged when the delegator pays for its own votes
	Xgov uint64
	// Charged when anyone else pays
	Other uint64
}

// Fees is the configurable fee schedule of the registry
type Fees struct {
	cbor.StructAsArray
	Vote             VoteFees
	Representative   uint64
	VoteTriggerAward uint64
}

func DefaultFees() Fees {
	return Fees{
		Vote: VoteFees{
			Xgov:  DefaultVoteFeeXgov,
			Other: DefaultVoteFeeOther,
		},
		Representative:   DefaultRepresentativeFee,
		VoteTriggerAward: DefaultVoteTriggerAward,
	}
}

// Vote is a representative's declared split for a proposal, in parts per million
type Vote struct {
	cbor.StructAsArray
	ApprovalPPM  uint64
	RejectionPPM uint64
}

// InRange reports whether the split does not exceed one million parts
func (v Vote) InRange() bool {
	return v.ApprovalPPM <= PPM &&
		v.RejectionPPM <= PPM &&
		v.ApprovalPPM+v.RejectionPPM <= PPM
}

// Scale applies the split to a voting weight. Fractions are floored and any
// remainder is left unvoted
func (v Vote) Scale(weight uint64) VoteRaw {
	return VoteRaw{
		Approvals:  mulDivFloor(weight, v.ApprovalPPM, PPM),
		Rejections: mulDivFloor(weight, v.RejectionPPM, PPM),
	}
}

// VoteRaw is an absolute vote as submitted to the xGov registry
type VoteRaw struct {
	cbor.StructAsArray
	Approvals  uint64
	Rejections uint64
}

// KeyRegInfo holds consensus participation keys. A registration with all keys
// zero takes the account offline
type KeyRegInfo struct {
	cbor.StructAsArray
	VoteKey         [32]byte
	SelectionKey    [32]byte
	StateProofKey   [64]byte
	VoteFirst       uint64
	VoteLast        uint64
	VoteKeyDilution uint64
}

func (k KeyRegInfo) Online() bool {
	return k.VoteKey != [32]byte{} ||
		k.SelectionKey != [32]byte{} ||
		k.StateProofKey != [64]byte{}
}

// ContractName identifies a child contract whose code is staged by the registry
type ContractName string

const (
	ContractVoter          ContractName = "voter"
	ContractRepresentative ContractName = "representative"
)

// BoxName returns the name of the registry box holding the staged code
func (c ContractName) BoxName() ([]byte, error) {
	switch c {
	case ContractVoter:
		return []byte("sc_vot"), nil
	case ContractRepresentative:
		return []byte("sc_rep"), nil
	default:
		return nil, ErrInvalidContractName
	}
}

// mulDivFloor computes floor(a*b/c) without overflowing the intermediate product
func mulDivFloor(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		// result would not fit in 64 bits
		return ^uint64(0)
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo
}
