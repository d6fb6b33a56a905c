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

package xgov

import (
	"errors"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/gouroboros/cbor"
)

type ProposalStatus uint64

const (
	StatusEmpty    ProposalStatus = 0
	StatusDraft    ProposalStatus = 10
	StatusFinal    ProposalStatus = 20
	StatusVoting   ProposalStatus = 25
	StatusApproved ProposalStatus = 30
	StatusRejected ProposalStatus = 40
	StatusFunded   ProposalStatus = 50
	StatusBlocked  ProposalStatus = 60
	StatusDeleted  ProposalStatus = 70
)

func (s ProposalStatus) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusDraft:
		return "draft"
	case StatusFinal:
		return "final"
	case StatusVoting:
		return "voting"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusFunded:
		return "funded"
	case StatusBlocked:
		return "blocked"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// ProposalState is the declared global state of a proposal application
type ProposalState struct {
	cbor.StructAsArray
	RegistryAppID  ledger.AppID
	Status         ProposalStatus
	VoteOpenTs     uint64
	VotingDuration uint64
}

// VoteCloseTs returns the time the voting period ends
func (p ProposalState) VoteCloseTs() uint64 {
	return p.VoteOpenTs + p.VotingDuration
}

func (p ProposalState) Voting() bool {
	return p.Status == StatusVoting
}

// ReadProposal reads the global state of a proposal without calling it. A
// missing application, one without state or one whose state is not shaped
// like a proposal reports false
func ReadProposal(x *ledger.Exec, proposal ledger.AppID) (ProposalState, bool, error) {
	var ret ProposalState
	if err := x.LoadGlobal(proposal, &ret); err != nil {
		if errors.Is(err, ledger.ErrGlobalStateNotFound) ||
			errors.Is(err, ledger.ErrGlobalStateDecode) {
			return ProposalState{}, false, nil
		}
		return ProposalState{}, false, err
	}
	return ret, true, nil
}

// IsProposalVoting reports whether a proposal is in its voting period
func IsProposalVoting(x *ledger.Exec, proposal ledger.AppID) (bool, error) {
	state, ok, err := ReadProposal(x, proposal)
	if err != nil || !ok {
		return false, err
	}
	return state.Voting(), nil
}

// ProposalVoteCloseTs returns the end of the voting period of a proposal, or zero
// if the proposal has no state
func ProposalVoteCloseTs(x *ledger.Exec, proposal ledger.AppID) (uint64, error) {
	state, _, err := ReadProposal(x, proposal)
	if err != nil {
		return 0, err
	}
	return state.VoteCloseTs(), nil
}
