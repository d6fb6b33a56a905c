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

// Package xgov describes the external xGov registry and its proposals as seen
// by the delegation contracts
package xgov

import (
	"fmt"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const (
	RegistryKind ledger.Kind = "xgov_registry"
	ProposalKind ledger.Kind = "xgov_proposal"
)

// XGovBoxValue is the xGov registry record of a governance participant
type XGovBoxValue struct {
	cbor.StructAsArray
	VotingAddress     ledger.Address
	VotedProposals    uint64
	LastVoteTimestamp uint64
	SubscriptionRound uint64
}

// Registry is implemented by the contract behind an xGov registry application.
// Each method runs in the context of the registry application
type Registry interface {
	GetXgovBox(x *ledger.Exec, xgov ledger.Address) (XGovBoxValue, bool, error)
	VoteProposal(
		x *ledger.Exec,
		proposal ledger.AppID,
		xgov ledger.Address,
		approvals uint64,
		rejections uint64,
	) error
	SetVotingAccount(x *ledger.Exec, xgov ledger.Address, votingAddress ledger.Address) error
}

// Proposal is implemented by the contract behind a proposal application
type Proposal interface {
	GetVoterBox(x *ledger.Exec, voter ledger.Address) (uint64, bool, error)
}

func registryHandler(x *ledger.Exec) (Registry, error) {
	h, err := x.Handler(x.App())
	if err != nil {
		return nil, err
	}
	reg, ok := h.(Registry)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an xGov registry", ledger.ErrNoHandler, h)
	}
	return reg, nil
}

func proposalHandler(x *ledger.Exec) (Proposal, error) {
	h, err := x.Handler(x.App())
	if err != nil {
		return nil, err
	}
	prop, ok := h.(Proposal)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an xGov proposal", ledger.ErrNoHandler, h)
	}
	return prop, nil
}

// GetXgovBox looks up an xGov record with a call to the xGov registry
func GetXgovBox(
	x *ledger.Exec,
	registry ledger.AppID,
	xgov ledger.Address,
) (XGovBoxValue, bool, error) {
	var ret XGovBoxValue
	var exists bool
	err := x.Call(
		ledger.InnerCall{App: registry, Kind: RegistryKind, Method: "get_xgov_box"},
		func(y *ledger.Exec) error {
			reg, err := registryHandler(y)
			if err != nil {
				return err
			}
			ret, exists, err = reg.GetXgovBox(y, xgov)
			return err
		},
	)
	return ret, exists, err
}

// VoteProposal submits a vote on behalf of an xGov to the xGov registry
func VoteProposal(
	x *ledger.Exec,
	registry ledger.AppID,
	proposal ledger.AppID,
	xgov ledger.Address,
	approvals uint64,
	rejections uint64,
) error {
	return x.Call(
		ledger.InnerCall{App: registry, Kind: RegistryKind, Method: "vote_proposal"},
		func(y *ledger.Exec) error {
			reg, err := registryHandler(y)
			if err != nil {
				return err
			}
			return reg.VoteProposal(y, proposal, xgov, approvals, rejections)
		},
	)
}

// SetVotingAccount changes the voting address of an xGov
func SetVotingAccount(
	x *ledger.Exec,
	registry ledger.AppID,
	xgov ledger.Address,
	votingAddress ledger.Address,
) error {
	return x.Call(
		ledger.InnerCall{App: registry, Kind: RegistryKind, Method: "set_voting_account"},
		func(y *ledger.Exec) error {
			reg, err := registryHandler(y)
			if err != nil {
				return err
			}
			return reg.SetVotingAccount(y, xgov, votingAddress)
		},
	)
}

// GetVoterBox returns the voting weight of a voter on a proposal
func GetVoterBox(
	x *ledger.Exec,
	proposal ledger.AppID,
	voter ledger.Address,
) (uint64, bool, error) {
	var weight uint64
	var exists bool
	err := x.Call(
		ledger.InnerCall{App: proposal, Kind: ProposalKind, Method: "get_voter_box"},
		func(y *ledger.Exec) error {
			prop, err := proposalHandler(y)
			if err != nil {
				return err
			}
			weight, exists, err = prop.GetVoterBox(y, voter)
			return err
		},
	)
	return weight, exists, err
}

// IsRegistryProposal reports whether an application was created by the given
// xGov registry
func IsRegistryProposal(x *ledger.Exec, registry ledger.AppID, proposal ledger.AppID) (bool, error) {
	creator, ok, err := x.AppCreator(proposal)
	if err != nil || !ok {
		return false, err
	}
	return creator == registry.Address(), nil
}
