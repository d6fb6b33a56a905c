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

// Package xgovmock provides in-process xGov registry and proposal contracts for
// development networks and tests. The registry accepts votes from anyone and
// records them on the proposal.
package xgovmock

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/xgov"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const (
	// RegistryFunding is credited to a new mock registry to cover its boxes
	RegistryFunding uint64 = 10_000_000
	// ProposalFunding is paid by the registry to every proposal it creates
	ProposalFunding uint64 = 1_000_000
)

var ErrXgovNotFound = errors.New("xGov box not found")

var (
	xgovBoxPrefix  = []byte("x")
	voterBoxPrefix = []byte("V")
	tallyBoxPrefix = []byte("t")
)

type registryState struct {
	cbor.StructAsArray
	Manager   ledger.Address
	Proposals uint64
}

// Mock registers the mock contracts with a ledger and drives them with
// top-level calls
type Mock struct {
	ledger   *ledger.Ledger
	registry *Registry
	proposal *Proposal
}

// New registers the mock xGov contracts with the ledger
func New(l *ledger.Ledger) *Mock {
	m := &Mock{
		ledger:   l,
		registry: &Registry{},
		proposal: &Proposal{},
	}
	l.RegisterHandler(xgov.RegistryKind, m.registry)
	l.RegisterHandler(xgov.ProposalKind, m.proposal)
	return m
}

func boxName(prefix []byte, addr ledger.Address) []byte {
	return append(slices.Clone(prefix), addr.Bytes()...)
}

func program(kind ledger.Kind) []byte {
	// Encoding a fixed program cannot fail
	ret, _ := ledger.Program{
		Kind:    kind,
		Version: "mock",
		Source:  []byte("xgov mock " + string(kind)),
	}.Encode()
	return ret
}

// Registry is the mock xGov registry contract
type Registry struct{}

func (r *Registry) GetXgovBox(
	x *ledger.Exec,
	addr ledger.Address,
) (xgov.XGovBoxValue, bool, error) {
	var ret xgov.XGovBoxValue
	data, exists, err := x.BoxGet(boxName(xgovBoxPrefix, addr))
	if err != nil || !exists {
		return ret, false, err
	}
	if _, err := cbor.Decode(data, &ret); err != nil {
		return ret, false, fmt.Errorf("decode xGov box: %w", err)
	}
	return ret, true, nil
}

func (r *Registry) putXgovBox(
	x *ledger.Exec,
	addr ledger.Address,
	value xgov.XGovBoxValue,
) error {
	data, err := cbor.Encode(&value)
	if err != nil {
		return err
	}
	name := boxName(xgovBoxPrefix, addr)
	// the encoded length changes with the values so the box is replaced
	if _, err := x.BoxDelete(name); err != nil {
		return err
	}
	return x.BoxPut(name, data)
}

// VoteProposal forwards a vote to the proposal and updates the voting record of
// the xGov when it has one
func (r *Registry) VoteProposal(
	x *ledger.Exec,
	proposal ledger.AppID,
	addr ledger.Address,
	approvals uint64,
	rejections uint64,
) error {
	err := x.Call(
		ledger.InnerCall{App: proposal, Kind: xgov.ProposalKind, Method: "vote"},
		func(y *ledger.Exec) error {
			return vote(y, addr, approvals, rejections)
		},
	)
	if err != nil {
		return err
	}
	box, exists, err := r.GetXgovBox(x, addr)
	if err != nil || !exists {
		return err
	}
	box.VotedProposals++
	box.LastVoteTimestamp = x.Timestamp()
	return r.putXgovBox(x, addr, box)
}

func (r *Registry) SetVotingAccount(
	x *ledger.Exec,
	addr ledger.Address,
	votingAddress ledger.Address,
) error {
	box, exists, err := r.GetXgovBox(x, addr)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrXgovNotFound, addr)
	}
	box.VotingAddress = votingAddress
	return r.putXgovBox(x, addr, box)
}

// Proposal is the mock proposal contract
type Proposal struct{}

func (p *Proposal) GetVoterBox(x *ledger.Exec, voter ledger.Address) (uint64, bool, error) {
	data, exists, err := x.BoxGet(boxName(voterBoxPrefix, voter))
	if err != nil || !exists {
		return 0, false, err
	}
	return binary.BigEndian.Uint64(data), true, nil
}

func vote(x *ledger.Exec, addr ledger.Address, approvals uint64, rejections uint64) error {
	name := boxName(tallyBoxPrefix, addr)
	tally, _, err := readTally(x, name)
	if err != nil {
		return err
	}
	tally.Approvals += approvals
	tally.Rejections += rejections
	data := make([]byte, 0, 16)
	data = binary.BigEndian.AppendUint64(data, tally.Approvals)
	data = binary.BigEndian.AppendUint64(data, tally.Rejections)
	return x.BoxPut(name, data)
}

func readTally(x *ledger.Exec, name []byte) (types.VoteRaw, bool, error) {
	data, exists, err := x.BoxGet(name)
	if err != nil || !exists {
		return types.VoteRaw{}, false, err
	}
	return types.VoteRaw{
		Approvals:  binary.BigEndian.Uint64(data[:8]),
		Rejections: binary.BigEndian.Uint64(data[8:]),
	}, true, nil
}

// Deploy creates a mock xGov registry managed by sender and funds it
func (m *Mock) Deploy(ctx context.Context, sender ledger.Address) (ledger.AppID, error) {
	id, err := m.ledger.Create(
		ctx,
		sender,
		ledger.CreateParams{
			Kind:    xgov.RegistryKind,
			Program: program(xgov.RegistryKind),
			Method:  "create",
		},
		nil,
		func(x *ledger.Exec) error {
			return x.StoreGlobal(&registryState{Manager: x.Sender()})
		},
	)
	if err != nil {
		return 0, err
	}
	if err := m.ledger.Fund(ctx, id.Address(), RegistryFunding); err != nil {
		return 0, err
	}
	return id, nil
}

func (m *Mock) callRegistry(
	ctx context.Context,
	sender ledger.Address,
	registry ledger.AppID,
	method string,
	fn func(*ledger.Exec) error,
) error {
	return m.ledger.Call(
		ctx,
		ledger.Call{
			Sender: sender,
			App:    registry,
			Kind:   xgov.RegistryKind,
			Method: method,
		},
		fn,
	)
}

// SetXgov records addr as an xGov with the given voting address
func (m *Mock) SetXgov(
	ctx context.Context,
	registry ledger.AppID,
	addr ledger.Address,
	votingAddress ledger.Address,
) error {
	return m.callRegistry(ctx, addr, registry, "set_xgov_box", func(x *ledger.Exec) error {
		return m.registry.putXgovBox(x, addr, xgov.XGovBoxValue{
			VotingAddress:     votingAddress,
			SubscriptionRound: x.Round(),
		})
	})
}

func (m *Mock) DeleteXgov(
	ctx context.Context,
	registry ledger.AppID,
	addr ledger.Address,
) error {
	return m.callRegistry(ctx, addr, registry, "del_xgov_box", func(x *ledger.Exec) error {
		_, err := x.BoxDelete(boxName(xgovBoxPrefix, addr))
		return err
	})
}

func (m *Mock) GetXgov(
	ctx context.Context,
	registry ledger.AppID,
	addr ledger.Address,
) (xgov.XGovBoxValue, bool, error) {
	var ret xgov.XGovBoxValue
	var exists bool
	err := m.ledger.View(
		ctx,
		ledger.Call{App: registry, Kind: xgov.RegistryKind, Method: "get_xgov_box"},
		func(x *ledger.Exec) error {
			var err error
			ret, exists, err = m.registry.GetXgovBox(x, addr)
			return err
		},
	)
	return ret, exists, err
}

// CreateProposal creates a proposal owned by the registry in the given state
func (m *Mock) CreateProposal(
	ctx context.Context,
	sender ledger.Address,
	registry ledger.AppID,
	state xgov.ProposalState,
) (ledger.AppID, error) {
	// top up the registry so it can pay for the proposal and its account
	topUp := ledger.AppMinBalance(0, ledger.StateSchema{}) + ProposalFunding
	if err := m.ledger.Fund(ctx, registry.Address(), topUp); err != nil {
		return 0, err
	}
	var proposal ledger.AppID
	err := m.callRegistry(ctx, sender, registry, "create_proposal", func(x *ledger.Exec) error {
		var regState registryState
		if err := x.LoadGlobal(x.App(), &regState); err != nil {
			return err
		}
		id, err := x.Create(
			ledger.CreateParams{
				Kind:    xgov.ProposalKind,
				Program: program(xgov.ProposalKind),
				Method:  "create",
			},
			func(y *ledger.Exec) error {
				s := state
				s.RegistryAppID = y.CallerApp()
				return y.StoreGlobal(&s)
			},
		)
		if err != nil {
			return err
		}
		if err := x.Pay(id.Address(), ProposalFunding); err != nil {
			return err
		}
		regState.Proposals++
		proposal = id
		return x.StoreGlobal(&regState)
	})
	return proposal, err
}

// UpdateProposal applies fn to the declared state of a proposal
func (m *Mock) UpdateProposal(
	ctx context.Context,
	sender ledger.Address,
	proposal ledger.AppID,
	fn func(*xgov.ProposalState),
) error {
	return m.callProposal(ctx, sender, proposal, "update", func(x *ledger.Exec) error {
		var state xgov.ProposalState
		if err := x.LoadGlobal(x.App(), &state); err != nil {
			return err
		}
		fn(&state)
		return x.StoreGlobal(&state)
	})
}

// SetVoterWeight records the voting weight of a voter on a proposal
func (m *Mock) SetVoterWeight(
	ctx context.Context,
	sender ledger.Address,
	proposal ledger.AppID,
	voter ledger.Address,
	weight uint64,
) error {
	return m.callProposal(ctx, sender, proposal, "set_voter_box", func(x *ledger.Exec) error {
		return x.BoxPut(
			boxName(voterBoxPrefix, voter),
			binary.BigEndian.AppendUint64(nil, weight),
		)
	})
}

// Tally returns the votes recorded on a proposal for an xGov
func (m *Mock) Tally(
	ctx context.Context,
	proposal ledger.AppID,
	addr ledger.Address,
) (types.VoteRaw, bool, error) {
	var ret types.VoteRaw
	var exists bool
	err := m.ledger.View(
		ctx,
		ledger.Call{App: proposal, Kind: xgov.ProposalKind, Method: "get_tally"},
		func(x *ledger.Exec) error {
			var err error
			ret, exists, err = readTally(x, boxName(tallyBoxPrefix, addr))
			return err
		},
	)
	return ret, exists, err
}

func (m *Mock) callProposal(
	ctx context.Context,
	sender ledger.Address,
	proposal ledger.AppID,
	method string,
	fn func(*ledger.Exec) error,
) error {
	return m.ledger.Call(
		ctx,
		ledger.Call{
			Sender: sender,
			App:    proposal,
			Kind:   xgov.ProposalKind,
			Method: method,
		},
		fn,
	)
}
