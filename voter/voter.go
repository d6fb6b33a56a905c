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

// Package voter implements the per-delegator contract that casts votes on behalf
// of an xGov, either following its representative or directly
package voter

import (
	"math"

	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/representative"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/xgov"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const Kind ledger.Kind = "voter"

const ExtraPages = ledger.MaxExtraPages

var Schema = ledger.StateSchema{NumUint: 32, NumByteSlice: 32}

// State is the global state of a voter application. A nil Delegator marks a
// voter that has been prepared but not yet assigned
type State struct {
	cbor.StructAsArray
	Delegator      *ledger.Address
	Manager        ledger.Address
	Registry       ledger.AppID
	XgovRegistry   ledger.AppID
	Representative ledger.AppID
	WindowSeconds  uint64
	VotesLeft      uint64
}

func (s State) Assigned() bool {
	return s.Delegator != nil
}

// NewCreateParams returns the creation parameters for a voter application
// running program
func NewCreateParams(program []byte) ledger.CreateParams {
	return ledger.CreateParams{
		Kind:       Kind,
		Program:    program,
		ExtraPages: ExtraPages,
		Schema:     Schema,
		Method:     "create",
	}
}

// ReadState returns the global state of a voter application
func ReadState(x *ledger.Exec, app ledger.AppID) (State, error) {
	var ret State
	err := x.LoadGlobal(app, &ret)
	return ret, err
}

func load(x *ledger.Exec) (State, error) {
	return ReadState(x, x.App())
}

func isCreator(x *ledger.Exec) bool {
	return x.Sender() == x.Creator()
}

// authorize loads the state and checks that the sender is the delegator or the
// manager of the voter
func authorize(x *ledger.Exec) (State, error) {
	state, err := load(x)
	if err != nil {
		return state, err
	}
	sender := x.Sender()
	if state.Delegator != nil && sender == *state.Delegator {
		return state, nil
	}
	if !state.Manager.IsZero() && sender == state.Manager {
		return state, nil
	}
	return state, types.ErrUnauthorized
}

// verifyRepresentative checks that a representative was created by the same
// registry as the voter
func verifyRepresentative(x *ledger.Exec, rep ledger.AppID) error {
	app, exists, err := x.AppInfo(rep)
	if err != nil {
		return err
	}
	if !exists || app.Kind != representative.Kind || app.Creator != x.Creator() {
		return types.ErrUnrelatedApp
	}
	return nil
}

func verifyProposal(x *ledger.Exec, state State, proposal ledger.AppID) error {
	valid, err := xgov.IsRegistryProposal(x, state.XgovRegistry, proposal)
	if err != nil {
		return err
	}
	if !valid {
		return types.ErrInvalidProposal
	}
	return nil
}

// Create initializes an unassigned voter. It may only be called by another
// application, which becomes the registry of the voter. A non-zero
// representative must have been created by the same registry
func Create(
	x *ledger.Exec,
	xgovRegistry ledger.AppID,
	rep ledger.AppID,
	windowSeconds uint64,
) error {
	if x.CallerApp() == 0 {
		return types.ErrUnauthorized
	}
	if rep != 0 {
		if err := verifyRepresentative(x, rep); err != nil {
			return err
		}
	}
	return x.StoreGlobal(&State{
		Registry:       x.CallerApp(),
		XgovRegistry:   xgovRegistry,
		Representative: rep,
		WindowSeconds:  windowSeconds,
	})
}

// AssignDelegator claims an unassigned voter for a delegator
func AssignDelegator(x *ledger.Exec, delegator ledger.Address, manager ledger.Address) error {
	if !isCreator(x) {
		return types.ErrNotCreator
	}
	state, err := load(x)
	if err != nil {
		return err
	}
	if state.Assigned() {
		return types.ErrVoterAssigned
	}
	state.Delegator = &delegator
	state.Manager = manager
	return x.StoreGlobal(&state)
}

// Update approves a program update issued by the registry
func Update(x *ledger.Exec) error {
	if !isCreator(x) {
		return types.ErrNotCreator
	}
	return nil
}

func SetManager(x *ledger.Exec, manager ledger.Address) error {
	state, err := authorize(x)
	if err != nil {
		return err
	}
	state.Manager = manager
	return x.StoreGlobal(&state)
}

// SetRepresentative binds the voter to a representative. Zero removes the binding
func SetRepresentative(x *ledger.Exec, rep ledger.AppID) error {
	state, err := authorize(x)
	if err != nil {
		return err
	}
	if rep != 0 {
		if err := verifyRepresentative(x, rep); err != nil {
			return err
		}
	}
	state.Representative = rep
	return x.StoreGlobal(&state)
}

func SetWindow(x *ledger.Exec, windowSeconds uint64) error {
	state, err := authorize(x)
	if err != nil {
		return err
	}
	state.WindowSeconds = windowSeconds
	return x.StoreGlobal(&state)
}

// VoteRepresentative casts the vote of the bound representative on a proposal,
// scaled by the voting weight of the delegator, and consumes one paid vote
func VoteRepresentative(x *ledger.Exec, proposal ledger.AppID) (types.VoteRaw, error) {
	var raw types.VoteRaw
	if !isCreator(x) {
		return raw, types.ErrNotCreator
	}
	state, err := load(x)
	if err != nil {
		return raw, err
	}
	if !state.Assigned() {
		return raw, types.ErrNotVoter
	}
	if err := verifyProposal(x, state, proposal); err != nil {
		return raw, err
	}
	if state.VotesLeft == 0 {
		return raw, types.ErrNoVotesLeft
	}
	state.VotesLeft--
	if state.WindowSeconds > 0 {
		closeTs, err := xgov.ProposalVoteCloseTs(x, proposal)
		if err != nil {
			return raw, err
		}
		var opensAt uint64
		if closeTs > state.WindowSeconds {
			opensAt = closeTs - state.WindowSeconds
		}
		if x.Timestamp() <= opensAt {
			return raw, types.ErrTooSoonToVote
		}
	}
	repApp, exists, err := x.AppInfo(state.Representative)
	if err != nil {
		return raw, err
	}
	if state.Representative == 0 || !exists || repApp.Creator != x.Creator() {
		return raw, types.ErrRepresentativeNonexistent
	}
	vote, valid, err := representative.CallGetVote(x, state.Representative, proposal)
	if err != nil {
		return raw, err
	}
	if !valid {
		return raw, types.ErrVoteInvalid
	}
	delegator := *state.Delegator
	weight, exists, err := xgov.GetVoterBox(x, proposal, delegator)
	if err != nil {
		return raw, err
	}
	if !exists {
		return raw, types.ErrNoVotes
	}
	raw = vote.Scale(weight)
	if err := xgov.VoteProposal(
		x,
		state.XgovRegistry,
		proposal,
		delegator,
		raw.Approvals,
		raw.Rejections,
	); err != nil {
		return raw, err
	}
	if err := x.StoreGlobal(&state); err != nil {
		return raw, err
	}
	emitVoteCast(x, proposal, delegator, raw, state.Representative)
	return raw, nil
}

// VoteDirect forwards a vote of the delegator to the xGov registry without
// consulting the representative
func VoteDirect(x *ledger.Exec, proposal ledger.AppID, raw types.VoteRaw) error {
	state, err := authorize(x)
	if err != nil {
		return err
	}
	if !state.Assigned() {
		return types.ErrNotVoter
	}
	if err := verifyProposal(x, state, proposal); err != nil {
		return err
	}
	delegator := *state.Delegator
	if err := xgov.VoteProposal(
		x,
		state.XgovRegistry,
		proposal,
		delegator,
		raw.Approvals,
		raw.Rejections,
	); err != nil {
		return err
	}
	emitVoteCast(x, proposal, delegator, raw, 0)
	return nil
}

func emitVoteCast(
	x *ledger.Exec,
	proposal ledger.AppID,
	delegator ledger.Address,
	raw types.VoteRaw,
	rep ledger.AppID,
) {
	x.Emit(
		event.VoteCastEventType,
		event.VoteCastEvent{
			Round:               x.Round(),
			ProposalAppId:       uint64(proposal),
			Delegator:           delegator.String(),
			Approvals:           raw.Approvals,
			Rejections:          raw.Rejections,
			RepresentativeAppId: uint64(rep),
		},
	)
}

// YieldVotingRights sets the voting address of the delegator in the xGov
// registry. The registry may also call it while unregistering the voter
func YieldVotingRights(x *ledger.Exec, votingAddress ledger.Address) error {
	var state State
	var err error
	if isCreator(x) {
		state, err = load(x)
	} else {
		state, err = authorize(x)
	}
	if err != nil {
		return err
	}
	if !state.Assigned() {
		return types.ErrNotVoter
	}
	return xgov.SetVotingAccount(x, state.XgovRegistry, *state.Delegator, votingAddress)
}

// AddVotes credits paid votes to the voter and returns the new count
func AddVotes(x *ledger.Exec, count uint64) (uint64, error) {
	if !isCreator(x) {
		return 0, types.ErrNotCreator
	}
	state, err := load(x)
	if err != nil {
		return 0, err
	}
	if count > math.MaxUint64-state.VotesLeft {
		return 0, types.ErrVoteCountOutOfRange
	}
	state.VotesLeft += count
	return state.VotesLeft, x.StoreGlobal(&state)
}

// Delete approves the deletion of the voter by the registry and returns its
// balance to the registry
func Delete(x *ledger.Exec) error {
	if !isCreator(x) {
		return types.ErrNotCreator
	}
	return x.CloseOut(x.Creator())
}
