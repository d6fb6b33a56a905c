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

// Package representative implements the contract a representative uses to
// declare how the delegators following it vote on proposals
package representative

import (
	"encoding/binary"
	"slices"

	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/xgov"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const Kind ledger.Kind = "representative"

const (
	ExtraPages = ledger.MaxExtraPages
	// VoteBoxSize is the size of a declared vote: approval and rejection in PPM
	VoteBoxSize = 2 * 8
)

var (
	Schema = ledger.StateSchema{NumUint: 32, NumByteSlice: 32}

	voteBoxPrefix = []byte("pv")
)

// State is the global state of a representative application
type State struct {
	cbor.StructAsArray
	Representative ledger.Address
	Registry       ledger.AppID
	XgovRegistry   ledger.AppID
	Paused         bool
}

// NewCreateParams returns the creation parameters for a representative
// application running program
func NewCreateParams(program []byte) ledger.CreateParams {
	return ledger.CreateParams{
		Kind:       Kind,
		Program:    program,
		ExtraPages: ExtraPages,
		Schema:     Schema,
		Method:     "create",
	}
}

// VoteBoxName returns the name of the box holding the vote on a proposal
func VoteBoxName(proposal ledger.AppID) []byte {
	return binary.BigEndian.AppendUint64(slices.Clone(voteBoxPrefix), uint64(proposal))
}

func encodeVote(vote types.Vote) []byte {
	ret := make([]byte, 0, VoteBoxSize)
	ret = binary.BigEndian.AppendUint64(ret, vote.ApprovalPPM)
	ret = binary.BigEndian.AppendUint64(ret, vote.RejectionPPM)
	return ret
}

func decodeVote(data []byte) types.Vote {
	if len(data) != VoteBoxSize {
		return types.Vote{}
	}
	return types.Vote{
		ApprovalPPM:  binary.BigEndian.Uint64(data[:8]),
		RejectionPPM: binary.BigEndian.Uint64(data[8:]),
	}
}

// ReadState returns the global state of a representative application
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

func isValidProposal(x *ledger.Exec, state State, proposal ledger.AppID) (bool, error) {
	return xgov.IsRegistryProposal(x, state.XgovRegistry, proposal)
}

// Create initializes a representative. It may only be called by another
// application, which becomes the registry of the representative
func Create(x *ledger.Exec, representative ledger.Address, xgovRegistry ledger.AppID) error {
	if x.CallerApp() == 0 {
		return types.ErrUnauthorized
	}
	return x.StoreGlobal(&State{
		Representative: representative,
		Registry:       x.CallerApp(),
		XgovRegistry:   xgovRegistry,
	})
}

// Update approves a program update issued by the registry
func Update(x *ledger.Exec) error {
	if !isCreator(x) {
		return types.ErrNotCreator
	}
	return nil
}

func Pause(x *ledger.Exec) error {
	return setPaused(x, true)
}

func Resume(x *ledger.Exec) error {
	return setPaused(x, false)
}

func setPaused(x *ledger.Exec, paused bool) error {
	state, err := load(x)
	if err != nil {
		return err
	}
	if x.Sender() != state.Representative {
		return types.ErrUnauthorized
	}
	state.Paused = paused
	return x.StoreGlobal(&state)
}

// PublishVote declares the vote of the representative on a proposal. The grouped
// payment must cover exactly the minimum balance of the new vote box
func PublishVote(x *ledger.Exec, proposal ledger.AppID, vote types.Vote) error {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	state, err := load(x)
	if err != nil {
		return err
	}
	if x.Sender() != state.Representative {
		return types.ErrUnauthorized
	}
	valid, err := isValidProposal(x, state, proposal)
	if err != nil {
		return err
	}
	if !valid {
		return types.ErrInvalidProposal
	}
	if state.Paused {
		return types.ErrContractPaused
	}
	boxName := VoteBoxName(proposal)
	_, exists, err := x.BoxGet(boxName)
	if err != nil {
		return err
	}
	if exists {
		return types.ErrVoteAlreadyPublished
	}
	if !vote.InRange() {
		return types.ErrVoteNotInPPM
	}
	if err := x.BoxPut(boxName, encodeVote(vote)); err != nil {
		return err
	}
	mbrAfter, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	if err := x.VerifyPayment(mbrAfter - mbrBefore); err != nil {
		return err
	}
	x.Emit(
		event.VotePublishedEventType,
		event.RepresentativeVoteEvent{
			RepresentativeAppId: uint64(x.App()),
			ProposalAppId:       uint64(proposal),
			ApprovalPPM:         vote.ApprovalPPM,
			RejectionPPM:        vote.RejectionPPM,
		},
	)
	return nil
}

// DeleteVote removes a declared vote outside of the voting period of the proposal
// and returns the freed minimum balance to the registry
func DeleteVote(x *ledger.Exec, proposal ledger.AppID) error {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	state, err := load(x)
	if err != nil {
		return err
	}
	if x.Sender() != state.Representative {
		return types.ErrUnauthorized
	}
	voting, err := xgov.IsProposalVoting(x, proposal)
	if err != nil {
		return err
	}
	if voting {
		return types.ErrProposalVoting
	}
	deleted, err := x.BoxDelete(VoteBoxName(proposal))
	if err != nil {
		return err
	}
	if !deleted {
		return types.ErrNoVotePublished
	}
	mbrAfter, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	if err := x.Pay(x.Creator(), mbrBefore-mbrAfter); err != nil {
		return err
	}
	x.Emit(
		event.VoteDeletedEventType,
		event.RepresentativeVoteEvent{
			RepresentativeAppId: uint64(x.App()),
			ProposalAppId:       uint64(proposal),
		},
	)
	return nil
}

// Delete approves the deletion of the representative by the registry. All votes
// must have been deleted first
func Delete(x *ledger.Exec) error {
	if !isCreator(x) {
		return types.ErrNotCreator
	}
	minBalance, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	if minBalance != ledger.AccountMinBalance {
		return types.ErrUndeletedBoxes
	}
	return x.CloseOut(x.Creator())
}

// GetVoteBox returns the stored vote on a proposal regardless of the pause flag
func GetVoteBox(x *ledger.Exec, proposal ledger.AppID) (types.Vote, bool, error) {
	data, exists, err := x.BoxGet(VoteBoxName(proposal))
	if err != nil || !exists {
		return types.Vote{}, false, err
	}
	return decodeVote(data), true, nil
}

// GetVote returns the stored vote on a proposal. The vote is only valid while
// the representative is not paused
func GetVote(x *ledger.Exec, proposal ledger.AppID) (types.Vote, bool, error) {
	vote, exists, err := GetVoteBox(x, proposal)
	if err != nil {
		return vote, false, err
	}
	state, err := load(x)
	if err != nil {
		return vote, false, err
	}
	return vote, exists && !state.Paused, nil
}

// CallGetVote calls GetVote on a representative application
func CallGetVote(
	x *ledger.Exec,
	app ledger.AppID,
	proposal ledger.AppID,
) (types.Vote, bool, error) {
	var vote types.Vote
	var valid bool
	err := x.Call(
		ledger.InnerCall{App: app, Kind: Kind, Method: "get_vote"},
		func(y *ledger.Exec) error {
			var err error
			vote, valid, err = GetVote(y, proposal)
			return err
		},
	)
	return vote, valid, err
}
