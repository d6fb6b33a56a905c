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
	"math"

	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/voter"
	"github.com/blinklabs-io/delegato/xgov"
)

// loadActive loads the registry state and fails if the registry is paused
func loadActive(x *ledger.Exec) (State, error) {
	state, err := load(x)
	if err != nil {
		return state, err
	}
	if state.Paused {
		return state, types.ErrPaused
	}
	return state, nil
}

// PrepareVoter creates an unassigned voter that a later registration can claim.
// The grouped payment must cover the registry minimum balance increase and the
// minimum balance of the voter account
func PrepareVoter(x *ledger.Exec) (ledger.AppID, error) {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return 0, err
	}
	state, err := load(x)
	if err != nil {
		return 0, err
	}
	id, err := createVoter(x, &state)
	if err != nil {
		return 0, err
	}
	delta, err := mbrDelta(x, mbrBefore)
	if err != nil {
		return 0, err
	}
	if err := verifyPayment(x, delta+ledger.AccountMinBalance); err != nil {
		return 0, err
	}
	x.Emit(
		event.VoterPreparedEventType,
		event.VoterPreparedEvent{
			RegistryAppId: uint64(x.App()),
			VoterAppId:    uint64(id),
		},
	)
	return id, nil
}

// RegisterVoter assigns an available voter to an xGov. The sender must be the
// xGov or its voting address and becomes the manager of the voter. A fresh
// unassigned voter is prepared in the same call to replace the one consumed
func RegisterVoter(
	x *ledger.Exec,
	delegator ledger.Address,
	availableVoter ledger.AppID,
) (ledger.AppID, error) {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return 0, err
	}
	state, err := loadActive(x)
	if err != nil {
		return 0, err
	}
	boxName := voterBoxName(delegator)
	if _, exists, err := lookup(x, boxName); err != nil {
		return 0, err
	} else if exists {
		return 0, types.ErrAlreadyVoter
	}
	xgovBox, exists, err := xgov.GetXgovBox(x, state.XgovRegistry, delegator)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, types.ErrNotXgov
	}
	sender := x.Sender()
	if sender != delegator && sender != xgovBox.VotingAddress {
		return 0, types.ErrUnauthorized
	}
	if _, err := createVoter(x, &state); err != nil {
		return 0, err
	}
	if err := checkUnassigned(x, availableVoter); err != nil {
		return 0, err
	}
	if err := assignVoter(x, availableVoter, delegator, sender); err != nil {
		return 0, err
	}
	if err := x.BoxPut(boxName, encodeAppID(availableVoter)); err != nil {
		return 0, err
	}
	delta, err := mbrDelta(x, mbrBefore)
	if err != nil {
		return 0, err
	}
	if err := verifyPayment(x, delta+ledger.AccountMinBalance); err != nil {
		return 0, err
	}
	x.Emit(
		event.VoterRegisteredEventType,
		event.VoterRegisteredEvent{
			RegistryAppId: uint64(x.App()),
			VoterAppId:    uint64(availableVoter),
			Delegator:     delegator.String(),
			Manager:       sender.String(),
		},
	)
	return availableVoter, nil
}

// checkUnassigned verifies that an application is a voter of this registry that
// has not been claimed yet
func checkUnassigned(x *ledger.Exec, app ledger.AppID) error {
	info, exists, err := x.AppInfo(app)
	if err != nil {
		return err
	}
	if !exists || info.Kind != voter.Kind || info.Creator != x.AppAddress() {
		return types.ErrUnrelatedApp
	}
	voterState, err := voter.ReadState(x, app)
	if err != nil {
		return err
	}
	if voterState.Assigned() {
		return types.ErrVoterAssigned
	}
	return nil
}

// AddVotes sells paid votes for the voter of an xGov. The xGov pays the xGov
// fee; its voting address or the voter manager pays the other fee
func AddVotes(x *ledger.Exec, delegator ledger.Address, count uint64) error {
	state, err := loadActive(x)
	if err != nil {
		return err
	}
	app, exists, err := lookup(x, voterBoxName(delegator))
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotVoter
	}
	sender := x.Sender()
	price := state.Fees.Vote.Xgov
	if sender != delegator {
		price = state.Fees.Vote.Other
		xgovBox, exists, err := xgov.GetXgovBox(x, state.XgovRegistry, delegator)
		if err != nil {
			return err
		}
		if !exists {
			return types.ErrNotXgov
		}
		voterState, err := voter.ReadState(x, app)
		if err != nil {
			return err
		}
		if sender != xgovBox.VotingAddress && sender != voterState.Manager {
			return types.ErrUnauthorized
		}
	}
	if count > math.MaxUint64-state.VotesLeft {
		return types.ErrVoteCountOutOfRange
	}
	votesLeft, err := addVoterVotes(x, app, count)
	if err != nil {
		return err
	}
	state.VotesLeft += count
	recomputeTriggerFund(&state)
	fee, ok := voteFee(price, count)
	if !ok {
		return types.PaymentError{Err: types.ErrWrongPaymentAmount}
	}
	if err := verifyPayment(x, fee); err != nil {
		return err
	}
	if err := store(x, &state); err != nil {
		return err
	}
	x.Emit(
		event.VotesAddedEventType,
		event.VotesAddedEvent{
			RegistryAppId: uint64(x.App()),
			Delegator:     delegator.String(),
			Payer:         sender.String(),
			Count:         count,
			Fee:           fee,
			VotesLeft:     votesLeft,
		},
	)
	return nil
}

// TriggerVote casts the representative vote of an xGov on a proposal and pays the
// trigger award to the sender
func TriggerVote(
	x *ledger.Exec,
	delegator ledger.Address,
	proposal ledger.AppID,
) (types.VoteRaw, error) {
	state, err := loadActive(x)
	if err != nil {
		return types.VoteRaw{}, err
	}
	app, exists, err := lookup(x, voterBoxName(delegator))
	if err != nil {
		return types.VoteRaw{}, err
	}
	if !exists {
		return types.VoteRaw{}, types.ErrNotVoter
	}
	raw, err := voteRepresentative(x, app, proposal)
	if err != nil {
		return types.VoteRaw{}, err
	}
	if state.VotesLeft == 0 {
		return types.VoteRaw{}, types.ErrNoVotesLeft
	}
	state.VotesLeft--
	recomputeTriggerFund(&state)
	if err := store(x, &state); err != nil {
		return types.VoteRaw{}, err
	}
	award := state.Fees.VoteTriggerAward
	if err := x.Pay(x.Sender(), award); err != nil {
		return types.VoteRaw{}, err
	}
	x.Emit(
		event.VoteTriggeredEventType,
		event.VoteTriggeredEvent{
			RegistryAppId: uint64(x.App()),
			Delegator:     delegator.String(),
			ProposalAppId: uint64(proposal),
			Caller:        x.Sender().String(),
			Award:         award,
		},
	)
	return raw, nil
}

// UnregisterVoter removes the voter of an xGov and refunds the released minimum
// balance to the xGov. Once the xGov has left the xGov registry anyone may
// unregister it
func UnregisterVoter(x *ledger.Exec, delegator ledger.Address) error {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	state, err := loadActive(x)
	if err != nil {
		return err
	}
	boxName := voterBoxName(delegator)
	app, exists, err := lookup(x, boxName)
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotVoter
	}
	voterState, err := voter.ReadState(x, app)
	if err != nil {
		return err
	}
	xgovBox, isXgov, err := xgov.GetXgovBox(x, state.XgovRegistry, delegator)
	if err != nil {
		return err
	}
	if isXgov {
		sender := x.Sender()
		if sender != delegator && sender != voterState.Manager {
			return types.ErrUnauthorized
		}
		if xgovBox.VotingAddress != voterState.Manager && xgovBox.VotingAddress != delegator {
			if err := yieldVotingRights(x, app, voterState.Manager); err != nil {
				return err
			}
		}
	}
	released := voterState.VotesLeft
	if released > state.VotesLeft {
		return types.ErrVoteCountOutOfRange
	}
	state.VotesLeft -= released
	recomputeTriggerFund(&state)
	if err := store(x, &state); err != nil {
		return err
	}
	if err := deleteVoter(x, app); err != nil {
		return err
	}
	if _, err := x.BoxDelete(boxName); err != nil {
		return err
	}
	refund, err := mbrReleased(x, mbrBefore)
	if err != nil {
		return err
	}
	if err := x.Pay(delegator, refund); err != nil {
		return err
	}
	x.Emit(
		event.VoterUnregisteredEventType,
		event.VoterUnregisteredEvent{
			RegistryAppId: uint64(x.App()),
			VoterAppId:    uint64(app),
			Delegator:     delegator.String(),
			VotesReleased: released,
			Refund:        refund,
		},
	)
	return nil
}

// GetVoterRef returns the voter of an xGov and whether it exists
func GetVoterRef(x *ledger.Exec, delegator ledger.Address) (ledger.AppID, bool, error) {
	return lookup(x, voterBoxName(delegator))
}

// Voters lists the registered xGovs and their voters
func Voters(x *ledger.Exec) (map[ledger.Address]ledger.AppID, error) {
	return listRefs(x, votersPrefix)
}

func listRefs(x *ledger.Exec, prefix []byte) (map[ledger.Address]ledger.AppID, error) {
	names, err := x.BoxNames(prefix)
	if err != nil {
		return nil, err
	}
	ret := make(map[ledger.Address]ledger.AppID, len(names))
	for _, name := range names {
		addr, err := addressFromBoxName(name)
		if err != nil {
			continue
		}
		app, exists, err := lookup(x, name)
		if err != nil {
			return nil, err
		}
		if exists {
			ret[addr] = app
		}
	}
	return ret, nil
}

// UnassignedVoters lists the prepared voters of the registry that have not been
// claimed, in creation order
func UnassignedVoters(x *ledger.Exec) ([]ledger.AppID, error) {
	apps, err := x.AppsCreatedBy(x.AppAddress())
	if err != nil {
		return nil, err
	}
	var ret []ledger.AppID
	for _, app := range apps {
		if app.Kind != voter.Kind {
			continue
		}
		state, err := voter.ReadState(x, app.ID)
		if err != nil {
			return nil, err
		}
		if !state.Assigned() {
			ret = append(ret, app.ID)
		}
	}
	return ret, nil
}
