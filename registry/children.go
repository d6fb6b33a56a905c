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
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/voter"
)

// stagedCode returns the staged program of a child contract
func stagedCode(x *ledger.Exec, name types.ContractName) ([]byte, error) {
	boxName, err := name.BoxName()
	if err != nil {
		return nil, err
	}
	length, exists, err := x.BoxLength(boxName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, types.ErrContractCodeNotStaged
	}
	return x.BoxExtract(boxName, 0, length)
}

// createVoter creates and funds an unassigned voter from the staged code
func createVoter(x *ledger.Exec, state *State) (ledger.AppID, error) {
	code, err := stagedCode(x, types.ContractVoter)
	if err != nil {
		return 0, err
	}
	id, err := x.Create(
		voter.NewCreateParams(code),
		func(y *ledger.Exec) error {
			return voter.Create(y, state.XgovRegistry, 0, types.DefaultVoterWindow)
		},
	)
	if err != nil {
		return 0, err
	}
	if err := x.Pay(id.Address(), ledger.AccountMinBalance); err != nil {
		return 0, err
	}
	return id, nil
}

func callVoter(
	x *ledger.Exec,
	app ledger.AppID,
	method string,
	onCompletion ledger.OnCompletion,
	program []byte,
	fn func(*ledger.Exec) error,
) error {
	return x.Call(
		ledger.InnerCall{
			App:          app,
			Kind:         voter.Kind,
			Method:       method,
			OnCompletion: onCompletion,
			Program:      program,
		},
		fn,
	)
}

func assignVoter(
	x *ledger.Exec,
	app ledger.AppID,
	delegator ledger.Address,
	manager ledger.Address,
) error {
	return callVoter(x, app, "assign_xgov", ledger.NoOp, nil, func(y *ledger.Exec) error {
		return voter.AssignDelegator(y, delegator, manager)
	})
}

func addVoterVotes(x *ledger.Exec, app ledger.AppID, count uint64) (uint64, error) {
	var votesLeft uint64
	err := callVoter(x, app, "add_votes", ledger.NoOp, nil, func(y *ledger.Exec) error {
		var err error
		votesLeft, err = voter.AddVotes(y, count)
		return err
	})
	return votesLeft, err
}

func voteRepresentative(
	x *ledger.Exec,
	app ledger.AppID,
	proposal ledger.AppID,
) (types.VoteRaw, error) {
	var raw types.VoteRaw
	err := callVoter(x, app, "vote_representative", ledger.NoOp, nil, func(y *ledger.Exec) error {
		var err error
		raw, err = voter.VoteRepresentative(y, proposal)
		return err
	})
	return raw, err
}

func yieldVotingRights(x *ledger.Exec, app ledger.AppID, votingAddress ledger.Address) error {
	return callVoter(x, app, "yield_voting_rights", ledger.NoOp, nil, func(y *ledger.Exec) error {
		return voter.YieldVotingRights(y, votingAddress)
	})
}

func deleteVoter(x *ledger.Exec, app ledger.AppID) error {
	return callVoter(x, app, "delete", ledger.DeleteApplication, nil, voter.Delete)
}

func updateVoter(x *ledger.Exec, app ledger.AppID, program []byte) error {
	return callVoter(x, app, "update", ledger.UpdateApplication, program, voter.Update)
}

// createRepresentative creates and funds a representative from the staged code
func createRepresentative(
	x *ledger.Exec,
	state *State,
	rep ledger.Address,
) (ledger.AppID, error) {
	code, err := stagedCode(x, types.ContractRepresentative)
	if err != nil {
		return 0, err
	}
	id, err := x.Create(
		representative.NewCreateParams(code),
		func(y *ledger.Exec) error {
			return representative.Create(y, rep, state.XgovRegistry)
		},
	)
	if err != nil {
		return 0, err
	}
	if err := x.Pay(id.Address(), ledger.AccountMinBalance); err != nil {
		return 0, err
	}
	return id, nil
}

func callRepresentative(
	x *ledger.Exec,
	app ledger.AppID,
	method string,
	onCompletion ledger.OnCompletion,
	program []byte,
	fn func(*ledger.Exec) error,
) error {
	return x.Call(
		ledger.InnerCall{
			App:          app,
			Kind:         representative.Kind,
			Method:       method,
			OnCompletion: onCompletion,
			Program:      program,
		},
		fn,
	)
}

func deleteRepresentative(x *ledger.Exec, app ledger.AppID) error {
	return callRepresentative(
		x,
		app,
		"delete",
		ledger.DeleteApplication,
		nil,
		representative.Delete,
	)
}

func updateRepresentative(x *ledger.Exec, app ledger.AppID, program []byte) error {
	return callRepresentative(
		x,
		app,
		"update",
		ledger.UpdateApplication,
		program,
		representative.Update,
	)
}
