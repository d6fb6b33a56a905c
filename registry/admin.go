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
	"bytes"

	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
)

func isManager(x *ledger.Exec, state *State) bool {
	return x.Sender() == state.Manager
}

// loadManaged loads the registry state and checks that the sender is the manager
func loadManaged(x *ledger.Exec) (State, error) {
	state, err := load(x)
	if err != nil {
		return state, err
	}
	if !isManager(x, &state) {
		return state, types.ErrUnauthorized
	}
	return state, nil
}

// Create initializes a registry bound to an xGov registry. The registry starts
// paused with the default fees
func Create(x *ledger.Exec, xgovRegistry ledger.AppID, entropy []byte) error {
	expected, _ := x.TemplateValue(EntropyTemplate)
	if !bytes.Equal(expected, entropy) {
		return ErrEntropyMismatch
	}
	return store(x, &State{
		Manager:      x.Sender(),
		XgovRegistry: xgovRegistry,
		Fees:         types.DefaultFees(),
		Paused:       true,
	})
}

func SetManager(x *ledger.Exec, manager ledger.Address) error {
	state, err := loadManaged(x)
	if err != nil {
		return err
	}
	state.Manager = manager
	return store(x, &state)
}

// Configure replaces the fee schedule. The trigger fund is recomputed for the new
// award and must stay covered by the spendable balance
func Configure(x *ledger.Exec, fees types.Fees) error {
	state, err := loadManaged(x)
	if err != nil {
		return err
	}
	state.Fees = fees
	recomputeTriggerFund(&state)
	if err := validateConfig(x, &state); err != nil {
		return err
	}
	if err := store(x, &state); err != nil {
		return err
	}
	x.Emit(
		event.RegistryConfiguredEventType,
		event.RegistryConfiguredEvent{
			RegistryAppId:     uint64(x.App()),
			VoteFeeXgov:       fees.Vote.Xgov,
			VoteFeeOther:      fees.Vote.Other,
			RepresentativeFee: fees.Representative,
			VoteTriggerAward:  fees.VoteTriggerAward,
			TriggerFund:       state.TriggerFund,
		},
	)
	return nil
}

func Pause(x *ledger.Exec) error {
	return setPaused(x, true)
}

func Resume(x *ledger.Exec) error {
	return setPaused(x, false)
}

func setPaused(x *ledger.Exec, paused bool) error {
	state, err := loadManaged(x)
	if err != nil {
		return err
	}
	state.Paused = paused
	if err := store(x, &state); err != nil {
		return err
	}
	x.Emit(
		event.RegistryPauseEventType,
		event.RegistryPauseEvent{
			RegistryAppId: uint64(x.App()),
			Paused:        paused,
		},
	)
	return nil
}

// WithdrawBalance pays everything above the minimum balance and the trigger fund
// to the manager and returns the amount
func WithdrawBalance(x *ledger.Exec) (uint64, error) {
	state, err := loadManaged(x)
	if err != nil {
		return 0, err
	}
	available, err := spendable(x)
	if err != nil {
		return 0, err
	}
	if available <= state.TriggerFund {
		return 0, types.ErrInsufficientFunds
	}
	amount := available - state.TriggerFund
	if err := x.Pay(state.Manager, amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// InitContractCode allocates the staging box of a child contract, resizing it if
// it already exists
func InitContractCode(x *ledger.Exec, name types.ContractName, size uint64) error {
	if _, err := loadManaged(x); err != nil {
		return err
	}
	boxName, err := name.BoxName()
	if err != nil {
		return err
	}
	_, exists, err := x.BoxLength(boxName)
	if err != nil {
		return err
	}
	if exists {
		return x.BoxResize(boxName, size)
	}
	_, err = x.BoxCreate(boxName, size)
	return err
}

// LoadContractCode writes a chunk of child contract code at offset
func LoadContractCode(
	x *ledger.Exec,
	name types.ContractName,
	offset uint64,
	data []byte,
) error {
	if _, err := loadManaged(x); err != nil {
		return err
	}
	boxName, err := name.BoxName()
	if err != nil {
		return err
	}
	return x.BoxReplace(boxName, offset, data)
}

// IssueKeyRegistration registers or deregisters participation keys for the
// registry account. The grouped payment covers the registration fee
func IssueKeyRegistration(x *ledger.Exec, info types.KeyRegInfo) error {
	if _, err := loadManaged(x); err != nil {
		return err
	}
	payment := x.Payment()
	if payment == nil || payment.Receiver != x.AppAddress() {
		return types.PaymentError{Err: types.ErrWrongReceiver}
	}
	return x.KeyRegister(info, payment.Amount)
}

// UpdateRegistryCode approves a program update of the registry itself
func UpdateRegistryCode(x *ledger.Exec) error {
	_, err := loadManaged(x)
	return err
}

// UpdateVoter installs the staged voter code on the voter of a delegator
func UpdateVoter(x *ledger.Exec, delegator ledger.Address) error {
	if _, err := loadManaged(x); err != nil {
		return err
	}
	app, exists, err := lookup(x, voterBoxName(delegator))
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotVoter
	}
	code, err := stagedCode(x, types.ContractVoter)
	if err != nil {
		return err
	}
	return updateVoter(x, app, code)
}

// UpdateRepresentative installs the staged representative code on the
// application of a representative
func UpdateRepresentative(x *ledger.Exec, rep ledger.Address) error {
	if _, err := loadManaged(x); err != nil {
		return err
	}
	app, exists, err := lookup(x, representativeBoxName(rep))
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotRepresentative
	}
	code, err := stagedCode(x, types.ContractRepresentative)
	if err != nil {
		return err
	}
	return updateRepresentative(x, app, code)
}
