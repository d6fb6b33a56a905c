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
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
)

// RegisterRepresentative creates a representative application for the sender.
// The grouped payment covers the representative fee and the minimum balances
func RegisterRepresentative(x *ledger.Exec) (ledger.AppID, error) {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return 0, err
	}
	state, err := loadActive(x)
	if err != nil {
		return 0, err
	}
	rep := x.Sender()
	boxName := representativeBoxName(rep)
	if _, exists, err := lookup(x, boxName); err != nil {
		return 0, err
	} else if exists {
		return 0, types.ErrAlreadyRepresentative
	}
	id, err := createRepresentative(x, &state, rep)
	if err != nil {
		return 0, err
	}
	if err := x.BoxPut(boxName, encodeAppID(id)); err != nil {
		return 0, err
	}
	delta, err := mbrDelta(x, mbrBefore)
	if err != nil {
		return 0, err
	}
	expected := delta + state.Fees.Representative + ledger.AccountMinBalance
	if err := verifyPayment(x, expected); err != nil {
		return 0, err
	}
	x.Emit(
		event.RepresentativeRegisteredEventType,
		event.RepresentativeEvent{
			RegistryAppId:       uint64(x.App()),
			RepresentativeAppId: uint64(id),
			Representative:      rep.String(),
		},
	)
	return id, nil
}

// UnregisterRepresentative deletes the representative application of the sender
// and refunds the released minimum balance. All published votes must have been
// deleted first
func UnregisterRepresentative(x *ledger.Exec) error {
	mbrBefore, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return err
	}
	if _, err := loadActive(x); err != nil {
		return err
	}
	rep := x.Sender()
	boxName := representativeBoxName(rep)
	app, exists, err := lookup(x, boxName)
	if err != nil {
		return err
	}
	if !exists {
		return types.ErrNotRepresentative
	}
	if err := deleteRepresentative(x, app); err != nil {
		return err
	}
	if _, err := x.BoxDelete(boxName); err != nil {
		return err
	}
	refund, err := mbrReleased(x, mbrBefore)
	if err != nil {
		return err
	}
	if err := x.Pay(rep, refund); err != nil {
		return err
	}
	x.Emit(
		event.RepresentativeUnregisteredEventType,
		event.RepresentativeEvent{
			RegistryAppId:       uint64(x.App()),
			RepresentativeAppId: uint64(app),
			Representative:      rep.String(),
		},
	)
	return nil
}

// GetRepresentativeRef returns the application of a representative and whether
// it exists
func GetRepresentativeRef(x *ledger.Exec, rep ledger.Address) (ledger.AppID, bool, error) {
	return lookup(x, representativeBoxName(rep))
}

// Representatives lists the registered representatives and their applications
func Representatives(x *ledger.Exec) (map[ledger.Address]ledger.AppID, error) {
	return listRefs(x, representativesPrefix)
}
