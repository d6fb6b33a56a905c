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
	"math/bits"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
)

// recomputeTriggerFund reserves the trigger award for every outstanding paid vote
func recomputeTriggerFund(state *State) {
	hi, lo := bits.Mul64(state.Fees.VoteTriggerAward, state.VotesLeft)
	if hi != 0 {
		state.TriggerFund = ^uint64(0)
		return
	}
	state.TriggerFund = lo
}

// spendable returns the registry balance above its minimum balance
func spendable(x *ledger.Exec) (uint64, error) {
	acct, err := x.Account(x.AppAddress())
	if err != nil {
		return 0, err
	}
	if acct.Balance < acct.MinBalance {
		return 0, nil
	}
	return acct.Balance - acct.MinBalance, nil
}

// validateConfig checks the fee configuration against the funds of the registry
func validateConfig(x *ledger.Exec, state *State) error {
	available, err := spendable(x)
	if err != nil {
		return err
	}
	if state.TriggerFund > available {
		return types.ErrTriggerFundInsufficient
	}
	if state.Fees.Vote.Xgov > state.Fees.Vote.Other {
		return types.ErrVoteFeesInvalid
	}
	if state.Fees.VoteTriggerAward > state.Fees.Vote.Xgov {
		return types.ErrTriggerAwardInvalid
	}
	return nil
}

// voteFee returns the total price of count votes
func voteFee(price uint64, count uint64) (uint64, bool) {
	hi, lo := bits.Mul64(price, count)
	return lo, hi == 0
}

// verifyPayment checks that the grouped payment pays the registry exactly
// the expected amount
func verifyPayment(x *ledger.Exec, expected uint64) error {
	return x.VerifyPayment(expected)
}

// mbrDelta returns the growth of the registry minimum balance since before
func mbrDelta(x *ledger.Exec, before uint64) (uint64, error) {
	after, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return 0, err
	}
	if after < before {
		return 0, nil
	}
	return after - before, nil
}

// mbrReleased returns the shrinkage of the registry minimum balance since before
func mbrReleased(x *ledger.Exec, before uint64) (uint64, error) {
	after, err := x.MinBalance(x.AppAddress())
	if err != nil {
		return 0, err
	}
	if after > before {
		return 0, nil
	}
	return before - after, nil
}
