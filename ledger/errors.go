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

package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrAppNotFound         = errors.New("application not found")
	ErrKindMismatch        = errors.New("application kind mismatch")
	ErrReentrantCall       = errors.New("reentrant application call")
	ErrCallDepthExceeded   = errors.New("application call depth exceeded")
	ErrInvalidProgram      = errors.New("invalid program")
	ErrProgramTooLarge     = errors.New("program exceeds application pages")
	ErrProgramKindMismatch = errors.New("program kind mismatch")
	ErrTooManyExtraPages   = errors.New("too many extra pages")
	ErrBoxNotFound         = errors.New("box not found")
	ErrBoxSizeMismatch     = errors.New("box exists with a different size")
	ErrBoxTooLarge         = errors.New("box size exceeds maximum")
	ErrInvalidBoxName      = errors.New("invalid box name")
	ErrBoxOutOfBounds      = errors.New("box access out of bounds")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrReadOnly            = errors.New("write in read-only call")
	ErrNoHandler           = errors.New("no handler registered for application kind")
	ErrGlobalStateNotFound = errors.New("application has no global state")
	ErrGlobalStateDecode   = errors.New("global state does not match the requested layout")
)

// MinBalanceError reports an account left below its minimum balance at the end of a call
type MinBalanceError struct {
	Address    Address
	Balance    uint64
	MinBalance uint64
}

func (e MinBalanceError) Error() string {
	return fmt.Sprintf(
		"account %s balance %d below min %d",
		e.Address,
		e.Balance,
		e.MinBalance,
	)
}
