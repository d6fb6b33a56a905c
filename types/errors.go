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

package types

import (
	"errors"
	"fmt"
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotCreator   = errors.New("sender is not app creator")
)

// State precondition errors
var (
	ErrPaused                = errors.New("registry non-admin methods are paused")
	ErrContractPaused        = errors.New("contract is paused")
	ErrTooSoonToVote         = errors.New("too soon to vote")
	ErrAlreadyRepresentative = errors.New("already a representative")
	ErrAlreadyVoter          = errors.New("already a voter")
	ErrNotVoter              = errors.New("not a voter")
	ErrNotXgov               = errors.New("not an xGov")
	ErrVoterAssigned         = errors.New("voter is already assigned")
	ErrNotRepresentative     = errors.New("not a representative")
	ErrProposalVoting        = errors.New("proposal is in voting stage")
	ErrVoteAlreadyPublished  = errors.New("representative vote was already published")
	ErrNoVotePublished       = errors.New("representative vote was not published")
	ErrUndeletedBoxes        = errors.New("not all boxes deleted")
	ErrVoteInvalid           = errors.New("representative vote is invalid")
	ErrNoVotes               = errors.New("xGov does not have any votes")
	ErrInvalidContractName   = errors.New("unknown contract name")
	ErrContractCodeNotStaged = errors.New("contract code is not staged")
)

// Payment verification errors
var (
	ErrWrongReceiver      = errors.New("wrong receiver")
	ErrWrongPaymentAmount = errors.New("wrong payment amount")
)

// Consistency errors
var (
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrTriggerFundInsufficient = errors.New("trigger fund is not covered by the registry balance")
	ErrVoteFeesInvalid         = errors.New("xGov vote fee must not be larger than the fee for others")
	ErrTriggerAwardInvalid     = errors.New("trigger award must not be larger than the xGov vote fee")
	ErrNoVotesLeft             = errors.New("no paid votes left to cast")
	ErrVoteNotInPPM            = errors.New("vote not in PPM range")
	ErrVoteCountOutOfRange     = errors.New("paid vote count out of range")
)

// Referential integrity errors
var (
	ErrInvalidProposal           = errors.New("proposal is not part of the xGov registry")
	ErrUnrelatedApp              = errors.New("app was not created by the registry")
	ErrRepresentativeNonexistent = errors.New("representative does not exist")
)

// PaymentError carries the details of a payment that failed verification. It
// unwraps to ErrWrongReceiver or ErrWrongPaymentAmount
type PaymentError struct {
	Err      error
	Expected uint64
	Actual   uint64
}

func (e PaymentError) Error() string {
	return fmt.Sprintf(
		"%s: expected %d, got %d",
		e.Err,
		e.Expected,
		e.Actual,
	)
}

func (e PaymentError) Unwrap() error {
	return e.Err
}

type ErrorCategory int

const (
	CategoryPlatform ErrorCategory = iota
	CategoryAuthorization
	CategoryStatePrecondition
	CategoryPayment
	CategoryConsistency
	CategoryReferentialIntegrity
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryAuthorization:
		return "authorization"
	case CategoryStatePrecondition:
		return "state_precondition"
	case CategoryPayment:
		return "payment"
	case CategoryConsistency:
		return "consistency"
	case CategoryReferentialIntegrity:
		return "referential_integrity"
	default:
		return "platform"
	}
}

var errorCategories = map[ErrorCategory][]error{
	CategoryAuthorization: {
		ErrUnauthorized,
		ErrNotCreator,
	},
	CategoryStatePrecondition: {
		ErrPaused,
		ErrContractPaused,
		ErrTooSoonToVote,
		ErrAlreadyRepresentative,
		ErrAlreadyVoter,
		ErrNotVoter,
		ErrNotXgov,
		ErrVoterAssigned,
		ErrNotRepresentative,
		ErrProposalVoting,
		ErrVoteAlreadyPublished,
		ErrNoVotePublished,
		ErrUndeletedBoxes,
		ErrVoteInvalid,
		ErrNoVotes,
		ErrInvalidContractName,
		ErrContractCodeNotStaged,
	},
	CategoryPayment: {
		ErrWrongReceiver,
		ErrWrongPaymentAmount,
	},
	CategoryConsistency: {
		ErrInsufficientFunds,
		ErrTriggerFundInsufficient,
		ErrVoteFeesInvalid,
		ErrTriggerAwardInvalid,
		ErrNoVotesLeft,
		ErrVoteNotInPPM,
		ErrVoteCountOutOfRange,
	},
	CategoryReferentialIntegrity: {
		ErrInvalidProposal,
		ErrUnrelatedApp,
		ErrRepresentativeNonexistent,
	},
}

// CategoryOf classifies an error. Anything that isn't a known contract failure
// is reported as a platform error
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return CategoryPlatform
	}
	for category, errs := range errorCategories {
		for _, e := range errs {
			if errors.Is(err, e) {
				return category
			}
		}
	}
	return CategoryPlatform
}
