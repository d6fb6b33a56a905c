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

package types_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/blinklabs-io/delegato/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteInRange(t *testing.T) {
	testDefs := []struct {
		vote     types.Vote
		expected bool
	}{
		{vote: types.Vote{ApprovalPPM: 1_000_000}, expected: true},
		{vote: types.Vote{ApprovalPPM: 400_000, RejectionPPM: 600_000}, expected: true},
		{vote: types.Vote{ApprovalPPM: 400_000, RejectionPPM: 600_001}, expected: false},
		{vote: types.Vote{RejectionPPM: 1_000_001}, expected: false},
		{vote: types.Vote{ApprovalPPM: math.MaxUint64, RejectionPPM: 2}, expected: false},
		{vote: types.Vote{}, expected: true},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.expected,
			testDef.vote.InRange(),
			"vote %d/%d",
			testDef.vote.ApprovalPPM,
			testDef.vote.RejectionPPM,
		)
	}
}

func TestVoteScale(t *testing.T) {
	testDefs := []struct {
		vote     types.Vote
		weight   uint64
		expected types.VoteRaw
	}{
		{
			vote:     types.Vote{ApprovalPPM: 1_000_000},
			weight:   1,
			expected: types.VoteRaw{Approvals: 1},
		},
		{
			vote:     types.Vote{ApprovalPPM: 333_333, RejectionPPM: 333_333},
			weight:   10,
			expected: types.VoteRaw{Approvals: 3, Rejections: 3},
		},
		{
			vote:     types.Vote{ApprovalPPM: 999_999},
			weight:   1,
			expected: types.VoteRaw{},
		},
		{
			vote:     types.Vote{ApprovalPPM: 500_000, RejectionPPM: 500_000},
			weight:   math.MaxUint64,
			expected: types.VoteRaw{Approvals: math.MaxUint64 / 2, Rejections: math.MaxUint64 / 2},
		},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, testDef.vote.Scale(testDef.weight))
	}
}

func TestKeyRegInfoOnline(t *testing.T) {
	assert.False(t, types.KeyRegInfo{VoteFirst: 1, VoteLast: 2}.Online())
	info := types.KeyRegInfo{}
	info.SelectionKey[3] = 0x01
	assert.True(t, info.Online())
}

func TestContractBoxName(t *testing.T) {
	name, err := types.ContractVoter.BoxName()
	require.NoError(t, err)
	assert.Equal(t, []byte("sc_vot"), name)
	name, err = types.ContractRepresentative.BoxName()
	require.NoError(t, err)
	assert.Equal(t, []byte("sc_rep"), name)
	_, err = types.ContractName("registry").BoxName()
	assert.ErrorIs(t, err, types.ErrInvalidContractName)
}

func TestCategoryOf(t *testing.T) {
	testDefs := []struct {
		err      error
		expected types.ErrorCategory
	}{
		{err: types.ErrUnauthorized, expected: types.CategoryAuthorization},
		{err: fmt.Errorf("voter: %w", types.ErrVoterAssigned), expected: types.CategoryStatePrecondition},
		{
			err:      types.PaymentError{Err: types.ErrWrongPaymentAmount, Expected: 1, Actual: 2},
			expected: types.CategoryPayment,
		},
		{err: types.ErrTriggerFundInsufficient, expected: types.CategoryConsistency},
		{err: types.ErrVoteCountOutOfRange, expected: types.CategoryConsistency},
		{err: types.ErrInvalidProposal, expected: types.CategoryReferentialIntegrity},
		{err: errors.New("box not found"), expected: types.CategoryPlatform},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.expected, types.CategoryOf(testDef.err), testDef.err.Error())
	}
	assert.Equal(t, "payment", types.CategoryPayment.String())
}

func TestPaymentError(t *testing.T) {
	err := error(types.PaymentError{Err: types.ErrWrongPaymentAmount, Expected: 100, Actual: 99})
	assert.ErrorIs(t, err, types.ErrWrongPaymentAmount)
	assert.Equal(t, "wrong payment amount: expected 100, got 99", err.Error())
}
