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

package models

// Vote source constants
const (
	VoteSourceRepresentative = "representative"
	VoteSourceDirect         = "direct"
)

// VoteCast records a vote submitted to the xGov registry on behalf of a delegator
type VoteCast struct {
	ID               uint   `gorm:"primarykey"`
	Round            uint64 `gorm:"index;not null"`
	Timestamp        int64  `gorm:"not null"`
	ProposalID       uint64 `gorm:"index:idx_vote_cast_proposal;not null"`
	Delegator        []byte `gorm:"index:idx_vote_cast_delegator;size:32;not null"`
	Approvals        uint64
	Rejections       uint64
	Source           string `gorm:"size:16;not null"`
	RepresentativeID uint64 // 0 for direct votes
}

func (VoteCast) TableName() string {
	return "vote_cast"
}
