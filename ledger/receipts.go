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
	"fmt"

	"github.com/blinklabs-io/delegato/database/models"
	"github.com/blinklabs-io/delegato/event"
)

// writeReceipts stores the call record and any votes cast during the call in the
// metadata side of the call transaction
func (l *Ledger) writeReceipts(state *callState, record *models.CallRecord) error {
	metadata := l.db.Metadata()
	if err := metadata.AddCallRecord(record, state.txn.Metadata()); err != nil {
		return fmt.Errorf("add call record: %w", err)
	}
	for _, evt := range state.events {
		if evt.Type != event.VoteCastEventType {
			continue
		}
		data, ok := evt.Data.(event.VoteCastEvent)
		if !ok {
			continue
		}
		delegator, err := ParseAddress(data.Delegator)
		if err != nil {
			return fmt.Errorf("vote cast receipt: %w", err)
		}
		source := models.VoteSourceDirect
		if data.RepresentativeAppId != 0 {
			source = models.VoteSourceRepresentative
		}
		voteCast := &models.VoteCast{
			Round:            state.round,
			Timestamp:        record.Timestamp,
			ProposalID:       data.ProposalAppId,
			Delegator:        delegator.Bytes(),
			Approvals:        data.Approvals,
			Rejections:       data.Rejections,
			Source:           source,
			RepresentativeID: data.RepresentativeAppId,
		}
		if err := metadata.AddVoteCast(voteCast, state.txn.Metadata()); err != nil {
			return fmt.Errorf("add vote cast: %w", err)
		}
	}
	return nil
}

// VoteCasts returns the recorded votes cast on a proposal
func (l *Ledger) VoteCasts(proposal AppID) ([]models.VoteCast, error) {
	return l.db.Metadata().GetVoteCasts(uint64(proposal), nil)
}
