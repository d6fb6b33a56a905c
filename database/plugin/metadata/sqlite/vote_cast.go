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

package sqlite

import (
	"github.com/blinklabs-io/delegato/database/models"
	"github.com/blinklabs-io/delegato/database/types"
)

func (d *MetadataStoreSqlite) AddVoteCast(
	vote *models.VoteCast,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(vote).Error
}

// GetVoteCasts returns the votes cast on a proposal in the order they were recorded
func (d *MetadataStoreSqlite) GetVoteCasts(
	proposalId uint64,
	txn types.Txn,
) ([]models.VoteCast, error) {
	var ret []models.VoteCast
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("proposal_id = ?", proposalId).
		Order("id").
		Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
