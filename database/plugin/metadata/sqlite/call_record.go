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

// AddCallRecord stores a call receipt
func (d *MetadataStoreSqlite) AddCallRecord(
	record *models.CallRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(record).Error
}

// GetCallRecords returns call receipts for an app, newest first. An appId of 0
// matches all apps, and a limit of 0 means no limit
func (d *MetadataStoreSqlite) GetCallRecords(
	appId uint64,
	limit int,
	txn types.Txn,
) ([]models.CallRecord, error) {
	var ret []models.CallRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id DESC")
	if appId != 0 {
		query = query.Where("app_id = ?", appId)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
