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

// CallRecord is the receipt written for every top-level application call,
// whether it committed or was rolled back
type CallRecord struct {
	ID        uint   `gorm:"primarykey"`
	Round     uint64 `gorm:"index;not null"`
	Timestamp int64  `gorm:"not null"`
	Sender    []byte `gorm:"index;size:32;not null"`
	AppID     uint64 `gorm:"index;not null"`
	Kind      string `gorm:"size:32"`
	Method    string `gorm:"size:64;not null"`
	Success   bool   `gorm:"index"`
	Error     string
	Category  string `gorm:"size:32"`
}

func (CallRecord) TableName() string {
	return "call_record"
}
