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

// Minimum balance requirements, in microalgos
const (
	AccountMinBalance     uint64 = 100_000
	BoxFlatMinBalance     uint64 = 2_500
	BoxByteMinBalance     uint64 = 400
	AppPageMinBalance     uint64 = 100_000
	SchemaUintMinBalance  uint64 = 28_500
	SchemaBytesMinBalance uint64 = 50_000
)

// Platform limits
const (
	PageSize      = 2048
	MaxExtraPages = 3
	MaxCallDepth  = 8
	MaxBoxSize    = 32768
	MaxBoxNameLen = 64
	FirstAppID    = 1001
)

// BoxMinBalance returns the minimum balance increase for a box with the given
// name length and size
func BoxMinBalance(nameLen, size uint64) uint64 {
	return BoxFlatMinBalance + BoxByteMinBalance*(nameLen+size)
}

// AppMinBalance returns the minimum balance increase charged to the creator of an
// application
func AppMinBalance(extraPages uint64, schema StateSchema) uint64 {
	return AppPageMinBalance*(1+extraPages) +
		SchemaUintMinBalance*schema.NumUint +
		SchemaBytesMinBalance*schema.NumByteSlice
}
