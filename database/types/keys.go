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
	"encoding/binary"
	"slices"
)

const (
	AccountBlobKeyPrefix = "a"
	AppBlobKeyPrefix     = "p"
	GlobalBlobKeyPrefix  = "g"
	BoxBlobKeyPrefix     = "b"
	MetaBlobKeyPrefix    = "m"
)

func BlobKeyUint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func AccountBlobKey(addr []byte) []byte {
	return slices.Concat([]byte(AccountBlobKeyPrefix), addr)
}

func AppBlobKey(appId uint64) []byte {
	return slices.Concat(
		[]byte(AppBlobKeyPrefix),
		BlobKeyUint64ToBytes(appId),
	)
}

func GlobalBlobKey(appId uint64) []byte {
	return slices.Concat(
		[]byte(GlobalBlobKeyPrefix),
		BlobKeyUint64ToBytes(appId),
	)
}

// BoxBlobKeyPrefixForApp returns the key prefix shared by all boxes of an app
func BoxBlobKeyPrefixForApp(appId uint64) []byte {
	return slices.Concat(
		[]byte(BoxBlobKeyPrefix),
		BlobKeyUint64ToBytes(appId),
	)
}

func BoxBlobKey(appId uint64, name []byte) []byte {
	return slices.Concat(BoxBlobKeyPrefixForApp(appId), name)
}

func MetaBlobKey(name string) []byte {
	return slices.Concat([]byte(MetaBlobKeyPrefix), []byte(name))
}
