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
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

const (
	AddressLength = 32
	AddressHrp    = "xgov"
)

type Address [AddressLength]byte

var ZeroAddress Address

func NewAddress(data []byte) (Address, error) {
	var ret Address
	if len(data) != AddressLength {
		return ret, fmt.Errorf(
			"invalid address length: expected %d, got %d",
			AddressLength,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// ParseAddress decodes the bech32 text form of an address
func ParseAddress(text string) (Address, error) {
	hrp, data, err := bech32.Decode(text)
	if err != nil {
		return ZeroAddress, fmt.Errorf("decode address: %w", err)
	}
	if hrp != AddressHrp {
		return ZeroAddress, fmt.Errorf("unexpected address prefix: %s", hrp)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return ZeroAddress, fmt.Errorf("decode address: %w", err)
	}
	return NewAddress(decoded)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	convData, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(fmt.Sprintf("unexpected error converting address data: %s", err))
	}
	encoded, err := bech32.Encode(AddressHrp, convData)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding address: %s", err))
	}
	return encoded
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	if a == nil {
		return errors.New("nil address")
	}
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// AppID identifies an application in the ledger
type AppID uint64

// Address returns the account address controlled by the application
func (id AppID) Address() Address {
	buf := make([]byte, 0, 5+8)
	buf = append(buf, "appID"...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	return Address(blake2b.Sum256(buf))
}
