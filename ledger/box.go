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
)

// Box operations act on the boxes of the current application. Box allocations
// raise the minimum balance of the application account

func (x *Exec) boxGet(name []byte) ([]byte, []byte, bool, error) {
	key, err := x.state.boxKey(x.app.ID, name)
	if err != nil {
		return nil, nil, false, err
	}
	val, ok, err := x.state.blobGet(key)
	return key, val, ok, err
}

func (x *Exec) boxAllocate(delta int64, count int64) error {
	return x.state.updateAccount(x.AppAddress(), func(a *account) error {
		a.BoxCount = uint64(int64(a.BoxCount) + count)
		a.BoxBytes = uint64(int64(a.BoxBytes) + delta)
		return nil
	})
}

// BoxCreate creates a zero-filled box. It returns false if a box of the same size
// already exists
func (x *Exec) BoxCreate(name []byte, size uint64) (bool, error) {
	if size > MaxBoxSize {
		return false, fmt.Errorf("%w: %d", ErrBoxTooLarge, size)
	}
	key, val, ok, err := x.boxGet(name)
	if err != nil {
		return false, err
	}
	if ok {
		if uint64(len(val)) != size {
			return false, fmt.Errorf(
				"%w: %q has %d bytes, requested %d",
				ErrBoxSizeMismatch,
				name,
				len(val),
				size,
			)
		}
		return false, nil
	}
	if err := x.state.blobSet(key, make([]byte, size)); err != nil {
		return false, err
	}
	// #nosec G115
	return true, x.boxAllocate(int64(len(name))+int64(size), 1)
}

// BoxPut writes a whole box, creating it if needed. An existing box must have the
// same length as value
func (x *Exec) BoxPut(name []byte, value []byte) error {
	if len(value) > MaxBoxSize {
		return fmt.Errorf("%w: %d", ErrBoxTooLarge, len(value))
	}
	key, val, ok, err := x.boxGet(name)
	if err != nil {
		return err
	}
	if ok && len(val) != len(value) {
		return fmt.Errorf(
			"%w: %q has %d bytes, writing %d",
			ErrBoxSizeMismatch,
			name,
			len(val),
			len(value),
		)
	}
	if err := x.state.blobSet(key, value); err != nil {
		return err
	}
	if ok {
		return nil
	}
	return x.boxAllocate(int64(len(name)+len(value)), 1)
}

func (x *Exec) BoxGet(name []byte) ([]byte, bool, error) {
	_, val, ok, err := x.boxGet(name)
	return val, ok, err
}

func (x *Exec) BoxLength(name []byte) (uint64, bool, error) {
	_, val, ok, err := x.boxGet(name)
	return uint64(len(val)), ok, err
}

// BoxResize changes the size of a box, truncating or zero-extending its contents
func (x *Exec) BoxResize(name []byte, size uint64) error {
	if size > MaxBoxSize {
		return fmt.Errorf("%w: %d", ErrBoxTooLarge, size)
	}
	key, val, ok, err := x.boxGet(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrBoxNotFound, name)
	}
	newVal := make([]byte, size)
	copy(newVal, val)
	if err := x.state.blobSet(key, newVal); err != nil {
		return err
	}
	// #nosec G115
	return x.boxAllocate(int64(size)-int64(len(val)), 0)
}

// BoxReplace overwrites part of a box starting at offset
func (x *Exec) BoxReplace(name []byte, offset uint64, data []byte) error {
	key, val, ok, err := x.boxGet(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrBoxNotFound, name)
	}
	if offset > uint64(len(val)) || uint64(len(data)) > uint64(len(val))-offset {
		return fmt.Errorf(
			"%w: replace %d bytes at %d in %d byte box",
			ErrBoxOutOfBounds,
			len(data),
			offset,
			len(val),
		)
	}
	copy(val[offset:], data)
	return x.state.blobSet(key, val)
}

func (x *Exec) BoxExtract(name []byte, offset uint64, length uint64) ([]byte, error) {
	_, val, ok, err := x.boxGet(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBoxNotFound, name)
	}
	if offset > uint64(len(val)) || length > uint64(len(val))-offset {
		return nil, fmt.Errorf(
			"%w: extract %d bytes at %d from %d byte box",
			ErrBoxOutOfBounds,
			length,
			offset,
			len(val),
		)
	}
	return val[offset : offset+length], nil
}

// BoxDelete removes a box and releases its minimum balance. It returns false if
// the box did not exist
func (x *Exec) BoxDelete(name []byte) (bool, error) {
	key, val, ok, err := x.boxGet(name)
	if err != nil || !ok {
		return false, err
	}
	if err := x.state.blobDelete(key); err != nil {
		return false, err
	}
	return true, x.boxAllocate(-int64(len(name)+len(val)), -1)
}

// BoxNames lists the boxes of the current application whose names start with prefix
func (x *Exec) BoxNames(prefix []byte) ([][]byte, error) {
	return x.state.boxNames(x.app.ID, prefix)
}
