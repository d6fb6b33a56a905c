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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/delegato/database"
	dbtypes "github.com/blinklabs-io/delegato/database/types"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/gouroboros/cbor"
)

const (
	metaKeyRound     = "round"
	metaKeyNextAppId = "next_app_id"
)

// callState is shared by every Exec of a single top-level call
type callState struct {
	ledger    *Ledger
	txn       *database.Txn
	readOnly  bool
	round     uint64
	timestamp uint64
	touched   map[Address]struct{}
	stack     []AppID
	events    []event.Event
	created   int
}

func newCallState(l *Ledger, txn *database.Txn, readOnly bool) *callState {
	return &callState{
		ledger:   l,
		txn:      txn,
		readOnly: readOnly,
		touched:  make(map[Address]struct{}),
	}
}

func (s *callState) blobGet(key []byte) ([]byte, bool, error) {
	val, err := s.ledger.db.Blob().Get(s.txn.Blob(), key)
	if err != nil {
		if errors.Is(err, dbtypes.ErrBlobKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *callState) blobSet(key, val []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	return s.ledger.db.Blob().Set(s.txn.Blob(), key, val)
}

func (s *callState) blobDelete(key []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	return s.ledger.db.Blob().Delete(s.txn.Blob(), key)
}

func (s *callState) metaUint64(name string) (uint64, error) {
	val, ok, err := s.blobGet(dbtypes.MetaBlobKey(name))
	if err != nil || !ok {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("invalid ledger meta value for %s", name)
	}
	return binary.BigEndian.Uint64(val), nil
}

func (s *callState) setMetaUint64(name string, value uint64) error {
	return s.blobSet(
		dbtypes.MetaBlobKey(name),
		dbtypes.BlobKeyUint64ToBytes(value),
	)
}

func (s *callState) getAccount(addr Address) (account, error) {
	var ret account
	val, ok, err := s.blobGet(dbtypes.AccountBlobKey(addr[:]))
	if err != nil || !ok {
		return ret, err
	}
	if _, err := cbor.Decode(val, &ret); err != nil {
		return ret, fmt.Errorf("decode account %s: %w", addr, err)
	}
	return ret, nil
}

func (s *callState) putAccount(addr Address, acct account) error {
	s.touched[addr] = struct{}{}
	if acct.empty() {
		return s.blobDelete(dbtypes.AccountBlobKey(addr[:]))
	}
	val, err := cbor.Encode(&acct)
	if err != nil {
		return err
	}
	return s.blobSet(dbtypes.AccountBlobKey(addr[:]), val)
}

func (s *callState) updateAccount(addr Address, fn func(*account) error) error {
	acct, err := s.getAccount(addr)
	if err != nil {
		return err
	}
	if err := fn(&acct); err != nil {
		return err
	}
	return s.putAccount(addr, acct)
}

// transfer moves funds between accounts
func (s *callState) transfer(from, to Address, amount uint64) error {
	if err := s.updateAccount(from, func(a *account) error {
		if a.Balance < amount {
			return fmt.Errorf(
				"%w: %s has %d, needs %d",
				ErrInsufficientBalance,
				from,
				a.Balance,
				amount,
			)
		}
		a.Balance -= amount
		return nil
	}); err != nil {
		return err
	}
	return s.updateAccount(to, func(a *account) error {
		a.Balance += amount
		return nil
	})
}

func (s *callState) getApp(id AppID) (App, bool, error) {
	var ret App
	val, ok, err := s.blobGet(dbtypes.AppBlobKey(uint64(id)))
	if err != nil || !ok {
		return ret, false, err
	}
	if _, err := cbor.Decode(val, &ret); err != nil {
		return ret, false, fmt.Errorf("decode app %d: %w", id, err)
	}
	return ret, true, nil
}

func (s *callState) mustGetApp(id AppID) (App, error) {
	app, ok, err := s.getApp(id)
	if err != nil {
		return app, err
	}
	if !ok {
		return app, fmt.Errorf("%w: %d", ErrAppNotFound, id)
	}
	return app, nil
}

func (s *callState) putApp(app App) error {
	val, err := cbor.Encode(&app)
	if err != nil {
		return err
	}
	return s.blobSet(dbtypes.AppBlobKey(uint64(app.ID)), val)
}

// createApp allocates a new application owned by creator and charges the creator
// for its minimum balance
func (s *callState) createApp(creator Address, params CreateParams) (App, error) {
	prog, hash, err := validateProgram(params.Program, params.Kind, params.ExtraPages)
	if err != nil {
		return App{}, err
	}
	nextId, err := s.metaUint64(metaKeyNextAppId)
	if err != nil {
		return App{}, err
	}
	if nextId < FirstAppID {
		nextId = FirstAppID
	}
	app := App{
		ID:          AppID(nextId),
		Kind:        params.Kind,
		Creator:     creator,
		ProgramHash: hash,
		ProgramLen:  uint64(len(params.Program)),
		Version:     prog.Version,
		ExtraPages:  params.ExtraPages,
		Schema:      params.Schema,
		Template:    params.Template,
		CreationMBR: AppMinBalance(params.ExtraPages, params.Schema),
		CreatedAt:   s.round,
	}
	if err := s.setMetaUint64(metaKeyNextAppId, nextId+1); err != nil {
		return App{}, err
	}
	if err := s.putApp(app); err != nil {
		return App{}, err
	}
	if err := s.updateAccount(creator, func(a *account) error {
		a.AppsMinBalance += app.CreationMBR
		return nil
	}); err != nil {
		return App{}, err
	}
	s.created++
	return app, nil
}

func (s *callState) updateAppProgram(id AppID, program []byte) error {
	app, err := s.mustGetApp(id)
	if err != nil {
		return err
	}
	prog, hash, err := validateProgram(program, app.Kind, app.ExtraPages)
	if err != nil {
		return err
	}
	app.ProgramHash = hash
	app.ProgramLen = uint64(len(program))
	app.Version = prog.Version
	return s.putApp(app)
}

// deleteApp removes an application and its global state and releases the
// creator's minimum balance. Boxes are left in place and keep holding the
// application account's minimum balance
func (s *callState) deleteApp(id AppID) error {
	app, err := s.mustGetApp(id)
	if err != nil {
		return err
	}
	if err := s.blobDelete(dbtypes.AppBlobKey(uint64(id))); err != nil {
		return err
	}
	if err := s.blobDelete(dbtypes.GlobalBlobKey(uint64(id))); err != nil {
		return err
	}
	return s.updateAccount(app.Creator, func(a *account) error {
		a.AppsMinBalance -= min(a.AppsMinBalance, app.CreationMBR)
		return nil
	})
}

func (s *callState) boxKey(id AppID, name []byte) ([]byte, error) {
	if len(name) == 0 || len(name) > MaxBoxNameLen {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidBoxName, len(name))
	}
	return dbtypes.BoxBlobKey(uint64(id), name), nil
}

// boxNames lists the names of an application's boxes that start with prefix
func (s *callState) boxNames(id AppID, prefix []byte) ([][]byte, error) {
	appPrefix := dbtypes.BoxBlobKeyPrefixForApp(uint64(id))
	iter := s.ledger.db.Blob().NewIterator(
		s.txn.Blob(),
		dbtypes.BlobIteratorOptions{
			Prefix: slices.Concat(appPrefix, prefix),
		},
	)
	defer iter.Close()
	var ret [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		ret = append(ret, bytes.Clone(key[len(appPrefix):]))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// appsCreatedBy lists the applications created by an account in ID order
func (s *callState) appsCreatedBy(creator Address) ([]App, error) {
	iter := s.ledger.db.Blob().NewIterator(
		s.txn.Blob(),
		dbtypes.BlobIteratorOptions{
			Prefix: []byte(dbtypes.AppBlobKeyPrefix),
		},
	)
	defer iter.Close()
	var ret []App
	for iter.Rewind(); iter.Valid(); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var app App
		if _, err := cbor.Decode(val, &app); err != nil {
			return nil, fmt.Errorf("decode app: %w", err)
		}
		if app.Creator == creator {
			ret = append(ret, app)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// checkMinBalances verifies every account touched by the call. Accounts that
// hold nothing are exempt
func (s *callState) checkMinBalances() error {
	addrs := make([]Address, 0, len(s.touched))
	for addr := range s.touched {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b Address) int {
		return bytes.Compare(a[:], b[:])
	})
	for _, addr := range addrs {
		acct, err := s.getAccount(addr)
		if err != nil {
			return err
		}
		if acct.empty() {
			continue
		}
		if acct.Balance < acct.minBalance() {
			return MinBalanceError{
				Address:    addr,
				Balance:    acct.Balance,
				MinBalance: acct.minBalance(),
			}
		}
	}
	return nil
}

func (s *callState) emit(eventType event.EventType, data any) {
	s.events = append(s.events, event.NewEvent(eventType, data))
}
