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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/delegato/database"
	"github.com/blinklabs-io/delegato/database/models"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/types"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        Clock
}

// Ledger executes application calls against the state held in the database. Each
// top-level call runs in its own transaction and is applied atomically
type Ledger struct {
	config     LedgerConfig
	db         *database.Database
	logger     *slog.Logger
	clock      Clock
	metrics    ledgerMetrics
	mu         sync.RWMutex
	handlers   map[Kind]any
	handlersMu sync.RWMutex
}

// Call describes a top-level application call
type Call struct {
	Sender       Address
	App          AppID
	Kind         Kind
	Method       string
	OnCompletion OnCompletion
	Program      []byte
	Payment      *Payment
}

func New(cfg LedgerConfig) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, errors.New("ledger requires a database")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	l := &Ledger{
		config:   cfg,
		db:       cfg.Database,
		logger:   cfg.Logger.With("component", "ledger"),
		clock:    cfg.Clock,
		handlers: make(map[Kind]any),
	}
	if cfg.PromRegistry != nil {
		l.metrics.init(cfg.PromRegistry)
	}
	round, err := l.Round()
	if err != nil {
		return nil, err
	}
	if l.metrics.round != nil {
		l.metrics.round.Set(float64(round))
	}
	return l, nil
}

func (l *Ledger) Database() *database.Database {
	return l.db
}

func (l *Ledger) EventBus() *event.EventBus {
	return l.config.EventBus
}

func (l *Ledger) Clock() Clock {
	return l.clock
}

// RegisterHandler associates a contract implementation with an application kind
func (l *Ledger) RegisterHandler(kind Kind, handler any) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.handlers[kind] = handler
}

func (l *Ledger) handler(kind Kind) (any, error) {
	l.handlersMu.RLock()
	defer l.handlersMu.RUnlock()
	h, ok := l.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoHandler, kind)
	}
	return h, nil
}

// Call executes fn as the approval logic of an existing application
func (l *Ledger) Call(ctx context.Context, call Call, fn func(*Exec) error) error {
	_, err := l.execute(
		ctx,
		call.Sender,
		call.Method,
		call.Payment,
		func(s *callState) (App, error) {
			app, err := s.mustGetApp(call.App)
			if err != nil {
				return app, err
			}
			if call.Kind != "" && app.Kind != call.Kind {
				return app, fmt.Errorf(
					"%w: app %d is %q, expected %q",
					ErrKindMismatch,
					call.App,
					app.Kind,
					call.Kind,
				)
			}
			return app, nil
		},
		call.OnCompletion,
		call.Program,
		fn,
	)
	return err
}

// Create creates an application owned by sender and executes fn as its creation logic
func (l *Ledger) Create(
	ctx context.Context,
	sender Address,
	params CreateParams,
	payment *Payment,
	fn func(*Exec) error,
) (AppID, error) {
	app, err := l.execute(
		ctx,
		sender,
		params.Method,
		payment,
		func(s *callState) (App, error) {
			return s.createApp(sender, params)
		},
		NoOp,
		nil,
		fn,
	)
	if err != nil {
		return 0, err
	}
	return app.ID, nil
}

// View executes fn against the committed state without writing anything
func (l *Ledger) View(ctx context.Context, call Call, fn func(*Exec) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	txn := l.db.BlobTxn(false)
	defer txn.Release()
	state := newCallState(l, txn, true)
	round, err := state.metaUint64(metaKeyRound)
	if err != nil {
		return err
	}
	state.round = round
	state.timestamp = l.now()
	app, err := state.mustGetApp(call.App)
	if err != nil {
		return err
	}
	if call.Kind != "" && app.Kind != call.Kind {
		return fmt.Errorf("%w: app %d is %q", ErrKindMismatch, call.App, app.Kind)
	}
	x := &Exec{
		ctx:     ctx,
		state:   state,
		logger:  l.logger,
		sender:  call.Sender,
		app:     app,
		payment: call.Payment,
		method:  call.Method,
	}
	return x.run(NoOp, nil, fn)
}

// Fund credits an account with newly issued funds
func (l *Ledger) Fund(ctx context.Context, addr Address, amount uint64) error {
	_, err := l.transact(ctx, addr, "fund", func(s *callState) (App, error) {
		return App{}, s.updateAccount(addr, func(a *account) error {
			a.Balance += amount
			return nil
		})
	})
	return err
}

// Pay transfers funds between two accounts outside of any application call
func (l *Ledger) Pay(ctx context.Context, from Address, to Address, amount uint64) error {
	_, err := l.transact(ctx, from, "pay", func(s *callState) (App, error) {
		return App{}, s.transfer(from, to, amount)
	})
	return err
}

// Account returns the committed state of an account
func (l *Ledger) Account(addr Address) (AccountInfo, error) {
	var ret AccountInfo
	err := l.read(func(s *callState) error {
		acct, err := s.getAccount(addr)
		if err != nil {
			return err
		}
		ret = acct.info(addr)
		return nil
	})
	return ret, err
}

func (l *Ledger) Balance(addr Address) (uint64, error) {
	info, err := l.Account(addr)
	return info.Balance, err
}

// AppInfo returns the ledger record of an application
func (l *Ledger) AppInfo(id AppID) (App, error) {
	var ret App
	err := l.read(func(s *callState) error {
		app, err := s.mustGetApp(id)
		ret = app
		return err
	})
	return ret, err
}

// Round returns the last committed round
func (l *Ledger) Round() (uint64, error) {
	var ret uint64
	err := l.read(func(s *callState) error {
		round, err := s.metaUint64(metaKeyRound)
		ret = round
		return err
	})
	return ret, err
}

// CallRecords returns the receipts of calls to an application, newest first. An
// id of zero returns receipts for all calls
func (l *Ledger) CallRecords(id AppID, limit int) ([]models.CallRecord, error) {
	return l.db.Metadata().GetCallRecords(uint64(id), limit, nil)
}

func (l *Ledger) read(fn func(*callState) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	txn := l.db.BlobTxn(false)
	defer txn.Release()
	return fn(newCallState(l, txn, true))
}

func (l *Ledger) now() uint64 {
	// #nosec G115
	return uint64(max(l.clock.Now().Unix(), 0))
}

// execute runs a top-level call. The grouped payment is applied before the
// approval logic runs
func (l *Ledger) execute(
	ctx context.Context,
	sender Address,
	method string,
	payment *Payment,
	resolve func(*callState) (App, error),
	onCompletion OnCompletion,
	program []byte,
	fn func(*Exec) error,
) (App, error) {
	return l.transact(ctx, sender, method, func(s *callState) (App, error) {
		app, err := resolve(s)
		if err != nil {
			return app, err
		}
		if payment != nil {
			if err := s.transfer(payment.Sender, payment.Receiver, payment.Amount); err != nil {
				return app, fmt.Errorf("grouped payment: %w", err)
			}
		}
		x := &Exec{
			ctx:     ctx,
			state:   s,
			logger:  l.logger,
			sender:  sender,
			app:     app,
			payment: payment,
			method:  method,
		}
		return app, x.run(onCompletion, program, fn)
	})
}

// transact wraps body in a database transaction, enforces minimum balances and
// writes the call receipt
func (l *Ledger) transact(
	ctx context.Context,
	sender Address,
	method string,
	body func(*callState) (App, error),
) (App, error) {
	if err := ctx.Err(); err != nil {
		return App{}, err
	}
	span := startCallSpan(ctx, sender, method)
	start := time.Now()
	l.mu.Lock()
	txn := l.db.Transaction(true)
	state := newCallState(l, txn, false)
	app, err := l.runBody(state, body)
	record := &models.CallRecord{
		Round:     state.round,
		Timestamp: int64(state.timestamp), // #nosec G115
		Sender:    sender.Bytes(),
		AppID:     uint64(app.ID),
		Kind:      string(app.Kind),
		Method:    method,
		Success:   err == nil,
	}
	if err == nil {
		err = l.commit(state, record)
		record.Success = err == nil
	}
	if err != nil {
		if rbErr := txn.Rollback(); rbErr != nil {
			l.logger.Error(
				"failed to rollback call",
				"error", rbErr,
			)
		}
		record.Error = err.Error()
		record.Category = types.CategoryOf(err).String()
		l.writeFailureRecord(record)
	}
	l.mu.Unlock()
	l.finish(state, record, time.Since(start))
	endCallSpan(span, app, state.round, err)
	return app, err
}

func (l *Ledger) runBody(state *callState, body func(*callState) (App, error)) (App, error) {
	round, err := state.metaUint64(metaKeyRound)
	if err != nil {
		return App{}, err
	}
	state.round = round + 1
	state.timestamp = l.now()
	app, err := body(state)
	if err != nil {
		return app, err
	}
	if err := state.checkMinBalances(); err != nil {
		return app, err
	}
	return app, state.setMetaUint64(metaKeyRound, state.round)
}

func (l *Ledger) commit(state *callState, record *models.CallRecord) error {
	if err := l.writeReceipts(state, record); err != nil {
		return err
	}
	return state.txn.Commit()
}

func (l *Ledger) writeFailureRecord(record *models.CallRecord) {
	txn := l.db.MetadataTxn(true)
	err := txn.Do(func(txn *database.Txn) error {
		return l.db.Metadata().AddCallRecord(record, txn.Metadata())
	})
	if err != nil {
		l.logger.Error(
			"failed to record failed call",
			"error", err,
			"method", record.Method,
		)
	}
}

// finish updates metrics and publishes the events of a completed call
func (l *Ledger) finish(state *callState, record *models.CallRecord, elapsed time.Duration) {
	result := "success"
	if !record.Success {
		result = "failure"
		l.logger.Debug(
			"call failed",
			"method", record.Method,
			"app_id", record.AppID,
			"error", record.Error,
		)
	}
	if l.metrics.calls != nil {
		l.metrics.calls.WithLabelValues(record.Kind, record.Method, result).Inc()
		l.metrics.callDuration.Observe(elapsed.Seconds())
		if record.Success {
			l.metrics.round.Set(float64(state.round))
			l.metrics.apps.Add(float64(state.created))
		}
	}
	bus := l.config.EventBus
	if bus == nil {
		return
	}
	if record.Success {
		for _, evt := range state.events {
			bus.Publish(evt.Type, evt)
		}
	}
	sender, _ := NewAddress(record.Sender)
	bus.Publish(
		event.CallCompletedEventType,
		event.NewEvent(
			event.CallCompletedEventType,
			event.CallCompletedEvent{
				Round:   record.Round,
				AppId:   record.AppID,
				Method:  record.Method,
				Sender:  sender.String(),
				Success: record.Success,
				Error:   record.Error,
			},
		),
	)
}

// AppsCreatedBy returns the committed applications created by an account
func (l *Ledger) AppsCreatedBy(creator Address) ([]App, error) {
	var ret []App
	err := l.read(func(s *callState) error {
		apps, err := s.appsCreatedBy(creator)
		ret = apps
		return err
	})
	return ret, err
}
