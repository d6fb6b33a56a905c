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
	"fmt"
	"log/slog"
	"slices"

	dbtypes "github.com/blinklabs-io/delegato/database/types"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// OnCompletion is the action applied to the called application once its
// approval logic succeeds
type OnCompletion int

const (
	NoOp OnCompletion = iota
	UpdateApplication
	DeleteApplication
)

func (o OnCompletion) String() string {
	switch o {
	case UpdateApplication:
		return "update"
	case DeleteApplication:
		return "delete"
	default:
		return "noop"
	}
}

// Payment is a transfer grouped ahead of a top-level call
type Payment struct {
	Sender   Address
	Receiver Address
	Amount   uint64
}

// PaymentTo returns a payment from sender to the account of an application
func PaymentTo(sender Address, app AppID, amount uint64) *Payment {
	return &Payment{
		Sender:   sender,
		Receiver: app.Address(),
		Amount:   amount,
	}
}

// InnerCall describes a call issued by one application to another
type InnerCall struct {
	App          AppID
	Kind         Kind
	Method       string
	OnCompletion OnCompletion
	// Program replaces the application program when OnCompletion is UpdateApplication
	Program []byte
}

// CreateParams describes a new application
type CreateParams struct {
	Kind       Kind
	Program    []byte
	ExtraPages uint64
	Schema     StateSchema
	Template   map[string][]byte
	Method     string
}

// Exec is the execution context of a single application call. Every inner call
// gets its own Exec sharing the state of the enclosing top-level call
type Exec struct {
	ctx       context.Context
	state     *callState
	logger    *slog.Logger
	sender    Address
	app       App
	callerApp AppID
	payment   *Payment
	method    string
	depth     int
}

func (x *Exec) Context() context.Context {
	return x.ctx
}

func (x *Exec) Logger() *slog.Logger {
	return x.logger
}

// Sender returns the account that issued the call. For inner calls this is the
// address of the calling application
func (x *Exec) Sender() Address {
	return x.sender
}

func (x *Exec) App() AppID {
	return x.app.ID
}

func (x *Exec) AppAddress() Address {
	return x.app.Address()
}

// CallerApp returns the calling application, or zero for a top-level call
func (x *Exec) CallerApp() AppID {
	return x.callerApp
}

func (x *Exec) Creator() Address {
	return x.app.Creator
}

func (x *Exec) Method() string {
	return x.method
}

// Timestamp returns the ledger time of the enclosing top-level call, in seconds
func (x *Exec) Timestamp() uint64 {
	return x.state.timestamp
}

func (x *Exec) Round() uint64 {
	return x.state.round
}

func (x *Exec) ReadOnly() bool {
	return x.state.readOnly
}

// TemplateValue returns a deploy-time value of the current application
func (x *Exec) TemplateValue(name string) ([]byte, bool) {
	val, ok := x.app.Template[name]
	return val, ok
}

// Payment returns the payment grouped with the call. Inner calls never carry one
func (x *Exec) Payment() *Payment {
	return x.payment
}

// VerifyPayment checks that the grouped payment goes to the current application
// and carries exactly the expected amount
func (x *Exec) VerifyPayment(expected uint64) error {
	if x.payment == nil {
		return types.PaymentError{
			Err:      types.ErrWrongPaymentAmount,
			Expected: expected,
		}
	}
	if x.payment.Receiver != x.AppAddress() {
		return types.PaymentError{
			Err:      types.ErrWrongReceiver,
			Expected: expected,
			Actual:   x.payment.Amount,
		}
	}
	if x.payment.Amount != expected {
		return types.PaymentError{
			Err:      types.ErrWrongPaymentAmount,
			Expected: expected,
			Actual:   x.payment.Amount,
		}
	}
	return nil
}

// Pay sends funds from the current application account
func (x *Exec) Pay(to Address, amount uint64) error {
	return x.state.transfer(x.AppAddress(), to, amount)
}

// CloseOut sends the whole balance of the current application account
func (x *Exec) CloseOut(to Address) error {
	acct, err := x.state.getAccount(x.AppAddress())
	if err != nil {
		return err
	}
	return x.state.transfer(x.AppAddress(), to, acct.Balance)
}

func (x *Exec) Balance(addr Address) (uint64, error) {
	acct, err := x.state.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (x *Exec) MinBalance(addr Address) (uint64, error) {
	acct, err := x.state.getAccount(addr)
	if err != nil {
		return 0, err
	}
	return acct.minBalance(), nil
}

func (x *Exec) Account(addr Address) (AccountInfo, error) {
	acct, err := x.state.getAccount(addr)
	if err != nil {
		return AccountInfo{}, err
	}
	return acct.info(addr), nil
}

func (x *Exec) AppInfo(id AppID) (App, bool, error) {
	return x.state.getApp(id)
}

// AppCreator returns the creator of an application, and false if it does not exist
func (x *Exec) AppCreator(id AppID) (Address, bool, error) {
	app, ok, err := x.state.getApp(id)
	if err != nil || !ok {
		return ZeroAddress, false, err
	}
	return app.Creator, true, nil
}

// AppsCreatedBy lists the applications created by an account
func (x *Exec) AppsCreatedBy(creator Address) ([]App, error) {
	return x.state.appsCreatedBy(creator)
}

// LoadGlobal decodes the global state of any application into v
func (x *Exec) LoadGlobal(id AppID, v any) error {
	val, ok, err := x.state.blobGet(dbtypes.GlobalBlobKey(uint64(id)))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrGlobalStateNotFound, id)
	}
	if _, err := cbor.Decode(val, v); err != nil {
		return fmt.Errorf("%w: app %d: %w", ErrGlobalStateDecode, id, err)
	}
	return nil
}

// StoreGlobal replaces the global state of the current application
func (x *Exec) StoreGlobal(v any) error {
	val, err := cbor.Encode(v)
	if err != nil {
		return fmt.Errorf("encode global state: %w", err)
	}
	return x.state.blobSet(dbtypes.GlobalBlobKey(uint64(x.app.ID)), val)
}

// KeyRegister sets the participation keys of the current application account. An
// offline registration clears them. The fee is burned from the account balance
func (x *Exec) KeyRegister(info types.KeyRegInfo, fee uint64) error {
	return x.state.updateAccount(x.AppAddress(), func(a *account) error {
		if a.Balance < fee {
			return fmt.Errorf(
				"%w: key registration fee %d exceeds balance %d",
				ErrInsufficientBalance,
				fee,
				a.Balance,
			)
		}
		a.Balance -= fee
		if info.Online() {
			tmp := info
			a.Participation = &tmp
		} else {
			a.Participation = nil
		}
		return nil
	})
}

// Emit queues an event for publication once the top-level call commits
func (x *Exec) Emit(eventType event.EventType, data any) {
	x.state.emit(eventType, data)
}

// Handler returns the contract implementation registered for an application's kind
func (x *Exec) Handler(id AppID) (any, error) {
	app, err := x.state.mustGetApp(id)
	if err != nil {
		return nil, err
	}
	return x.state.ledger.handler(app.Kind)
}

// Call issues an inner application call. fn runs as the approval logic of the
// target application
func (x *Exec) Call(call InnerCall, fn func(*Exec) error) error {
	if err := x.ctx.Err(); err != nil {
		return err
	}
	if x.depth+1 > MaxCallDepth {
		return ErrCallDepthExceeded
	}
	if slices.Contains(x.state.stack, call.App) {
		return fmt.Errorf("%w: app %d", ErrReentrantCall, call.App)
	}
	app, err := x.state.mustGetApp(call.App)
	if err != nil {
		return err
	}
	if call.Kind != "" && app.Kind != call.Kind {
		return fmt.Errorf(
			"%w: app %d is %q, expected %q",
			ErrKindMismatch,
			call.App,
			app.Kind,
			call.Kind,
		)
	}
	child := x.child(app, call.Method)
	return child.run(call.OnCompletion, call.Program, fn)
}

// Create creates a new application owned by the current application and runs fn
// as its creation logic
func (x *Exec) Create(params CreateParams, fn func(*Exec) error) (AppID, error) {
	if err := x.ctx.Err(); err != nil {
		return 0, err
	}
	if x.depth+1 > MaxCallDepth {
		return 0, ErrCallDepthExceeded
	}
	app, err := x.state.createApp(x.AppAddress(), params)
	if err != nil {
		return 0, err
	}
	child := x.child(app, params.Method)
	if err := child.run(NoOp, nil, fn); err != nil {
		return 0, err
	}
	return app.ID, nil
}

func (x *Exec) child(app App, method string) *Exec {
	return &Exec{
		ctx:       x.ctx,
		state:     x.state,
		logger:    x.logger,
		sender:    x.AppAddress(),
		app:       app,
		callerApp: x.app.ID,
		method:    method,
		depth:     x.depth + 1,
	}
}

// run executes fn with the application pushed on the call stack and then applies
// the on-completion action
func (x *Exec) run(onCompletion OnCompletion, program []byte, fn func(*Exec) error) error {
	x.state.stack = append(x.state.stack, x.app.ID)
	defer func() {
		x.state.stack = x.state.stack[:len(x.state.stack)-1]
	}()
	if fn != nil {
		if err := fn(x); err != nil {
			return err
		}
	}
	switch onCompletion {
	case UpdateApplication:
		return x.state.updateAppProgram(x.app.ID, program)
	case DeleteApplication:
		return x.state.deleteApp(x.app.ID)
	}
	return nil
}
