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

// Package delegato wires the storage, ledger and contract clients of a
// delegated-voting registry into a single service.
package delegato

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/delegato/database"
	"github.com/blinklabs-io/delegato/event"
	"github.com/blinklabs-io/delegato/internal/xgovmock"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/representative"
	"github.com/blinklabs-io/delegato/voter"
)

var (
	ErrNotStarted     = errors.New("service is not started")
	ErrAlreadyStarted = errors.New("service is already started")
)

type Service struct {
	config        Config
	db            *database.Database
	eventBus      *event.EventBus
	ledger        *ledger.Ledger
	xgov          *xgovmock.Mock
	registry      *registry.Client
	voters        *voter.Client
	reps          *representative.Client
	shutdownFuncs []func(context.Context) error
	mu            sync.Mutex
	started       bool
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Service, error) {
	cfg.applyDefaults()
	s := &Service{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	return s, nil
}

// Start opens the database and builds the ledger and clients on top of it
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        s.config.dataDir,
		BlobPlugin:     s.config.blobPlugin,
		MetadataPlugin: s.config.metadataPlugin,
		Logger:         s.config.logger,
		PromRegistry:   s.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			_ = db.Close()
			return fmt.Errorf("failed to open database: %w", err)
		}
		// The blob store is the source of truth for ledger state, so a lagging
		// metadata store only loses history
		s.config.logger.Warn(
			"database commit timestamps differ, receipts may be incomplete",
			"component", "service",
			"error", err,
		)
	}
	s.db = db
	// Load ledger
	l, err := ledger.New(ledger.LedgerConfig{
		Logger:       s.config.logger,
		Database:     s.db,
		EventBus:     s.eventBus,
		PromRegistry: s.config.promRegistry,
		Clock:        s.config.clock,
	})
	if err != nil {
		return errors.Join(
			fmt.Errorf("failed to load ledger: %w", err),
			s.db.Close(),
		)
	}
	s.ledger = l
	// Configure tracing
	if s.config.tracing {
		if err := s.setupTracing(); err != nil {
			return errors.Join(err, s.db.Close())
		}
	}
	s.shutdownFuncs = append(s.shutdownFuncs, func(context.Context) error {
		return s.db.Close()
	})
	if s.config.xgovMock {
		s.xgov = xgovmock.New(l)
	}
	s.registry = registry.NewClient(registry.ClientConfig{
		Ledger:       l,
		Logger:       s.config.logger,
		PromRegistry: s.config.promRegistry,
	})
	s.voters = voter.NewClient(l)
	s.reps = representative.NewClient(l)
	s.started = true
	round, err := l.Round()
	if err != nil {
		return err
	}
	s.config.logger.Info(
		"service started",
		"component", "service",
		"data_dir", s.config.dataDir,
		"round", round,
	)
	return nil
}

// Run starts the service and blocks until the context is cancelled or Stop is
// called
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return s.Stop()
	case <-s.done:
		return nil
	}
}

// AddShutdownFunc registers a function that runs when the service stops, before
// the database is closed
func (s *Service) AddShutdownFunc(fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownFuncs = append([]func(context.Context) error{fn}, s.shutdownFuncs...)
}

func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Service) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.shutdownTimeout)
	defer cancel()
	s.mu.Lock()
	funcs := s.shutdownFuncs
	s.shutdownFuncs = nil
	s.started = false
	s.mu.Unlock()
	s.config.logger.Debug("starting graceful shutdown", "component", "service")
	var err error
	for _, fn := range funcs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	s.eventBus.Stop()
	s.config.logger.Debug("graceful shutdown complete", "component", "service")
	close(s.done)
	return err
}

func (s *Service) Ledger() *ledger.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger
}

func (s *Service) EventBus() *event.EventBus {
	return s.eventBus
}

func (s *Service) Database() *database.Database {
	return s.db
}

// Xgov returns the in-process xGov contracts, or nil when they are disabled
func (s *Service) Xgov() *xgovmock.Mock {
	return s.xgov
}

func (s *Service) Registry() *registry.Client {
	return s.registry
}

func (s *Service) Voters() *voter.Client {
	return s.voters
}

func (s *Service) Representatives() *representative.Client {
	return s.reps
}

// Status reports the state of a registry application
func (s *Service) Status(ctx context.Context, app ledger.AppID) (registry.Status, error) {
	if s.registry == nil {
		return registry.Status{}, ErrNotStarted
	}
	return s.registry.Status(ctx, app)
}
