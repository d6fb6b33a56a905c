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

// Package deploy bootstraps a delegation registry: it creates or updates the
// registry, stages the child contract code and opens the registry for use.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/blinklabs-io/delegato/representative"
	"github.com/blinklabs-io/delegato/types"
	"github.com/blinklabs-io/delegato/voter"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	// ChunkSize is the amount of code uploaded per call
	ChunkSize = 2048 - 4 - 6 - 8 - 2

	// RegistryMinSpending is the spendable balance the registry is topped up to
	RegistryMinSpending uint64 = 10_000_000
)

var ErrNoDeployer = errors.New("deployer address is required")

// Programs holds the approval programs of the delegation contracts
type Programs struct {
	Registry       []byte
	Voter          []byte
	Representative []byte
}

// BuiltinPrograms returns the programs of the contracts shipped with this
// module, tagged with a version
func BuiltinPrograms(version string) (Programs, error) {
	var ret Programs
	var err error
	if ret.Registry, err = builtinProgram(registry.Kind, version); err != nil {
		return ret, err
	}
	if ret.Voter, err = builtinProgram(voter.Kind, version); err != nil {
		return ret, err
	}
	if ret.Representative, err = builtinProgram(representative.Kind, version); err != nil {
		return ret, err
	}
	return ret, nil
}

func builtinProgram(kind ledger.Kind, version string) ([]byte, error) {
	return ledger.Program{
		Kind:    kind,
		Version: version,
		Source:  []byte(fmt.Sprintf("delegato/%s@%s", kind, version)),
	}.Encode()
}

type Config struct {
	Ledger       *ledger.Ledger
	Registry     *registry.Client
	Logger       *slog.Logger
	Deployer     ledger.Address
	XgovRegistry ledger.AppID
	Programs     Programs
	// FreshDeploy always creates a new registry instead of updating the last
	// one created by the deployer
	FreshDeploy bool
	// Fees are applied after the registry is resumed when set
	Fees *types.Fees
}

// Result describes the outcome of a deployment
type Result struct {
	App     ledger.AppID
	Created bool
	Voter   ledger.AppID
}

type deployer struct {
	config Config
	logger *slog.Logger
}

// Run deploys or updates a delegation registry and leaves it ready to accept
// registrations
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Deployer.IsZero() {
		return Result{}, ErrNoDeployer
	}
	if cfg.Ledger == nil {
		return Result{}, errors.New("ledger is required")
	}
	d := &deployer{
		config: cfg,
		logger: cfg.Logger,
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d.logger = d.logger.With("component", "deploy")
	if d.config.Registry == nil {
		d.config.Registry = registry.NewClient(
			registry.ClientConfig{Ledger: cfg.Ledger, Logger: d.logger},
		)
	}
	return d.run(ctx)
}

func (d *deployer) run(ctx context.Context) (Result, error) {
	var ret Result
	app, created, err := d.deployRegistry(ctx)
	if err != nil {
		return ret, err
	}
	ret.App = app
	ret.Created = created
	d.logger.Info("funding delegation registry", "app_id", app)
	if err := d.fund(ctx, app); err != nil {
		return ret, fmt.Errorf("fund registry: %w", err)
	}
	d.logger.Info("uploading representative approval program", "app_id", app)
	if err := d.uploadCode(ctx, app, types.ContractRepresentative, d.config.Programs.Representative); err != nil {
		return ret, err
	}
	d.logger.Info("uploading voter approval program", "app_id", app)
	if err := d.uploadCode(ctx, app, types.ContractVoter, d.config.Programs.Voter); err != nil {
		return ret, err
	}
	reg := d.config.Registry
	sender := d.config.Deployer
	ret.Voter, err = reg.PrepareVoter(
		ctx,
		sender,
		app,
		ledger.PaymentTo(sender, app, registry.UnassignedVoterMBR()),
	)
	if err != nil {
		return ret, fmt.Errorf("prepare voter: %w", err)
	}
	d.logger.Info("resuming registry", "app_id", app)
	if err := reg.Resume(ctx, sender, app); err != nil {
		return ret, fmt.Errorf("resume registry: %w", err)
	}
	if d.config.Fees != nil {
		d.logger.Info("configuring delegation registry", "app_id", app)
		if err := reg.Configure(ctx, sender, app, *d.config.Fees); err != nil {
			return ret, fmt.Errorf("configure registry: %w", err)
		}
	}
	return ret, nil
}

// deployRegistry updates the last registry created by the deployer without
// entropy, or creates a new one
func (d *deployer) deployRegistry(ctx context.Context) (ledger.AppID, bool, error) {
	reg := d.config.Registry
	var entropy []byte
	if d.config.FreshDeploy {
		d.logger.Info("fresh deployment requested")
		id := uuid.New()
		entropy = id[:]
	} else {
		existing, err := d.existingRegistry()
		if err != nil {
			return 0, false, err
		}
		if existing != 0 {
			d.logger.Info("updating delegation registry", "app_id", existing)
			if err := reg.UpdateRegistryCode(ctx, d.config.Deployer, existing, d.config.Programs.Registry); err != nil {
				return 0, false, fmt.Errorf("update registry: %w", err)
			}
			return existing, false, nil
		}
	}
	app, err := reg.Deploy(
		ctx,
		d.config.Deployer,
		d.config.Programs.Registry,
		d.config.XgovRegistry,
		entropy,
	)
	if err != nil {
		return 0, false, fmt.Errorf("create registry: %w", err)
	}
	return app, true, nil
}

func (d *deployer) existingRegistry() (ledger.AppID, error) {
	apps, err := d.config.Ledger.AppsCreatedBy(d.config.Deployer)
	if err != nil {
		return 0, err
	}
	candidates := lo.Filter(apps, func(app ledger.App, _ int) bool {
		return app.Kind == registry.Kind && len(app.Template[registry.EntropyTemplate]) == 0
	})
	if len(candidates) == 0 {
		return 0, nil
	}
	return candidates[len(candidates)-1].ID, nil
}

// fund tops the registry up to the minimum spendable balance
func (d *deployer) fund(ctx context.Context, app ledger.AppID) error {
	acct, err := d.config.Ledger.Account(app.Address())
	if err != nil {
		return err
	}
	target := acct.MinBalance + RegistryMinSpending
	if acct.Balance >= target {
		return nil
	}
	return d.config.Ledger.Pay(ctx, d.config.Deployer, app.Address(), target-acct.Balance)
}

// uploadCode stages a child contract program in the registry in chunks
func (d *deployer) uploadCode(
	ctx context.Context,
	app ledger.AppID,
	name types.ContractName,
	program []byte,
) error {
	if len(program) == 0 {
		return fmt.Errorf("no program for %s contract", name)
	}
	reg := d.config.Registry
	err := reg.InitContractCode(ctx, d.config.Deployer, app, name, uint64(len(program)), nil)
	if err != nil {
		return fmt.Errorf("init %s code: %w", name, err)
	}
	for i, chunk := range lo.Chunk(program, ChunkSize) {
		offset := uint64(i * ChunkSize) // #nosec G115
		if err := reg.LoadContractCode(ctx, d.config.Deployer, app, name, offset, chunk); err != nil {
			return fmt.Errorf("load %s code at offset %d: %w", name, offset, err)
		}
		d.logger.Debug(
			"uploaded code chunk",
			"contract", string(name),
			"offset", offset,
			"size", len(chunk),
		)
	}
	return nil
}
