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

package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/delegato"
	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	DefaultRefreshInterval = 15 * time.Second
	shutdownTimeout        = 30 * time.Second
)

// ServeConfig controls the metrics listener and the registries it reports on
type ServeConfig struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	// Listener takes precedence over Addr when set
	Listener        net.Listener
	Addr            string
	Apps            []ledger.AppID
	RefreshInterval time.Duration
}

// Run opens the configured database and serves registry metrics until the
// process is interrupted
func Run(cfg *config.Config, logger *slog.Logger, apps []ledger.AppID) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	svc, err := delegato.New(
		delegato.NewConfig(
			delegato.WithLogger(logger),
			delegato.WithDataDir(cfg.DatabasePath),
			delegato.WithBlobPlugin(cfg.BlobPlugin),
			delegato.WithMetadataPlugin(cfg.MetadataPlugin),
			delegato.WithTracing(cfg.Tracing),
			delegato.WithTracingStdout(cfg.TracingStdout),
			delegato.WithPromRegistry(prometheus.DefaultRegisterer),
			delegato.WithShutdownTimeout(shutdownTimeout),
		),
	)
	if err != nil {
		return err
	}
	if err := svc.Start(); err != nil {
		return err
	}
	// Registries deployed by the configured deployer are reported as well
	if cfg.Deploy.Deployer != "" {
		deployer, err := cfg.Deploy.DeployerAddress()
		if err != nil {
			return errors.Join(err, svc.Stop())
		}
		found, err := svc.Registry().Find(deployer)
		if err != nil {
			return errors.Join(err, svc.Stop())
		}
		apps = append(apps, found...)
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	serveErr := Serve(signalCtx, svc.Registry(), ServeConfig{
		Logger:   logger,
		Gatherer: prometheus.DefaultGatherer,
		Addr:     fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort),
		Apps:     apps,
	})
	logger.Info("initiating graceful shutdown", "component", "node")
	if err := svc.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(serveErr, err)
	}
	logger.Info("shutdown complete", "component", "node")
	return serveErr
}

// Serve exposes /metrics and keeps the registry gauges current until ctx is
// done
func Serve(ctx context.Context, client *registry.Client, cfg ServeConfig) error {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	listener := cfg.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	cfg.Logger.Info(
		"serving prometheus metrics on "+listener.Addr().String(),
		"component", "node",
		"registries", len(cfg.Apps),
	)
	errChan := make(chan error, 1)
	go func() {
		if err := metricsServer.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	refresh := func() {
		for _, app := range cfg.Apps {
			if err := client.Refresh(ctx, app); err != nil {
				cfg.Logger.Warn(
					"failed to refresh registry metrics",
					"component", "node",
					"app_id", app,
					"error", err,
				)
			}
		}
	}
	refresh()
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()
	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errChan:
			serveErr = fmt.Errorf("metrics listener: %w", err)
			break loop
		case <-ticker.C:
			refresh()
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		cfg.Logger.Error("metrics server shutdown error", "error", err)
		serveErr = errors.Join(serveErr, err)
	}
	return serveErr
}
