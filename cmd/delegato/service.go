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

package main

import (
	"log/slog"

	"github.com/blinklabs-io/delegato"
	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/samber/lo"
)

// startService opens the ledger stored at the configured database path
func startService(cfg *config.Config, logger *slog.Logger) (*delegato.Service, error) {
	svc, err := delegato.New(
		delegato.NewConfig(
			delegato.WithLogger(logger),
			delegato.WithDataDir(cfg.DatabasePath),
			delegato.WithBlobPlugin(cfg.BlobPlugin),
			delegato.WithMetadataPlugin(cfg.MetadataPlugin),
			delegato.WithTracing(cfg.Tracing),
			delegato.WithTracingStdout(cfg.TracingStdout),
		),
	)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(); err != nil {
		return nil, err
	}
	return svc, nil
}

func appIDs(ids []uint64) []ledger.AppID {
	return lo.Map(ids, func(id uint64, _ int) ledger.AppID {
		return ledger.AppID(id)
	})
}
