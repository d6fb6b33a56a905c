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
	"os"

	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/internal/node"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config, apps []uint64) {
	logger := commonRun()

	// Run node
	if err := node.Run(cfg, logger, appIDs(apps)); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var apps []uint64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose registry metrics",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args, configFromCommand(cmd), apps)
		},
	}
	cmd.Flags().
		Uint64SliceVar(&apps, "app", nil, "registry application ID to report (repeatable)")
	return cmd
}
