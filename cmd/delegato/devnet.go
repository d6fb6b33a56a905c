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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/internal/devnet"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func renderDevnet(w io.Writer, res *devnet.Result) {
	fmt.Fprintln(w, headerStyle.Sprint("Devnet"))
	t := newTable()
	t.AppendRows([]table.Row{
		{"Deployer", res.Deployer.String()},
		{"Keeper", res.Keeper.String()},
		{"xGov registry", res.XgovRegistry},
		{"Registry", res.Registry},
		{"Proposal", res.Proposal},
		{"Representative", res.Representative.String()},
		{"Representative app", res.RepresentativeApp},
		{"Trigger awards", res.Awards},
	})
	fmt.Fprintln(w, t.Render())

	vt := newTable()
	vt.AppendHeader(table.Row{"xGov", "Voter app", "Approvals", "Rejections"})
	for i, xgov := range res.Xgovs {
		row := table.Row{xgov.String(), "", "", ""}
		if i < len(res.Voters) {
			row[1] = res.Voters[i]
		}
		if i < len(res.Votes) {
			row[2] = res.Votes[i].Approvals
			row[3] = res.Votes[i].Rejections
		}
		vt.AppendRow(row)
	}
	fmt.Fprintln(w, vt.Render())
}

func devnetRun(cmd *cobra.Command, cfg *config.Config, devCfg devnet.Config) error {
	logger := commonRun()
	svc, err := startService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	devCfg.Logger = logger
	res, err := devnet.Run(context.Background(), svc, devCfg)
	if err != nil {
		return err
	}
	renderDevnet(cmd.OutOrStdout(), res)
	return nil
}

func devnetCommand() *cobra.Command {
	var devCfg devnet.Config
	cmd := &cobra.Command{
		Use:   "devnet",
		Short: "Seed a local ledger with a registry, xGovs and a voting proposal",
		Long: "Seed a local ledger with a mock xGov registry, a delegation registry, " +
			"a representative and delegating xGovs, then trigger their votes. " +
			"An empty database path keeps the ledger in memory.",
		Run: func(cmd *cobra.Command, args []string) {
			if err := devnetRun(cmd, configFromCommand(cmd), devCfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		IntVar(&devCfg.Xgovs, "xgovs", devnet.DefaultXgovs, "number of delegating xGovs")
	cmd.Flags().
		StringVar(&devCfg.Version, "version", devnet.DefaultVersion, "version tag of the deployed programs")
	cmd.Flags().
		DurationVar(&devCfg.VotingPeriod, "voting-period", devnet.DefaultVotingPeriod, "voting period of the proposal")
	return cmd
}
