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
	"slices"

	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/registry"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	headerStyle = color.New(color.Bold, color.FgHiWhite)
	pausedStyle = color.New(color.FgRed, color.Bold)
	activeStyle = color.New(color.FgGreen, color.Bold)
	faintStyle  = color.New(color.Faint)
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	return t
}

func stateLabel(paused bool) string {
	if paused {
		return pausedStyle.Sprint("paused")
	}
	return activeStyle.Sprint("active")
}

// renderStatus writes a summary table of a registry followed by its voters
func renderStatus(
	w io.Writer,
	status registry.Status,
	voters map[ledger.Address]ledger.AppID,
) {
	fmt.Fprintln(w, headerStyle.Sprintf("Registry %d", status.App))

	t := newTable()
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.AppendRows([]table.Row{
		{"State", stateLabel(status.State.Paused)},
		{"Manager", status.State.Manager.String()},
		{"xGov registry", status.State.XgovRegistry},
		{"Balance", status.Balance},
		{"Minimum balance", status.MinBalance},
		{"Trigger fund", status.State.TriggerFund},
		{"Votes left", status.State.VotesLeft},
		{"Voters", status.Voters},
		{"Unassigned voters", status.Unassigned},
		{"Representatives", status.Representatives},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Fee (xGov votes)", status.State.Fees.Vote.Xgov},
		{"Fee (other votes)", status.State.Fees.Vote.Other},
		{"Representative fee", status.State.Fees.Representative},
		{"Vote trigger award", status.State.Fees.VoteTriggerAward},
	})
	fmt.Fprintln(w, t.Render())

	if len(voters) == 0 {
		fmt.Fprintln(w, faintStyle.Sprint("no registered voters"))
		return
	}
	addrs := make([]ledger.Address, 0, len(voters))
	for addr := range voters {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b ledger.Address) int {
		return slices.Compare(a.Bytes(), b.Bytes())
	})
	vt := newTable()
	vt.AppendHeader(table.Row{"xGov", "Voter app"})
	for _, addr := range addrs {
		vt.AppendRow(table.Row{addr.String(), voters[addr]})
	}
	fmt.Fprintln(w, vt.Render())
}

func statusRun(cmd *cobra.Command, cfg *config.Config, apps []ledger.AppID) error {
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
	if len(apps) == 0 {
		deployer, err := cfg.Deploy.DeployerAddress()
		if err != nil {
			return err
		}
		apps, err = svc.Registry().Find(deployer)
		if err != nil {
			return err
		}
		if len(apps) == 0 {
			return fmt.Errorf("no registry deployed by %s", deployer)
		}
	}
	ctx := context.Background()
	for _, app := range apps {
		status, err := svc.Status(ctx, app)
		if err != nil {
			return fmt.Errorf("registry %d: %w", app, err)
		}
		voters, err := svc.Registry().Voters(ctx, app)
		if err != nil {
			return fmt.Errorf("registry %d: %w", app, err)
		}
		renderStatus(cmd.OutOrStdout(), status, voters)
	}
	return nil
}

func statusCommand() *cobra.Command {
	var apps []uint64
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of delegation registries",
		Run: func(cmd *cobra.Command, args []string) {
			if err := statusRun(cmd, configFromCommand(cmd), appIDs(apps)); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		Uint64SliceVar(&apps, "app", nil, "registry application ID (defaults to those of the deployer)")
	return cmd
}
