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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/delegato/internal/config"
	"github.com/blinklabs-io/delegato/internal/deploy"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errXgovRegistryMissing = errors.New("xGov registry application ID is not configured")

// deployConfig translates the deploy section of the config into a deployment
func deployConfig(cfg config.DeployConfig) (deploy.Config, error) {
	deployer, err := cfg.DeployerAddress()
	if err != nil {
		return deploy.Config{}, err
	}
	if cfg.XgovRegistryID == 0 {
		return deploy.Config{}, errXgovRegistryMissing
	}
	programs, err := deploy.BuiltinPrograms(cfg.RegistryVersion)
	if err != nil {
		return deploy.Config{}, err
	}
	ret := deploy.Config{
		Deployer:     deployer,
		XgovRegistry: ledger.AppID(cfg.XgovRegistryID),
		Programs:     programs,
		FreshDeploy:  cfg.FreshDeploy,
	}
	if cfg.Configure {
		fees := cfg.Fees()
		ret.Fees = &fees
	}
	return ret, nil
}

func printDeployResult(w io.Writer, res deploy.Result) {
	action := "updated"
	if res.Created {
		action = "created"
	}
	fmt.Fprintf(
		w,
		"%s registry %s\n",
		color.New(color.FgGreen).Sprint(action),
		color.New(color.Bold).Sprint(res.App),
	)
	if res.Voter != 0 {
		fmt.Fprintf(w, "prepared voter %d\n", res.Voter)
	}
}

func deployRun(cmd *cobra.Command, cfg *config.Config) error {
	logger := commonRun()
	depCfg, err := deployConfig(cfg.Deploy)
	if err != nil {
		return err
	}
	svc, err := startService(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
		}
	}()
	depCfg.Ledger = svc.Ledger()
	depCfg.Registry = svc.Registry()
	depCfg.Logger = logger
	res, err := deploy.Run(context.Background(), depCfg)
	if err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}
	printDeployResult(cmd.OutOrStdout(), res)
	return nil
}

func deployCommand() *cobra.Command {
	var fresh, configure bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy or update a delegation registry",
		Long: "Deploy or update a delegation registry. Settings are read from the " +
			"config file and the DEL_ environment, which the env file populates.",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			if fresh {
				cfg.Deploy.FreshDeploy = true
			}
			if configure {
				cfg.Deploy.Configure = true
			}
			if err := deployRun(cmd, cfg); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
	cmd.Flags().
		BoolVar(&fresh, "fresh", false, "always create a new registry")
	cmd.Flags().
		BoolVar(&configure, "configure", false, "apply the configured fees after deployment")
	return cmd
}
