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

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/delegato/database/plugin"
	"github.com/blinklabs-io/delegato/ledger"
	"github.com/blinklabs-io/delegato/types"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "delegato.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
	DefaultEnvFile        = ".env"
)

// ErrDeployerMissing is returned when a deployment is requested without a
// deployer account
var ErrDeployerMissing = errors.New("deployer address is not configured")

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath   string       `yaml:"databasePath"   split_words:"true"`
	BlobPlugin     string       `yaml:"blobPlugin"     envconfig:"DELEGATO_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin string       `yaml:"metadataPlugin" envconfig:"DELEGATO_DATABASE_METADATA_PLUGIN"`
	BindAddr       string       `yaml:"bindAddr"       split_words:"true"`
	MetricsPort    uint         `yaml:"metricsPort"    split_words:"true"`
	Tracing        bool         `yaml:"tracing"        split_words:"true"`
	TracingStdout  bool         `yaml:"tracingStdout"  split_words:"true"`
	Deploy         DeployConfig `yaml:"deploy"         ignored:"true"`
}

// DeployConfig drives the bootstrap of a delegation registry. Its environment
// variables use the DEL_ prefix
type DeployConfig struct {
	Deployer          string `yaml:"deployer"          envconfig:"DEPLOYER"`
	FreshDeploy       bool   `yaml:"freshDeploy"       envconfig:"REG_FRESH_DEPLOY"`
	RegistryVersion   string `yaml:"registryVersion"   envconfig:"REGISTRY_VERSION"`
	XgovRegistryID    uint64 `yaml:"xgovRegistryId"    envconfig:"XGOV_REGISTRY_ID"`
	Configure         bool   `yaml:"configure"         envconfig:"REG_CONFIGURE"`
	FeeVoteXgov       uint64 `yaml:"feeVoteXgov"       envconfig:"CFG_FEE_VOTE_XGOV"`
	FeeVoteOther      uint64 `yaml:"feeVoteOther"      envconfig:"CFG_FEE_VOTE_OTHER"`
	FeeRepresentative uint64 `yaml:"feeRepresentative" envconfig:"CFG_FEE_REPRESENTATIVE"`
	VoteTriggerAward  uint64 `yaml:"voteTriggerAward"  envconfig:"CFG_VOTE_TRIGGER_AWARD"`
}

// Fees returns the registry fee configuration described by the deploy config
func (d DeployConfig) Fees() types.Fees {
	return types.Fees{
		Vote: types.VoteFees{
			Xgov:  d.FeeVoteXgov,
			Other: d.FeeVoteOther,
		},
		Representative:   d.FeeRepresentative,
		VoteTriggerAward: d.VoteTriggerAward,
	}
}

// DeployerAddress parses the configured deployer account
func (d DeployConfig) DeployerAddress() (ledger.Address, error) {
	if d.Deployer == "" {
		return ledger.Address{}, ErrDeployerMissing
	}
	return ledger.ParseAddress(d.Deployer)
}

var globalConfig = &Config{
	DatabasePath:   ".delegato",
	BlobPlugin:     DefaultBlobPlugin,
	MetadataPlugin: DefaultMetadataPlugin,
	BindAddr:       "0.0.0.0",
	MetricsPort:    12799,
	Deploy: DeployConfig{
		FeeVoteXgov:       types.DefaultVoteFeeXgov,
		FeeVoteOther:      types.DefaultVoteFeeOther,
		FeeRepresentative: types.DefaultRepresentativeFee,
		VoteTriggerAward:  types.DefaultVoteTriggerAward,
	},
}

// LoadEnvFile loads variables from a dotenv file into the process environment.
// Variables that are already set win. A missing file is not an error
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.delegato/delegato.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".delegato", "delegato.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/delegato/delegato.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/delegato/delegato.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		// First unmarshal into temp config to handle plugin sections
		var tempCfg tempConfig
		err = yaml.Unmarshal(buf, &tempCfg)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		if tempCfg.Config != nil {
			// Overlay config values onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			err = yaml.Unmarshal(configBytes, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			err = yaml.Unmarshal(buf, globalConfig)
			if err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}

		// Process plugin configurations
		pluginConfig := make(map[string]map[string]map[string]any)
		if tempCfg.Blob != nil {
			pluginConfig["blob"] = tempCfg.Blob
		}
		if tempCfg.Metadata != nil {
			pluginConfig["metadata"] = tempCfg.Metadata
		}
		if tempCfg.Database != nil {
			if tempCfg.Database.Blob != nil {
				name, blobConfig := splitPluginSection("blob", tempCfg.Database.Blob)
				if name != "" {
					globalConfig.BlobPlugin = name
				}
				mergePluginSection(pluginConfig, "blob", blobConfig)
			}
			if tempCfg.Database.Metadata != nil {
				name, metadataConfig := splitPluginSection("metadata", tempCfg.Database.Metadata)
				if name != "" {
					globalConfig.MetadataPlugin = name
				}
				mergePluginSection(pluginConfig, "metadata", metadataConfig)
			}
		}
		if len(pluginConfig) > 0 {
			err = plugin.ProcessConfig(pluginConfig)
			if err != nil {
				return nil, fmt.Errorf(
					"error processing plugin config: %w",
					err,
				)
			}
		}
	}
	// Process environment variables
	err := envconfig.Process("delegato", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	err = envconfig.Process("del", &globalConfig.Deploy)
	if err != nil {
		return nil, fmt.Errorf("error processing deploy environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	return globalConfig, nil
}

// splitPluginSection extracts the selected plugin name from a database section
// and returns the remaining per-plugin option maps
func splitPluginSection(
	kind string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var name string
	if pluginVal, exists := section["plugin"]; exists {
		if pluginName, ok := pluginVal.(string); ok {
			name = pluginName
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(os.Stderr, "warning: skipping %s config entry %q: expected map, got %T\n", kind, k, v)
		}
	}
	return name, ret
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	kind string,
	section map[string]map[string]any,
) {
	if pluginConfig[kind] == nil {
		pluginConfig[kind] = section
		return
	}
	maps.Copy(pluginConfig[kind], section)
}

func GetConfig() *Config {
	return globalConfig
}
