package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blinklabs-io/delegato/types"
)

func resetGlobalConfig() {
	globalConfig = &Config{
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
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: ".delegato-test"
bindAddr: "127.0.0.1"
metricsPort: 8088
deploy:
  deployer: "test-deployer"
  freshDeploy: true
  registryVersion: "1.2.3"
  xgovRegistryId: 42
  configure: true
  feeVoteXgov: 1000
  feeVoteOther: 2000
  feeRepresentative: 3000
  voteTriggerAward: 500
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-delegato.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	expected := &Config{
		DatabasePath:   ".delegato-test",
		BlobPlugin:     DefaultBlobPlugin,
		MetadataPlugin: DefaultMetadataPlugin,
		BindAddr:       "127.0.0.1",
		MetricsPort:    8088,
		Deploy: DeployConfig{
			Deployer:          "test-deployer",
			FreshDeploy:       true,
			RegistryVersion:   "1.2.3",
			XgovRegistryID:    42,
			Configure:         true,
			FeeVoteXgov:       1000,
			FeeVoteOther:      2000,
			FeeRepresentative: 3000,
			VoteTriggerAward:  500,
		},
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	expected := &Config{
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

	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
config:
  metricsPort: 9100
database:
  blob:
    plugin: "badger"
  metadata:
    plugin: "sqlite"
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-section.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.MetricsPort != 9100 {
		t.Errorf("expected MetricsPort to be 9100, got: %d", cfg.MetricsPort)
	}
	if cfg.BlobPlugin != "badger" {
		t.Errorf("expected BlobPlugin to be badger, got: %s", cfg.BlobPlugin)
	}
	if cfg.DatabasePath != ".delegato" {
		t.Errorf("expected default DatabasePath, got: %s", cfg.DatabasePath)
	}
}

func TestLoad_DeployEnvironment(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEL_REG_FRESH_DEPLOY", "true")
	t.Setenv("DEL_XGOV_REGISTRY_ID", "1234")
	t.Setenv("DEL_CFG_FEE_VOTE_XGOV", "7")
	t.Setenv("DEL_CFG_FEE_VOTE_OTHER", "11")
	t.Setenv("DEL_CFG_FEE_REPRESENTATIVE", "13")
	t.Setenv("DEL_CFG_VOTE_TRIGGER_AWARD", "5")
	t.Setenv("DELEGATO_METRICS_PORT", "9999")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !cfg.Deploy.FreshDeploy {
		t.Errorf("expected FreshDeploy to be true")
	}
	if cfg.Deploy.XgovRegistryID != 1234 {
		t.Errorf("expected XgovRegistryID to be 1234, got: %d", cfg.Deploy.XgovRegistryID)
	}
	if cfg.MetricsPort != 9999 {
		t.Errorf("expected MetricsPort to be 9999, got: %d", cfg.MetricsPort)
	}
	fees := cfg.Deploy.Fees()
	if fees.Vote.Xgov != 7 || fees.Vote.Other != 11 || fees.Representative != 13 || fees.VoteTriggerAward != 5 {
		t.Errorf("unexpected fees from environment: %+v", fees)
	}
}

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	err := os.WriteFile(envFile, []byte("DEL_REGISTRY_VERSION=4.5.6\n"), 0644)
	if err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("DEL_REGISTRY_VERSION", "")
	os.Unsetenv("DEL_REGISTRY_VERSION")

	if err := LoadEnvFile(envFile); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if got := os.Getenv("DEL_REGISTRY_VERSION"); got != "4.5.6" {
		t.Errorf("expected DEL_REGISTRY_VERSION to be 4.5.6, got: %q", got)
	}
	if err := LoadEnvFile(filepath.Join(tmpDir, "missing.env")); err != nil {
		t.Errorf("expected missing env file to be ignored, got: %v", err)
	}
}

func TestDeployerAddress(t *testing.T) {
	var d DeployConfig
	if _, err := d.DeployerAddress(); err != ErrDeployerMissing {
		t.Errorf("expected ErrDeployerMissing, got: %v", err)
	}
	d.Deployer = "not-an-address"
	if _, err := d.DeployerAddress(); err == nil {
		t.Errorf("expected error for invalid address")
	}
}
