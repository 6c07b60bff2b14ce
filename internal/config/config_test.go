// Copyright 2026 Blink Labs Software
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
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		DatabasePath:      ".mintgovernance",
		BindAddr:          "0.0.0.0",
		ApiListenAddress:  ":3000",
		MetricsPort:       12798,
		SlotLength:        "1s",
		ShutdownTimeout:   DefaultShutdownTimeout,
		VotingDelay:       1,
		VotingPeriod:      86400,
		ProposalThreshold: "1",
		QuorumFractionBps: 400,
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
databasePath: ".mintgovernance"
bindAddr: "127.0.0.1"
apiListenAddress: ":8080"
metricsPort: 8088
slotLength: "2s"
shutdownTimeout: "10s"
proposalThreshold: "1000"
votingDelay: 10
votingPeriod: 100
quorumFractionBps: 800
canceler: "guardian"
allocations:
  - account: "treasury"
    amount: "1000000"
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-mintgovernance.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	expected := &Config{
		DatabasePath:      ".mintgovernance",
		BindAddr:          "127.0.0.1",
		ApiListenAddress:  ":8080",
		MetricsPort:       8088,
		SlotLength:        "2s",
		ShutdownTimeout:   "10s",
		ProposalThreshold: "1000",
		VotingDelay:       10,
		VotingPeriod:      100,
		QuorumFractionBps: 800,
		Canceler:          "guardian",
		Allocations: []AllocationConfig{
			{Account: "treasury", Amount: "1000000"},
		},
		GenesisTime: "",
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

func TestLoad_InvalidGovernanceParams(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
votingPeriod: 0
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-mintgovernance.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	if _, err := LoadConfig(tmpFile); err == nil {
		t.Fatalf("expected error for zero voting period, got none")
	}
}

func TestGovernanceConfig(t *testing.T) {
	resetGlobalConfig()
	globalConfig.ProposalThreshold = "5000"
	globalConfig.VotingDelay = 10
	globalConfig.VotingPeriod = 100
	globalConfig.QuorumFractionBps = 800

	govCfg, err := globalConfig.GovernanceConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if govCfg.ProposalThreshold.Cmp(big.NewInt(5000)) != 0 {
		t.Errorf(
			"unexpected proposal threshold: %s",
			govCfg.ProposalThreshold,
		)
	}
	if govCfg.VotingDelay != 10 || govCfg.VotingPeriod != 100 {
		t.Errorf("unexpected voting window: %+v", govCfg)
	}

	globalConfig.ProposalThreshold = "not-a-number"
	if _, err := globalConfig.GovernanceConfig(); err == nil {
		t.Fatalf("expected error for invalid threshold, got none")
	}
}
