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
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/UMainLove/MintGovernance/governance"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "mintgovernance.config"

const DefaultShutdownTimeout = "30s"

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

type AllocationConfig struct {
	Account string `yaml:"account"`
	Amount  string `yaml:"amount"`
}

type Config struct {
	DatabasePath          string             `yaml:"databasePath"                                                   split_words:"true"`
	BindAddr              string             `yaml:"bindAddr"                                                       split_words:"true"`
	ApiListenAddress      string             `yaml:"apiListenAddress"      envconfig:"MINTGOV_API_LISTEN_ADDRESS"`
	MetricsPort           uint               `yaml:"metricsPort"                                                    split_words:"true"`
	SlotLength            string             `yaml:"slotLength"                                                     split_words:"true"`
	GenesisTime           string             `yaml:"genesisTime"                                                    split_words:"true"`
	ShutdownTimeout       string             `yaml:"shutdownTimeout"                                                split_words:"true"`
	ProposalThreshold     string             `yaml:"proposalThreshold"     envconfig:"MINTGOV_PROPOSAL_THRESHOLD"`
	VotingDelay           uint64             `yaml:"votingDelay"           envconfig:"MINTGOV_VOTING_DELAY"`
	VotingPeriod          uint64             `yaml:"votingPeriod"          envconfig:"MINTGOV_VOTING_PERIOD"`
	QuorumFractionBps     uint64             `yaml:"quorumFractionBps"     envconfig:"MINTGOV_QUORUM_FRACTION_BPS"`
	Canceler              string             `yaml:"canceler"`
	AllowCancelAfterVotes bool               `yaml:"allowCancelAfterVotes" envconfig:"MINTGOV_ALLOW_CANCEL_AFTER_VOTES"`
	Allocations           []AllocationConfig `yaml:"allocations"`
	Tracing               bool               `yaml:"tracing"`
	TracingStdout         bool               `yaml:"tracingStdout"                                                  split_words:"true"`
}

var globalConfig = &Config{
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

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.mintgovernance/mintgovernance.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".mintgovernance",
				"mintgovernance.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/mintgovernance/mintgovernance.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/mintgovernance/mintgovernance.yaml"
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
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("mintgov", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}
	// Catch invalid governance parameters at startup rather than at
	// engine construction
	if _, err := globalConfig.GovernanceConfig(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// GovernanceConfig converts the flat file/env representation into the
// engine's config type
func (c *Config) GovernanceConfig() (governance.Config, error) {
	threshold := new(big.Int)
	if c.ProposalThreshold != "" {
		if _, ok := threshold.SetString(c.ProposalThreshold, 10); !ok {
			return governance.Config{}, fmt.Errorf(
				"invalid proposal threshold: %q",
				c.ProposalThreshold,
			)
		}
	}
	govCfg := governance.Config{
		ProposalThreshold:     threshold,
		VotingDelay:           c.VotingDelay,
		VotingPeriod:          c.VotingPeriod,
		QuorumFractionBps:     c.QuorumFractionBps,
		Canceler:              c.Canceler,
		AllowCancelAfterVotes: c.AllowCancelAfterVotes,
	}
	if err := govCfg.Validate(); err != nil {
		return governance.Config{}, err
	}
	return govCfg, nil
}
