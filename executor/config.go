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

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/UMainLove/MintGovernance/governance"
)

// ConfigTargetName is the target name for governance parameter
// amendments
const ConfigTargetName = "governance.config"

// ConfigAmender replaces the governance parameters and returns the
// parameters that were in force. The governance engine satisfies this,
// which makes the system self-amending: config changes go through the
// same propose/vote/execute path as any other action.
type ConfigAmender interface {
	AmendConfig(cfg governance.Config) (governance.Config, error)
}

// configCalldata is the JSON calldata of a governance.config action.
// It carries the complete replacement config, not a delta, so
// validation needs no view of the current parameters.
type configCalldata struct {
	ProposalThreshold     string `json:"proposal_threshold"`
	Canceler              string `json:"canceler,omitempty"`
	VotingDelay           uint64 `json:"voting_delay"`
	VotingPeriod          uint64 `json:"voting_period"`
	QuorumFractionBps     uint64 `json:"quorum_fraction_bps"`
	AllowCancelAfterVotes bool   `json:"allow_cancel_after_votes,omitempty"`
}

// ConfigTarget amends governance parameters through a governance
// proposal. The engine serializes executions, so at most one apply is
// in flight and the saved previous config belongs to it.
type ConfigTarget struct {
	amender ConfigAmender
	prev    *governance.Config
}

func NewConfigTarget(amender ConfigAmender) *ConfigTarget {
	return &ConfigTarget{amender: amender}
}

func (c *ConfigTarget) Validate(
	_ context.Context,
	action governance.Action,
) error {
	_, err := parseConfigCalldata(action)
	return err
}

func (c *ConfigTarget) Execute(
	_ context.Context,
	action governance.Action,
) error {
	cfg, err := parseConfigCalldata(action)
	if err != nil {
		return err
	}
	prev, err := c.amender.AmendConfig(cfg)
	if err != nil {
		return err
	}
	c.prev = &prev
	return nil
}

// Revert restores the parameters that were in force before Execute
func (c *ConfigTarget) Revert(
	_ context.Context,
	_ governance.Action,
) error {
	if c.prev == nil {
		return fmt.Errorf("no previous config to restore")
	}
	prev := *c.prev
	c.prev = nil
	if _, err := c.amender.AmendConfig(prev); err != nil {
		return err
	}
	return nil
}

func parseConfigCalldata(
	action governance.Action,
) (governance.Config, error) {
	var calldata configCalldata
	if err := json.Unmarshal(action.Calldata, &calldata); err != nil {
		return governance.Config{}, fmt.Errorf(
			"parse config calldata: %w",
			err,
		)
	}
	threshold, ok := new(big.Int).SetString(calldata.ProposalThreshold, 10)
	if !ok {
		return governance.Config{}, fmt.Errorf(
			"invalid proposal threshold %q",
			calldata.ProposalThreshold,
		)
	}
	cfg := governance.Config{
		ProposalThreshold:     threshold,
		VotingDelay:           calldata.VotingDelay,
		VotingPeriod:          calldata.VotingPeriod,
		QuorumFractionBps:     calldata.QuorumFractionBps,
		Canceler:              calldata.Canceler,
		AllowCancelAfterVotes: calldata.AllowCancelAfterVotes,
	}
	if err := cfg.Validate(); err != nil {
		return governance.Config{}, err
	}
	return cfg, nil
}
