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

package executor_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/executor"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/UMainLove/MintGovernance/governance/store"
	"github.com/UMainLove/MintGovernance/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherUnknownTarget(t *testing.T) {
	d := executor.NewDispatcher(nil)
	ctx := context.Background()
	action := governance.Action{Target: "nope"}

	err := d.Validate(ctx, action)
	require.ErrorIs(t, err, executor.ErrUnknownTarget)
	err = d.Apply(ctx, []governance.Action{action})
	require.ErrorIs(t, err, executor.ErrUnknownTarget)
	var execErr *governance.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "nope", execErr.Target)
}

func TestDispatcherDuplicateTarget(t *testing.T) {
	d := executor.NewDispatcher(nil)
	ledger, err := token.NewLedger(
		token.LedgerConfig{Clock: clock.NewManual(0)},
	)
	require.NoError(t, err)
	target := executor.NewMintTarget(ledger)

	require.NoError(t, d.Register(executor.MintTargetName, target))
	err = d.Register(executor.MintTargetName, target)
	require.ErrorIs(t, err, executor.ErrDuplicateTarget)
	assert.Equal(t, []string{executor.MintTargetName}, d.Targets())
}

func TestMintTarget(t *testing.T) {
	ledger, err := token.NewLedger(
		token.LedgerConfig{Clock: clock.NewManual(0)},
	)
	require.NoError(t, err)
	target := executor.NewMintTarget(ledger)
	ctx := context.Background()

	good := governance.Action{
		Target:   executor.MintTargetName,
		Calldata: []byte(`{"to":"alice","amount":"1000"}`),
	}
	require.NoError(t, target.Validate(ctx, good))
	require.NoError(t, target.Execute(ctx, good))
	assert.Equal(t, big.NewInt(1_000), ledger.BalanceOf("alice"))

	// Revert burns the minted amount back out
	require.NoError(t, target.Revert(ctx, good))
	assert.Equal(t, big.NewInt(0), ledger.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(0), ledger.TotalSupply())

	for _, calldata := range []string{
		`not json`,
		`{"amount":"1000"}`,
		`{"to":"alice","amount":"abc"}`,
		`{"to":"alice","amount":"-5"}`,
		`{"to":"alice","amount":"0"}`,
	} {
		action := governance.Action{
			Target:   executor.MintTargetName,
			Calldata: []byte(calldata),
		}
		assert.Error(t, target.Validate(ctx, action), calldata)
	}

	withValue := good
	withValue.Value = big.NewInt(1)
	assert.Error(t, target.Validate(ctx, withValue))
}

type recordAmender struct {
	amended []governance.Config
	current governance.Config
}

func (a *recordAmender) AmendConfig(
	cfg governance.Config,
) (governance.Config, error) {
	prev := a.current
	a.amended = append(a.amended, cfg)
	a.current = cfg
	return prev, nil
}

func TestConfigTarget(t *testing.T) {
	amender := &recordAmender{
		current: governance.Config{
			ProposalThreshold: big.NewInt(1),
			VotingDelay:       10,
			VotingPeriod:      100,
			QuorumFractionBps: 400,
		},
	}
	target := executor.NewConfigTarget(amender)
	ctx := context.Background()

	good := governance.Action{
		Target: executor.ConfigTargetName,
		Calldata: []byte(
			`{"proposal_threshold":"10","voting_delay":5,` +
				`"voting_period":50,"quorum_fraction_bps":1000}`,
		),
	}
	require.NoError(t, target.Validate(ctx, good))
	require.NoError(t, target.Execute(ctx, good))
	require.Len(t, amender.amended, 1)
	assert.Equal(t, big.NewInt(10), amender.amended[0].ProposalThreshold)
	assert.Equal(t, uint64(1_000), amender.amended[0].QuorumFractionBps)

	// Revert restores the config that was in place before Execute
	require.NoError(t, target.Revert(ctx, good))
	require.Len(t, amender.amended, 2)
	assert.Equal(t, uint64(100), amender.amended[1].VotingPeriod)

	// Nothing left to restore after a revert
	require.Error(t, target.Revert(ctx, good))

	for _, calldata := range []string{
		`not json`,
		`{"proposal_threshold":"abc","voting_delay":5,` +
			`"voting_period":50,"quorum_fraction_bps":1000}`,
		// zero voting period fails config validation
		`{"proposal_threshold":"10","voting_delay":5,` +
			`"voting_period":0,"quorum_fraction_bps":1000}`,
		// quorum fraction above 100%
		`{"proposal_threshold":"10","voting_delay":5,` +
			`"voting_period":50,"quorum_fraction_bps":10001}`,
	} {
		action := governance.Action{
			Target:   executor.ConfigTargetName,
			Calldata: []byte(calldata),
		}
		assert.Error(t, target.Validate(ctx, action), calldata)
	}
}

// flakyHandler fails Execute until its error is cleared
type flakyHandler struct {
	failErr  error
	executed int
}

func (h *flakyHandler) Validate(
	_ context.Context,
	_ governance.Action,
) error {
	return nil
}

func (h *flakyHandler) Execute(
	_ context.Context,
	_ governance.Action,
) error {
	if h.failErr != nil {
		return h.failErr
	}
	h.executed++
	return nil
}

func (h *flakyHandler) Revert(
	_ context.Context,
	_ governance.Action,
) error {
	h.executed--
	return nil
}

// A failure mid-sequence must leave no trace of the earlier actions, so
// that retrying the proposal applies each action exactly once.
func TestApplyRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	manualClock := clock.NewManual(0)
	ledger, err := token.NewLedger(
		token.LedgerConfig{Clock: manualClock},
	)
	require.NoError(t, err)
	require.NoError(t, ledger.Mint("alice", big.NewInt(10_000)))

	flaky := &flakyHandler{failErr: errors.New("downstream unavailable")}
	dispatcher := executor.NewDispatcher(nil)
	require.NoError(
		t,
		dispatcher.Register(
			executor.MintTargetName,
			executor.NewMintTarget(ledger),
		),
	)
	require.NoError(t, dispatcher.Register("test.flaky", flaky))

	g, err := governance.NewGovernor(
		governance.GovernorConfig{
			Clock:    manualClock,
			Oracle:   ledger,
			Store:    store.NewMemory(),
			Executor: dispatcher,
			Governance: governance.Config{
				ProposalThreshold: big.NewInt(1),
				VotingDelay:       10,
				VotingPeriod:      100,
				QuorumFractionBps: 400,
			},
		},
	)
	require.NoError(t, err)

	actions := []governance.Action{
		{
			Target:   executor.MintTargetName,
			Calldata: []byte(`{"to":"treasury","amount":"5000"}`),
		},
		{
			Target: "test.flaky",
		},
	}
	description := "treasury grant with side effect"

	id, err := g.Propose(ctx, "alice", actions, description)
	require.NoError(t, err)
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.NoError(t, err)
	manualClock.Set(200)

	descriptionHash := governance.HashDescription(description)
	_, err = g.Execute(ctx, actions, descriptionHash)
	var execErr *governance.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.Index)
	assert.Equal(t, "test.flaky", execErr.Target)

	// The mint from the first action was rolled back
	assert.Equal(t, big.NewInt(0), ledger.BalanceOf("treasury"))
	assert.Equal(t, big.NewInt(10_000), ledger.TotalSupply())

	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)

	// Retry after the failure clears applies each action exactly once
	flaky.failErr = nil
	_, err = g.Execute(ctx, actions, descriptionHash)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000), ledger.BalanceOf("treasury"))
	assert.Equal(t, 1, flaky.executed)

	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateExecuted, state)
}

// End-to-end: token holders vote a mint and a config amendment through
// the engine, and the dispatcher applies both.
func TestGovernedExecution(t *testing.T) {
	ctx := context.Background()
	manualClock := clock.NewManual(0)
	ledger, err := token.NewLedger(
		token.LedgerConfig{Clock: manualClock},
	)
	require.NoError(t, err)
	require.NoError(t, ledger.Mint("alice", big.NewInt(10_000)))

	dispatcher := executor.NewDispatcher(nil)
	require.NoError(
		t,
		dispatcher.Register(
			executor.MintTargetName,
			executor.NewMintTarget(ledger),
		),
	)

	g, err := governance.NewGovernor(
		governance.GovernorConfig{
			Clock:    manualClock,
			Oracle:   ledger,
			Store:    store.NewMemory(),
			Executor: dispatcher,
			Governance: governance.Config{
				ProposalThreshold: big.NewInt(1),
				VotingDelay:       10,
				VotingPeriod:      100,
				QuorumFractionBps: 400,
			},
		},
	)
	require.NoError(t, err)
	require.NoError(
		t,
		dispatcher.Register(
			executor.ConfigTargetName,
			executor.NewConfigTarget(g),
		),
	)

	actions := []governance.Action{
		{
			Target:   executor.MintTargetName,
			Calldata: []byte(`{"to":"treasury","amount":"5000"}`),
		},
		{
			Target: executor.ConfigTargetName,
			Calldata: []byte(
				`{"proposal_threshold":"1","voting_delay":10,` +
					`"voting_period":200,"quorum_fraction_bps":800}`,
			),
		},
	}
	description := "mint treasury grant and double quorum"

	id, err := g.Propose(ctx, "alice", actions, description)
	require.NoError(t, err)

	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.NoError(t, err)

	manualClock.Set(200)
	_, err = g.Execute(
		ctx,
		actions,
		governance.HashDescription(description),
	)
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(5_000), ledger.BalanceOf("treasury"))
	cfg := g.Config()
	assert.Equal(t, uint64(200), cfg.VotingPeriod)
	assert.Equal(t, uint64(800), cfg.QuorumFractionBps)

	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateExecuted, state)
}
