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

package governance_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/UMainLove/MintGovernance/governance/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedOracle returns the same weights at every timepoint
type fixedOracle struct {
	weights map[string]*big.Int
	supply  *big.Int
}

func (o *fixedOracle) WeightAt(
	account string,
	_ clock.Timepoint,
) (*big.Int, error) {
	if w, ok := o.weights[account]; ok {
		return new(big.Int).Set(w), nil
	}
	return new(big.Int), nil
}

func (o *fixedOracle) TotalSupplyAt(_ clock.Timepoint) (*big.Int, error) {
	return new(big.Int).Set(o.supply), nil
}

// recordExecutor records applied actions and can be made to fail at
// either phase. A mid-sequence failure records nothing, matching the
// all-or-nothing Apply contract.
type recordExecutor struct {
	executed     []governance.Action
	validateErr  error
	executeErr   error
	failAtTarget string
}

func (e *recordExecutor) Validate(
	_ context.Context,
	action governance.Action,
) error {
	if e.validateErr != nil &&
		(e.failAtTarget == "" || e.failAtTarget == action.Target) {
		return e.validateErr
	}
	return nil
}

func (e *recordExecutor) Apply(
	_ context.Context,
	actions []governance.Action,
) error {
	for i, action := range actions {
		if e.executeErr != nil &&
			(e.failAtTarget == "" || e.failAtTarget == action.Target) {
			return &governance.ActionExecutionError{
				Index:  i,
				Target: action.Target,
				Err:    e.executeErr,
			}
		}
	}
	e.executed = append(e.executed, actions...)
	return nil
}

func testConfig() governance.Config {
	return governance.Config{
		ProposalThreshold: big.NewInt(1),
		VotingDelay:       10,
		VotingPeriod:      100,
		QuorumFractionBps: 400,
	}
}

func testGovernor(
	t *testing.T,
	cfg governance.Config,
) (*governance.Governor, *clock.Manual, *recordExecutor) {
	t.Helper()
	manualClock := clock.NewManual(0)
	executor := &recordExecutor{}
	oracle := &fixedOracle{
		weights: map[string]*big.Int{
			"alice": big.NewInt(10_000),
			"bob":   big.NewInt(300),
			"carol": big.NewInt(5_000),
		},
		supply: big.NewInt(10_000),
	}
	g, err := governance.NewGovernor(
		governance.GovernorConfig{
			Clock:      manualClock,
			Oracle:     oracle,
			Store:      store.NewMemory(),
			Executor:   executor,
			Governance: cfg,
		},
	)
	require.NoError(t, err)
	return g, manualClock, executor
}

func testActions() []governance.Action {
	return []governance.Action{
		{
			Target:   "token.mint",
			Value:    big.NewInt(0),
			Calldata: []byte(`{"to":"dave","amount":"1000"}`),
		},
	}
}

func TestProposeLifecycle(t *testing.T) {
	g, manualClock, executor := testGovernor(t, testConfig())
	ctx := context.Background()
	actions := testActions()
	descriptionHash := governance.HashDescription("mint to dave")

	id, err := g.Propose(ctx, "alice", actions, "mint to dave")
	require.NoError(t, err)
	assert.Equal(
		t,
		governance.ComputeProposalID(actions, descriptionHash),
		id,
	)

	proposal, err := g.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, clock.Timepoint(10), proposal.VoteStart)
	assert.Equal(t, clock.Timepoint(110), proposal.VoteEnd)

	// Pending until the delay elapses
	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StatePending, state)

	manualClock.Set(5)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.ErrorIs(t, err, governance.ErrProposalNotActive)

	// Active during the window, inclusive of vote-start
	manualClock.Set(10)
	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateActive, state)

	manualClock.Set(15)
	ballot, err := g.CastVote(
		ctx,
		id,
		"alice",
		governance.SupportFor,
		"sound policy",
	)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_000), ballot.Weight)
	assert.Equal(t, clock.Timepoint(15), ballot.CastAt)

	_, err = g.CastVote(ctx, id, "alice", governance.SupportAgainst, "")
	require.ErrorIs(t, err, governance.ErrAlreadyVoted)

	tally, err := g.ProposalVotes(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10_000), tally.ForVotes)
	assert.Equal(t, big.NewInt(0), tally.AgainstVotes)

	// Still Active on the last timepoint of the window
	manualClock.Set(109)
	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateActive, state)

	// Quorum is 4% of supply at vote-start
	quorum, err := g.Quorum(proposal.VoteStart)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(400), quorum)

	manualClock.Set(111)
	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)

	execID, err := g.Execute(ctx, actions, descriptionHash)
	require.NoError(t, err)
	assert.Equal(t, id, execID)
	require.Len(t, executor.executed, 1)
	assert.Equal(t, "token.mint", executor.executed[0].Target)

	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateExecuted, state)

	_, err = g.Execute(ctx, actions, descriptionHash)
	require.ErrorIs(t, err, governance.ErrAlreadyExecuted)
}

func TestProposeErrors(t *testing.T) {
	g, _, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	_, err := g.Propose(ctx, "alice", nil, "empty")
	require.ErrorIs(t, err, governance.ErrEmptyProposal)

	// dave holds no tokens
	_, err = g.Propose(ctx, "dave", testActions(), "mint to dave")
	require.ErrorIs(t, err, governance.ErrInsufficientWeight)

	_, err = g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	// Same actions and description from a different proposer is still
	// the same proposal
	_, err = g.Propose(ctx, "carol", testActions(), "mint to dave")
	require.ErrorIs(t, err, governance.ErrDuplicateProposal)

	// Same actions under a different description is a new proposal
	_, err = g.Propose(ctx, "alice", testActions(), "mint to dave, again")
	require.NoError(t, err)
}

func TestDefeatedBelowQuorum(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	// bob's 300 For is under the 400 quorum
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "bob", governance.SupportFor, "")
	require.NoError(t, err)

	manualClock.Set(200)
	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateDefeated, state)
}

func TestDefeatedOnMargin(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	// Quorum met but For does not exceed Against
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "carol", governance.SupportFor, "")
	require.NoError(t, err)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportAgainst, "")
	require.NoError(t, err)

	manualClock.Set(200)
	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateDefeated, state)
}

func TestAbstainCountsTowardQuorum(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	// bob's For alone misses quorum; carol's Abstain closes the gap
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "bob", governance.SupportFor, "")
	require.NoError(t, err)
	_, err = g.CastVote(ctx, id, "carol", governance.SupportAbstain, "")
	require.NoError(t, err)

	manualClock.Set(200)
	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)
}

func TestExecuteErrors(t *testing.T) {
	g, manualClock, executor := testGovernor(t, testConfig())
	ctx := context.Background()
	actions := testActions()
	descriptionHash := governance.HashDescription("mint to dave")

	_, err := g.Execute(ctx, actions, descriptionHash)
	require.ErrorIs(t, err, governance.ErrUnknownProposal)

	id, err := g.Propose(ctx, "alice", actions, "mint to dave")
	require.NoError(t, err)

	// Not yet Succeeded
	_, err = g.Execute(ctx, actions, descriptionHash)
	require.ErrorIs(t, err, governance.ErrNotSucceeded)

	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.NoError(t, err)
	manualClock.Set(200)

	// A validation failure applies nothing and leaves the proposal
	// Succeeded and retryable
	executor.validateErr = errors.New("unknown target")
	_, err = g.Execute(ctx, actions, descriptionHash)
	var execErr *governance.ActionExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 0, execErr.Index)
	assert.Equal(t, "token.mint", execErr.Target)
	assert.Empty(t, executor.executed)

	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)
	executor.validateErr = nil

	// An apply failure likewise leaves no effect and no executed flag
	executor.executeErr = errors.New("apply failed")
	_, err = g.Execute(ctx, actions, descriptionHash)
	require.ErrorAs(t, err, &execErr)
	assert.Empty(t, executor.executed)
	state, err = g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)

	executor.executeErr = nil
	_, err = g.Execute(ctx, actions, descriptionHash)
	require.NoError(t, err)
	assert.Len(t, executor.executed, 1)
}

func TestCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Canceler = "guardian"
	g, manualClock, _ := testGovernor(t, cfg)
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	err = g.Cancel(ctx, id, "bob")
	require.ErrorIs(t, err, governance.ErrNotProposer)

	require.NoError(t, g.Cancel(ctx, id, "alice"))

	state, err := g.State(id)
	require.NoError(t, err)
	assert.Equal(t, governance.StateCanceled, state)

	err = g.Cancel(ctx, id, "alice")
	require.ErrorIs(t, err, governance.ErrAlreadyCanceled)

	// Canceled is terminal regardless of the clock
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.ErrorIs(t, err, governance.ErrProposalNotActive)

	// Designated canceler can cancel someone else's proposal
	id2, err := g.Propose(ctx, "carol", testActions(), "second attempt")
	require.NoError(t, err)
	require.NoError(t, g.Cancel(ctx, id2, "guardian"))
}

func TestCancelAfterVotes(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "bob", governance.SupportFor, "")
	require.NoError(t, err)

	err = g.Cancel(ctx, id, "alice")
	require.ErrorIs(t, err, governance.ErrVotesAlreadyCast)

	// With the override set, votes no longer block cancellation
	cfg := testConfig()
	cfg.AllowCancelAfterVotes = true
	g2, manualClock2, _ := testGovernor(t, cfg)
	id2, err := g2.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)
	manualClock2.Set(15)
	_, err = g2.CastVote(ctx, id2, "bob", governance.SupportFor, "")
	require.NoError(t, err)
	require.NoError(t, g2.Cancel(ctx, id2, "alice"))
}

func TestCancelNotCancelable(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	manualClock.Set(200)
	err = g.Cancel(ctx, id, "alice")
	require.ErrorIs(t, err, governance.ErrNotCancelable)
}

func TestInvalidSupport(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)

	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.Support(7), "")
	require.ErrorIs(t, err, governance.ErrInvalidSupport)
}

func TestUnknownProposal(t *testing.T) {
	g, _, _ := testGovernor(t, testConfig())
	ctx := context.Background()
	var id governance.ProposalID

	_, err := g.State(id)
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "")
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
	err = g.Cancel(ctx, id, "alice")
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
	_, err = g.ProposalVotes(id)
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
}

func TestGetBallot(t *testing.T) {
	g, manualClock, _ := testGovernor(t, testConfig())
	ctx := context.Background()

	id, err := g.Propose(ctx, "alice", testActions(), "mint to dave")
	require.NoError(t, err)
	manualClock.Set(15)
	_, err = g.CastVote(ctx, id, "alice", governance.SupportFor, "why not")
	require.NoError(t, err)

	ballot, err := g.GetBallot(id, "alice")
	require.NoError(t, err)
	require.NotNil(t, ballot)
	assert.Equal(t, "why not", ballot.Reason)

	ballot, err = g.GetBallot(id, "bob")
	require.NoError(t, err)
	assert.Nil(t, ballot)
}

func TestAmendConfig(t *testing.T) {
	g, _, _ := testGovernor(t, testConfig())

	cfg := g.Config()
	cfg.QuorumFractionBps = 2_000
	cfg.VotingPeriod = 50
	prev, err := g.AmendConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), prev.QuorumFractionBps)
	assert.Equal(t, uint64(100), prev.VotingPeriod)

	got := g.Config()
	assert.Equal(t, uint64(2_000), got.QuorumFractionBps)
	assert.Equal(t, uint64(50), got.VotingPeriod)

	quorum, err := g.Quorum(0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_000), quorum)

	cfg.VotingPeriod = 0
	_, err = g.AmendConfig(cfg)
	require.Error(t, err)
}

func TestAmendConfigConcurrent(t *testing.T) {
	g, _, _ := testGovernor(t, testConfig())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			_ = g.Config()
			if _, err := g.Quorum(0); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		cfg := testConfig()
		for i := range 100 {
			cfg.QuorumFractionBps = uint64(400 + i)
			if _, err := g.AmendConfig(cfg); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, uint64(499), g.Config().QuorumFractionBps)
}

func TestProposalIDDeterminism(t *testing.T) {
	actions := testActions()
	h := governance.HashDescription("mint to dave")
	id1 := governance.ComputeProposalID(actions, h)
	id2 := governance.ComputeProposalID(actions, h)
	assert.Equal(t, id1, id2)

	id3 := governance.ComputeProposalID(
		actions,
		governance.HashDescription("something else"),
	)
	assert.NotEqual(t, id1, id3)

	other := testActions()
	other[0].Calldata = []byte(`{"to":"bob","amount":"1"}`)
	id4 := governance.ComputeProposalID(other, h)
	assert.NotEqual(t, id1, id4)
}
