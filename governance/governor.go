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

package governance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/event"
	"github.com/prometheus/client_golang/prometheus"
)

// GovernorConfig carries the collaborators and parameters for a
// Governor
type GovernorConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        clock.Source
	Oracle       WeightOracle
	Store        ProposalStore
	Executor     Executor
	Governance   Config
}

// Governor is the governance engine façade. It composes the proposal
// store, ballot box, quorum policy, and lifecycle into the public
// propose / castVote / execute / cancel operations plus read-only state
// queries. It holds no proposal state of its own.
//
// Operations follow a serialized-transaction model: one mutating
// operation completes fully, success or total failure, before the next
// is observed.
type Governor struct {
	logger    *slog.Logger
	eventBus  *event.EventBus
	clock     clock.Source
	oracle    WeightOracle
	store     ProposalStore
	executor  Executor
	ballots   *BallotBox
	quorum    *QuorumPolicy
	lifecycle *Lifecycle
	metrics   *governorMetrics
	govConfig Config
	mu        sync.RWMutex
	// cfgMu guards govConfig against readers that do not hold the
	// engine mutex (Config, and amendment racing a bare library call)
	cfgMu sync.RWMutex
}

// NewGovernor creates a Governor from the given config
func NewGovernor(cfg GovernorConfig) (*Governor, error) {
	if err := cfg.Governance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid governance config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	g := &Governor{
		logger:    logger.With("component", "governance"),
		eventBus:  cfg.EventBus,
		clock:     cfg.Clock,
		oracle:    cfg.Oracle,
		store:     cfg.Store,
		executor:  cfg.Executor,
		govConfig: cfg.Governance.Copy(),
	}
	g.ballots = NewBallotBox(g.store, g.oracle)
	g.quorum = NewQuorumPolicy(g.oracle, g.govConfig.QuorumFractionBps)
	g.lifecycle = NewLifecycle(g.ballots, g.quorum)
	if cfg.PromRegistry != nil {
		g.metrics = newGovernorMetrics(cfg.PromRegistry)
	}
	return g, nil
}

// Propose submits a new proposal and returns its deterministic
// identifier. The voting window is derived from the current timepoint
// and the configured delay and period.
func (g *Governor) Propose(
	_ context.Context,
	proposer string,
	actions []Action,
	description string,
) (ProposalID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(actions) == 0 {
		return ProposalID{}, ErrEmptyProposal
	}
	cfg := g.configSnapshot()
	now := g.clock.Now()
	weight, err := g.oracle.WeightAt(proposer, now)
	if err != nil {
		return ProposalID{}, fmt.Errorf(
			"weight for proposer %s: %w",
			proposer,
			err,
		)
	}
	if weight.Cmp(cfg.ProposalThreshold) < 0 {
		return ProposalID{}, fmt.Errorf(
			"%w: weight %s, threshold %s",
			ErrInsufficientWeight,
			weight,
			cfg.ProposalThreshold,
		)
	}
	descriptionHash := HashDescription(description)
	id := ComputeProposalID(actions, descriptionHash)
	existing, err := g.store.GetProposal(id)
	if err != nil {
		return ProposalID{}, fmt.Errorf("lookup proposal %s: %w", id, err)
	}
	if existing != nil {
		return ProposalID{}, fmt.Errorf("%w: %s", ErrDuplicateProposal, id)
	}
	voteStart := now + clock.Timepoint(cfg.VotingDelay)
	proposal := &Proposal{
		ID:              id,
		Proposer:        proposer,
		Description:     description,
		DescriptionHash: descriptionHash,
		Actions:         make([]Action, len(actions)),
		Created:         now,
		VoteStart:       voteStart,
		VoteEnd:         voteStart + clock.Timepoint(cfg.VotingPeriod),
	}
	for i := range actions {
		proposal.Actions[i] = actions[i].Copy()
	}
	if err := g.store.SaveProposal(proposal); err != nil {
		return ProposalID{}, fmt.Errorf("save proposal %s: %w", id, err)
	}
	g.logger.Info(
		"proposal created",
		"proposal_id", id.String(),
		"proposer", proposer,
		"vote_start", uint64(proposal.VoteStart),
		"vote_end", uint64(proposal.VoteEnd),
	)
	if g.metrics != nil {
		g.metrics.proposalsCreated.Inc()
	}
	g.publish(
		ProposalCreatedEventType,
		ProposalCreatedEvent{
			ID:          id,
			Proposer:    proposer,
			Description: description,
			Actions:     proposal.Actions,
			Created:     proposal.Created,
			VoteStart:   proposal.VoteStart,
			VoteEnd:     proposal.VoteEnd,
		},
	)
	return id, nil
}

// CastVote records a ballot for the voter on an Active proposal. The
// ballot weight is the voter's weight at the proposal's vote-start
// timepoint.
func (g *Governor) CastVote(
	_ context.Context,
	id ProposalID,
	voter string,
	support Support,
	reason string,
) (*Ballot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	proposal, err := g.getProposal(id)
	if err != nil {
		return nil, err
	}
	now := g.clock.Now()
	state, err := g.lifecycle.StateAt(proposal, now)
	if err != nil {
		return nil, fmt.Errorf("state for proposal %s: %w", id, err)
	}
	if state != StateActive {
		return nil, fmt.Errorf(
			"%w: proposal %s is %s",
			ErrProposalNotActive,
			id,
			state,
		)
	}
	ballot, err := g.ballots.CastVote(proposal, voter, support, reason, now)
	if err != nil {
		return nil, err
	}
	g.logger.Info(
		"vote cast",
		"proposal_id", id.String(),
		"voter", voter,
		"support", support.String(),
		"weight", ballot.Weight.String(),
	)
	if g.metrics != nil {
		g.metrics.votesCast.WithLabelValues(support.String()).Inc()
	}
	g.publish(
		VoteCastEventType,
		VoteCastEvent{
			ProposalID: id,
			Voter:      voter,
			Support:    support,
			Weight:     new(big.Int).Set(ballot.Weight),
			Reason:     reason,
		},
	)
	return ballot.Copy(), nil
}

// Execute applies a Succeeded proposal's actions. The identifier is
// recomputed from the inputs so execution can only ever apply the exact
// action sequence that was voted on. Every action is validated before
// any is applied, and application itself is all-or-nothing: a failure
// at either phase fails the whole call with no effect and the proposal
// remains Succeeded and retryable. The executed flag flips only after
// all actions apply.
func (g *Governor) Execute(
	ctx context.Context,
	actions []Action,
	descriptionHash Hash,
) (ProposalID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ComputeProposalID(actions, descriptionHash)
	proposal, err := g.getProposal(id)
	if err != nil {
		return id, err
	}
	if proposal.Executed {
		return id, fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	if proposal.Canceled {
		return id, fmt.Errorf("%w: %s", ErrAlreadyCanceled, id)
	}
	now := g.clock.Now()
	state, err := g.lifecycle.StateAt(proposal, now)
	if err != nil {
		return id, fmt.Errorf("state for proposal %s: %w", id, err)
	}
	if state != StateSucceeded {
		return id, fmt.Errorf(
			"%w: proposal %s is %s",
			ErrNotSucceeded,
			id,
			state,
		)
	}
	// Validate every action before applying any
	for i, action := range proposal.Actions {
		if err := g.executor.Validate(ctx, action); err != nil {
			if g.metrics != nil {
				g.metrics.executionFailures.Inc()
			}
			return id, &ActionExecutionError{
				Index:  i,
				Target: action.Target,
				Err:    err,
			}
		}
	}
	// Apply is all-or-nothing: on failure the executor has already
	// undone any earlier action's effects, so the proposal stays
	// Succeeded and a retry starts from a clean slate
	if err := g.executor.Apply(ctx, proposal.Actions); err != nil {
		if g.metrics != nil {
			g.metrics.executionFailures.Inc()
		}
		return id, err
	}
	if err := g.store.SetExecuted(id); err != nil {
		return id, fmt.Errorf("mark proposal %s executed: %w", id, err)
	}
	g.logger.Info(
		"proposal executed",
		"proposal_id", id.String(),
		"actions", len(proposal.Actions),
	)
	if g.metrics != nil {
		g.metrics.proposalsExecuted.Inc()
	}
	g.publish(ProposalExecutedEventType, ProposalExecutedEvent{ID: id})
	return id, nil
}

// Cancel sets the canceled flag on a Pending or Active proposal. Only
// the proposer or the designated canceler may cancel, and only before
// any ballot has been recorded unless the config allows otherwise.
func (g *Governor) Cancel(
	_ context.Context,
	id ProposalID,
	caller string,
) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	proposal, err := g.getProposal(id)
	if err != nil {
		return err
	}
	cfg := g.configSnapshot()
	if caller != proposal.Proposer &&
		(cfg.Canceler == "" || caller != cfg.Canceler) {
		return fmt.Errorf("%w: caller %s", ErrNotProposer, caller)
	}
	if proposal.Executed {
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	if proposal.Canceled {
		return fmt.Errorf("%w: %s", ErrAlreadyCanceled, id)
	}
	state, err := g.lifecycle.StateAt(proposal, g.clock.Now())
	if err != nil {
		return fmt.Errorf("state for proposal %s: %w", id, err)
	}
	if state != StatePending && state != StateActive {
		return fmt.Errorf(
			"%w: proposal %s is %s",
			ErrNotCancelable,
			id,
			state,
		)
	}
	if !cfg.AllowCancelAfterVotes {
		hasVotes, err := g.store.HasVotes(id)
		if err != nil {
			return fmt.Errorf("ballots for proposal %s: %w", id, err)
		}
		if hasVotes {
			return fmt.Errorf("%w: %s", ErrVotesAlreadyCast, id)
		}
	}
	if err := g.store.SetCanceled(id); err != nil {
		return fmt.Errorf("mark proposal %s canceled: %w", id, err)
	}
	g.logger.Info(
		"proposal canceled",
		"proposal_id", id.String(),
		"caller", caller,
	)
	if g.metrics != nil {
		g.metrics.proposalsCanceled.Inc()
	}
	g.publish(ProposalCanceledEventType, ProposalCanceledEvent{ID: id})
	return nil
}

// State returns the proposal's state at the current timepoint. The
// result is a pure function of stored data and the clock: two calls at
// the same timepoint always agree.
func (g *Governor) State(id ProposalID) (ProposalState, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	proposal, err := g.getProposal(id)
	if err != nil {
		return 0, err
	}
	return g.lifecycle.StateAt(proposal, g.clock.Now())
}

// Proposal returns the stored proposal with the given identifier
func (g *Governor) Proposal(id ProposalID) (*Proposal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	proposal, err := g.getProposal(id)
	if err != nil {
		return nil, err
	}
	return proposal.Copy(), nil
}

// Proposals returns all stored proposals
func (g *Governor) Proposals() ([]*Proposal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	proposals, err := g.store.ListProposals()
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	ret := make([]*Proposal, len(proposals))
	for i := range proposals {
		ret[i] = proposals[i].Copy()
	}
	return ret, nil
}

// ProposalVotes returns the derived vote tally for a proposal
func (g *Governor) ProposalVotes(id ProposalID) (*VoteTally, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, err := g.getProposal(id); err != nil {
		return nil, err
	}
	return g.ballots.Tally(id)
}

// GetBallot returns the ballot cast by voter on the proposal, or nil
// if none was recorded
func (g *Governor) GetBallot(id ProposalID, voter string) (*Ballot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if _, err := g.getProposal(id); err != nil {
		return nil, err
	}
	ballot, err := g.store.GetBallot(id, voter)
	if err != nil {
		return nil, fmt.Errorf(
			"ballot for %s on proposal %s: %w",
			voter,
			id,
			err,
		)
	}
	if ballot == nil {
		return nil, nil
	}
	return ballot.Copy(), nil
}

// Quorum returns the minimum total participation required at the given
// timepoint
func (g *Governor) Quorum(tp clock.Timepoint) (*big.Int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.quorum.Quorum(tp)
}

// Config returns a copy of the current governance parameters
func (g *Governor) Config() Config {
	return g.configSnapshot()
}

// AmendConfig replaces the governance parameters and returns the
// parameters that were in force, so a failed multi-action execution
// can restore them. Normally reachable only through the engine's own
// proposal mechanism (the governance.config executor target), which
// makes the system self-amending; the config mutex keeps it safe
// against concurrent readers either way.
func (g *Governor) AmendConfig(cfg Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid governance config: %w", err)
	}
	g.cfgMu.Lock()
	prev := g.govConfig
	g.govConfig = cfg.Copy()
	g.cfgMu.Unlock()
	g.quorum.SetFractionBps(cfg.QuorumFractionBps)
	g.logger.Info(
		"governance config amended",
		"voting_delay", cfg.VotingDelay,
		"voting_period", cfg.VotingPeriod,
		"proposal_threshold", cfg.ProposalThreshold.String(),
		"quorum_fraction_bps", cfg.QuorumFractionBps,
	)
	return prev, nil
}

// configSnapshot copies the governance parameters under the config
// mutex so reads never race an amendment
func (g *Governor) configSnapshot() Config {
	g.cfgMu.RLock()
	defer g.cfgMu.RUnlock()
	return g.govConfig.Copy()
}

// getProposal loads a proposal or returns ErrUnknownProposal
func (g *Governor) getProposal(id ProposalID) (*Proposal, error) {
	proposal, err := g.store.GetProposal(id)
	if err != nil {
		return nil, fmt.Errorf("lookup proposal %s: %w", id, err)
	}
	if proposal == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	return proposal, nil
}

// publish enqueues an event for async delivery. Events are published
// with the engine mutex held, so a slow subscriber must never block
// the publishing operation.
func (g *Governor) publish(eventType event.EventType, data any) {
	if g.eventBus == nil {
		return
	}
	g.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}
