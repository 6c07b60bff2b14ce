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
	"math/big"

	"github.com/UMainLove/MintGovernance/clock"
)

// WeightOracle supplies historical voting weight snapshots. Lookups are
// deterministic pure functions of historical state: a weight at a given
// timepoint never changes once that timepoint has passed.
type WeightOracle interface {
	// WeightAt returns the account's voting weight at the given
	// timepoint. Timepoints beyond the oracle's clock return
	// ErrFutureTimepoint.
	WeightAt(account string, tp clock.Timepoint) (*big.Int, error)

	// TotalSupplyAt returns the total weight in existence at the given
	// timepoint
	TotalSupplyAt(tp clock.Timepoint) (*big.Int, error)
}

// ProposalStore is the persistence boundary for proposals and ballots.
// Implementations must be safe for concurrent use. Proposals are never
// deleted: the historical record is permanent.
type ProposalStore interface {
	// SaveProposal persists a new proposal
	SaveProposal(p *Proposal) error

	// GetProposal returns the proposal with the given identifier, or
	// nil if absent
	GetProposal(id ProposalID) (*Proposal, error)

	// ListProposals returns all stored proposals
	ListProposals() ([]*Proposal, error)

	// SetExecuted flips the executed flag on a proposal
	SetExecuted(id ProposalID) error

	// SetCanceled flips the canceled flag on a proposal
	SetCanceled(id ProposalID) error

	// AddBallot records a ballot. A second ballot for the same
	// (proposal, voter) pair fails with ErrAlreadyVoted.
	AddBallot(b *Ballot) error

	// GetBallot returns the ballot cast by voter on the proposal, or
	// nil if none was recorded
	GetBallot(id ProposalID, voter string) (*Ballot, error)

	// Ballots returns all ballots recorded for the proposal
	Ballots(id ProposalID) ([]*Ballot, error)

	// HasVotes returns true if any ballot has been recorded for the
	// proposal
	HasVotes(id ProposalID) (bool, error)
}

// Executor is the supplied capability that applies proposal actions.
// Validate must be side-effect free. Apply commits the whole action
// sequence or none of it: on failure, effects of any already-applied
// action must be undone before the error is returned, and the error
// reports the failing action as an ActionExecutionError.
type Executor interface {
	Validate(ctx context.Context, action Action) error
	Apply(ctx context.Context, actions []Action) error
}
