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
	"fmt"

	"github.com/UMainLove/MintGovernance/clock"
)

// BallotBox records ballots and derives weighted tallies. Weight is
// snapshot at the proposal's vote-start timepoint, never the current
// one, so acquiring weight after a proposal opens cannot influence its
// outcome.
type BallotBox struct {
	store  ProposalStore
	oracle WeightOracle
}

// NewBallotBox creates a BallotBox over the given store and oracle
func NewBallotBox(store ProposalStore, oracle WeightOracle) *BallotBox {
	return &BallotBox{
		store:  store,
		oracle: oracle,
	}
}

// CastVote records a ballot for the voter on the proposal. The caller
// is responsible for ensuring the proposal is Active. Fails with
// ErrAlreadyVoted on a second ballot from the same voter.
func (b *BallotBox) CastVote(
	p *Proposal,
	voter string,
	support Support,
	reason string,
	now clock.Timepoint,
) (*Ballot, error) {
	if !support.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSupport, support)
	}
	// The weight is read exactly once, at the vote-start snapshot, and
	// never cached beyond this evaluation
	weight, err := b.oracle.WeightAt(voter, p.VoteStart)
	if err != nil {
		return nil, fmt.Errorf(
			"weight for %s at timepoint %d: %w",
			voter,
			p.VoteStart,
			err,
		)
	}
	ballot := &Ballot{
		ProposalID: p.ID,
		Voter:      voter,
		Support:    support,
		Weight:     weight,
		Reason:     reason,
		CastAt:     now,
	}
	if err := b.store.AddBallot(ballot); err != nil {
		return nil, err
	}
	return ballot, nil
}

// Tally derives the vote tally for a proposal from its recorded
// ballots. The returned tally always equals the sum of all recorded
// ballots' weights per support category.
func (b *BallotBox) Tally(id ProposalID) (*VoteTally, error) {
	ballots, err := b.store.Ballots(id)
	if err != nil {
		return nil, fmt.Errorf("ballots for proposal %s: %w", id, err)
	}
	tally := NewVoteTally()
	for _, ballot := range ballots {
		tally.Add(ballot.Support, ballot.Weight)
	}
	return tally, nil
}
