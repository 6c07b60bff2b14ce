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

// Lifecycle computes a proposal's current state from stored data and a
// timepoint. State is never stored directly: recomputing on every read
// avoids drift between stored state and the data it derives from.
type Lifecycle struct {
	ballots *BallotBox
	quorum  *QuorumPolicy
}

// NewLifecycle creates a Lifecycle over the given ballot box and quorum
// policy
func NewLifecycle(ballots *BallotBox, quorum *QuorumPolicy) *Lifecycle {
	return &Lifecycle{
		ballots: ballots,
		quorum:  quorum,
	}
}

// StateAt returns the proposal's state at the given timepoint.
//
// Canceled and Executed are terminal and take precedence. Before
// vote-start the proposal is Pending, until vote-end it is Active.
// After vote-end it is Succeeded when forVotes strictly exceed
// againstVotes and total participation meets the quorum computed at the
// vote-start timepoint; otherwise Defeated.
func (l *Lifecycle) StateAt(
	p *Proposal,
	now clock.Timepoint,
) (ProposalState, error) {
	if p.Canceled {
		return StateCanceled, nil
	}
	if p.Executed {
		return StateExecuted, nil
	}
	if now < p.VoteStart {
		return StatePending, nil
	}
	if now < p.VoteEnd {
		return StateActive, nil
	}
	tally, err := l.ballots.Tally(p.ID)
	if err != nil {
		return 0, err
	}
	if tally.ForVotes.Cmp(tally.AgainstVotes) <= 0 {
		return StateDefeated, nil
	}
	quorum, err := l.quorum.Quorum(p.VoteStart)
	if err != nil {
		return 0, fmt.Errorf("quorum for proposal %s: %w", p.ID, err)
	}
	if tally.Participation().Cmp(quorum) < 0 {
		return StateDefeated, nil
	}
	return StateSucceeded, nil
}
