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
	"math/big"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/event"
)

const (
	ProposalCreatedEventType  event.EventType = "governance.proposal_created"
	VoteCastEventType         event.EventType = "governance.vote_cast"
	ProposalCanceledEventType event.EventType = "governance.proposal_canceled"
	ProposalExecutedEventType event.EventType = "governance.proposal_executed"
)

type ProposalCreatedEvent struct {
	ID          ProposalID
	Proposer    string
	Description string
	Actions     []Action
	Created     clock.Timepoint
	VoteStart   clock.Timepoint
	VoteEnd     clock.Timepoint
}

type VoteCastEvent struct {
	Weight     *big.Int
	ProposalID ProposalID
	Voter      string
	Reason     string
	Support    Support
}

type ProposalCanceledEvent struct {
	ID ProposalID
}

type ProposalExecutedEvent struct {
	ID ProposalID
}
