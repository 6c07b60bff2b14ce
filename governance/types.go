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
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/UMainLove/MintGovernance/clock"
)

// QuorumDenominator is the divisor applied to the quorum fraction.
// Fractions are expressed in basis points.
const QuorumDenominator = 10000

// Support is a ballot's vote choice on a proposal
type Support uint8

const (
	SupportAgainst Support = 0
	SupportFor     Support = 1
	SupportAbstain Support = 2
)

func (s Support) String() string {
	switch s {
	case SupportAgainst:
		return "against"
	case SupportFor:
		return "for"
	case SupportAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(s))
	}
}

// Valid returns true for a known support value
func (s Support) Valid() bool {
	return s <= SupportAbstain
}

// ProposalState is the lifecycle state of a proposal. It is never stored:
// it is recomputed from proposal data, tallies, and the current timepoint
// on every read.
type ProposalState uint8

const (
	StatePending ProposalState = iota
	StateActive
	StateCanceled
	StateDefeated
	StateSucceeded
	// StateQueued exists for API parity with timelocked governors.
	// Execution here is timelock-free, so the lifecycle never produces it.
	StateQueued
	StateExecuted
)

func (s ProposalState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateCanceled:
		return "canceled"
	case StateDefeated:
		return "defeated"
	case StateSucceeded:
		return "succeeded"
	case StateQueued:
		return "queued"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("unknown (%d)", uint8(s))
	}
}

// Hash is a 32-byte blake2b digest
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

// HashFromHex parses a 64-character hex string into a Hash
func HashFromHex(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf(
			"invalid hash length: expected %d bytes, got %d",
			len(h),
			len(raw),
		)
	}
	copy(h[:], raw)
	return h, nil
}

// ProposalID is the deterministic identifier of a proposal, derived from
// its actions and description hash
type ProposalID = Hash

// Action is a single (target, value, calldata) call carried by a proposal.
// The engine treats calldata as opaque; interpretation belongs to the
// execution capability.
type Action struct {
	Value    *big.Int
	Target   string
	Calldata []byte
}

// Copy returns a deep copy of the action
func (a Action) Copy() Action {
	ret := Action{
		Target:   a.Target,
		Calldata: make([]byte, len(a.Calldata)),
	}
	copy(ret.Calldata, a.Calldata)
	if a.Value != nil {
		ret.Value = new(big.Int).Set(a.Value)
	}
	return ret
}

// Proposal is the permanent record of a governance proposal. Only the
// Executed and Canceled flags mutate after creation.
type Proposal struct {
	ID              ProposalID
	Proposer        string
	Description     string
	Actions         []Action
	DescriptionHash Hash
	Created         clock.Timepoint
	VoteStart       clock.Timepoint
	VoteEnd         clock.Timepoint
	Executed        bool
	Canceled        bool
}

// Copy returns a deep copy of the proposal
func (p *Proposal) Copy() *Proposal {
	ret := *p
	ret.Actions = make([]Action, len(p.Actions))
	for i := range p.Actions {
		ret.Actions[i] = p.Actions[i].Copy()
	}
	return &ret
}

// Ballot is a single recorded vote on a proposal
type Ballot struct {
	Weight     *big.Int
	ProposalID ProposalID
	Voter      string
	Reason     string
	Support    Support
	CastAt     clock.Timepoint
}

// Copy returns a deep copy of the ballot
func (b *Ballot) Copy() *Ballot {
	ret := *b
	if b.Weight != nil {
		ret.Weight = new(big.Int).Set(b.Weight)
	}
	return &ret
}

// VoteTally holds aggregated ballot weights per support category for a
// proposal. Tallies are always derived from recorded ballots, never
// stored independently.
type VoteTally struct {
	AgainstVotes *big.Int
	ForVotes     *big.Int
	AbstainVotes *big.Int
}

// NewVoteTally returns a zeroed tally
func NewVoteTally() *VoteTally {
	return &VoteTally{
		AgainstVotes: new(big.Int),
		ForVotes:     new(big.Int),
		AbstainVotes: new(big.Int),
	}
}

// Add applies a ballot's weight to the matching support bucket
func (t *VoteTally) Add(support Support, weight *big.Int) {
	switch support {
	case SupportAgainst:
		t.AgainstVotes.Add(t.AgainstVotes, weight)
	case SupportFor:
		t.ForVotes.Add(t.ForVotes, weight)
	case SupportAbstain:
		t.AbstainVotes.Add(t.AbstainVotes, weight)
	}
}

// Participation returns the total weight across all support buckets
func (t *VoteTally) Participation() *big.Int {
	ret := new(big.Int).Add(t.AgainstVotes, t.ForVotes)
	return ret.Add(ret, t.AbstainVotes)
}

// Copy returns a deep copy of the tally
func (t *VoteTally) Copy() *VoteTally {
	return &VoteTally{
		AgainstVotes: new(big.Int).Set(t.AgainstVotes),
		ForVotes:     new(big.Int).Set(t.ForVotes),
		AbstainVotes: new(big.Int).Set(t.AbstainVotes),
	}
}

// Config holds the governance parameters. Values are fixed at
// construction and change only through the engine's own proposal
// mechanism (the governance.config executor target), making the system
// self-amending.
//
// Quorum and per-voter weight snapshots share a single timepoint
// convention: both are evaluated at a proposal's vote-start timepoint.
type Config struct {
	// ProposalThreshold is the minimum proposer weight at the current
	// timepoint required to submit a proposal
	ProposalThreshold *big.Int
	// VotingDelay is the number of timepoints between proposal creation
	// and the start of voting
	VotingDelay uint64
	// VotingPeriod is the number of timepoints voting remains open
	VotingPeriod uint64
	// QuorumFractionBps is the quorum as basis points of the total
	// supply at the vote-start timepoint
	QuorumFractionBps uint64
	// Canceler optionally designates an account allowed to cancel
	// proposals in addition to the proposer
	Canceler string
	// AllowCancelAfterVotes permits cancellation of proposals that have
	// already recorded ballots
	AllowCancelAfterVotes bool
}

// Validate checks the config for internally consistent values
func (c Config) Validate() error {
	if c.VotingPeriod == 0 {
		return errors.New("voting period must be greater than zero")
	}
	if c.QuorumFractionBps > QuorumDenominator {
		return fmt.Errorf(
			"quorum fraction %d exceeds denominator %d",
			c.QuorumFractionBps,
			QuorumDenominator,
		)
	}
	if c.ProposalThreshold == nil {
		return errors.New("proposal threshold must be set")
	}
	if c.ProposalThreshold.Sign() < 0 {
		return errors.New("proposal threshold must not be negative")
	}
	return nil
}

// Copy returns a deep copy of the config
func (c Config) Copy() Config {
	ret := c
	if c.ProposalThreshold != nil {
		ret.ProposalThreshold = new(big.Int).Set(c.ProposalThreshold)
	}
	return ret
}

// DefaultConfig returns the default governance parameters: one-slot
// delay, a day of one-second slots for voting, threshold of one, and a
// 4% quorum
func DefaultConfig() Config {
	return Config{
		VotingDelay:       1,
		VotingPeriod:      86400,
		ProposalThreshold: big.NewInt(1),
		QuorumFractionBps: 400,
	}
}
