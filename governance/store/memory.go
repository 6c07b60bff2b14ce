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

// Package store provides governance.ProposalStore implementations
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/UMainLove/MintGovernance/governance"
)

// Memory is an in-memory governance.ProposalStore. It keeps deep
// copies of everything written and returns deep copies of everything
// read, so callers can never mutate stored state through a shared
// pointer.
type Memory struct {
	proposals map[governance.ProposalID]*governance.Proposal
	ballots   map[governance.ProposalID]map[string]*governance.Ballot
	order     []governance.ProposalID
	mu        sync.RWMutex
}

// NewMemory creates an empty in-memory proposal store
func NewMemory() *Memory {
	return &Memory{
		proposals: make(map[governance.ProposalID]*governance.Proposal),
		ballots: make(
			map[governance.ProposalID]map[string]*governance.Ballot,
		),
	}
}

func (m *Memory) SaveProposal(p *governance.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	m.proposals[p.ID] = p.Copy()
	return nil
}

func (m *Memory) GetProposal(
	id governance.ProposalID,
) (*governance.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.proposals[id]
	if !ok {
		return nil, nil
	}
	return p.Copy(), nil
}

// ListProposals returns all proposals in creation order
func (m *Memory) ListProposals() ([]*governance.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ret := make([]*governance.Proposal, 0, len(m.order))
	for _, id := range m.order {
		ret = append(ret, m.proposals[id].Copy())
	}
	return ret, nil
}

func (m *Memory) SetExecuted(id governance.ProposalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return fmt.Errorf("%w: %s", governance.ErrUnknownProposal, id)
	}
	p.Executed = true
	return nil
}

func (m *Memory) SetCanceled(id governance.ProposalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok {
		return fmt.Errorf("%w: %s", governance.ErrUnknownProposal, id)
	}
	p.Canceled = true
	return nil
}

func (m *Memory) AddBallot(b *governance.Ballot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	voters, ok := m.ballots[b.ProposalID]
	if !ok {
		voters = make(map[string]*governance.Ballot)
		m.ballots[b.ProposalID] = voters
	}
	if _, ok := voters[b.Voter]; ok {
		return fmt.Errorf(
			"%w: %s on proposal %s",
			governance.ErrAlreadyVoted,
			b.Voter,
			b.ProposalID,
		)
	}
	voters[b.Voter] = b.Copy()
	return nil
}

func (m *Memory) GetBallot(
	id governance.ProposalID,
	voter string,
) (*governance.Ballot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.ballots[id][voter]
	if !ok {
		return nil, nil
	}
	return b.Copy(), nil
}

// Ballots returns all ballots for a proposal, ordered by voter for a
// stable iteration order
func (m *Memory) Ballots(
	id governance.ProposalID,
) ([]*governance.Ballot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	voters := m.ballots[id]
	ret := make([]*governance.Ballot, 0, len(voters))
	for _, b := range voters {
		ret = append(ret, b.Copy())
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Voter < ret[j].Voter
	})
	return ret, nil
}

func (m *Memory) HasVotes(id governance.ProposalID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ballots[id]) > 0, nil
}
