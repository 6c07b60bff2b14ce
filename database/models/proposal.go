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

package models

import "github.com/UMainLove/MintGovernance/database/types"

// Proposal is a stored governance proposal. Action calldata payloads
// live in the blob store; everything else lives here.
type Proposal struct {
	ID              uint   `gorm:"primarykey"`
	ProposalID      []byte `gorm:"uniqueIndex;size:32;not null"`
	Proposer        string `gorm:"index;not null"`
	Description     string
	DescriptionHash []byte `gorm:"size:32;not null"`
	ActionCount     uint32 `gorm:"not null"`
	Created         types.Uint64
	VoteStart       types.Uint64 `gorm:"index"`
	VoteEnd         types.Uint64 `gorm:"index"`
	Executed        bool         `gorm:"not null"`
	Canceled        bool         `gorm:"not null"`
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

// ProposalAction is one action of a stored proposal, identified by its
// position in the proposal's action sequence
type ProposalAction struct {
	ID          uint   `gorm:"primarykey"`
	ProposalID  []byte `gorm:"uniqueIndex:idx_action_proposal_index,priority:1;size:32;not null"`
	ActionIndex uint32 `gorm:"uniqueIndex:idx_action_proposal_index,priority:2;not null"`
	Target      string `gorm:"not null"`
	Value       types.BigInt
}

// TableName returns the table name
func (ProposalAction) TableName() string {
	return "proposal_action"
}
