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

// Ballot is a recorded vote. The unique index enforces one ballot per
// proposal and voter at the storage layer.
type Ballot struct {
	ID         uint   `gorm:"primarykey"`
	ProposalID []byte `gorm:"uniqueIndex:idx_ballot_proposal_voter,priority:1;size:32;not null"`
	Voter      string `gorm:"uniqueIndex:idx_ballot_proposal_voter,priority:2;not null"`
	Support    uint8  `gorm:"not null"`
	Weight     types.BigInt
	Reason     string
	CastAt     types.Uint64
}

// TableName returns the table name
func (Ballot) TableName() string {
	return "ballot"
}
