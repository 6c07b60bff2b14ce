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

// WeightCheckpoint is an account balance as of a timepoint. Writes at
// an existing (account, at) pair replace the stored value.
type WeightCheckpoint struct {
	ID      uint         `gorm:"primarykey"`
	Account string       `gorm:"uniqueIndex:idx_weight_account_at,priority:1;not null"`
	At      types.Uint64 `gorm:"uniqueIndex:idx_weight_account_at,priority:2"`
	Value   types.BigInt
}

// TableName returns the table name
func (WeightCheckpoint) TableName() string {
	return "weight_checkpoint"
}

// SupplyCheckpoint is the total supply as of a timepoint
type SupplyCheckpoint struct {
	ID    uint         `gorm:"primarykey"`
	At    types.Uint64 `gorm:"uniqueIndex"`
	Value types.BigInt
}

// TableName returns the table name
func (SupplyCheckpoint) TableName() string {
	return "supply_checkpoint"
}
