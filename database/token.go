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

package database

import (
	"math/big"
	"sort"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/database/models"
	"github.com/UMainLove/MintGovernance/database/types"
	"github.com/UMainLove/MintGovernance/token"
	"gorm.io/gorm/clause"
)

// AddAccountCheckpoint upserts an account balance checkpoint
func (d *Database) AddAccountCheckpoint(
	account string,
	cp token.Checkpoint,
) error {
	item := models.WeightCheckpoint{
		Account: account,
		At:      types.Uint64(cp.At),
		Value:   types.BigInt{Int: new(big.Int).Set(cp.Value)},
	}
	result := d.metadata.DB().
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "account"},
				{Name: "at"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&item)
	return result.Error
}

// AddSupplyCheckpoint upserts a total-supply checkpoint
func (d *Database) AddSupplyCheckpoint(cp token.Checkpoint) error {
	item := models.SupplyCheckpoint{
		At:    types.Uint64(cp.At),
		Value: types.BigInt{Int: new(big.Int).Set(cp.Value)},
	}
	result := d.metadata.DB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "at"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&item)
	return result.Error
}

// LoadCheckpoints returns the full checkpoint history. Timepoints are
// stored as decimal strings, so each series is re-sorted numerically
// after loading.
func (d *Database) LoadCheckpoints() (
	map[string][]token.Checkpoint,
	[]token.Checkpoint,
	error,
) {
	var weightItems []models.WeightCheckpoint
	if result := d.metadata.DB().Find(&weightItems); result.Error != nil {
		return nil, nil, result.Error
	}
	accounts := make(map[string][]token.Checkpoint)
	for i := range weightItems {
		accounts[weightItems[i].Account] = append(
			accounts[weightItems[i].Account],
			token.Checkpoint{
				At:    clock.Timepoint(weightItems[i].At),
				Value: new(big.Int).Set(weightItems[i].Value.Int),
			},
		)
	}
	for account := range accounts {
		sortCheckpoints(accounts[account])
	}
	var supplyItems []models.SupplyCheckpoint
	if result := d.metadata.DB().Find(&supplyItems); result.Error != nil {
		return nil, nil, result.Error
	}
	supply := make([]token.Checkpoint, 0, len(supplyItems))
	for i := range supplyItems {
		supply = append(
			supply,
			token.Checkpoint{
				At:    clock.Timepoint(supplyItems[i].At),
				Value: new(big.Int).Set(supplyItems[i].Value.Int),
			},
		)
	}
	sortCheckpoints(supply)
	return accounts, supply, nil
}

func sortCheckpoints(cps []token.Checkpoint) {
	sort.Slice(cps, func(i, j int) bool {
		return cps[i].At < cps[j].At
	})
}
