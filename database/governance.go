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
	"errors"
	"fmt"
	"math/big"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/database/models"
	"github.com/UMainLove/MintGovernance/database/types"
	"github.com/UMainLove/MintGovernance/governance"
	"gorm.io/gorm"
)

// calldataKey is the blob store key for one action's calldata payload
func calldataKey(id governance.ProposalID, index int) []byte {
	return fmt.Appendf(nil, "calldata:%s:%d", id.String(), index)
}

// SaveProposal stores a proposal, its actions, and their calldata
// payloads. The metadata rows commit in one transaction and orphaned
// blob payloads are cleaned up on failure, so a failed save never
// leaves a partial record behind its ID.
func (d *Database) SaveProposal(p *governance.Proposal) error {
	// Blob payloads go in first so a metadata failure can remove them
	for i, action := range p.Actions {
		if err := d.blob.Set(calldataKey(p.ID, i), action.Calldata); err != nil {
			d.deleteCalldata(p.ID, i)
			return fmt.Errorf("store calldata: %w", err)
		}
	}
	err := d.metadata.DB().Transaction(func(tx *gorm.DB) error {
		item := models.Proposal{
			ProposalID:      p.ID.Bytes(),
			Proposer:        p.Proposer,
			Description:     p.Description,
			DescriptionHash: p.DescriptionHash.Bytes(),
			ActionCount:     uint32(len(p.Actions)), //nolint:gosec // action counts are small
			Created:         types.Uint64(p.Created),
			VoteStart:       types.Uint64(p.VoteStart),
			VoteEnd:         types.Uint64(p.VoteEnd),
			Executed:        p.Executed,
			Canceled:        p.Canceled,
		}
		if result := tx.Create(&item); result.Error != nil {
			return result.Error
		}
		for i, action := range p.Actions {
			value := action.Value
			if value == nil {
				value = new(big.Int)
			}
			actionItem := models.ProposalAction{
				ProposalID:  p.ID.Bytes(),
				ActionIndex: uint32(i), //nolint:gosec // action counts are small
				Target:      action.Target,
				Value:       types.BigInt{Int: new(big.Int).Set(value)},
			}
			if result := tx.Create(&actionItem); result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
	if err != nil {
		d.deleteCalldata(p.ID, len(p.Actions))
		return err
	}
	return nil
}

// deleteCalldata removes blob payloads for action indexes [0, n).
// Cleanup is best effort: a leftover payload without metadata rows is
// unreachable and harmless.
func (d *Database) deleteCalldata(id governance.ProposalID, n int) {
	for i := range n {
		if err := d.blob.Delete(calldataKey(id, i)); err != nil {
			d.logger.Warn(
				"failed to remove orphaned calldata",
				"component", "database",
				"proposal_id", id.String(),
				"action_index", i,
				"error", err,
			)
		}
	}
}

// GetProposal returns a stored proposal, or nil when the ID is unknown
func (d *Database) GetProposal(
	id governance.ProposalID,
) (*governance.Proposal, error) {
	var item models.Proposal
	result := d.metadata.DB().
		Where("proposal_id = ?", id.Bytes()).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return d.loadProposal(&item)
}

// ListProposals returns all proposals in creation order
func (d *Database) ListProposals() ([]*governance.Proposal, error) {
	var items []models.Proposal
	result := d.metadata.DB().Order("id").Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]*governance.Proposal, 0, len(items))
	for i := range items {
		p, err := d.loadProposal(&items[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
	return ret, nil
}

func (d *Database) loadProposal(
	item *models.Proposal,
) (*governance.Proposal, error) {
	id, err := hashFromBytes(item.ProposalID)
	if err != nil {
		return nil, err
	}
	descriptionHash, err := hashFromBytes(item.DescriptionHash)
	if err != nil {
		return nil, err
	}
	var actionItems []models.ProposalAction
	result := d.metadata.DB().
		Where("proposal_id = ?", item.ProposalID).
		Order("action_index").
		Find(&actionItems)
	if result.Error != nil {
		return nil, result.Error
	}
	actions := make([]governance.Action, len(actionItems))
	for i := range actionItems {
		calldata, err := d.blob.Get(
			calldataKey(id, int(actionItems[i].ActionIndex)),
		)
		if err != nil {
			return nil, fmt.Errorf("load calldata: %w", err)
		}
		actions[i] = governance.Action{
			Target:   actionItems[i].Target,
			Value:    new(big.Int).Set(actionItems[i].Value.Int),
			Calldata: calldata,
		}
	}
	return &governance.Proposal{
		ID:              id,
		Proposer:        item.Proposer,
		Description:     item.Description,
		DescriptionHash: descriptionHash,
		Actions:         actions,
		Created:         clock.Timepoint(item.Created),
		VoteStart:       clock.Timepoint(item.VoteStart),
		VoteEnd:         clock.Timepoint(item.VoteEnd),
		Executed:        item.Executed,
		Canceled:        item.Canceled,
	}, nil
}

// SetExecuted marks a proposal as executed
func (d *Database) SetExecuted(id governance.ProposalID) error {
	return d.setFlag(id, "executed")
}

// SetCanceled marks a proposal as canceled
func (d *Database) SetCanceled(id governance.ProposalID) error {
	return d.setFlag(id, "canceled")
}

func (d *Database) setFlag(id governance.ProposalID, column string) error {
	result := d.metadata.DB().
		Model(&models.Proposal{}).
		Where("proposal_id = ?", id.Bytes()).
		Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", governance.ErrUnknownProposal, id)
	}
	return nil
}

// AddBallot records a ballot, enforcing one ballot per proposal and
// voter
func (d *Database) AddBallot(b *governance.Ballot) error {
	var count int64
	result := d.metadata.DB().
		Model(&models.Ballot{}).
		Where("proposal_id = ? AND voter = ?", b.ProposalID.Bytes(), b.Voter).
		Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return fmt.Errorf(
			"%w: %s on proposal %s",
			governance.ErrAlreadyVoted,
			b.Voter,
			b.ProposalID,
		)
	}
	item := models.Ballot{
		ProposalID: b.ProposalID.Bytes(),
		Voter:      b.Voter,
		Support:    uint8(b.Support),
		Weight:     types.BigInt{Int: new(big.Int).Set(b.Weight)},
		Reason:     b.Reason,
		CastAt:     types.Uint64(b.CastAt),
	}
	if result := d.metadata.DB().Create(&item); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetBallot returns the stored ballot for a voter, or nil when none
// exists
func (d *Database) GetBallot(
	id governance.ProposalID,
	voter string,
) (*governance.Ballot, error) {
	var item models.Ballot
	result := d.metadata.DB().
		Where("proposal_id = ? AND voter = ?", id.Bytes(), voter).
		First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return loadBallot(&item)
}

// Ballots returns all ballots for a proposal ordered by voter
func (d *Database) Ballots(
	id governance.ProposalID,
) ([]*governance.Ballot, error) {
	var items []models.Ballot
	result := d.metadata.DB().
		Where("proposal_id = ?", id.Bytes()).
		Order("voter").
		Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	ret := make([]*governance.Ballot, 0, len(items))
	for i := range items {
		b, err := loadBallot(&items[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, b)
	}
	return ret, nil
}

// HasVotes reports whether any ballot has been recorded for a proposal
func (d *Database) HasVotes(id governance.ProposalID) (bool, error) {
	var count int64
	result := d.metadata.DB().
		Model(&models.Ballot{}).
		Where("proposal_id = ?", id.Bytes()).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func loadBallot(item *models.Ballot) (*governance.Ballot, error) {
	id, err := hashFromBytes(item.ProposalID)
	if err != nil {
		return nil, err
	}
	return &governance.Ballot{
		ProposalID: id,
		Voter:      item.Voter,
		Support:    governance.Support(item.Support),
		Weight:     new(big.Int).Set(item.Weight.Int),
		Reason:     item.Reason,
		CastAt:     clock.Timepoint(item.CastAt),
	}, nil
}

func hashFromBytes(data []byte) (governance.Hash, error) {
	var ret governance.Hash
	if len(data) != len(ret) {
		return ret, fmt.Errorf("unexpected hash length %d", len(data))
	}
	copy(ret[:], data)
	return ret, nil
}
