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

// Package token implements a mintable token ledger with historical
// balance checkpoints. The ledger satisfies the governance weight
// oracle: an account's voting weight at a timepoint is its balance at
// that timepoint, resolved against the checkpoint history.
package token

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sort"
	"sync"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/event"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Checkpoint records an account balance (or the total supply) as of a
// timepoint
type Checkpoint struct {
	Value *big.Int
	At    clock.Timepoint
}

// CheckpointStore persists checkpoint history across restarts. Writing
// a checkpoint with the same account and timepoint as an existing one
// replaces it.
type CheckpointStore interface {
	AddAccountCheckpoint(account string, cp Checkpoint) error
	AddSupplyCheckpoint(cp Checkpoint) error
	// LoadCheckpoints returns the full checkpoint history, each series
	// ordered by timepoint
	LoadCheckpoints() (map[string][]Checkpoint, []Checkpoint, error)
}

// LedgerConfig carries the collaborators for a Ledger
type LedgerConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Clock        clock.Source
	Store        CheckpointStore
}

// Ledger tracks token balances with a full checkpoint history per
// account plus a total-supply series. All balances are non-negative
// big integers. The in-memory history is authoritative; a configured
// CheckpointStore gets write-through copies and seeds the history at
// startup.
type Ledger struct {
	logger   *slog.Logger
	eventBus *event.EventBus
	clock    clock.Source
	store    CheckpointStore
	accounts map[string][]Checkpoint
	supply   []Checkpoint
	metrics  *ledgerMetrics
	mu       sync.RWMutex
}

// NewLedger creates a Ledger, loading any existing checkpoint history
// from the configured store
func NewLedger(cfg LedgerConfig) (*Ledger, error) {
	logger := cfg.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	l := &Ledger{
		logger:   logger.With("component", "token"),
		eventBus: cfg.EventBus,
		clock:    cfg.Clock,
		store:    cfg.Store,
		accounts: make(map[string][]Checkpoint),
	}
	if cfg.PromRegistry != nil {
		l.metrics = newLedgerMetrics(cfg.PromRegistry)
	}
	if l.store != nil {
		accounts, supply, err := l.store.LoadCheckpoints()
		if err != nil {
			return nil, fmt.Errorf("load checkpoints: %w", err)
		}
		for account, cps := range accounts {
			l.accounts[account] = cps
		}
		l.supply = supply
		l.logger.Info(
			"loaded checkpoint history",
			"accounts", len(accounts),
			"supply_checkpoints", len(supply),
		)
	}
	if l.metrics != nil {
		l.metrics.supply.Set(bigFloat(l.totalSupply()))
	}
	return l, nil
}

// Mint credits newly created tokens to an account
func (l *Ledger) Mint(to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	newBalance := new(big.Int).Add(l.balanceOf(to), amount)
	newSupply := new(big.Int).Add(l.totalSupply(), amount)
	if err := l.writeAccountCheckpoint(to, now, newBalance); err != nil {
		return err
	}
	if err := l.writeSupplyCheckpoint(now, newSupply); err != nil {
		return err
	}
	l.logger.Info(
		"minted tokens",
		"to", to,
		"amount", amount.String(),
		"supply", newSupply.String(),
	)
	if l.metrics != nil {
		l.metrics.mints.Inc()
		l.metrics.supply.Set(bigFloat(newSupply))
	}
	l.publish(
		MintEventType,
		MintEvent{To: to, Amount: new(big.Int).Set(amount), At: now},
	)
	return nil
}

// Burn removes tokens from an account and the total supply. It is the
// inverse of Mint: a governance execution that minted and then failed
// on a later action burns the minted amount back out.
func (l *Ledger) Burn(from string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBalance := l.balanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: %s has %s, needs %s",
			ErrInsufficientBalance,
			from,
			fromBalance,
			amount,
		)
	}
	now := l.clock.Now()
	newBalance := new(big.Int).Sub(fromBalance, amount)
	newSupply := new(big.Int).Sub(l.totalSupply(), amount)
	if err := l.writeAccountCheckpoint(from, now, newBalance); err != nil {
		return err
	}
	if err := l.writeSupplyCheckpoint(now, newSupply); err != nil {
		return err
	}
	l.logger.Info(
		"burned tokens",
		"from", from,
		"amount", amount.String(),
		"supply", newSupply.String(),
	)
	if l.metrics != nil {
		l.metrics.burns.Inc()
		l.metrics.supply.Set(bigFloat(newSupply))
	}
	l.publish(
		BurnEventType,
		BurnEvent{From: from, Amount: new(big.Int).Set(amount), At: now},
	)
	return nil
}

// Transfer moves tokens between accounts
func (l *Ledger) Transfer(from string, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBalance := l.balanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: %s has %s, needs %s",
			ErrInsufficientBalance,
			from,
			fromBalance,
			amount,
		)
	}
	now := l.clock.Now()
	newFrom := new(big.Int).Sub(fromBalance, amount)
	newTo := new(big.Int).Add(l.balanceOf(to), amount)
	if err := l.writeAccountCheckpoint(from, now, newFrom); err != nil {
		return err
	}
	if err := l.writeAccountCheckpoint(to, now, newTo); err != nil {
		return err
	}
	l.logger.Info(
		"transferred tokens",
		"from", from,
		"to", to,
		"amount", amount.String(),
	)
	if l.metrics != nil {
		l.metrics.transfers.Inc()
	}
	l.publish(
		TransferEventType,
		TransferEvent{
			From:   from,
			To:     to,
			Amount: new(big.Int).Set(amount),
			At:     now,
		},
	)
	return nil
}

// BalanceOf returns an account's current balance
func (l *Ledger) BalanceOf(account string) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOf(account)
}

// TotalSupply returns the current total supply
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply()
}

// WeightAt returns the account's balance as of the given timepoint.
// Timepoints later than the current one have no settled history yet
// and are rejected.
func (l *Ledger) WeightAt(
	account string,
	tp clock.Timepoint,
) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if tp > l.clock.Now() {
		return nil, fmt.Errorf(
			"%w: %d",
			governance.ErrFutureTimepoint,
			tp,
		)
	}
	return valueAt(l.accounts[account], tp), nil
}

// TotalSupplyAt returns the total supply as of the given timepoint
func (l *Ledger) TotalSupplyAt(tp clock.Timepoint) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if tp > l.clock.Now() {
		return nil, fmt.Errorf(
			"%w: %d",
			governance.ErrFutureTimepoint,
			tp,
		)
	}
	return valueAt(l.supply, tp), nil
}

func (l *Ledger) balanceOf(account string) *big.Int {
	cps := l.accounts[account]
	if len(cps) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(cps[len(cps)-1].Value)
}

func (l *Ledger) totalSupply() *big.Int {
	if len(l.supply) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(l.supply[len(l.supply)-1].Value)
}

func (l *Ledger) writeAccountCheckpoint(
	account string,
	at clock.Timepoint,
	value *big.Int,
) error {
	cp := Checkpoint{At: at, Value: new(big.Int).Set(value)}
	l.accounts[account] = appendCheckpoint(l.accounts[account], cp)
	if l.store != nil {
		if err := l.store.AddAccountCheckpoint(account, cp); err != nil {
			return fmt.Errorf(
				"persist checkpoint for %s: %w",
				account,
				err,
			)
		}
	}
	return nil
}

func (l *Ledger) writeSupplyCheckpoint(
	at clock.Timepoint,
	value *big.Int,
) error {
	cp := Checkpoint{At: at, Value: new(big.Int).Set(value)}
	l.supply = appendCheckpoint(l.supply, cp)
	if l.store != nil {
		if err := l.store.AddSupplyCheckpoint(cp); err != nil {
			return fmt.Errorf("persist supply checkpoint: %w", err)
		}
	}
	return nil
}

// publish enqueues an event for async delivery. Events are published
// with the ledger mutex held, so a slow subscriber must never block
// the publishing operation.
func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}

// appendCheckpoint extends a checkpoint series, collapsing repeated
// writes at the same timepoint into the latest value
func appendCheckpoint(cps []Checkpoint, cp Checkpoint) []Checkpoint {
	if len(cps) > 0 && cps[len(cps)-1].At == cp.At {
		cps[len(cps)-1] = cp
		return cps
	}
	return append(cps, cp)
}

// valueAt resolves a checkpoint series at a timepoint: the value of
// the latest checkpoint at or before tp, or zero before the first
func valueAt(cps []Checkpoint, tp clock.Timepoint) *big.Int {
	// Index of the first checkpoint past tp
	idx := sort.Search(len(cps), func(i int) bool {
		return cps[i].At > tp
	})
	if idx == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(cps[idx-1].Value)
}

func bigFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
