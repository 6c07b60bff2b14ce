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

// Package mintgov assembles the governance engine, token ledger,
// executor, storage, and API surfaces into a runnable node.
package mintgov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UMainLove/MintGovernance/api"
	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/database"
	"github.com/UMainLove/MintGovernance/event"
	"github.com/UMainLove/MintGovernance/executor"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/UMainLove/MintGovernance/token"
)

type Node struct {
	eventBus      *event.EventBus
	clock         clock.Source
	db            *database.Database
	ledger        *token.Ledger
	dispatcher    *executor.Dispatcher
	governor      *governance.Governor
	api           *api.Api
	apiCancel     context.CancelFunc
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	n.clock = cfg.clock
	if n.clock == nil {
		n.clock = clock.NewSlotClock(cfg.genesisTime, cfg.slotLength)
	}
	return n, nil
}

func (n *Node) Run() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(n.config.logger, n.config.dataDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load token ledger from stored checkpoints
	ledger, err := token.NewLedger(
		token.LedgerConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Clock:        n.clock,
			Store:        n.db,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load token ledger: %w", err)
	}
	n.ledger = ledger
	// Initialize executor and engine
	n.dispatcher = executor.NewDispatcher(n.config.logger)
	governor, err := governance.NewGovernor(
		governance.GovernorConfig{
			Logger:       n.config.logger,
			EventBus:     n.eventBus,
			PromRegistry: n.config.promRegistry,
			Clock:        n.clock,
			Oracle:       n.ledger,
			Store:        n.db,
			Executor:     n.dispatcher,
			Governance:   n.config.governance,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create governance engine: %w", err)
	}
	n.governor = governor
	if err := n.dispatcher.Register(
		executor.MintTargetName,
		executor.NewMintTarget(n.ledger),
	); err != nil {
		return err
	}
	if err := n.dispatcher.Register(
		executor.ConfigTargetName,
		executor.NewConfigTarget(n.governor),
	); err != nil {
		return err
	}
	// Mint initial allocations on first startup
	if err := n.bootstrapAllocations(); err != nil {
		return err
	}
	// Start governance API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{
				ListenAddress: n.config.apiListenAddress,
			},
			n,
			n.config.logger,
		)
		apiCtx, apiCancel := context.WithCancel(context.Background())
		n.apiCancel = apiCancel
		if err := n.api.Start(apiCtx); err != nil {
			apiCancel()
			return err
		}
	}

	// Wait for shutdown signal
	<-n.done
	return nil
}

// bootstrapAllocations mints the configured initial token grants. They
// apply only to a fresh ledger: once any supply exists, balances are
// governed by proposals alone.
func (n *Node) bootstrapAllocations() error {
	if len(n.config.allocations) == 0 {
		return nil
	}
	if n.ledger.TotalSupply().Sign() != 0 {
		n.config.logger.Debug(
			"skipping initial allocations, ledger already has supply",
			"component", "node",
		)
		return nil
	}
	for _, allocation := range n.config.allocations {
		if err := n.ledger.Mint(allocation.Account, allocation.Amount); err != nil {
			return fmt.Errorf(
				"failed to mint initial allocation for %s: %w",
				allocation.Account,
				err,
			)
		}
	}
	return nil
}

// Governor returns the governance engine instance
func (n *Node) Governor() *governance.Governor {
	return n.governor
}

// Ledger returns the token ledger instance
func (n *Node) Ledger() *token.Ledger {
	return n.ledger
}

// Database returns the database instance
func (n *Node) Database() *database.Database {
	return n.db
}

// EventBus returns the event bus instance
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// CurrentTimepoint returns the node's current timepoint
func (n *Node) CurrentTimepoint() clock.Timepoint {
	return n.clock.Now()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.apiCancel != nil {
		n.apiCancel()
	}

	// Phase 2: Flush state and close database
	n.config.logger.Debug("shutdown phase 2: flushing state")

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
