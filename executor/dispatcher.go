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

// Package executor provides the action execution capability for the
// governance engine. A Dispatcher routes each action to a handler
// registered under the action's target name.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/UMainLove/MintGovernance/governance"
)

var (
	ErrUnknownTarget   = errors.New("unknown action target")
	ErrDuplicateTarget = errors.New("target already registered")
)

// Handler validates and applies actions for a single target. Validate
// must be side-effect free: the engine validates every action of a
// proposal before applying any. Revert undoes a previously executed
// action so the dispatcher can roll back a partially applied sequence.
type Handler interface {
	Validate(ctx context.Context, action governance.Action) error
	Execute(ctx context.Context, action governance.Action) error
	Revert(ctx context.Context, action governance.Action) error
}

// Dispatcher implements governance.Executor by routing actions to
// registered target handlers
type Dispatcher struct {
	logger   *slog.Logger
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewDispatcher creates an empty Dispatcher
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Dispatcher{
		logger:   logger.With("component", "executor"),
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a target name
func (d *Dispatcher) Register(target string, handler Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[target]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, target)
	}
	d.handlers[target] = handler
	return nil
}

// Targets returns the registered target names
func (d *Dispatcher) Targets() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ret := make([]string, 0, len(d.handlers))
	for target := range d.handlers {
		ret = append(ret, target)
	}
	return ret
}

func (d *Dispatcher) Validate(
	ctx context.Context,
	action governance.Action,
) error {
	handler, err := d.handler(action.Target)
	if err != nil {
		return err
	}
	return handler.Validate(ctx, action)
}

// Apply executes the actions in order, all or nothing. When an action
// fails, the effects of every earlier action are reverted in reverse
// order before the error is returned, so a retry starts from the state
// the sequence found. The failure is reported as an
// ActionExecutionError carrying the failing action's index and target.
func (d *Dispatcher) Apply(
	ctx context.Context,
	actions []governance.Action,
) error {
	// Resolve every handler before applying anything
	handlers := make([]Handler, len(actions))
	for i, action := range actions {
		handler, err := d.handler(action.Target)
		if err != nil {
			return &governance.ActionExecutionError{
				Index:  i,
				Target: action.Target,
				Err:    err,
			}
		}
		handlers[i] = handler
	}
	for i, action := range actions {
		if err := handlers[i].Execute(ctx, action); err != nil {
			execErr := error(&governance.ActionExecutionError{
				Index:  i,
				Target: action.Target,
				Err:    err,
			})
			for j := i - 1; j >= 0; j-- {
				if revertErr := handlers[j].Revert(ctx, actions[j]); revertErr != nil {
					execErr = errors.Join(
						execErr,
						fmt.Errorf(
							"revert action %d (%s): %w",
							j,
							actions[j].Target,
							revertErr,
						),
					)
				}
			}
			return execErr
		}
		d.logger.Info(
			"executed action",
			"target", action.Target,
		)
	}
	return nil
}

func (d *Dispatcher) handler(target string) (Handler, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	handler, ok := d.handlers[target]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	return handler, nil
}
