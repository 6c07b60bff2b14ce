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
	"errors"
	"fmt"
)

// Validation errors are rejected before any state mutation and are
// recoverable by retrying with corrected input.
var (
	// ErrEmptyProposal is returned when a proposal contains no actions
	ErrEmptyProposal = errors.New("proposal contains no actions")

	// ErrInsufficientWeight is returned when the proposer's voting weight
	// at the current timepoint is below the proposal threshold
	ErrInsufficientWeight = errors.New("proposer weight below threshold")

	// ErrDuplicateProposal is returned when a proposal with an identical
	// identifier already exists
	ErrDuplicateProposal = errors.New("proposal already exists")

	// ErrInvalidSupport is returned for an unknown support value
	ErrInvalidSupport = errors.New("invalid support value")
)

// State errors reject the operation with no partial effect.
var (
	// ErrUnknownProposal is returned when no proposal matches the
	// given identifier
	ErrUnknownProposal = errors.New("unknown proposal")

	// ErrProposalNotActive is returned when casting a vote outside the
	// proposal's voting period
	ErrProposalNotActive = errors.New("proposal not active")

	// ErrNotSucceeded is returned when executing a proposal that has not
	// reached the Succeeded state
	ErrNotSucceeded = errors.New("proposal not in succeeded state")

	// ErrAlreadyVoted is returned when an account attempts a second vote
	// on the same proposal
	ErrAlreadyVoted = errors.New("account already voted on proposal")

	// ErrAlreadyExecuted is returned when operating on an executed proposal
	ErrAlreadyExecuted = errors.New("proposal already executed")

	// ErrAlreadyCanceled is returned when operating on a canceled proposal
	ErrAlreadyCanceled = errors.New("proposal already canceled")

	// ErrNotProposer is returned when an account other than the proposer
	// (or the designated canceler) attempts to cancel a proposal
	ErrNotProposer = errors.New("caller may not cancel proposal")

	// ErrNotCancelable is returned when canceling a proposal that is no
	// longer Pending or Active
	ErrNotCancelable = errors.New("proposal past cancelable state")

	// ErrVotesAlreadyCast is returned when canceling a proposal that has
	// recorded ballots and the config forbids cancellation after voting
	ErrVotesAlreadyCast = errors.New("proposal has recorded votes")
)

// ErrFutureTimepoint is returned by weight oracles when asked for a
// snapshot at a timepoint that has not been reached yet
var ErrFutureTimepoint = errors.New("timepoint not yet reached")

// ActionExecutionError is returned when a proposal action fails during
// execution. The whole execute call fails atomically and the proposal
// remains Succeeded, so the caller may retry after fixing the cause.
type ActionExecutionError struct {
	Err    error
	Target string
	Index  int
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf(
		"action %d (target %q) failed: %s",
		e.Index,
		e.Target,
		e.Err,
	)
}

func (e *ActionExecutionError) Unwrap() error {
	return e.Err
}
