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

package clock

import (
	"sync"
	"time"
)

// Timepoint is an opaque, monotonically increasing ordinal used to date
// governance events and weight snapshots. Depending on the Source it may
// correspond to a slot number or any other counter that never decreases.
type Timepoint uint64

// Source supplies the current timepoint. Implementations must be
// monotonic: successive calls to Now never return a smaller value.
type Source interface {
	Now() Timepoint
}

// SlotClock derives timepoints from wall-clock time as fixed-length slots
// elapsed since a genesis instant.
type SlotClock struct {
	genesis    time.Time
	slotLength time.Duration
}

// NewSlotClock creates a SlotClock with the given genesis time and slot
// length. A zero or negative slot length defaults to one second.
func NewSlotClock(genesis time.Time, slotLength time.Duration) *SlotClock {
	if slotLength <= 0 {
		slotLength = time.Second
	}
	return &SlotClock{
		genesis:    genesis,
		slotLength: slotLength,
	}
}

func (c *SlotClock) Now() Timepoint {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return Timepoint(elapsed / c.slotLength) // #nosec G115
}

// SlotLength returns the configured slot length
func (c *SlotClock) SlotLength() time.Duration {
	return c.slotLength
}

// Genesis returns the configured genesis time
func (c *SlotClock) Genesis() time.Time {
	return c.genesis
}

// Manual is a Source advanced explicitly by the caller. Used in dev mode
// and tests, where lifecycle transitions are driven by hand.
type Manual struct {
	mu  sync.RWMutex
	now Timepoint
}

// NewManual creates a Manual clock starting at the given timepoint
func NewManual(start Timepoint) *Manual {
	return &Manual{now: start}
}

func (c *Manual) Now() Timepoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by delta timepoints
func (c *Manual) Advance(delta Timepoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += delta
}

// Set moves the clock to the given timepoint. Attempts to move backward
// are ignored to preserve monotonicity.
func (c *Manual) Set(tp Timepoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tp > c.now {
		c.now = tp
	}
}
