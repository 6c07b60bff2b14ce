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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotClockBeforeGenesis(t *testing.T) {
	c := NewSlotClock(time.Now().Add(time.Hour), time.Second)
	assert.Equal(t, Timepoint(0), c.Now())
}

func TestSlotClockElapsed(t *testing.T) {
	c := NewSlotClock(time.Now().Add(-10*time.Second), time.Second)
	now := c.Now()
	assert.GreaterOrEqual(t, now, Timepoint(10))
	assert.Less(t, now, Timepoint(12))
}

func TestSlotClockDefaultSlotLength(t *testing.T) {
	c := NewSlotClock(time.Now(), 0)
	assert.Equal(t, time.Second, c.SlotLength())
}

func TestManualMonotonic(t *testing.T) {
	c := NewManual(5)
	assert.Equal(t, Timepoint(5), c.Now())
	c.Advance(10)
	assert.Equal(t, Timepoint(15), c.Now())
	// Backward Set is ignored
	c.Set(3)
	assert.Equal(t, Timepoint(15), c.Now())
	c.Set(20)
	assert.Equal(t, Timepoint(20), c.Now())
}
