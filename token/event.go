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

package token

import (
	"math/big"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/event"
)

const (
	MintEventType     event.EventType = "token.minted"
	BurnEventType     event.EventType = "token.burned"
	TransferEventType event.EventType = "token.transferred"
)

// MintEvent is the payload for MintEventType
type MintEvent struct {
	Amount *big.Int
	To     string
	At     clock.Timepoint
}

// BurnEvent is the payload for BurnEventType
type BurnEvent struct {
	Amount *big.Int
	From   string
	At     clock.Timepoint
}

// TransferEvent is the payload for TransferEventType
type TransferEvent struct {
	Amount *big.Int
	From   string
	To     string
	At     clock.Timepoint
}
