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

package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/UMainLove/MintGovernance/governance"
	"github.com/UMainLove/MintGovernance/token"
)

// MintTargetName is the target name for token mint actions
const MintTargetName = "token.mint"

// mintCalldata is the JSON calldata of a token.mint action. The amount
// is a decimal string so arbitrary-precision values survive the wire.
type mintCalldata struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// MintTarget mints tokens through a governance proposal
type MintTarget struct {
	ledger *token.Ledger
}

func NewMintTarget(ledger *token.Ledger) *MintTarget {
	return &MintTarget{ledger: ledger}
}

func (m *MintTarget) Validate(
	_ context.Context,
	action governance.Action,
) error {
	_, _, err := parseMintCalldata(action)
	return err
}

func (m *MintTarget) Execute(
	_ context.Context,
	action governance.Action,
) error {
	to, amount, err := parseMintCalldata(action)
	if err != nil {
		return err
	}
	return m.ledger.Mint(to, amount)
}

// Revert burns a previously executed mint back out of the ledger
func (m *MintTarget) Revert(
	_ context.Context,
	action governance.Action,
) error {
	to, amount, err := parseMintCalldata(action)
	if err != nil {
		return err
	}
	return m.ledger.Burn(to, amount)
}

func parseMintCalldata(
	action governance.Action,
) (string, *big.Int, error) {
	if action.Value != nil && action.Value.Sign() != 0 {
		return "", nil, fmt.Errorf(
			"mint action carries non-zero value %s",
			action.Value,
		)
	}
	var calldata mintCalldata
	if err := json.Unmarshal(action.Calldata, &calldata); err != nil {
		return "", nil, fmt.Errorf("parse mint calldata: %w", err)
	}
	if calldata.To == "" {
		return "", nil, fmt.Errorf("mint calldata has no recipient")
	}
	amount, ok := new(big.Int).SetString(calldata.Amount, 10)
	if !ok {
		return "", nil, fmt.Errorf(
			"invalid mint amount %q",
			calldata.Amount,
		)
	}
	if amount.Sign() <= 0 {
		return "", nil, fmt.Errorf(
			"mint amount %s is not positive",
			amount,
		)
	}
	return calldata.To, amount, nil
}
