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
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/UMainLove/MintGovernance/clock"
)

// QuorumPolicy computes the minimum total weighted participation
// required for a proposal to be eligible to succeed, as a fraction of
// the total supply at a historical timepoint. The fraction is stored
// atomically: config amendment may race read-only quorum queries.
type QuorumPolicy struct {
	oracle      WeightOracle
	fractionBps atomic.Uint64
}

// NewQuorumPolicy creates a QuorumPolicy over the given oracle
func NewQuorumPolicy(oracle WeightOracle, fractionBps uint64) *QuorumPolicy {
	q := &QuorumPolicy{
		oracle: oracle,
	}
	q.fractionBps.Store(fractionBps)
	return q
}

// FractionBps returns the configured quorum fraction in basis points
func (q *QuorumPolicy) FractionBps() uint64 {
	return q.fractionBps.Load()
}

// SetFractionBps updates the quorum fraction. Called through config
// amendment.
func (q *QuorumPolicy) SetFractionBps(fractionBps uint64) {
	q.fractionBps.Store(fractionBps)
}

// Quorum returns floor(totalSupplyAt(tp) * fractionBps / 10000). The
// timepoint must follow the same convention as per-voter weight
// snapshots (a proposal's vote-start) to keep the two consistent.
func (q *QuorumPolicy) Quorum(tp clock.Timepoint) (*big.Int, error) {
	supply, err := q.oracle.TotalSupplyAt(tp)
	if err != nil {
		return nil, fmt.Errorf(
			"total supply at timepoint %d: %w",
			tp,
			err,
		)
	}
	ret := new(big.Int).Mul(
		supply,
		new(big.Int).SetUint64(q.fractionBps.Load()),
	)
	return ret.Div(ret, big.NewInt(QuorumDenominator)), nil
}
