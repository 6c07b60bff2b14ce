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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	mints     prometheus.Counter
	burns     prometheus.Counter
	transfers prometheus.Counter
	supply    prometheus.Gauge
}

func newLedgerMetrics(promRegistry prometheus.Registerer) *ledgerMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &ledgerMetrics{
		mints: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "token_mints_total",
				Help: "total number of mint operations",
			},
		),
		burns: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "token_burns_total",
				Help: "total number of burn operations",
			},
		),
		transfers: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "token_transfers_total",
				Help: "total number of transfer operations",
			},
		),
		supply: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "token_total_supply",
				Help: "current total token supply",
			},
		),
	}
}
