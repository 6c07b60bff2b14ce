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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type governorMetrics struct {
	proposalsCreated  prometheus.Counter
	proposalsExecuted prometheus.Counter
	proposalsCanceled prometheus.Counter
	votesCast         *prometheus.CounterVec
	executionFailures prometheus.Counter
}

func newGovernorMetrics(promRegistry prometheus.Registerer) *governorMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &governorMetrics{
		proposalsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "governance_proposals_created_total",
			Help: "total proposals created",
		}),
		proposalsExecuted: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "governance_proposals_executed_total",
			Help: "total proposals executed",
		}),
		proposalsCanceled: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "governance_proposals_canceled_total",
			Help: "total proposals canceled",
		}),
		votesCast: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_votes_cast_total",
				Help: "total ballots recorded per support category",
			},
			[]string{"support"},
		),
		executionFailures: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "governance_execution_failures_total",
			Help: "total failed proposal execution attempts",
		}),
	}
}
