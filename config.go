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

package mintgov

import (
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/prometheus/client_golang/prometheus"
)

// TokenAllocation is an initial token grant minted at first startup
type TokenAllocation struct {
	Amount  *big.Int
	Account string
}

type Config struct {
	promRegistry prometheus.Registerer
	logger       *slog.Logger
	clock        clock.Source
	genesisTime  time.Time
	governance   governance.Config
	dataDir      string
	// Governance API listen address (empty = disabled)
	apiListenAddress string
	allocations      []TokenAllocation
	slotLength       time.Duration
	shutdownTimeout  time.Duration
	tracing          bool
	tracingStdout    bool
}

func (n *Node) configValidate() error {
	if err := n.config.governance.Validate(); err != nil {
		return err
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new mintgov config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
		genesisTime: time.Now(),
		slotLength:  time.Second,
		governance:  governance.DefaultConfig(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus registerer for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithClock specifies the timepoint source to use. The default is a
// wall-clock slot counter from the genesis time.
func WithClock(source clock.Source) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = source
	}
}

// WithGenesisTime specifies the slot clock genesis. This defaults to node startup time
func WithGenesisTime(genesisTime time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisTime = genesisTime
	}
}

// WithSlotLength specifies the slot clock slot length. This defaults to one second
func WithSlotLength(slotLength time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.slotLength = slotLength
	}
}

// WithGovernanceConfig specifies the initial governance parameters
func WithGovernanceConfig(cfg governance.Config) ConfigOptionFunc {
	return func(c *Config) {
		c.governance = cfg
	}
}

// WithInitialAllocations specifies token grants minted at first
// startup, when the ledger supply is still zero
func WithInitialAllocations(allocations ...TokenAllocation) ConfigOptionFunc {
	return func(c *Config) {
		c.allocations = append(c.allocations, allocations...)
	}
}

// WithApiListenAddress specifies the listen address for the governance API. This defaults to empty (disabled)
func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

// WithTracing enables tracing by setting up the global tracer provider. The
// default OTLP exporter sends to a local OTLP collector, and can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout instead of the OTLP exporter
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. This defaults to 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
