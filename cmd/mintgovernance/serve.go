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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mintgov "github.com/UMainLove/MintGovernance"
	"github.com/UMainLove/MintGovernance/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func serveRun(_ *cobra.Command, _ []string, cfg *config.Config) {
	logger := commonRun()
	if err := runNode(cfg, logger); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func runNode(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	govCfg, err := cfg.GovernanceConfig()
	if err != nil {
		return err
	}
	slotLength := time.Second
	if cfg.SlotLength != "" {
		slotLength, err = time.ParseDuration(cfg.SlotLength)
		if err != nil {
			return fmt.Errorf("invalid slot length: %w", err)
		}
	}
	genesisTime := time.Now()
	if cfg.GenesisTime != "" {
		genesisTime, err = time.Parse(time.RFC3339, cfg.GenesisTime)
		if err != nil {
			return fmt.Errorf("invalid genesis time: %w", err)
		}
	}
	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	allocations := make([]mintgov.TokenAllocation, 0, len(cfg.Allocations))
	for _, alloc := range cfg.Allocations {
		amount, ok := new(big.Int).SetString(alloc.Amount, 10)
		if !ok {
			return fmt.Errorf(
				"invalid allocation amount for %q: %q",
				alloc.Account,
				alloc.Amount,
			)
		}
		allocations = append(
			allocations,
			mintgov.TokenAllocation{
				Account: alloc.Account,
				Amount:  amount,
			},
		)
	}

	n, err := mintgov.New(
		mintgov.NewConfig(
			mintgov.WithLogger(logger),
			mintgov.WithDatabasePath(cfg.DatabasePath),
			mintgov.WithGenesisTime(genesisTime),
			mintgov.WithSlotLength(slotLength),
			mintgov.WithGovernanceConfig(govCfg),
			mintgov.WithInitialAllocations(allocations...),
			mintgov.WithApiListenAddress(cfg.ApiListenAddress),
			mintgov.WithShutdownTimeout(shutdownTimeout),
			// Enable metrics with default prometheus registry
			mintgov.WithPrometheusRegistry(prometheus.DefaultRegisterer),
			mintgov.WithTracing(cfg.Tracing),
			mintgov.WithTracingStdout(cfg.TracingStdout),
		),
	)
	if err != nil {
		return err
	}
	// Metrics listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		err := n.Run()
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")

		// Shutdown metrics server
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}

		// Shutdown node
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		if err == nil {
			logger.Info("node stopped")
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown error", "error", err)
			}
			if err := n.Stop(); err != nil {
				logger.Error("shutdown errors occurred", "error", err)
				return err
			}
			return nil
		}
		logger.Error("node error", "error", err)
		signalCtxStop()

		// Shutdown node resources
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error",
				stopErr,
			)
		}
		return err
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the governance node",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			serveRun(cmd, args, cfg)
		},
	}
}
