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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package api provides the governance REST API server plus gRPC
// health checking on the same listener.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// HealthServiceName is the service name reported by the gRPC health
// checker
const HealthServiceName = "mintgovernance.governance.v1.GovernanceService"

// ApiConfig holds the API server configuration
type ApiConfig struct {
	ListenAddress string
}

// Api is the governance REST API server
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	node       GovernanceNode
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance
func New(
	cfg ApiConfig,
	node GovernanceNode,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":3000"
	}
	return &Api{
		config: cfg,
		logger: logger,
		node:   node,
	}
}

func (a *Api) buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc(
		"GET /api/v1/governance/proposals",
		a.handleListProposals,
	)
	mux.HandleFunc(
		"POST /api/v1/governance/proposals",
		a.handlePropose,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/proposals/{id}",
		a.handleGetProposal,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/proposals/{id}/state",
		a.handleProposalState,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/proposals/{id}/votes",
		a.handleProposalVotes,
	)
	mux.HandleFunc(
		"POST /api/v1/governance/proposals/{id}/votes",
		a.handleCastVote,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/proposals/{id}/ballots/{voter}",
		a.handleGetBallot,
	)
	mux.HandleFunc(
		"POST /api/v1/governance/proposals/{id}/cancel",
		a.handleCancel,
	)
	mux.HandleFunc(
		"POST /api/v1/governance/execute",
		a.handleExecute,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/quorum",
		a.handleQuorum,
	)
	mux.HandleFunc(
		"GET /api/v1/governance/config",
		a.handleConfig,
	)
	// gRPC health checking on the same listener. The handler is
	// registered for POST only (gRPC/Connect health checks are always
	// POST) so its method-less path pattern cannot conflict with the
	// "GET /" root route under Go 1.22+ ServeMux rules.
	healthPath, healthHandler := grpchealth.NewHandler(
		grpchealth.NewStaticChecker(HealthServiceName),
		connect.WithCompressMinBytes(1024),
	)
	mux.Handle("POST "+healthPath, healthHandler)
	return mux
}

// Start starts the HTTP server in a background goroutine.
func (a *Api) Start(
	ctx context.Context,
) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr: a.config.ListenAddress,
		// Use h2c so the gRPC health service works without TLS
		Handler:           h2c.NewHandler(a.buildMux(), &http2.Server{}),
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Start the server with deterministic error detection
	if err := a.startServer(server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"governance API listener started on " +
			a.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down " +
					"governance API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(
				shutdownCtx,
			); err != nil {
				a.logger.Error(
					"failed to shutdown governance "+
						"API server on context "+
						"cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (a *Api) Stop(
	ctx context.Context,
) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug(
			"shutting down governance API server",
		)
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown governance API "+
					"server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer starts the HTTP server with deterministic
// error detection. It binds the listening socket first so
// port conflicts are detected immediately, then serves in
// a background goroutine.
func (a *Api) startServer(
	server *http.Server,
) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for governance API "+
				"server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"governance API server error",
				"error", err,
			)
		}
	}()
	return nil
}
