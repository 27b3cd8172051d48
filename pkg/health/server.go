// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sage-x-project/didcomm-mediator/internal/logger"
	"github.com/sage-x-project/didcomm-mediator/internal/metrics"
)

// Server represents the health check HTTP server. It serves liveness and
// readiness probes plus a Prometheus /metrics endpoint, so the mediator's
// health port doubles as the scrape target spec.md §6 leaves to ops tooling.
type Server struct {
	checker *HealthChecker
	logger  logger.Logger
	port    int
	server  *http.Server
}

// NewServer creates a new health check server
func NewServer(checker *HealthChecker, log logger.Logger, port int) *Server {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &Server{
		checker: checker,
		logger:  log,
		port:    port,
	}
}

// Start starts the health check server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/healthz/live", s.handleLiveness)
	mux.HandleFunc("/healthz/ready", s.handleReadiness)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics.json", s.handleMetricsSnapshot)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Starting health check server", logger.Int("port", s.port))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Health check server error", logger.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleHealth reports the status of every registered check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.checker.GetSystemHealth(r.Context())

	switch health.Status {
	case StatusUnhealthy:
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusOK)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

// handleLiveness reports that the process is running, independent of any
// downstream collaborator's health.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// handleReadiness reports whether the mediator's collaborators (persistence,
// wallet) are reachable, for load-balancer / orchestrator traffic gating.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	results := s.checker.CheckAll(r.Context())
	status := s.checker.GetOverallStatus(r.Context())
	ready := status != StatusUnhealthy

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	}

	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetricsSnapshot serves the lightweight in-process counters
// (internal/metrics.MetricsCollector) as human-readable JSON, alongside
// the Prometheus exposition at /metrics.
func (s *Server) handleMetricsSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := metrics.GetGlobalCollector().GetSnapshot()

	response := map[string]interface{}{
		"timestamp": snap.Timestamp.UTC().Format(time.RFC3339),
		"uptime":    snap.Uptime.String(),
		"counters": map[string]int64{
			"envelopes_packed":   snap.EnvelopesPacked,
			"envelopes_unpacked": snap.EnvelopesUnpacked,
			"envelope_errors":    snap.EnvelopeErrors,
			"messages_enqueued":  snap.MessagesEnqueued,
			"messages_delivered": snap.MessagesDelivered,
			"messages_acked":     snap.MessagesAcked,
			"keylist_updates":    snap.KeylistUpdates,
			"persistence_errors": snap.PersistenceErrors,
		},
		"timings": map[string]interface{}{
			"avg_envelope_time_us":    snap.AvgEnvelopeTime,
			"avg_persistence_time_us": snap.AvgPersistenceTime,
			"p95_envelope_time_us":    snap.P95EnvelopeTime,
			"p95_persistence_time_us": snap.P95PersistenceTime,
		},
		"envelope_error_rate_pct": snap.GetEnvelopeErrorRate(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

// StartHealthServer wires a HealthChecker against the given persistence and
// wallet probes and starts serving on port.
func StartHealthServer(port int, pingStore func(context.Context) error, pingWallet func() error) (*Server, error) {
	checker := NewHealthChecker(5 * time.Second)
	checker.RegisterCheck("persistence", DatabaseHealthCheck(pingStore))
	checker.RegisterCheck("wallet", KeyStoreHealthCheck(pingWallet))

	server := NewServer(checker, logger.GetDefaultLogger(), port)
	if err := server.Start(); err != nil {
		return nil, err
	}

	return server, nil
}
