// Copyright 2025 UMH Systems GmbH
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

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
)

const (
	// Drop reason labels.
	ReasonNotBufferable = "not_bufferable"
	ReasonDrainAborted  = "drain_aborted"
	ReasonServerEmitted = "server_emitted"

	// Punch outcome labels.
	OutcomeApplied   = "applied"
	OutcomeConflict  = "conflict"
	OutcomeInvariant = "invariant"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "umh"
	subsystem = "attendance"

	// Open event stream connections by role.
	openConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "open_connections",
			Help:      "Number of currently open event stream connections by role",
		},
		[]string{"role"},
	)

	// Messages routed by type.
	messagesRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_routed_total",
			Help:      "Total number of messages handed to the router by message type",
		},
		[]string{"type"},
	)

	// Messages buffered for absent destinations.
	messagesBuffered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_buffered_total",
			Help:      "Total number of messages queued for a destination that was not connected",
		},
	)

	// Messages dropped, by reason.
	messagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_dropped_total",
			Help:      "Total number of messages dropped instead of delivered",
		},
		[]string{"reason"},
	)

	// Connections evicted after a failed write or a full send buffer.
	deliveryEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "delivery_evictions_total",
			Help:      "Total number of connections evicted after a delivery failure",
		},
	)

	// Punch actions by action and outcome.
	punchActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "punch_actions_total",
			Help:      "Total number of punch actions processed by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// Ownership directory lookup failures (failed closed).
	directoryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "directory_errors_total",
			Help:      "Total number of ownership directory lookups that failed closed",
		},
	)
)

// IncOpenConnections increments the open connection gauge for a role.
func IncOpenConnections(role string) {
	openConnections.WithLabelValues(role).Inc()
}

// DecOpenConnections decrements the open connection gauge for a role.
func DecOpenConnections(role string) {
	openConnections.WithLabelValues(role).Dec()
}

// IncMessagesRouted increments the routed message counter for a message type.
func IncMessagesRouted(messageType string) {
	messagesRouted.WithLabelValues(messageType).Inc()
}

// IncMessagesBuffered increments the buffered message counter.
func IncMessagesBuffered() {
	messagesBuffered.Inc()
}

// IncMessagesDropped increments the dropped message counter for a reason.
func IncMessagesDropped(reason string) {
	messagesDropped.WithLabelValues(reason).Inc()
}

// IncDeliveryEvictions increments the eviction counter.
func IncDeliveryEvictions() {
	deliveryEvictions.Inc()
}

// IncPunchActions increments the punch counter for an action and outcome.
func IncPunchActions(action string, outcome string) {
	punchActions.WithLabelValues(action, outcome).Inc()
}

// IncDirectoryErrors increments the directory failure counter.
func IncDirectoryErrors() {
	directoryErrors.Inc()
}

// SetupMetricsEndpoint starts an HTTP server to expose metrics.
// This should be called once at application startup.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.For("metrics").Errorf("Metrics endpoint failed: %s", err)
		}
	}()

	return server
}
