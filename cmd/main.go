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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/api"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/config"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/directory"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/metrics"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/relay"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/shift"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Initialize()
	log := logger.For(logger.ComponentCore)
	defer logger.Sync()

	cfg, err := config.Load(logger.For(logger.ComponentConfig))
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := metrics.SetupMetricsEndpoint(fmt.Sprintf(":%d", cfg.MetricsPort))

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.HealthPort), health); err != nil && err != http.ErrServerClosed {
			log.Errorf("Health endpoint failed: %s", err)
		}
	}()

	var ledger shift.Ledger
	if cfg.RedisURI != "" {
		redisLedger := shift.NewRedisLedger(cfg.RedisURI, cfg.RedisPassword, cfg.RedisDB)
		if err := redisLedger.Ping(ctx); err != nil {
			log.Fatalf("Failed to reach redis at %s: %s", cfg.RedisURI, err)
		}
		health.AddReadinessCheck("redis", func() error { return redisLedger.Ping(context.Background()) })
		ledger = redisLedger
		log.Infof("Using redis shift ledger at %s", cfg.RedisURI)
	} else {
		ledger = shift.NewMemoryLedger()
		log.Info("Using in-memory shift ledger, records are lost on restart")
	}

	var dir directory.Directory
	switch cfg.Directory.Mode {
	case config.DirectoryModeHTTP:
		dir = directory.NewHTTPDirectory(cfg.Directory.URL)
		log.Infof("Using HTTP ownership directory at %s", cfg.Directory.URL)
	default:
		dir = directory.NewStaticDirectory(cfg.Directory.Ownership)
		log.Infof("Using static ownership directory with %d subjects", len(cfg.Directory.Ownership))
	}

	hub := relay.NewHub(dir, cfg.PendingBufferCap)
	hub.StartHeartbeat(ctx, time.Duration(cfg.HeartbeatInterval))

	machine := shift.NewMachine(ledger)
	server := api.NewServer(cfg, hub, machine)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: server.SetupRouter(),
	}
	go func() {
		log.Infof("Listening on :%d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %s", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %s", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Metrics server shutdown: %s", err)
	}
	log.Info("Shutdown complete")
}
