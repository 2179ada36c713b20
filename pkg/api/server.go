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

package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/config"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/relay"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/shift"
	"go.uber.org/zap"
)

// Server wires the relay hub and the punch state machine into HTTP handlers.
type Server struct {
	cfg     *config.AttendanceHubConfig
	hub     *relay.Hub
	machine *shift.Machine
	log     *zap.SugaredLogger
}

// NewServer creates the HTTP layer over the given collaborators.
func NewServer(cfg *config.AttendanceHubConfig, hub *relay.Hub, machine *shift.Machine) *Server {
	return &Server{
		cfg:     cfg,
		hub:     hub,
		machine: machine,
		log:     logger.For(logger.ComponentAPI),
	}
}

// SetupRouter builds the gin engine with logging and recovery middleware.
func (s *Server) SetupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Healthcheck
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "online")
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/stream", s.streamHandler)
		v1.POST("/stream", s.signalHandler)
		v1.POST("/punch", s.punchHandler)
		v1.GET("/punch", s.activeShiftHandler)
	}

	return router
}
