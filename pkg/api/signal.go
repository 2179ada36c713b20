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
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/models"
)

// maxSignalBytes bounds a single signaling message. SDP offers with many
// candidates stay well under this.
const maxSignalBytes = 256 * 1024

// signalHandler accepts one SignalMessage and hands it to the router.
// A 200 response acknowledges acceptance, not delivery.
func (s *Server) signalHandler(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignalBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	msg, err := models.DecodeSignalMessage(body)
	if err != nil {
		s.log.Warnf("Rejecting malformed signal message: %s", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.hub.Route(c.Request.Context(), msg)
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
