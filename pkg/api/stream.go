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
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/relay"
)

// streamHandler opens a server-sent-events stream for one connection.
// Subjects connect unauthenticated; observers must present a token that
// resolves to a configured observer identity.
func (s *Server) streamHandler(c *gin.Context) {
	connectionID := c.Query("connectionId")
	if connectionID == "" {
		c.String(http.StatusBadRequest, "connectionId is required")
		return
	}

	var role relay.Role
	owner := ""
	switch c.Query("role") {
	case string(relay.RoleSubject):
		role = relay.RoleSubject
	case string(relay.RoleObserver):
		identity, ok := s.cfg.ObserverIdentity(streamToken(c))
		if !ok {
			c.String(http.StatusUnauthorized, "unauthorized")
			return
		}
		role = relay.RoleObserver
		owner = identity
	default:
		c.String(http.StatusBadRequest, "role must be subject or observer")
		return
	}

	send, done := s.hub.Register(connectionID, role, owner)

	// Release is scoped to this registration: if the id was reused or the
	// hub evicted the connection, the handle is stale and the call is a
	// no-op rather than a teardown of the replacement.
	defer s.hub.Release(connectionID, done)

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	if role == relay.RoleObserver {
		s.hub.SendPresenceList(c.Request.Context(), connectionID, owner)
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case frame := <-send:
			var err error
			if frame.Comment {
				_, err = fmt.Fprint(c.Writer, ": keepalive\n\n")
			} else {
				_, err = fmt.Fprintf(c.Writer, "data: %s\n\n", frame.Data)
			}
			if err != nil {
				s.log.Debugf("Stream write to %s failed: %s", connectionID, err)
				return
			}
			c.Writer.Flush()
		}
	}
}

// streamToken extracts the observer credential. EventSource clients cannot
// set headers, so a token query parameter is accepted alongside the usual
// Authorization header.
func streamToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}
