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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/metrics"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/shift"
)

type punchRequest struct {
	Identity     string `json:"identity"`
	EmployeeName string `json:"employeeName"`
	Action       string `json:"action"`
}

type punchResponse struct {
	Record  *shift.Record `json:"record"`
	Message string        `json:"message"`
}

// punchHandler applies one attendance action to the caller's shift and
// fans the resulting event out to owning observers.
func (s *Server) punchHandler(c *gin.Context) {
	var req punchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncPunchActions("unknown", metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with identity and action"})
		return
	}

	action, ok := shift.ParseAction(req.Action)
	if !ok {
		metrics.IncPunchActions("unknown", metrics.OutcomeInvalid)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown action %q", req.Action)})
		return
	}

	record, event, err := s.machine.Apply(c.Request.Context(), req.Identity, req.EmployeeName, action, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, shift.ErrValidation):
			metrics.IncPunchActions(string(action), metrics.OutcomeInvalid)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, shift.ErrConflict):
			metrics.IncPunchActions(string(action), metrics.OutcomeConflict)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, shift.ErrInvariant):
			metrics.IncPunchActions(string(action), metrics.OutcomeInvariant)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			metrics.IncPunchActions(string(action), metrics.OutcomeError)
			s.log.Errorf("Punch %s for %s failed: %s", action, req.Identity, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	metrics.IncPunchActions(string(action), metrics.OutcomeApplied)
	s.hub.FanOutShiftEvent(c.Request.Context(), event)
	c.JSON(http.StatusOK, punchResponse{
		Record:  record,
		Message: punchMessage(action, record, event.Timestamp),
	})
}

// activeShiftHandler returns the caller's active shift within the lookback
// window, or a null record when there is none.
func (s *Server) activeShiftHandler(c *gin.Context) {
	identity := c.Query("identity")
	if identity == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "identity is required"})
		return
	}

	record, err := s.machine.Active(c.Request.Context(), identity, time.Now())
	if err != nil {
		s.log.Errorf("Active shift lookup for %s failed: %s", identity, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identity": identity,
		"record":   record,
	})
}

func punchMessage(action shift.Action, record *shift.Record, at time.Time) string {
	clock := at.Format("15:04")
	switch action {
	case shift.ActionCheckIn:
		return fmt.Sprintf("Checked in at %s", clock)
	case shift.ActionBreakIn:
		return fmt.Sprintf("Break started at %s", clock)
	case shift.ActionBreakOut:
		return fmt.Sprintf("Back from break at %s, %d break minutes so far", clock, record.TotalBreakMinutes)
	case shift.ActionBioBreakIn:
		return fmt.Sprintf("Bio break started at %s", clock)
	case shift.ActionBioBreakOut:
		return fmt.Sprintf("Back from bio break at %s", clock)
	case shift.ActionCheckOut:
		return fmt.Sprintf("Checked out at %s, worked %d minutes", clock, record.TotalWorkedMinutes)
	default:
		return string(action)
	}
}
