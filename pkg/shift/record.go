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

package shift

import (
	"math"
	"time"
)

// Status is the lifecycle state of a shift record. Transitions are monotonic
// except the reversible break/returned cycle; checked-out is terminal.
type Status string

const (
	StatusCheckedIn  Status = "checked-in"
	StatusOnBreak    Status = "on-break"
	StatusOnBioBreak Status = "on-bio-break"
	StatusReturned   Status = "returned"
	StatusCheckedOut Status = "checked-out"
)

// BreakKind distinguishes the two break tracks. Both follow the same
// open/close cycle.
type BreakKind string

const (
	BreakKindRegular BreakKind = "break"
	BreakKindBio     BreakKind = "bio-break"
)

// Action is a punch action applied to a shift.
type Action string

const (
	ActionCheckIn     Action = "check-in"
	ActionBreakIn     Action = "break-in"
	ActionBreakOut    Action = "break-out"
	ActionBioBreakIn  Action = "bio-break-in"
	ActionBioBreakOut Action = "bio-break-out"
	ActionCheckOut    Action = "check-out"
)

// ParseAction validates an action string from the wire.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionCheckIn, ActionBreakIn, ActionBreakOut, ActionBioBreakIn, ActionBioBreakOut, ActionCheckOut:
		return Action(s), true
	default:
		return "", false
	}
}

// BreakSession is one break within a shift, owned exclusively by its Record.
// BreakOut is nil while the session is open.
type BreakSession struct {
	Kind            BreakKind  `json:"kind"`
	BreakIn         time.Time  `json:"breakIn"`
	BreakOut        *time.Time `json:"breakOut,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
}

// Record is one shift of one identity: created on check-in, mutated in place
// by subsequent punches, never deleted here. At most one BreakSession is open
// at a time.
type Record struct {
	ID                 string         `json:"id"`
	Identity           string         `json:"identity"`
	EmployeeName       string         `json:"employeeName,omitempty"`
	CheckIn            time.Time      `json:"checkIn"`
	CheckOut           *time.Time     `json:"checkOut,omitempty"`
	Breaks             []BreakSession `json:"breaks"`
	TotalBreakMinutes  int            `json:"totalBreakMinutes"`
	TotalWorkedMinutes int            `json:"totalWorkedMinutes"`
	Status             Status         `json:"status"`
}

// OpenBreak returns the most recent open session of the given kind, or nil.
func (r *Record) OpenBreak(kind BreakKind) *BreakSession {
	for i := len(r.Breaks) - 1; i >= 0; i-- {
		if r.Breaks[i].Kind == kind && r.Breaks[i].BreakOut == nil {
			return &r.Breaks[i]
		}
	}

	return nil
}

// HasOpenBreak reports whether any break session of any kind is open.
func (r *Record) HasOpenBreak() bool {
	for i := range r.Breaks {
		if r.Breaks[i].BreakOut == nil {
			return true
		}
	}

	return false
}

// recomputeBreakTotal recalculates the aggregate break minutes from the
// closed sessions.
func (r *Record) recomputeBreakTotal() {
	total := 0
	for i := range r.Breaks {
		if r.Breaks[i].BreakOut != nil {
			total += r.Breaks[i].DurationMinutes
		}
	}
	r.TotalBreakMinutes = total
}

// recomputeWorkedTotal recalculates worked minutes as elapsed time since
// check-in minus all break totals, floored at zero. Only meaningful once
// CheckOut is set.
func (r *Record) recomputeWorkedTotal() {
	if r.CheckOut == nil {
		return
	}
	elapsed := roundedMinutes(r.CheckOut.Sub(r.CheckIn))
	worked := elapsed - r.TotalBreakMinutes
	if worked < 0 {
		worked = 0
	}
	r.TotalWorkedMinutes = worked
}

// Clone returns a deep copy, so ledger implementations can hand out records
// without sharing break slices with callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	clone := *r
	if r.CheckOut != nil {
		checkOut := *r.CheckOut
		clone.CheckOut = &checkOut
	}
	clone.Breaks = make([]BreakSession, len(r.Breaks))
	for i, b := range r.Breaks {
		clone.Breaks[i] = b
		if b.BreakOut != nil {
			breakOut := *b.BreakOut
			clone.Breaks[i].BreakOut = &breakOut
		}
	}

	return &clone
}

func roundedMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
