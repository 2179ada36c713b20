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
	"context"
	"fmt"
	"time"

	"github.com/EagleChen/mapmutex"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/constants"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"go.uber.org/zap"
)

// Event is the domain event produced by a successful punch transition. It is
// what gets fanned out to owning observers.
type Event struct {
	Identity        string
	Action          Action
	ResultingStatus Status
	Timestamp       time.Time
}

// Machine validates and applies punch actions against the ledger. Punches for
// the same identity are serialized with a per-identity lock; different
// identities proceed independently.
type Machine struct {
	ledger Ledger
	locks  *mapmutex.Mutex
	log    *zap.SugaredLogger
}

// NewMachine creates a punch state machine on top of the given ledger.
func NewMachine(ledger Ledger) *Machine {
	return &Machine{
		ledger: ledger,
		locks:  mapmutex.NewMapMutex(),
		log:    logger.For(logger.ComponentShift),
	}
}

// newPunchFSM builds the transition table seeded at the record's current
// status. Check-in is not in the table: it creates the record rather than
// transitioning one.
func newPunchFSM(current Status) *fsm.FSM {
	return fsm.NewFSM(
		string(current),
		fsm.Events{
			{Name: string(ActionBreakIn), Src: []string{string(StatusCheckedIn), string(StatusReturned)}, Dst: string(StatusOnBreak)},
			{Name: string(ActionBreakOut), Src: []string{string(StatusOnBreak)}, Dst: string(StatusReturned)},
			{Name: string(ActionBioBreakIn), Src: []string{string(StatusCheckedIn), string(StatusReturned)}, Dst: string(StatusOnBioBreak)},
			{Name: string(ActionBioBreakOut), Src: []string{string(StatusOnBioBreak)}, Dst: string(StatusReturned)},
			{Name: string(ActionCheckOut), Src: []string{string(StatusCheckedIn), string(StatusReturned)}, Dst: string(StatusCheckedOut)},
		},
		fsm.Callbacks{},
	)
}

func breakKindFor(action Action) BreakKind {
	if action == ActionBioBreakIn || action == ActionBioBreakOut {
		return BreakKindBio
	}

	return BreakKindRegular
}

// Apply locates the identity's active record, applies the punch and writes
// the result back. On success it returns the updated record and the derived
// domain event. Errors wrap ErrValidation, ErrConflict or ErrInvariant; the
// record is never left half-mutated in the ledger.
func (m *Machine) Apply(ctx context.Context, identity string, employeeName string, action Action, now time.Time) (*Record, *Event, error) {
	if identity == "" {
		return nil, nil, fmt.Errorf("%w: identity is required", ErrValidation)
	}

	if !m.locks.TryLock(identity) {
		return nil, nil, fmt.Errorf("%w: another punch for %s is in progress", ErrConflict, identity)
	}
	defer m.locks.Unlock(identity)

	since := now.Add(-constants.ActiveShiftLookback)

	active, err := m.ledger.FindActive(ctx, identity, since)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to locate active shift for %s: %w", identity, err)
	}

	if action == ActionCheckIn {
		if active != nil {
			return nil, nil, fmt.Errorf("%w: %s already has an active shift", ErrConflict, identity)
		}

		record := &Record{
			ID:           uuid.New().String(),
			Identity:     identity,
			EmployeeName: employeeName,
			CheckIn:      now,
			Breaks:       []BreakSession{},
			Status:       StatusCheckedIn,
		}
		if err := m.ledger.Create(ctx, record); err != nil {
			return nil, nil, fmt.Errorf("failed to create shift record for %s: %w", identity, err)
		}

		m.log.Infof("Checked in %s (record %s)", identity, record.ID)

		return record, &Event{Identity: identity, Action: action, ResultingStatus: record.Status, Timestamp: now}, nil
	}

	if active == nil {
		return nil, nil, fmt.Errorf("%w: no active shift for %s", ErrConflict, identity)
	}

	machine := newPunchFSM(active.Status)
	if err := machine.Event(ctx, string(action)); err != nil {
		return nil, nil, fmt.Errorf("%w: cannot %s while %s", ErrConflict, action, active.Status)
	}

	switch action {
	case ActionBreakIn, ActionBioBreakIn:
		active.Breaks = append(active.Breaks, BreakSession{
			Kind:    breakKindFor(action),
			BreakIn: now,
		})

	case ActionBreakOut, ActionBioBreakOut:
		kind := breakKindFor(action)

		open := active.OpenBreak(kind)
		if open == nil {
			m.log.Warnf("Record %s is %s but has no open %s session", active.ID, active.Status, kind)

			return nil, nil, fmt.Errorf("%w: no open %s session for %s", ErrInvariant, kind, identity)
		}

		breakOut := now
		open.BreakOut = &breakOut
		open.DurationMinutes = roundedMinutes(now.Sub(open.BreakIn))
		active.recomputeBreakTotal()

	case ActionCheckOut:
		if active.HasOpenBreak() {
			return nil, nil, fmt.Errorf("%w: cannot check out while a break is open", ErrConflict)
		}

		checkOut := now
		active.CheckOut = &checkOut
		active.recomputeWorkedTotal()
	}

	active.Status = Status(machine.Current())

	if err := m.ledger.Update(ctx, active); err != nil {
		return nil, nil, fmt.Errorf("failed to update shift record %s: %w", active.ID, err)
	}

	m.log.Infof("Applied %s for %s, status now %s", action, identity, active.Status)

	return active, &Event{Identity: identity, Action: action, ResultingStatus: active.Status, Timestamp: now}, nil
}

// Active returns the identity's current active record within the lookback
// window, or nil if there is none.
func (m *Machine) Active(ctx context.Context, identity string, now time.Time) (*Record, error) {
	return m.ledger.FindActive(ctx, identity, now.Add(-constants.ActiveShiftLookback))
}
