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

package relay

import (
	"context"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/metrics"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/models"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/shift"
)

// Route dispatches one inbound signaling message. Unicast goes to the named
// destination only; the destination id itself is the authorization boundary,
// no ownership filter applies. A message without a destination is broadcast
// to every open connection and must therefore carry nothing confidential.
func (h *Hub) Route(ctx context.Context, msg *models.SignalMessage) {
	switch msg.Type {
	case models.TypeRegister:
		metrics.IncMessagesRouted(string(msg.Type))
		h.SubjectRegister(ctx, msg.From, msg.EntryID, msg.EmployeeName)

	case models.TypePresenceList, models.TypePresenceChanged, models.TypeShiftEvent:
		// Server-emitted kinds; a client has no business injecting them.
		h.log.Warnf("Dropping client-sent %s message from %s", msg.Type, msg.From)
		metrics.IncMessagesDropped(metrics.ReasonServerEmitted)

	default:
		metrics.IncMessagesRouted(string(msg.Type))

		if msg.To != "" {
			h.Deliver(msg.To, msg)

			return
		}

		h.Broadcast(msg)
	}
}

// Broadcast delivers to every registered connection. Not for tenant-scoped
// payloads; those go through FanOutShiftEvent / the presence notifications,
// which consult the ownership directory.
func (h *Hub) Broadcast(msg *models.SignalMessage) {
	for _, sub := range h.snapshot() {
		h.trySend(sub, msg)
	}
}

// FanOutShiftEvent delivers a punch transition to exactly the observers that
// own the identity. This is the dedicated tenant-scoped path; it never falls
// back to Broadcast.
func (h *Hub) FanOutShiftEvent(ctx context.Context, event *shift.Event) {
	owners := h.dir.OwnersOf(ctx, event.Identity)
	if len(owners) == 0 {
		return
	}

	msg := models.NewShiftEvent(event.Identity, string(event.Action), string(event.ResultingStatus), event.Timestamp)
	metrics.IncMessagesRouted(string(models.TypeShiftEvent))

	for _, observer := range h.observersOwnedBy(owners) {
		h.trySend(observer, msg)
	}
}
