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
	"sort"
	"time"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/models"
)

// SubjectRegister upserts the presence entry for a subject and notifies every
// currently-registered observer entitled to see it. connectionID is the
// connection the register message arrived on; entryID is the subject
// identity the presence entry is keyed by.
func (h *Hub) SubjectRegister(ctx context.Context, connectionID string, entryID string, employeeName string) {
	entry := models.PresenceEntry{
		EntryID:      entryID,
		EmployeeName: employeeName,
		ConnectedAt:  time.Now(),
	}

	h.mu.Lock()
	if sub, ok := h.subs[connectionID]; ok && sub.role == RoleSubject {
		sub.identity = entryID
	}
	h.presence[entryID] = entry
	h.mu.Unlock()

	h.log.Infof("Subject %s (%s) came online", entryID, employeeName)

	h.notifyPresenceChanged(ctx, entry, models.PresenceConnected)
}

// SubjectUnregister removes the presence entry and notifies owning observers.
// Used when a subject announces departure without dropping the connection;
// connection teardown goes through Unregister.
func (h *Hub) SubjectUnregister(ctx context.Context, entryID string) {
	h.mu.Lock()
	entry, ok := h.presence[entryID]
	if ok {
		delete(h.presence, entryID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	h.log.Infof("Subject %s went offline", entryID)

	h.notifyPresenceChanged(ctx, entry, models.PresenceDisconnected)
}

// SendPresenceList delivers the full presence set, filtered to the subjects
// the observer owns, as a single presence-list message. Called once when an
// observer connection opens.
func (h *Hub) SendPresenceList(ctx context.Context, connectionID string, owner string) {
	// Ownership lookup happens before touching the registry so the lock is
	// never held across external I/O.
	subjects := h.dir.SubjectsOf(ctx, owner)

	h.mu.RLock()
	entries := make([]models.PresenceEntry, 0, len(subjects))
	for entryID, entry := range h.presence {
		if _, ok := subjects[entryID]; ok {
			entries = append(entries, entry)
		}
	}
	sub, ok := h.subs[connectionID]
	h.mu.RUnlock()

	if !ok {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].EntryID < entries[j].EntryID
	})

	h.trySend(sub, models.NewPresenceList(entries))
}

// notifyPresenceChanged fans a presence transition out to the observers that
// own the subject. A directory failure yields an empty owner set, so the
// notification is simply lost; that is the fail-closed contract.
func (h *Hub) notifyPresenceChanged(ctx context.Context, entry models.PresenceEntry, kind string) {
	owners := h.dir.OwnersOf(ctx, entry.EntryID)
	if len(owners) == 0 {
		return
	}

	msg := models.NewPresenceChanged(entry, kind)
	for _, observer := range h.observersOwnedBy(owners) {
		h.trySend(observer, msg)
	}
}

// PresenceEntries returns a copy of the current presence set.
func (h *Hub) PresenceEntries() []models.PresenceEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]models.PresenceEntry, 0, len(h.presence))
	for _, entry := range h.presence {
		entries = append(entries, entry)
	}

	return entries
}
