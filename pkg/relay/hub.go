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

// Package relay is the in-process attendance event and signaling relay: a
// connection registry, a per-destination pending buffer, a presence tracker
// and a message router over long-lived event stream connections. There is no
// external broker; everything here is process-local state behind one mutex.
package relay

import (
	"context"
	"sync"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/constants"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/directory"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/metrics"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/models"
	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"
)

// Role tags a connection as the observed party or an observing supervisor.
type Role string

const (
	// RoleSubject is the party being observed.
	RoleSubject Role = "subject"
	// RoleObserver is the consuming party, scoped to the subjects it owns.
	RoleObserver Role = "observer"
)

// Frame is one unit written to an event stream: either a data frame carrying
// an encoded SignalMessage or a keep-alive comment.
type Frame struct {
	Data    []byte
	Comment bool
}

// subscriber is one open connection. The send channel is drained by the
// connection's stream handler; done is closed on eviction so a replaced or
// pruned handler stops waiting.
type subscriber struct {
	id       string
	role     Role
	owner    string // observer role only
	identity string // subject identity, set once a register message arrives
	send     chan Frame
	done     chan struct{}
}

// pendingQueue buffers messages for one absent connection id, oldest first.
type pendingQueue struct {
	msgs []*models.SignalMessage
}

// Hub owns all relay state. Constructed once at process start and injected
// into the HTTP handlers; never global.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*subscriber
	presence   map[string]models.PresenceEntry
	pending    *expiremap.ExpireMap[string, *pendingQueue]
	dir        directory.Directory
	pendingCap int
	log        *zap.SugaredLogger
}

// NewHub creates an empty hub using the given ownership directory.
func NewHub(dir directory.Directory, pendingCap int) *Hub {
	return &Hub{
		subs:       make(map[string]*subscriber),
		presence:   make(map[string]models.PresenceEntry),
		pending:    expiremap.NewEx[string, *pendingQueue](constants.PendingQueueCullInterval, constants.PendingQueueTTL),
		dir:        dir,
		pendingCap: pendingCap,
		log:        logger.For(logger.ComponentRelay),
	}
}

// Register opens a connection under the given id, replacing any prior entry
// for that id, and immediately replays any pending messages in insertion
// order. The returned send channel is the connection's outbound frame stream;
// done is closed when the hub evicts the connection.
func (h *Hub) Register(id string, role Role, owner string) (send <-chan Frame, done <-chan struct{}) {
	sub := &subscriber{
		id:    id,
		role:  role,
		owner: owner,
		send:  make(chan Frame, constants.SendChannelSize),
		done:  make(chan struct{}),
	}

	var departed models.PresenceEntry
	subjectDeparted := false

	h.mu.Lock()
	if old, ok := h.subs[id]; ok {
		close(old.done)
		metrics.DecOpenConnections(string(old.role))

		if old.role == RoleSubject {
			// A subject reconnecting under the same id keeps its presence
			// association; a role change ends it.
			if role == RoleSubject {
				sub.identity = old.identity
			} else if old.identity != "" {
				if entry, found := h.presence[old.identity]; found {
					departed = entry
					subjectDeparted = true
					delete(h.presence, old.identity)
				}
			}
		}
	}
	h.subs[id] = sub
	queued := h.takePendingLocked(id)
	h.mu.Unlock()

	metrics.IncOpenConnections(string(role))
	h.log.Infof("Registered connection %s (%s)", id, role)

	if subjectDeparted {
		go h.notifyPresenceChanged(context.Background(), departed, models.PresenceDisconnected)
	}

	// Best-effort drain: a failure mid-drain evicts the connection and
	// discards the remainder, it does not requeue.
	for i, msg := range queued {
		if !h.trySend(sub, msg) {
			for range queued[i+1:] {
				metrics.IncMessagesDropped(metrics.ReasonDrainAborted)
			}

			break
		}
	}

	return sub.send, sub.done
}

// Unregister tears down whatever connection is currently registered under
// id. Callers holding a handle from Register must use Release instead: a
// handler whose connection was already replaced would otherwise remove the
// replacement.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if !ok {
		h.mu.Unlock()

		return
	}

	h.removeLocked(sub)
}

// Release tears down the connection only if the done handle still matches
// the registered entry, so a stale handler (replaced or evicted) cannot
// touch its successor. Removal from the registry is synchronous; the
// presence fan-out for a subject runs detached because the ownership lookup
// must not block cleanup.
func (h *Hub) Release(id string, done <-chan struct{}) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if !ok || sub.done != done {
		h.mu.Unlock()

		return
	}

	h.removeLocked(sub)
}

// removeLocked deletes the subscriber, closes its done channel and spawns
// the presence departure fan-out. Caller holds h.mu and has verified sub is
// the registered entry; the lock is released on return.
func (h *Hub) removeLocked(sub *subscriber) {
	delete(h.subs, sub.id)
	close(sub.done)

	var entry models.PresenceEntry
	hadPresence := false
	if sub.role == RoleSubject && sub.identity != "" {
		if e, found := h.presence[sub.identity]; found {
			entry = e
			hadPresence = true
			delete(h.presence, sub.identity)
		}
	}
	h.mu.Unlock()

	metrics.DecOpenConnections(string(sub.role))
	h.log.Infof("Unregistered connection %s (%s)", sub.id, sub.role)

	if hadPresence {
		// Fire-and-forget: failures are swallowed and logged inside.
		go h.notifyPresenceChanged(context.Background(), entry, models.PresenceDisconnected)
	}
}

// Deliver routes one message to one connection id. A registered destination
// gets a non-blocking channel write; a full or torn-down channel counts as a
// write failure and evicts the connection. An absent destination gets the
// message buffered if its kind is bufferable, otherwise dropped.
func (h *Hub) Deliver(id string, msg *models.SignalMessage) {
	h.mu.RLock()
	sub, ok := h.subs[id]
	h.mu.RUnlock()

	if ok {
		h.trySend(sub, msg)

		return
	}

	if !msg.Bufferable() {
		metrics.IncMessagesDropped(metrics.ReasonNotBufferable)

		return
	}

	h.mu.Lock()
	// The destination may have registered between the two lock takes.
	if sub, ok := h.subs[id]; ok {
		h.mu.Unlock()
		h.trySend(sub, msg)

		return
	}

	queue := h.pendingLocked(id)
	if len(queue.msgs) >= h.pendingCap {
		queue.msgs = queue.msgs[1:]
	}
	queue.msgs = append(queue.msgs, msg)
	h.pending.Set(id, queue)
	h.mu.Unlock()

	metrics.IncMessagesBuffered()
}

// trySend encodes and enqueues a message for a registered subscriber,
// evicting it on failure. Returns false if nothing was enqueued.
func (h *Hub) trySend(sub *subscriber, msg *models.SignalMessage) bool {
	data, err := msg.Encode()
	if err != nil {
		h.log.Errorf("Failed to encode %s message for %s: %s", msg.Type, sub.id, err)

		return false
	}

	return h.push(sub, Frame{Data: data})
}

// push performs the non-blocking channel write shared by delivery and
// heartbeats. A connection whose buffer is full cannot keep up and is pruned
// so it never delays anyone else.
func (h *Hub) push(sub *subscriber, frame Frame) bool {
	select {
	case <-sub.done:
		return false
	case sub.send <- frame:
		return true
	default:
		h.log.Warnf("Connection %s cannot keep up, evicting", sub.id)
		metrics.IncDeliveryEvictions()
		h.Release(sub.id, sub.done)

		return false
	}
}

// pendingLocked returns the pending queue for id, creating it if needed.
// Caller holds h.mu.
func (h *Hub) pendingLocked(id string) *pendingQueue {
	if queue, ok := h.pending.Load(id); ok {
		return *queue
	}

	return &pendingQueue{}
}

// takePendingLocked removes and returns all buffered messages for id. Caller
// holds h.mu.
func (h *Hub) takePendingLocked(id string) []*models.SignalMessage {
	queue, ok := h.pending.Load(id)
	if !ok {
		return nil
	}

	msgs := (*queue).msgs
	(*queue).msgs = nil

	return msgs
}

// snapshot returns the current subscribers without holding the lock during
// any subsequent sends.
func (h *Hub) snapshot() []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}

	return subs
}

// observersOwnedBy returns the registered observers whose owner identity is
// in the given set.
func (h *Hub) observersOwnedBy(owners map[string]struct{}) []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*subscriber
	for _, sub := range h.subs {
		if sub.role != RoleObserver {
			continue
		}
		if _, ok := owners[sub.owner]; ok {
			out = append(out, sub)
		}
	}

	return out
}

// IsConnected reports whether a connection id is currently registered.
func (h *Hub) IsConnected(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.subs[id]

	return ok
}

// OpenConnections returns the number of registered connections.
func (h *Hub) OpenConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// PendingDepth returns how many messages are buffered for a connection id.
func (h *Hub) PendingDepth(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	queue, ok := h.pending.Load(id)
	if !ok {
		return 0
	}

	return len((*queue).msgs)
}
