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

package models

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// MessageType is the tag of the SignalMessage union. The set is closed:
// decoding rejects anything else.
type MessageType string

const (
	// TypeOffer is a WebRTC call offer forwarded between two connections.
	TypeOffer MessageType = "offer"
	// TypeAnswer is a WebRTC call answer forwarded between two connections.
	TypeAnswer MessageType = "answer"
	// TypeICECandidate is an ICE candidate forwarded between two connections.
	TypeICECandidate MessageType = "ice-candidate"
	// TypeRegister announces a subject's availability and display metadata.
	TypeRegister MessageType = "register"
	// TypeRequestStream asks a subject to start streaming to the requester.
	TypeRequestStream MessageType = "request-stream"
	// TypePresenceList carries the full entitled presence set to an observer.
	TypePresenceList MessageType = "presence-list"
	// TypePresenceChanged notifies entitled observers of a connect/disconnect.
	TypePresenceChanged MessageType = "presence-changed"
	// TypeShiftEvent notifies entitled observers of a punch state transition.
	TypeShiftEvent MessageType = "shift-event"
)

const (
	// PresenceConnected marks a presence-changed event for a subject going online.
	PresenceConnected = "connected"
	// PresenceDisconnected marks a presence-changed event for a subject going offline.
	PresenceDisconnected = "disconnected"
)

// SignalMessage is the single wire shape for everything the relay forwards or
// emits. Payload stays opaque for the forwarded call-setup kinds; the relay
// never inspects media signaling content.
type SignalMessage struct {
	Type         MessageType     `json:"type"`
	From         string          `json:"from"`
	To           string          `json:"to,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	EmployeeName string          `json:"employeeName,omitempty"`
	EntryID      string          `json:"entryId,omitempty"`
}

// PresenceChangedPayload is the payload of a presence-changed message.
type PresenceChangedPayload struct {
	EntryID      string `json:"entryId"`
	EmployeeName string `json:"employeeName,omitempty"`
	Kind         string `json:"kind"`
}

// ShiftEventPayload is the payload of a shift-event message.
type ShiftEventPayload struct {
	Identity        string    `json:"identity"`
	Action          string    `json:"action"`
	ResultingStatus string    `json:"resultingStatus"`
	Timestamp       time.Time `json:"timestamp"`
}

// Bufferable reports whether this message kind may be queued for a
// destination that is not currently connected. Register and presence kinds
// are deliberately excluded: presence state is rebuilt from scratch on
// reconnect instead of replayed.
func (m *SignalMessage) Bufferable() bool {
	switch m.Type {
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeRequestStream:
		return true
	default:
		return false
	}
}

// DecodeSignalMessage parses and validates an inbound signaling message.
// Unknown types and messages missing required fields are rejected.
func DecodeSignalMessage(data []byte) (*SignalMessage, error) {
	var msg SignalMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed signal message: %w", err)
	}

	switch msg.Type {
	case TypeOffer, TypeAnswer, TypeICECandidate, TypeRequestStream:
	case TypeRegister:
		if msg.EmployeeName == "" || msg.EntryID == "" {
			return nil, fmt.Errorf("register message requires employeeName and entryId")
		}
	case TypePresenceList, TypePresenceChanged, TypeShiftEvent:
		// Server-emitted kinds; clients have no business sending them but the
		// shape is valid.
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}

	if msg.From == "" {
		return nil, fmt.Errorf("signal message requires a from field")
	}

	return &msg, nil
}

// Encode marshals the message for the wire.
func (m *SignalMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// NewPresenceChanged builds a presence-changed message for a subject.
func NewPresenceChanged(entry PresenceEntry, kind string) *SignalMessage {
	payload, _ := json.Marshal(PresenceChangedPayload{
		EntryID:      entry.EntryID,
		EmployeeName: entry.EmployeeName,
		Kind:         kind,
	})

	return &SignalMessage{
		Type:    TypePresenceChanged,
		From:    entry.EntryID,
		Payload: payload,
	}
}

// NewPresenceList builds a presence-list message from the entries an observer
// is entitled to see.
func NewPresenceList(entries []PresenceEntry) *SignalMessage {
	if entries == nil {
		entries = []PresenceEntry{}
	}
	payload, _ := json.Marshal(entries)

	return &SignalMessage{
		Type:    TypePresenceList,
		From:    "server",
		Payload: payload,
	}
}

// NewShiftEvent builds a shift-event message for a punch transition.
func NewShiftEvent(identity string, action string, resultingStatus string, timestamp time.Time) *SignalMessage {
	payload, _ := json.Marshal(ShiftEventPayload{
		Identity:        identity,
		Action:          action,
		ResultingStatus: resultingStatus,
		Timestamp:       timestamp,
	})

	return &SignalMessage{
		Type:    TypeShiftEvent,
		From:    identity,
		Payload: payload,
	}
}
