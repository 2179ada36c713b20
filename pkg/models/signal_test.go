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

package models_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/goccy/go-json"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/models"
)

var _ = Describe("DecodeSignalMessage", func() {
	It("decodes a call offer", func() {
		msg, err := models.DecodeSignalMessage([]byte(`{"type":"offer","from":"conn-a","to":"conn-b","payload":{"sdp":"v=0"}}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(msg.Type).To(Equal(models.TypeOffer))
		Expect(msg.From).To(Equal("conn-a"))
		Expect(msg.To).To(Equal("conn-b"))
		Expect(string(msg.Payload)).To(MatchJSON(`{"sdp":"v=0"}`))
	})

	It("rejects malformed JSON", func() {
		_, err := models.DecodeSignalMessage([]byte(`{"type":`))
		Expect(err).To(HaveOccurred())
	})

	It("rejects unknown message types", func() {
		_, err := models.DecodeSignalMessage([]byte(`{"type":"telemetry","from":"conn-a"}`))
		Expect(err).To(MatchError(ContainSubstring("unknown message type")))
	})

	It("rejects a missing from field", func() {
		_, err := models.DecodeSignalMessage([]byte(`{"type":"offer","to":"conn-b"}`))
		Expect(err).To(MatchError(ContainSubstring("from")))
	})

	It("requires employeeName and entryId on register", func() {
		_, err := models.DecodeSignalMessage([]byte(`{"type":"register","from":"conn-a"}`))
		Expect(err).To(HaveOccurred())

		_, err = models.DecodeSignalMessage([]byte(`{"type":"register","from":"conn-a","employeeName":"Jamie"}`))
		Expect(err).To(HaveOccurred())

		msg, err := models.DecodeSignalMessage([]byte(`{"type":"register","from":"conn-a","employeeName":"Jamie","entryId":"emp-1"}`))
		Expect(err).ToNot(HaveOccurred())
		Expect(msg.EntryID).To(Equal("emp-1"))
	})
})

var _ = Describe("Bufferable", func() {
	It("covers exactly the call-setup kinds", func() {
		bufferable := map[models.MessageType]bool{
			models.TypeOffer:           true,
			models.TypeAnswer:          true,
			models.TypeICECandidate:    true,
			models.TypeRequestStream:   true,
			models.TypeRegister:        false,
			models.TypePresenceList:    false,
			models.TypePresenceChanged: false,
			models.TypeShiftEvent:      false,
		}
		for messageType, want := range bufferable {
			msg := &models.SignalMessage{Type: messageType}
			Expect(msg.Bufferable()).To(Equal(want), "type %s", messageType)
		}
	})
})

var _ = Describe("server-emitted messages", func() {
	It("builds a presence-changed message carrying the entry", func() {
		entry := models.PresenceEntry{EntryID: "emp-1", EmployeeName: "Jamie", ConnectedAt: time.Now()}
		msg := models.NewPresenceChanged(entry, models.PresenceDisconnected)

		Expect(msg.Type).To(Equal(models.TypePresenceChanged))
		Expect(msg.From).To(Equal("emp-1"))

		var payload models.PresenceChangedPayload
		Expect(json.Unmarshal(msg.Payload, &payload)).To(Succeed())
		Expect(payload.EmployeeName).To(Equal("Jamie"))
		Expect(payload.Kind).To(Equal(models.PresenceDisconnected))
	})

	It("encodes an empty presence list as an empty array, not null", func() {
		msg := models.NewPresenceList(nil)

		var entries []models.PresenceEntry
		Expect(json.Unmarshal(msg.Payload, &entries)).To(Succeed())
		Expect(string(msg.Payload)).To(Equal("[]"))
	})
})
