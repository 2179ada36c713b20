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

package directory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/directory"
)

var _ = Describe("StaticDirectory", func() {
	var dir *directory.StaticDirectory

	BeforeEach(func() {
		dir = directory.NewStaticDirectory(map[string][]string{
			"emp-1": {"owner-a"},
			"emp-2": {"owner-a", "owner-b"},
		})
	})

	It("resolves owners of a subject", func() {
		owners := dir.OwnersOf(context.Background(), "emp-2")
		Expect(owners).To(HaveLen(2))
		Expect(owners).To(HaveKey("owner-a"))
		Expect(owners).To(HaveKey("owner-b"))
	})

	It("resolves subjects of an owner", func() {
		subjects := dir.SubjectsOf(context.Background(), "owner-a")
		Expect(subjects).To(HaveLen(2))
		Expect(subjects).To(HaveKey("emp-1"))
		Expect(subjects).To(HaveKey("emp-2"))
	})

	It("returns an empty set for unknown identities", func() {
		Expect(dir.OwnersOf(context.Background(), "nobody")).To(BeEmpty())
		Expect(dir.SubjectsOf(context.Background(), "nobody")).To(BeEmpty())
	})

	It("hands out copies, not internal state", func() {
		owners := dir.OwnersOf(context.Background(), "emp-1")
		owners["injected"] = struct{}{}
		Expect(dir.OwnersOf(context.Background(), "emp-1")).ToNot(HaveKey("injected"))
	})
})

var _ = Describe("HTTPDirectory", func() {
	It("queries the owners endpoint and caches the result", func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			Expect(r.URL.Path).To(Equal("/owners"))
			Expect(r.URL.Query().Get("subject")).To(Equal("emp-1"))
			w.Write([]byte(`["owner-a","owner-b"]`))
		}))
		defer server.Close()

		dir := directory.NewHTTPDirectory(server.URL)

		owners := dir.OwnersOf(context.Background(), "emp-1")
		Expect(owners).To(HaveLen(2))
		Expect(owners).To(HaveKey("owner-a"))

		owners = dir.OwnersOf(context.Background(), "emp-1")
		Expect(owners).To(HaveLen(2))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("queries the subjects endpoint", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/subjects"))
			Expect(r.URL.Query().Get("owner")).To(Equal("owner-a"))
			w.Write([]byte(`["emp-1"]`))
		}))
		defer server.Close()

		dir := directory.NewHTTPDirectory(server.URL)
		Expect(dir.SubjectsOf(context.Background(), "owner-a")).To(HaveKey("emp-1"))
	})

	It("fails closed when the service errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		dir := directory.NewHTTPDirectory(server.URL)
		Expect(dir.OwnersOf(context.Background(), "emp-1")).To(BeEmpty())
	})

	It("fails closed when the service is unreachable", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		dir := directory.NewHTTPDirectory(server.URL)
		Expect(dir.OwnersOf(context.Background(), "emp-1")).To(BeEmpty())
	})

	It("fails closed on a malformed body without retrying", func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(`{"not":"an array"}`))
		}))
		defer server.Close()

		dir := directory.NewHTTPDirectory(server.URL)
		Expect(dir.OwnersOf(context.Background(), "emp-1")).To(BeEmpty())
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("recovers after a transient failure", func() {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}
			w.Write([]byte(`["owner-a"]`))
		}))
		defer server.Close()

		dir := directory.NewHTTPDirectory(server.URL)
		Expect(dir.OwnersOf(context.Background(), "emp-1")).To(HaveKey("owner-a"))
	})
})
