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

package env_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/env"
)

var _ = Describe("Env", func() {
	const key = "ATTENDANCE_HUB_TEST_VAR"

	Describe("GetAsString", func() {
		It("returns the value when set", func() {
			GinkgoT().Setenv(key, "hello")
			value, err := env.GetAsString(key, false, "fallback")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("hello"))
		})

		It("falls back to the default when unset", func() {
			value, err := env.GetAsString(key, false, "fallback")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("fallback"))
		})

		It("errors when a required variable is unset", func() {
			_, err := env.GetAsString(key, true, "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetAsInt", func() {
		It("parses an integer value", func() {
			GinkgoT().Setenv(key, "42")
			value, err := env.GetAsInt(key, false, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(42))
		})

		It("returns the default on a malformed optional value", func() {
			GinkgoT().Setenv(key, "not-a-number")
			value, err := env.GetAsInt(key, false, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(7))
		})

		It("errors on a malformed required value", func() {
			GinkgoT().Setenv(key, "not-a-number")
			_, err := env.GetAsInt(key, true, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetAsDuration", func() {
		It("parses a duration value", func() {
			GinkgoT().Setenv(key, "90s")
			value, err := env.GetAsDuration(key, false, time.Minute)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(90 * time.Second))
		})

		It("returns the default on a malformed optional value", func() {
			GinkgoT().Setenv(key, "soon")
			value, err := env.GetAsDuration(key, false, time.Minute)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(time.Minute))
		})
	})
})
