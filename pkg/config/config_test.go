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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/config"
)

var _ = Describe("Load", func() {
	var log = zap.NewNop().Sugar()

	writeConfig := func(content string) {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		GinkgoT().Setenv("ATTENDANCE_HUB_CONFIG_PATH", path)
	}

	It("uses the defaults when no file exists", func() {
		GinkgoT().Setenv("ATTENDANCE_HUB_CONFIG_PATH", filepath.Join(GinkgoT().TempDir(), "missing.yaml"))

		cfg, err := config.Load(log)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.HTTPPort).To(Equal(8080))
		Expect(cfg.HeartbeatInterval).To(Equal(config.Duration(25 * time.Second)))
		Expect(cfg.PendingBufferCap).To(Equal(30))
		Expect(cfg.Directory.Mode).To(Equal(config.DirectoryModeStatic))
	})

	It("reads settings from the config file", func() {
		writeConfig(`
httpPort: 9090
heartbeatInterval: 10s
observers:
  - identity: owner-a
    token: secret-a
directory:
  mode: static
  ownership:
    emp-1: [owner-a]
`)

		cfg, err := config.Load(log)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.HTTPPort).To(Equal(9090))
		Expect(cfg.HeartbeatInterval).To(Equal(config.Duration(10 * time.Second)))
		Expect(cfg.Directory.Ownership).To(HaveKeyWithValue("emp-1", []string{"owner-a"}))
	})

	It("lets environment variables override the file", func() {
		writeConfig("httpPort: 9090\n")
		GinkgoT().Setenv("HTTP_PORT", "7070")

		cfg, err := config.Load(log)
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.HTTPPort).To(Equal(7070))
	})

	It("rejects an http directory without a URL", func() {
		writeConfig("directory:\n  mode: http\n")

		_, err := config.Load(log)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown directory mode", func() {
		writeConfig("directory:\n  mode: ldap\n")

		_, err := config.Load(log)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-positive heartbeat interval", func() {
		writeConfig("heartbeatInterval: 0s\n")

		_, err := config.Load(log)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ObserverIdentity", func() {
	cfg := config.DefaultConfig()
	cfg.Observers = []config.ObserverAccount{
		{Identity: "owner-a", Token: "secret-a"},
		{Identity: "owner-b", Token: "secret-b"},
	}

	It("resolves a known token", func() {
		identity, ok := cfg.ObserverIdentity("secret-b")
		Expect(ok).To(BeTrue())
		Expect(identity).To(Equal("owner-b"))
	})

	It("rejects unknown and empty tokens", func() {
		_, ok := cfg.ObserverIdentity("wrong")
		Expect(ok).To(BeFalse())

		_, ok = cfg.ObserverIdentity("")
		Expect(ok).To(BeFalse())
	})
})
