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

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/constants"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/env"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// DirectoryModeStatic serves ownership lookups from the config file.
	DirectoryModeStatic = "static"
	// DirectoryModeHTTP serves ownership lookups from an external service.
	DirectoryModeHTTP = "http"
)

// Duration is a time.Duration that decodes from YAML duration strings like
// "25s", which plain time.Duration does not.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)

	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ObserverAccount maps an opaque credential to an owner identity. Token
// issuance happens elsewhere; this service only resolves tokens it is handed.
type ObserverAccount struct {
	Identity string `yaml:"identity"`
	Token    string `yaml:"token"`
}

// DirectoryConfig selects and parameterizes the ownership directory adapter.
type DirectoryConfig struct {
	Mode string `yaml:"mode"`
	// URL of the external directory service, used in http mode.
	URL string `yaml:"url"`
	// Ownership maps a subject identity to its owning observer identities,
	// used in static mode.
	Ownership map[string][]string `yaml:"ownership"`
}

// AttendanceHubConfig is the full service configuration, loaded once at
// process start from a YAML file with environment variable overrides.
type AttendanceHubConfig struct {
	HTTPPort    int `yaml:"httpPort"`
	MetricsPort int `yaml:"metricsPort"`
	HealthPort  int `yaml:"healthPort"`

	HeartbeatInterval Duration `yaml:"heartbeatInterval"`
	PendingBufferCap  int      `yaml:"pendingBufferCap"`

	// RedisURI enables the redis-backed shift ledger when non-empty.
	RedisURI      string `yaml:"redisURI"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`

	Directory DirectoryConfig   `yaml:"directory"`
	Observers []ObserverAccount `yaml:"observers"`
}

// DefaultConfig returns the configuration used when no file and no overrides
// are present.
func DefaultConfig() *AttendanceHubConfig {
	return &AttendanceHubConfig{
		HTTPPort:          8080,
		MetricsPort:       8081,
		HealthPort:        8086,
		HeartbeatInterval: Duration(constants.DefaultHeartbeatInterval),
		PendingBufferCap:  constants.DefaultPendingBufferCap,
		Directory: DirectoryConfig{
			Mode:      DirectoryModeStatic,
			Ownership: map[string][]string{},
		},
	}
}

// Load reads the YAML config file (path from ATTENDANCE_HUB_CONFIG_PATH,
// default ./config.yaml), applies environment variable overrides and
// validates the result. A missing file is not an error; the defaults plus
// overrides apply.
func Load(log *zap.SugaredLogger) (*AttendanceHubConfig, error) {
	cfg := DefaultConfig()

	path, err := env.GetAsString("ATTENDANCE_HUB_CONFIG_PATH", false, "./config.yaml")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		log.Infof("Loaded config from %s", path)
	case os.IsNotExist(err):
		log.Infof("No config file at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets deployments override individual settings without
// touching the config file, mirroring how the file manager layers env vars
// over persisted config.
func applyEnvOverrides(cfg *AttendanceHubConfig) error {
	var err error

	if cfg.HTTPPort, err = env.GetAsInt("HTTP_PORT", false, cfg.HTTPPort); err != nil {
		return err
	}
	if cfg.MetricsPort, err = env.GetAsInt("METRICS_PORT", false, cfg.MetricsPort); err != nil {
		return err
	}
	if cfg.HealthPort, err = env.GetAsInt("HEALTH_PORT", false, cfg.HealthPort); err != nil {
		return err
	}
	heartbeat, err := env.GetAsDuration("HEARTBEAT_INTERVAL", false, time.Duration(cfg.HeartbeatInterval))
	if err != nil {
		return err
	}
	cfg.HeartbeatInterval = Duration(heartbeat)
	if cfg.PendingBufferCap, err = env.GetAsInt("PENDING_BUFFER_CAP", false, cfg.PendingBufferCap); err != nil {
		return err
	}
	if cfg.RedisURI, err = env.GetAsString("REDIS_URI", false, cfg.RedisURI); err != nil {
		return err
	}
	if cfg.RedisPassword, err = env.GetAsString("REDIS_PASSWORD", false, cfg.RedisPassword); err != nil {
		return err
	}
	if cfg.RedisDB, err = env.GetAsInt("REDIS_DB", false, cfg.RedisDB); err != nil {
		return err
	}
	if cfg.Directory.Mode, err = env.GetAsString("DIRECTORY_MODE", false, cfg.Directory.Mode); err != nil {
		return err
	}
	if cfg.Directory.URL, err = env.GetAsString("DIRECTORY_URL", false, cfg.Directory.URL); err != nil {
		return err
	}

	return nil
}

func (c *AttendanceHubConfig) validate() error {
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeatInterval must be positive, got %s", time.Duration(c.HeartbeatInterval))
	}
	if c.PendingBufferCap <= 0 {
		return fmt.Errorf("pendingBufferCap must be positive, got %d", c.PendingBufferCap)
	}
	if c.Directory.Mode != DirectoryModeStatic && c.Directory.Mode != DirectoryModeHTTP {
		return fmt.Errorf("directory.mode must be %q or %q, got %q", DirectoryModeStatic, DirectoryModeHTTP, c.Directory.Mode)
	}
	if c.Directory.Mode == DirectoryModeHTTP && c.Directory.URL == "" {
		return fmt.Errorf("directory.url is required in http mode")
	}

	return nil
}

// ObserverIdentity resolves an observer credential to its owner identity.
// The second return value is false for unknown tokens.
func (c *AttendanceHubConfig) ObserverIdentity(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for _, account := range c.Observers {
		if account.Token == token {
			return account.Identity, true
		}
	}

	return "", false
}
