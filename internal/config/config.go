// Package config carries the ambient knobs the core pipeline and
// cmd/verifyc need that spec.md itself leaves to the embedder: prover
// timeouts, whether to emit obligations at all, and where the
// persistent item cache lives. Shape kept from the teacher's own
// internal/config (a package-level Version string, boolean mode
// flags, shared constant tables); content replaced since this
// project's ambient knobs are verification knobs, not source-file-
// extension/builtin-name tables.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is this build's version string, set at build time the same
// way the teacher sets its own (ldflags, or editing this file directly).
var Version = "0.1.0"

// IsTestMode mirrors the teacher's own flag. Nothing in this module
// sets it; cmd/verifyc has no test subcommand.
var IsTestMode = false

// Config is the root of verifyconfig.yaml.
type Config struct {
	// Prover holds timeouts and transport settings for internal/proverclient.
	Prover ProverConfig `yaml:"prover"`

	// Cache holds the on-disk path internal/cache opens its SQLite
	// database at.
	Cache CacheConfig `yaml:"cache"`

	// EmitObligations toggles whether internal/vcgen's stage actually
	// runs; false lets a driver run Resolve/Flow/Version alone (e.g. a
	// "just type-check" mode) without paying VC-generation cost.
	EmitObligations bool `yaml:"emitObligations"`
}

// ProverConfig configures internal/proverclient's gRPC transport.
type ProverConfig struct {
	// Address is the prover service's dial target ("host:port").
	Address string `yaml:"address"`

	// Timeout bounds a single obligation-batch Check call.
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig configures internal/cache's SQLite-backed handle.
type CacheConfig struct {
	// Path is the SQLite database file; "" means in-memory only.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no verifyconfig.yaml is
// present: a five-second local prover timeout, an in-memory cache, and
// obligation emission on.
func Default() *Config {
	return &Config{
		Prover: ProverConfig{
			Address: "localhost:9321",
			Timeout: 5 * time.Second,
		},
		Cache:           CacheConfig{Path: ""},
		EmitObligations: true,
	}
}

// Load reads verifyconfig.yaml at path, returning Default() unmodified
// if the file doesn't exist (an explicit config file is optional —
// every knob it could set already has a sensible default).
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
