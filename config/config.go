// Copyright (c) 2026 The saga-tx developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the sagatx configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/pending"
	"github.com/solanasaga/saga-tx-go/submit"
)

const (
	// ConfigFileName is the name of the config file inside the data directory.
	ConfigFileName = "config.toml"

	// JournalFileName is the default journal database inside the data directory.
	JournalFileName = "journal.db"
)

// Duration is a time.Duration written as a Go duration string ("1s", "90s").
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDuration, text)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the sagatx settings.
type Config struct {
	Network    string `toml:"network"`
	RPCURL     string `toml:"rpc_url"`
	Commitment string `toml:"commitment"`

	SkipPreflight bool `toml:"skip_preflight"`
	RPCMaxRetries uint `toml:"rpc_max_retries"`

	MaxRetries    int      `toml:"max_retries"`
	RetryDelay    Duration `toml:"retry_delay"`
	MaxRetryDelay Duration `toml:"max_retry_delay"`

	PollInterval    Duration `toml:"poll_interval"`
	DeepLinkTimeout Duration `toml:"deep_link_timeout"`

	JournalPath string   `toml:"journal_path"`
	JournalTTL  Duration `toml:"journal_ttl"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// DefaultDataDir returns ~/.sagatx, or .sagatx if the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sagatx"
	}
	return filepath.Join(home, ".sagatx")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultConfig returns a devnet configuration with the submit defaults.
func DefaultConfig() Config {
	return Config{
		Network:         "devnet",
		Commitment:      string(network.CommitmentConfirmed),
		RPCMaxRetries:   submit.DefaultRPCMaxRetries,
		MaxRetries:      submit.DefaultMaxRetries,
		RetryDelay:      Duration(submit.DefaultRetryDelay),
		MaxRetryDelay:   Duration(submit.DefaultMaxRetryDelay),
		PollInterval:    Duration(submit.DefaultPollInterval),
		DeepLinkTimeout: Duration(submit.DefaultDeepLinkTimeout),
		JournalPath:     filepath.Join(DefaultDataDir(), JournalFileName),
		JournalTTL:      Duration(pending.DefaultTTL),
		LogLevel:        "info",
	}
}

// LoadConfig reads a TOML config file. Keys absent from the file keep their
// default values; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as TOML, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Marshal encodes cfg as a commented TOML document.
func Marshal(cfg Config) ([]byte, error) {
	body, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}
	return append([]byte("# sagatx configuration\n\n"), body...), nil
}

// RPCConfig resolves the RPC endpoint from flags, environment and cfg, in
// that order of priority, falling back to the network preset.
func (c Config) RPCConfig(flags *network.RPCConfig, env map[string]string) (*network.RPCConfig, error) {
	var merged network.RPCConfig
	if flags != nil {
		merged = *flags
	}
	if merged.URL == "" && env["SAGA_RPC_URL"] == "" {
		merged.URL = c.RPCURL
	}
	return network.ResolveConfig(&merged, env, c.Network)
}

// SubmitOptions converts the retry and send settings to submit.Options.
func (c Config) SubmitOptions() submit.Options {
	opts := submit.DefaultOptions()
	if c.Commitment != "" {
		opts.Commitment = network.Commitment(c.Commitment)
	}
	opts.SkipPreflight = c.SkipPreflight
	opts.RPCMaxRetries = c.RPCMaxRetries
	if c.MaxRetries > 0 {
		opts.MaxRetries = c.MaxRetries
	}
	if c.RetryDelay > 0 {
		opts.RetryDelay = c.RetryDelay.Std()
	}
	if c.MaxRetryDelay > 0 {
		opts.MaxRetryDelay = c.MaxRetryDelay.Std()
	}
	return opts
}
