// Copyright (c) 2026 The saga-tx developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/solanasaga/saga-tx-go/network"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validNetworks lists the accepted cluster names. Only mainnet-beta lacks a
// preset and needs rpc_url.
var validNetworks = map[string]bool{
	"mainnet-beta": true,
	"devnet":       true,
	"testnet":      true,
	"localnet":     true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if !validNetworks[cfg.Network] {
		return ErrInvalidNetwork
	}

	if cfg.RPCURL == "" {
		if _, ok := network.NetworkPresets[cfg.Network]; !ok {
			return ErrMissingRPCURL
		}
	} else if err := validateURL(cfg.RPCURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRPCURL, err)
	}

	if _, err := network.ParseCommitment(cfg.Commitment); err != nil {
		return ErrInvalidCommitment
	}

	if cfg.MaxRetries < 1 {
		return fmt.Errorf("%w: max_retries must be at least 1", ErrInvalidRetry)
	}
	if cfg.RetryDelay <= 0 || cfg.MaxRetryDelay <= 0 {
		return fmt.Errorf("%w: retry delays must be positive", ErrInvalidRetry)
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		return fmt.Errorf("%w: max_retry_delay is below retry_delay", ErrInvalidRetry)
	}

	if cfg.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval", ErrInvalidDuration)
	}
	if cfg.DeepLinkTimeout <= 0 {
		return fmt.Errorf("%w: deep_link_timeout", ErrInvalidDuration)
	}
	if cfg.JournalTTL <= 0 {
		return fmt.Errorf("%w: journal_ttl", ErrInvalidDuration)
	}

	if cfg.JournalPath == "" {
		return ErrEmptyJournalPath
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
