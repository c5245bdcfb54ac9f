// Copyright (c) 2026 The saga-tx developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidNetwork indicates the network name is not recognized.
	ErrInvalidNetwork = errors.New("config: invalid network (must be \"mainnet-beta\", \"devnet\", \"testnet\", or \"localnet\")")

	// ErrMissingRPCURL indicates a network without a preset has no rpc_url.
	ErrMissingRPCURL = errors.New("config: rpc_url is required for this network")

	// ErrInvalidRPCURL indicates the RPC URL is malformed.
	ErrInvalidRPCURL = errors.New("config: invalid rpc url")

	// ErrInvalidCommitment indicates the commitment level is not recognized.
	ErrInvalidCommitment = errors.New("config: invalid commitment (must be \"processed\", \"confirmed\", or \"finalized\")")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrInvalidRetry indicates a retry count or delay is out of range.
	ErrInvalidRetry = errors.New("config: invalid retry settings")

	// ErrInvalidDuration indicates a duration value could not be parsed or is not positive.
	ErrInvalidDuration = errors.New("config: invalid duration")

	// ErrEmptyJournalPath indicates the journal path is empty.
	ErrEmptyJournalPath = errors.New("config: journal path must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigFile indicates the config file is not valid TOML.
	ErrInvalidConfigFile = errors.New("config: invalid configuration file")
)
