package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/config"
	"github.com/solanasaga/saga-tx-go/network"
)

// app carries the state shared by every subcommand after PersistentPreRunE.
type app struct {
	home       string
	configPath string
	network    string
	rpc        network.RPCConfig
	logLevel   string
	noColor    bool

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "sagatx",
		Short: "Submit and track Solana transactions",
		Long: `sagatx builds, signs, sends and confirms Solana transactions.

Every attempt uses a fresh blockhash, retries only failures that are safe to
retry, and records its progress in a local journal so an interrupted run can
be inspected later.

Examples:
  # Create a wallet and encrypted keystore
  sagatx keygen

  # Send a memo on devnet and wait for confirmation
  sagatx send-memo "claim-bet-42"

  # Show transactions that never reached a terminal phase
  sagatx pending list`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&a.home, "home", "H", config.DefaultDataDir(),
		"Base directory for the keystore, journal and config")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default <home>/config.toml)")
	cmd.PersistentFlags().StringVar(&a.network, "network", "",
		"Cluster: mainnet-beta, devnet, testnet or localnet")
	cmd.PersistentFlags().StringVar(&a.rpc.URL, "rpc-url", "",
		"JSON-RPC endpoint, overrides SAGA_RPC_URL and the config file")
	cmd.PersistentFlags().StringVar(&a.rpc.Token, "rpc-token", "",
		"Bearer token for the RPC endpoint")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false,
		"Disable colored output")

	cmd.AddCommand(
		newKeygenCmd(a),
		newSendMemoCmd(a),
		newPendingCmd(a),
		newConfigCmd(a),
	)
	return cmd
}

// setup loads the config file, applies flag overrides, validates the result
// and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	color.NoColor = a.noColor || color.NoColor

	path := a.configPath
	if path == "" {
		path = config.ConfigPath(a.home)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil && !(errors.Is(err, config.ErrConfigNotFound) && a.configPath == "") {
		return err
	}
	if errors.Is(err, config.ErrConfigNotFound) {
		// Without a file the journal lives under --home.
		cfg.JournalPath = filepath.Join(a.home, config.JournalFileName)
	}

	if a.network != "" {
		cfg.Network = a.network
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if cfg.Network == "mainnet-beta" && cfg.RPCURL == "" && (a.rpc.URL != "" || os.Getenv("SAGA_RPC_URL") != "") {
		// Satisfies validation; RPCConfig still applies the flag or environment.
		cfg.RPCURL = firstNonEmpty(a.rpc.URL, os.Getenv("SAGA_RPC_URL"))
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(strings.ToLower(cfg.LogLevel), cfg.LogFile)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.logger = logger
	return nil
}

// rpcConfig resolves the endpoint: flags, then environment, then config file,
// then the network preset.
func (a *app) rpcConfig() (*network.RPCConfig, error) {
	return a.cfg.RPCConfig(&a.rpc, environ())
}

func (a *app) keystorePath() string {
	return filepath.Join(a.home, "keystore.json")
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
