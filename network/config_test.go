package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkPresets(t *testing.T) {
	tests := []struct {
		name    string
		network string
		url     string
	}{
		{"devnet defaults", "devnet", "https://api.devnet.solana.com"},
		{"testnet defaults", "testnet", "https://api.testnet.solana.com"},
		{"localnet defaults", "localnet", "http://127.0.0.1:8899"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, ok := NetworkPresets[tt.network]
			require.True(t, ok, "preset should exist for %s", tt.network)
			assert.Equal(t, tt.url, preset.URL)
		})
	}
}

func TestMainnetHasNoPreset(t *testing.T) {
	_, ok := NetworkPresets["mainnet-beta"]
	assert.False(t, ok, "mainnet-beta should not have a default preset")
}

func TestResolveConfigFlagsOverrideAll(t *testing.T) {
	flags := &RPCConfig{URL: "http://custom:9999", Token: "secret"}
	env := map[string]string{"SAGA_RPC_URL": "http://env:1", "SAGA_RPC_TOKEN": "envtoken"}
	cfg, err := ResolveConfig(flags, env, "devnet")
	require.NoError(t, err)
	assert.Equal(t, "http://custom:9999", cfg.URL)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "devnet", cfg.Network)
}

func TestResolveConfigEnvOverridesPreset(t *testing.T) {
	env := map[string]string{"SAGA_RPC_URL": "http://env-node:8899"}
	cfg, err := ResolveConfig(nil, env, "localnet")
	require.NoError(t, err)
	assert.Equal(t, "http://env-node:8899", cfg.URL)
	assert.Empty(t, cfg.Token)
}

func TestResolveConfigPresetFallback(t *testing.T) {
	cfg, err := ResolveConfig(nil, nil, "devnet")
	require.NoError(t, err)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.URL)
}

func TestResolveConfigMainnetRequiresExplicit(t *testing.T) {
	_, err := ResolveConfig(nil, nil, "mainnet-beta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mainnet-beta")

	cfg, err := ResolveConfig(&RPCConfig{URL: "https://rpc.example"}, nil, "mainnet-beta")
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", cfg.URL)
}

func TestResolveConfigPartialFlags(t *testing.T) {
	flags := &RPCConfig{Token: "only-token"}
	cfg, err := ResolveConfig(flags, nil, "testnet")
	require.NoError(t, err)
	assert.Equal(t, "https://api.testnet.solana.com", cfg.URL) // from preset
	assert.Equal(t, "only-token", cfg.Token)
}
