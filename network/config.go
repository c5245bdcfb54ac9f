package network

import "fmt"

// RPCConfig holds the connection parameters for a Solana JSON-RPC endpoint.
type RPCConfig struct {
	URL     string `json:"url"`
	Token   string `json:"token"` // optional bearer token for hosted RPC providers
	Network string `json:"network"`
}

// NetworkPresets contains default RPC configurations for known clusters.
// mainnet-beta is intentionally omitted to require explicit configuration.
var NetworkPresets = map[string]RPCConfig{
	"devnet":   {URL: "https://api.devnet.solana.com"},
	"testnet":  {URL: "https://api.testnet.solana.com"},
	"localnet": {URL: "http://127.0.0.1:8899"},
}

// ResolveConfig merges RPC configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (SAGA_RPC_URL, SAGA_RPC_TOKEN)
//  3. Network presets (lowest priority, devnet/testnet/localnet only)
//
// For mainnet-beta, explicit configuration is required -- there is no preset.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}

	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if env != nil {
		if v, ok := env["SAGA_RPC_URL"]; ok && v != "" {
			result.URL = v
		}
		if v, ok := env["SAGA_RPC_TOKEN"]; ok && v != "" {
			result.Token = v
		}
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.Token != "" {
			result.Token = flags.Token
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("network: %s requires explicit RPC configuration (set --rpc-url, SAGA_RPC_URL, or config file)", network)
	}

	return &result, nil
}
