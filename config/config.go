package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries the connection settings shared by the wallet manager and the
// underlying node and block-explorer clients. It is a plain value constructed
// by the caller; there is no global instance.
type Config struct {
	// RPCURL is the HTTP endpoint of the Ethereum JSON-RPC node.
	RPCURL string `envconfig:"ETH_RPC_URL"`
	// WalletsCSV is the path of the wallet table. Empty means the manager
	// starts with an empty table.
	WalletsCSV string `envconfig:"WALLETS_CSV"`
	// EtherscanAPIKey authenticates block-explorer requests.
	EtherscanAPIKey string `envconfig:"ETHERSCAN_API_KEY"`
	// EtherscanBaseURL points at an Etherscan-style API endpoint.
	EtherscanBaseURL string `envconfig:"ETHERSCAN_BASE_URL" default:"https://api.etherscan.io/api"`
	// HTTPTimeoutSeconds bounds every outbound HTTP round-trip.
	HTTPTimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
}

// FromEnv loads configuration from environment variables, reading a .env file
// first when one exists in the working directory.
func FromEnv() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}

	return cfg, nil
}
