package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Protocol struct {
	// WsURL is the matching engine's websocket endpoint.
	WsURL string
	// PingInterval paces keepalive pings on the persistent connection.
	PingInterval time.Duration
}

type ProofChain struct {
	// GatewayURL accepts state-changing transactions.
	GatewayURL string
	// FeederURL answers read-only contract calls.
	FeederURL string
	// ExchangeAddress is the exchange contract, the allowance spender.
	ExchangeAddress string
	// AccountContractPath points at the compiled account contract used for
	// first-time deployment.
	AccountContractPath string
}

type Rollup struct {
	// ProviderURL is the rollup wallet daemon that holds the account keys
	// and signs order payloads.
	ProviderURL string
}

type L1 struct {
	// RPCURL is the Ethereum JSON-RPC endpoint for read-only balance and
	// allowance queries.
	RPCURL string
	// BridgeAddress is the deposit bridge, the allowance spender on L1.
	BridgeAddress string
}

type Config struct {
	// DataDir holds the blob store (keys, bootstrap flags, allowance cache).
	DataDir string
	// ChainID selects the default chain at startup.
	ChainID uint64
	// PrivateKeyHex seeds the local wallet; empty generates a fresh key.
	PrivateKeyHex string

	Protocol   Protocol
	Rollup     Rollup
	ProofChain ProofChain
	L1         L1
}

func Default() Config {
	return Config{
		DataDir: "data",
		ChainID: 1,
		Protocol: Protocol{
			WsURL:        "wss://zigzag-exchange.herokuapp.com",
			PingInterval: 5 * time.Second,
		},
		Rollup: Rollup{
			ProviderURL: "http://localhost:3002",
		},
		ProofChain: ProofChain{
			GatewayURL:      "https://alpha4.starknet.io/gateway",
			FeederURL:       "https://alpha4.starknet.io/feeder_gateway",
			ExchangeAddress: "0x04487f07768a4761951e2686652df5fad1ca221073afbe52e2696072654bf7c0",
		},
		L1: L1{
			RPCURL: "https://cloudflare-eth.com",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.PrivateKeyHex = getEnv("PRIVATE_KEY", cfg.PrivateKeyHex)

	if chain := os.Getenv("CHAIN_ID"); chain != "" {
		if id, err := strconv.ParseUint(chain, 10, 64); err == nil {
			cfg.ChainID = id
		}
	}

	cfg.Protocol.WsURL = getEnv("WS_URL", cfg.Protocol.WsURL)
	if ping := os.Getenv("PING_INTERVAL_MS"); ping != "" {
		if ms, err := strconv.Atoi(ping); err == nil {
			cfg.Protocol.PingInterval = time.Duration(ms) * time.Millisecond
		}
	}

	cfg.Rollup.ProviderURL = getEnv("PROVIDER_URL", cfg.Rollup.ProviderURL)

	cfg.ProofChain.GatewayURL = getEnv("GATEWAY_URL", cfg.ProofChain.GatewayURL)
	cfg.ProofChain.FeederURL = getEnv("FEEDER_URL", cfg.ProofChain.FeederURL)
	cfg.ProofChain.ExchangeAddress = getEnv("EXCHANGE_ADDRESS", cfg.ProofChain.ExchangeAddress)
	cfg.ProofChain.AccountContractPath = getEnv("ACCOUNT_CONTRACT_PATH", cfg.ProofChain.AccountContractPath)

	cfg.L1.RPCURL = getEnv("L1_RPC_URL", cfg.L1.RPCURL)
	cfg.L1.BridgeAddress = getEnv("L1_BRIDGE_ADDRESS", cfg.L1.BridgeAddress)

	return cfg
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
