package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/schedpay/relayer/pkg/logger"
)

const (
	// DefaultGasMultiplier buffers the contract-reported relay gas usage (10%)
	DefaultGasMultiplier = 1.1

	// DefaultProbeInterval defines how often the liveness probe runs
	DefaultProbeInterval = 10 * time.Second

	// DefaultProbeTimeout bounds a single liveness probe call
	DefaultProbeTimeout = 10 * time.Second

	// DefaultReconnectDelay is the pause between gateway reconnection attempts
	DefaultReconnectDelay = 5 * time.Second

	// DefaultSimulationBackoff is the pause after a failed simulation or submission
	DefaultSimulationBackoff = 60 * time.Second

	// DefaultFeeRetryDelay is the pause after the node returns incomplete fee data
	DefaultFeeRetryDelay = 10 * time.Second

	// DefaultMetricsPort defines the default port for the health and metrics server
	DefaultMetricsPort = "8080"
)

// GetEnvRPCURL returns the required streaming RPC endpoint URL
func GetEnvRPCURL() (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		return "", fmt.Errorf("RPC_URL environment variable is required")
	}

	parsed, err := url.Parse(rpcURL)
	if err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid RPC_URL scheme: %s, event subscriptions require ws or wss", parsed.Scheme)
	}
	return rpcURL, nil
}

// GetEnvRPCHeader returns the optional custom header pair for authenticated RPC.
// Both variables must be set together or not at all.
func GetEnvRPCHeader() (string, string, error) {
	name := os.Getenv("RPC_HEADER_NAME")
	value := os.Getenv("RPC_HEADER_VALUE")

	if (name == "") != (value == "") {
		return "", "", fmt.Errorf("RPC_HEADER_NAME and RPC_HEADER_VALUE must be set together")
	}
	return name, value, nil
}

// GetEnvPrivateKey returns the required relay signing credential
func GetEnvPrivateKey() (string, error) {
	privateKey := os.Getenv("PRIVATE_KEY")
	if privateKey == "" {
		return "", fmt.Errorf("PRIVATE_KEY environment variable is required")
	}

	if _, err := crypto.HexToECDSA(privateKey); err != nil {
		return "", fmt.Errorf("invalid PRIVATE_KEY value: %v", err)
	}
	return privateKey, nil
}

// GetEnvRegistryAddress returns the required registry contract address
func GetEnvRegistryAddress() (string, error) {
	registryAddress := os.Getenv("REGISTRY_ADDRESS")
	if registryAddress == "" {
		return "", fmt.Errorf("REGISTRY_ADDRESS environment variable is required")
	}

	if !common.IsHexAddress(registryAddress) {
		return "", fmt.Errorf("invalid REGISTRY_ADDRESS value: %s, must be a valid Ethereum address", registryAddress)
	}
	return registryAddress, nil
}

// GetEnvStartBlock returns the required starting block for event replay
func GetEnvStartBlock() (uint64, error) {
	startBlock := os.Getenv("START_BLOCK")
	if startBlock == "" {
		return 0, fmt.Errorf("START_BLOCK environment variable is required")
	}

	block, err := strconv.ParseUint(startBlock, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid START_BLOCK value: %s, must be a non-negative integer", startBlock)
	}
	return block, nil
}

// GetEnvMinPriorityFee returns the required minimum acceptable priority fee in wei
func GetEnvMinPriorityFee() (*big.Int, error) {
	minPriorityFee := os.Getenv("MIN_PRIORITY_FEE")
	if minPriorityFee == "" {
		return nil, fmt.Errorf("MIN_PRIORITY_FEE environment variable is required")
	}

	fee := new(big.Int)
	if _, ok := fee.SetString(minPriorityFee, 10); !ok {
		return nil, fmt.Errorf("invalid MIN_PRIORITY_FEE value: %s, must be a valid integer string", minPriorityFee)
	}
	if fee.Sign() < 0 {
		return nil, fmt.Errorf("MIN_PRIORITY_FEE must be greater than or equal to 0")
	}
	return fee, nil
}

// GetEnvGasMultiplier returns the gas limit buffer multiplier from environment variables
func GetEnvGasMultiplier() (float64, error) {
	gasMultiplier := os.Getenv("GAS_MULTIPLIER")
	if gasMultiplier == "" {
		return DefaultGasMultiplier, nil
	}

	multiplier, err := strconv.ParseFloat(gasMultiplier, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid GAS_MULTIPLIER value: %s, must be a number", gasMultiplier)
	}
	if multiplier < 1 {
		return 0, fmt.Errorf("GAS_MULTIPLIER must be greater than or equal to 1")
	}
	return multiplier, nil
}

// GetEnvProbeInterval returns the liveness probe interval from environment variables
func GetEnvProbeInterval() (time.Duration, error) {
	return getEnvDuration("PROBE_INTERVAL", DefaultProbeInterval)
}

// GetEnvProbeTimeout returns the liveness probe timeout from environment variables
func GetEnvProbeTimeout() (time.Duration, error) {
	return getEnvDuration("PROBE_TIMEOUT", DefaultProbeTimeout)
}

// GetEnvReconnectDelay returns the gateway reconnect delay from environment variables
func GetEnvReconnectDelay() (time.Duration, error) {
	return getEnvDuration("RECONNECT_DELAY", DefaultReconnectDelay)
}

// GetEnvSimulationBackoff returns the simulation failure backoff from environment variables
func GetEnvSimulationBackoff() (time.Duration, error) {
	return getEnvDuration("SIMULATION_BACKOFF", DefaultSimulationBackoff)
}

// GetEnvFeeRetryDelay returns the fee data retry delay from environment variables
func GetEnvFeeRetryDelay() (time.Duration, error) {
	return getEnvDuration("FEE_RETRY_DELAY", DefaultFeeRetryDelay)
}

// GetEnvMetricsPort returns the health and metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "":
		return logger.InfoLevel, nil
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of 'debug', 'info', 'notice', 'error'", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}

func getEnvDuration(name string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be a valid duration string", name, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return parsed, nil
}
