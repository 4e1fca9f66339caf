package config

import (
	"log"
	"math/big"
	"time"

	"github.com/joho/godotenv"
	"github.com/schedpay/relayer/pkg/logger"
)

// Config holds the configuration for the relay worker
type Config struct {
	// RPCURL is the streaming (websocket) endpoint of the chain node
	RPCURL string
	// RPCHeaderName / RPCHeaderValue carry an optional custom header for
	// authenticated RPC endpoints; both empty when unused
	RPCHeaderName  string
	RPCHeaderValue string
	// PrivateKey is the relay's signing credential (hex, no 0x prefix)
	PrivateKey string
	// RegistryAddress is the scheduled transfer registry contract
	RegistryAddress string
	// StartBlock is the block the event subscription replays from
	StartBlock uint64
	// MinPriorityFee is the floor applied to the node's suggested tip, wei
	MinPriorityFee *big.Int
	// GasMultiplier buffers the contract-reported relay gas usage
	GasMultiplier float64

	ProbeInterval     time.Duration
	ProbeTimeout      time.Duration
	ReconnectDelay    time.Duration
	SimulationBackoff time.Duration
	FeeRetryDelay     time.Duration

	MetricsPort  string
	LoggerConfig LoggerConfig
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	rpcURL, err := GetEnvRPCURL()
	if err != nil {
		return nil, err
	}

	headerName, headerValue, err := GetEnvRPCHeader()
	if err != nil {
		return nil, err
	}

	privateKey, err := GetEnvPrivateKey()
	if err != nil {
		return nil, err
	}

	registryAddress, err := GetEnvRegistryAddress()
	if err != nil {
		return nil, err
	}

	startBlock, err := GetEnvStartBlock()
	if err != nil {
		return nil, err
	}

	minPriorityFee, err := GetEnvMinPriorityFee()
	if err != nil {
		return nil, err
	}

	gasMultiplier, err := GetEnvGasMultiplier()
	if err != nil {
		return nil, err
	}

	probeInterval, err := GetEnvProbeInterval()
	if err != nil {
		return nil, err
	}

	probeTimeout, err := GetEnvProbeTimeout()
	if err != nil {
		return nil, err
	}

	reconnectDelay, err := GetEnvReconnectDelay()
	if err != nil {
		return nil, err
	}

	simulationBackoff, err := GetEnvSimulationBackoff()
	if err != nil {
		return nil, err
	}

	feeRetryDelay, err := GetEnvFeeRetryDelay()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	return &Config{
		RPCURL:            rpcURL,
		RPCHeaderName:     headerName,
		RPCHeaderValue:    headerValue,
		PrivateKey:        privateKey,
		RegistryAddress:   registryAddress,
		StartBlock:        startBlock,
		MinPriorityFee:    minPriorityFee,
		GasMultiplier:     gasMultiplier,
		ProbeInterval:     probeInterval,
		ProbeTimeout:      probeTimeout,
		ReconnectDelay:    reconnectDelay,
		SimulationBackoff: simulationBackoff,
		FeeRetryDelay:     feeRetryDelay,
		MetricsPort:       metricsPort,
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}, nil
}
