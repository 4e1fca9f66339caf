package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/schedpay/relayer/pkg/config"
	"github.com/schedpay/relayer/pkg/contracts"
	"github.com/schedpay/relayer/pkg/logger"
	"github.com/schedpay/relayer/pkg/models"
)

// ErrFeeDataUnavailable is returned when the node answers a fee query with
// incomplete data (no base fee in the head block, or no suggested tip).
var ErrFeeDataUnavailable = errors.New("fee data unavailable from node")

// CompletionStatus is the registry's view of a scheduled transfer.
type CompletionStatus struct {
	Exists    bool
	Completed bool
}

// FeeEstimate carries the EIP-1559 fee values used for a single
// simulate/submit cycle.
type FeeEstimate struct {
	BaseFee   *big.Int
	GasTipCap *big.Int // maxPriorityFeePerGas
	GasFeeCap *big.Int // maxFeePerGas
}

// Conn is the gateway surface shared by the dispatcher, the execution
// loops, and the supervisor's liveness probe. Only the supervisor may
// replace the live implementation behind a Handle.
type Conn interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	ReadCompletionStatus(ctx context.Context, owner common.Address, nonce *big.Int) (CompletionStatus, error)
	RelayGasUsage(ctx context.Context) (uint64, error)
	CurrentFeeEstimate(ctx context.Context) (FeeEstimate, error)
	SimulateExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees FeeEstimate) error
	SubmitExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees FeeEstimate) (*types.Transaction, error)
	SubscribeScheduled(ctx context.Context, fromBlock uint64, sink chan<- *contracts.RegistryTransferScheduled) (event.Subscription, error)
	RelayAddress() common.Address
	RegistryAddress() common.Address
	Close()
}

// Client maintains one live streaming connection to the chain node and the
// registry contract binding on top of it. RPC-level call errors surface to
// the caller; connection liveness is the supervisor's concern.
type Client struct {
	cfg            *config.Config
	rpcClient      *rpc.Client
	eth            *ethclient.Client
	registry       *contracts.Registry
	registryABI    abi.ABI
	registryAddr   common.Address
	auth           *bind.TransactOpts
	relayAddr      common.Address
	minPriorityFee *big.Int
	nonces         *NonceManager
	logger         logger.Logger
}

var _ Conn = (*Client)(nil)

// Dial opens a fresh socket to the configured endpoint and initializes the
// signing identity and contract binding. Each call builds an independent
// connection; the supervisor calls it again after every teardown.
func Dial(ctx context.Context, cfg *config.Config, log logger.Logger) (*Client, error) {
	var opts []rpc.ClientOption
	if cfg.RPCHeaderName != "" {
		opts = append(opts, rpc.WithHeader(cfg.RPCHeaderName, cfg.RPCHeaderValue))
	}

	rpcClient, err := rpc.DialOptions(ctx, cfg.RPCURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node: %v", err)
	}
	eth := ethclient.NewClient(rpcClient)

	auth, err := createAuthenticator(ctx, eth, cfg.PrivateKey)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to create authenticator: %v", err)
	}

	registryAddr := common.HexToAddress(cfg.RegistryAddress)
	registry, err := contracts.NewRegistry(registryAddr, eth)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to initialize registry binding: %v", err)
	}

	registryABI, err := abi.JSON(strings.NewReader(contracts.RegistryABI))
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to parse registry ABI: %v", err)
	}

	return &Client{
		cfg:            cfg,
		rpcClient:      rpcClient,
		eth:            eth,
		registry:       registry,
		registryABI:    registryABI,
		registryAddr:   registryAddr,
		auth:           auth,
		relayAddr:      auth.From,
		minPriorityFee: cfg.MinPriorityFee,
		nonces:         NewNonceManager(),
		logger:         log,
	}, nil
}

// LatestBlockNumber gets the latest block number from the chain
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// ReadCompletionStatus reads the registry's record for (owner, nonce).
func (c *Client) ReadCompletionStatus(ctx context.Context, owner common.Address, nonce *big.Int) (CompletionStatus, error) {
	record, err := c.registry.Transfers(&bind.CallOpts{Context: ctx}, owner, nonce)
	if err != nil {
		return CompletionStatus{}, fmt.Errorf("failed to read transfer record: %v", err)
	}

	return CompletionStatus{
		Exists:    record.Exists,
		Completed: record.Exists && record.Status == contracts.TransferStatusExecuted,
	}, nil
}

// RelayGasUsage reads the contract's gas usage constant for one execution.
func (c *Client) RelayGasUsage(ctx context.Context) (uint64, error) {
	usage, err := c.registry.GetRelayGasUsage(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, fmt.Errorf("failed to read relay gas usage: %v", err)
	}
	return uint64(usage), nil
}

// CurrentFeeEstimate queries the node for current EIP-1559 fee values. The
// configured minimum priority fee acts as a floor on the suggested tip.
func (c *Client) CurrentFeeEstimate(ctx context.Context) (FeeEstimate, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tip, err := c.eth.SuggestGasTipCap(timeoutCtx)
	if err != nil {
		return FeeEstimate{}, fmt.Errorf("failed to get suggested tip: %v", err)
	}

	head, err := c.eth.HeaderByNumber(timeoutCtx, nil)
	if err != nil {
		return FeeEstimate{}, fmt.Errorf("failed to get head block: %v", err)
	}

	if tip == nil || head.BaseFee == nil {
		return FeeEstimate{}, ErrFeeDataUnavailable
	}

	return computeFeeEstimate(head.BaseFee, tip, c.minPriorityFee), nil
}

// computeFeeEstimate derives the fee caps from the node-reported base fee
// and tip. The fee cap leaves headroom for two maximum base fee increases.
func computeFeeEstimate(baseFee, tip, minPriorityFee *big.Int) FeeEstimate {
	gasTipCap := new(big.Int).Set(tip)
	if minPriorityFee != nil && gasTipCap.Cmp(minPriorityFee) < 0 {
		gasTipCap.Set(minPriorityFee)
	}

	gasFeeCap := new(big.Int).Mul(baseFee, big.NewInt(2))
	gasFeeCap.Add(gasFeeCap, gasTipCap)

	return FeeEstimate{
		BaseFee:   new(big.Int).Set(baseFee),
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
	}
}

// SimulateExecution performs a read-only eth_call of executeScheduledTransfer
// with the relay's own from-address and fee parameters. A revert surfaces as an
// error carrying the contract's reason string; chain state is not mutated.
func (c *Client) SimulateExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees FeeEstimate) error {
	data, err := c.registryABI.Pack("executeScheduledTransfer", detailsFor(transfer), transfer.Signature)
	if err != nil {
		return fmt.Errorf("failed to pack execution call: %v", err)
	}

	msg := ethereum.CallMsg{
		From:      c.relayAddr,
		To:        &c.registryAddr,
		Gas:       gasLimit,
		GasFeeCap: fees.GasFeeCap,
		GasTipCap: fees.GasTipCap,
		Data:      data,
	}
	if _, err := c.eth.CallContract(ctx, msg, nil); err != nil {
		return fmt.Errorf("simulation reverted: %v", err)
	}
	return nil
}

// SubmitExecution sends the real execution transaction with the same
// parameters the simulation used. It returns as soon as the node accepts the
// transaction; the caller may await the receipt through the returned value.
func (c *Client) SubmitExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees FeeEstimate) (*types.Transaction, error) {
	nonce, err := c.nonces.Next(ctx, c.eth, c.relayAddr)
	if err != nil {
		return nil, err
	}

	opts := *c.auth
	opts.Context = ctx
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasLimit = gasLimit
	opts.GasFeeCap = fees.GasFeeCap
	opts.GasTipCap = fees.GasTipCap

	tx, err := c.registry.ExecuteScheduledTransfer(&opts, detailsFor(transfer), transfer.Signature)
	if err != nil {
		c.nonces.Release(nonce)
		return nil, fmt.Errorf("failed to submit execution: %v", err)
	}
	return tx, nil
}

// SubscribeScheduled opens a fresh log subscription for TransferScheduled
// events starting at fromBlock. Each call yields an independent restartable
// stream; resubscription after a reset simply calls this again.
func (c *Client) SubscribeScheduled(ctx context.Context, fromBlock uint64, sink chan<- *contracts.RegistryTransferScheduled) (event.Subscription, error) {
	opts := &bind.WatchOpts{Start: &fromBlock, Context: ctx}
	sub, err := c.registry.WatchTransferScheduled(opts, sink, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to scheduling events: %v", err)
	}
	return sub, nil
}

// RelayAddress returns the relay's execution identity.
func (c *Client) RelayAddress() common.Address {
	return c.relayAddr
}

// RegistryAddress returns the registry contract address, which is also the
// authorized spender in every transfer's signed details.
func (c *Client) RegistryAddress() common.Address {
	return c.registryAddr
}

// Close tears down the underlying socket. In-flight calls fail with a
// connection error and their loops retry against the replacement gateway.
func (c *Client) Close() {
	c.rpcClient.Close()
}

// detailsFor converts an observed transfer back into the contract's details
// tuple for execution.
func detailsFor(t models.ScheduledTransfer) contracts.RegistryTransferDetails {
	return contracts.RegistryTransferDetails{
		Owner:         t.Owner,
		Nonce:         t.Nonce,
		Token:         t.Token,
		To:            t.To,
		Amount:        t.Amount,
		Spender:       t.Spender,
		NotBeforeDate: new(big.Int).SetUint64(t.NotBefore),
		NotAfterDate:  new(big.Int).SetUint64(t.NotAfter),
		MaxBaseFee:    t.MaxBaseFee,
	}
}

// Helper function to create authenticator
func createAuthenticator(ctx context.Context, client *ethclient.Client, privateKeyHex string) (*bind.TransactOpts, error) {
	// Parse private key
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %v", err)
	}

	// Get chain ID
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %v", err)
	}

	// Create transaction signer
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %v", err)
	}

	return auth, nil
}
