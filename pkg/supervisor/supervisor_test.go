package supervisor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/schedpay/relayer/pkg/config"
	"github.com/schedpay/relayer/pkg/contracts"
	"github.com/schedpay/relayer/pkg/gateway"
	"github.com/schedpay/relayer/pkg/logger"
	"github.com/schedpay/relayer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a gateway.Conn that records lifecycle calls.
type fakeConn struct {
	mu         sync.Mutex
	blockErr   error
	closed     bool
	subscribed int
}

func (f *fakeConn) LatestBlockNumber(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockErr != nil {
		return 0, f.blockErr
	}
	return 100, nil
}

func (f *fakeConn) ReadCompletionStatus(ctx context.Context, owner common.Address, nonce *big.Int) (gateway.CompletionStatus, error) {
	return gateway.CompletionStatus{Exists: true, Completed: true}, nil
}

func (f *fakeConn) RelayGasUsage(ctx context.Context) (uint64, error) {
	return 210000, nil
}

func (f *fakeConn) CurrentFeeEstimate(ctx context.Context) (gateway.FeeEstimate, error) {
	return gateway.FeeEstimate{
		BaseFee:   big.NewInt(20000000000),
		GasTipCap: big.NewInt(2000000000),
		GasFeeCap: big.NewInt(42000000000),
	}, nil
}

func (f *fakeConn) SimulateExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees gateway.FeeEstimate) error {
	return nil
}

func (f *fakeConn) SubmitExecution(ctx context.Context, transfer models.ScheduledTransfer, gasLimit uint64, fees gateway.FeeEstimate) (*types.Transaction, error) {
	return types.NewTx(&types.DynamicFeeTx{Nonce: 1}), nil
}

func (f *fakeConn) SubscribeScheduled(ctx context.Context, fromBlock uint64, sink chan<- *contracts.RegistryTransferScheduled) (event.Subscription, error) {
	f.mu.Lock()
	f.subscribed++
	f.mu.Unlock()
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (f *fakeConn) RelayAddress() common.Address {
	return common.HexToAddress("0x4444444444444444444444444444444444444444")
}

func (f *fakeConn) RegistryAddress() common.Address {
	return common.HexToAddress("0x5555555555555555555555555555555555555555")
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed
}

func testConfig() *config.Config {
	return &config.Config{
		RegistryAddress: "0x5555555555555555555555555555555555555555",
		StartBlock:      0,
		GasMultiplier:   1.0,
		ProbeInterval:   time.Hour,
		ProbeTimeout:    100 * time.Millisecond,
		ReconnectDelay:  10 * time.Millisecond,
	}
}

// testSupervisor wires a supervisor to a sequence of fake connections; each
// dial hands out the next one.
func testSupervisor(t *testing.T, conns ...*fakeConn) (*Supervisor, *atomic.Int32) {
	t.Helper()

	s := New(testConfig(), &logger.EmptyLogger{})
	var dials atomic.Int32
	s.dial = func(ctx context.Context) (gateway.Conn, error) {
		n := dials.Add(1)
		require.LessOrEqual(t, int(n), len(conns), "unexpected extra dial")
		return conns[n-1], nil
	}
	return s, &dials
}

func TestStartAndStop(t *testing.T) {
	conn := &fakeConn{}
	s, dials := testSupervisor(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	require.NotNil(t, s.Handle())
	assert.Same(t, gateway.Conn(conn), s.Handle().Resolve())
	assert.True(t, s.Healthy())
	assert.Equal(t, uint64(0), s.ResetCount())

	require.Eventually(t, func() bool {
		return conn.subscribeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.True(t, conn.isClosed())
	assert.Equal(t, int32(1), dials.Load())
}

func TestResetSwapsGateway(t *testing.T) {
	first := &fakeConn{}
	second := &fakeConn{}
	s, dials := testSupervisor(t, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	s.reset(ctx, errors.New("read: connection reset by peer"))

	assert.Equal(t, uint64(1), s.ResetCount())
	assert.Equal(t, int32(2), dials.Load())
	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())
	assert.Same(t, gateway.Conn(second), s.Handle().Resolve())

	// The new session opens exactly one subscription on the new gateway.
	require.Eventually(t, func() bool {
		return second.subscribeCount() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, first.subscribeCount())

	s.Stop()
}

func TestResetIsIdempotent(t *testing.T) {
	first := &fakeConn{}
	second := &fakeConn{}

	s := New(testConfig(), &logger.EmptyLogger{})
	var dials atomic.Int32
	gate := make(chan struct{})
	s.dial = func(ctx context.Context) (gateway.Conn, error) {
		if dials.Add(1) == 1 {
			return first, nil
		}
		// Hold the reset open so concurrent triggers land while the
		// resetting flag is set.
		<-gate
		return second, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))

	done := make(chan struct{})
	go func() {
		s.reset(ctx, errors.New("websocket: close 1006"))
		close(done)
	}()

	require.Eventually(t, func() bool {
		return dials.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)

	// Reentrant triggers while the reset is mid-reconnect are no-ops.
	for i := 0; i < 4; i++ {
		s.reset(ctx, errors.New("websocket: close 1006"))
	}

	close(gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reset did not complete")
	}

	assert.Equal(t, int32(2), dials.Load())
	assert.Equal(t, uint64(1), s.ResetCount())
	assert.Same(t, gateway.Conn(second), s.Handle().Resolve())

	s.Stop()
}

func TestProbeFailureTriggersReset(t *testing.T) {
	first := &fakeConn{blockErr: errors.New("connection refused")}
	second := &fakeConn{}
	s, _ := testSupervisor(t, first, second)
	s.cfg.ProbeInterval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		return s.ResetCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return s.Handle().Resolve() == gateway.Conn(second)
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, first.isClosed())

	s.Stop()
}

func TestRelayGasLimitAppliesMultiplier(t *testing.T) {
	s := New(testConfig(), &logger.EmptyLogger{})
	s.cfg.GasMultiplier = 1.5

	gasLimit, err := s.relayGasLimit(context.Background(), &fakeConn{})
	require.NoError(t, err)
	assert.Equal(t, uint64(315000), gasLimit)
}
