package executor

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/schedpay/relayer/pkg/contracts"
	"github.com/schedpay/relayer/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduledEvent(owner common.Address, nonce int64) *contracts.RegistryTransferScheduled {
	now := time.Now().Unix()
	return &contracts.RegistryTransferScheduled{
		Owner:         owner,
		Nonce:         big.NewInt(nonce),
		Token:         common.HexToAddress("0x2222222222222222222222222222222222222222"),
		To:            common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Amount:        big.NewInt(1000),
		NotBeforeDate: big.NewInt(now - 60),
		NotAfterDate:  big.NewInt(now + 3600),
		MaxBaseFee:    big.NewInt(50000000000),
		Signature:     []byte{0x01},
		Raw:           types.Log{BlockNumber: 42},
	}
}

// waitForSink blocks until the dispatcher has opened its subscription.
func waitForSink(t *testing.T, fake *fakeGateway) chan<- *contracts.RegistryTransferScheduled {
	t.Helper()
	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return fake.sink != nil
	}, 2*time.Second, 5*time.Millisecond)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.sink
}

func TestDispatcherDeduplicatesEvents(t *testing.T) {
	fake := &fakeGateway{status: gateway.CompletionStatus{Exists: true, Completed: true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := testDispatcher(ctx, fake)
	go d.Run(ctx)

	sink := waitForSink(t, fake)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// The same scheduling event redelivered three times spawns one loop.
	for i := 0; i < 3; i++ {
		sink <- scheduledEvent(owner, 7)
	}
	sink <- scheduledEvent(owner, 8)

	require.Eventually(t, func() bool {
		return fake.callCount("completion") >= 2
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, fake.callCount("completion"))
}

func TestDispatcherDropsOutOfRangeWindow(t *testing.T) {
	fake := &fakeGateway{status: gateway.CompletionStatus{Exists: true, Completed: true}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := testDispatcher(ctx, fake)
	go d.Run(ctx)

	sink := waitForSink(t, fake)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	// A window edge beyond 64 bits cannot be a unix timestamp; the event
	// is dropped instead of truncated into a seemingly open window.
	overflow := scheduledEvent(owner, 7)
	overflow.NotAfterDate = new(big.Int).Lsh(big.NewInt(1), 70)
	sink <- overflow

	sink <- scheduledEvent(owner, 8)

	require.Eventually(t, func() bool {
		return fake.callCount("completion") >= 1
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fake.callCount("completion"))
}

func TestDispatcherStopsOnContextCancel(t *testing.T) {
	fake := &fakeGateway{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	d := testDispatcher(context.Background(), fake)
	go func() {
		done <- d.Run(ctx)
	}()

	waitForSink(t, fake)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop on context cancellation")
	}
}

func TestTransferFromEvent(t *testing.T) {
	d := testDispatcher(context.Background(), &fakeGateway{})

	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	ev := scheduledEvent(owner, 9)
	transfer := d.transferFromEvent(ev)

	assert.Equal(t, owner, transfer.Owner)
	assert.Equal(t, "9", transfer.Nonce.String())
	assert.Equal(t, common.HexToAddress("0x5555555555555555555555555555555555555555"), transfer.Spender)
	assert.Equal(t, ev.NotBeforeDate.Uint64(), transfer.NotBefore)
	assert.Equal(t, ev.NotAfterDate.Uint64(), transfer.NotAfter)
	assert.Equal(t, uint64(42), transfer.BlockNumber)
	assert.Equal(t, owner.Hex()+":9", transfer.Key())
}
