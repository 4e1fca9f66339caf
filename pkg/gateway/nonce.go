package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PendingNonceReader is the slice of the eth client the nonce manager needs
// for its periodic re-sync.
type PendingNonceReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager serializes account-nonce allocation for the relay's single
// signing identity. Execution loops submit concurrently; without this, two
// loops racing through SubmitExecution would reuse the same pending nonce.
type NonceManager struct {
	mu sync.Mutex
	// next is the high-water mark; nonces at or above it have never been
	// handed out
	next uint64
	// free holds released nonces below next. The chain will not accept
	// anything above a gap, so the lowest free nonce is reissued before
	// the high-water mark advances.
	free         map[uint64]struct{}
	lastSync     time.Time
	syncInterval time.Duration
}

// NewNonceManager creates a nonce manager that re-syncs with the chain
// periodically to absorb drift from dropped transactions.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		free:         make(map[uint64]struct{}),
		syncInterval: 5 * time.Minute,
	}
}

// Next reserves and returns the next available nonce: the lowest released
// one if any, otherwise the high-water mark.
func (nm *NonceManager) Next(ctx context.Context, client PendingNonceReader, address common.Address) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nm.lastSync.IsZero() || time.Since(nm.lastSync) > nm.syncInterval {
		pending, err := client.PendingNonceAt(ctx, address)
		if err != nil {
			return 0, fmt.Errorf("failed to get pending nonce: %v", err)
		}
		if pending > nm.next {
			nm.next = pending
		}
		// Anything the chain moved past was filled by someone
		for nonce := range nm.free {
			if nonce < pending {
				delete(nm.free, nonce)
			}
		}
		nm.lastSync = time.Now()
	}

	if len(nm.free) > 0 {
		lowest := nm.next
		for nonce := range nm.free {
			if nonce < lowest {
				lowest = nonce
			}
		}
		delete(nm.free, lowest)
		return lowest, nil
	}

	nonce := nm.next
	nm.next++
	return nonce, nil
}

// Release hands back a nonce whose transaction was never accepted. The gap
// it would leave pins the account's pending nonce, so it is reissued ahead
// of the high-water mark on the next reservation.
func (nm *NonceManager) Release(nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if nonce < nm.next {
		nm.free[nonce] = struct{}{}
	}
}
