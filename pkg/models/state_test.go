package models

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestExecutionStateString(t *testing.T) {
	assert.Equal(t, "discovered", StateDiscovered.String())
	assert.Equal(t, "confirmed", StateConfirmed.String())
	assert.Equal(t, "unknown", ExecutionState(99).String())
}

func TestExecutionStateTerminal(t *testing.T) {
	terminal := map[ExecutionState]bool{
		StateDiscovered:       false,
		StateWaitingForWindow: false,
		StateSimulating:       false,
		StateSubmitting:       false,
		StateRetryBackoff:     false,
		StateConfirmed:        true,
		StateAlreadyCompleted: true,
		StateExpired:          true,
	}

	for state, expected := range terminal {
		assert.Equal(t, expected, state.Terminal(), state.String())
	}
}

func TestTransferKey(t *testing.T) {
	transfer := ScheduledTransfer{
		Owner: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce: big.NewInt(42),
	}

	assert.Equal(t, "0x1111111111111111111111111111111111111111:42", transfer.Key())
}
