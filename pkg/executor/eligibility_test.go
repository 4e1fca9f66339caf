package executor

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/schedpay/relayer/pkg/models"
	"github.com/stretchr/testify/assert"
)

func windowTransfer(notBefore, notAfter uint64) models.ScheduledTransfer {
	return models.ScheduledTransfer{
		Owner:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Nonce:      big.NewInt(1),
		Token:      common.HexToAddress("0x2222222222222222222222222222222222222222"),
		To:         common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Amount:     big.NewInt(1000),
		NotBefore:  notBefore,
		NotAfter:   notAfter,
		MaxBaseFee: big.NewInt(50000000000),
	}
}

// TestClassify checks the eligibility window classification against a fixed clock
func TestClassify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name         string
		notBefore    uint64
		notAfter     uint64
		expected     Eligibility
		expectedWait time.Duration
	}{
		{
			name:         "window far in the future",
			notBefore:    1_700_000_030,
			notAfter:     1_700_604_800,
			expected:     EligibilityTooEarly,
			expectedWait: 30 * time.Second,
		},
		{
			name:      "window currently open",
			notBefore: 1_699_999_000,
			notAfter:  1_700_000_060,
			expected:  EligibilityReady,
		},
		{
			name:      "window opens exactly now",
			notBefore: 1_700_000_000,
			notAfter:  1_700_000_060,
			expected:  EligibilityReady,
		},
		{
			name:      "window closes exactly now",
			notBefore: 1_699_999_000,
			notAfter:  1_700_000_000,
			expected:  EligibilityReady,
		},
		{
			name:      "window passed one second ago",
			notBefore: 1_699_999_000,
			notAfter:  1_699_999_999,
			expected:  EligibilityTooLate,
		},
		{
			name:         "single-second window in the future",
			notBefore:    1_700_000_001,
			notAfter:     1_700_000_001,
			expected:     EligibilityTooEarly,
			expectedWait: 1 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eligibility, wait := Classify(windowTransfer(tt.notBefore, tt.notAfter), now)
			assert.Equal(t, tt.expected, eligibility)
			assert.Equal(t, tt.expectedWait, wait)
		})
	}
}

// TestClassifyTotal checks that exactly one case applies at every instant
// around the window edges
func TestClassifyTotal(t *testing.T) {
	transfer := windowTransfer(100, 200)

	for unix := int64(95); unix <= 205; unix++ {
		eligibility, _ := Classify(transfer, time.Unix(unix, 0))

		switch {
		case unix < 100:
			assert.Equal(t, EligibilityTooEarly, eligibility, "at %d", unix)
		case unix <= 200:
			assert.Equal(t, EligibilityReady, eligibility, "at %d", unix)
		default:
			assert.Equal(t, EligibilityTooLate, eligibility, "at %d", unix)
		}
	}
}
