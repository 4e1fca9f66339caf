package executor

import (
	"time"

	"github.com/schedpay/relayer/pkg/models"
)

// Eligibility classifies a scheduled transfer against its time window.
type Eligibility int

const (
	// EligibilityTooEarly means the window has not opened yet
	EligibilityTooEarly Eligibility = iota
	// EligibilityReady means execution is currently permitted
	EligibilityReady
	// EligibilityTooLate means the window has passed
	EligibilityTooLate
)

func (e Eligibility) String() string {
	switch e {
	case EligibilityTooEarly:
		return "too-early"
	case EligibilityReady:
		return "ready"
	case EligibilityTooLate:
		return "too-late"
	}
	return "unknown"
}

// Classify decides whether a transfer is too early, ready, or too late at
// the given instant. The window is inclusive on both ends. For a too-early
// transfer the returned duration is the remaining wait; callers must
// re-classify after waiting because time keeps advancing.
func Classify(transfer models.ScheduledTransfer, now time.Time) (Eligibility, time.Duration) {
	unix := now.Unix()
	if unix > int64(transfer.NotAfter) {
		return EligibilityTooLate, 0
	}
	if unix < int64(transfer.NotBefore) {
		return EligibilityTooEarly, time.Duration(int64(transfer.NotBefore)-unix) * time.Second
	}
	return EligibilityReady, 0
}
