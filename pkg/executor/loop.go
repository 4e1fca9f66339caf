package executor

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/schedpay/relayer/pkg/metrics"
	"github.com/schedpay/relayer/pkg/models"
)

// runTransfer drives one scheduled transfer from discovery to a terminal
// state. It runs in its own goroutine with no shared mutable state besides
// the gateway resolver; a suspension here blocks nothing but this transfer.
func (d *Dispatcher) runTransfer(ctx context.Context, transfer models.ScheduledTransfer) {
	activeLoops.Add(1)
	metrics.ActiveLoops.Inc()
	defer func() {
		activeLoops.Add(-1)
		metrics.ActiveLoops.Dec()
	}()

	key := transfer.Key()
	d.logger.InfoWithState(models.StateDiscovered, "Transfer %s: token %s, to %s, amount %s, window [%d, %d]",
		key, transfer.Token.Hex(), transfer.To.Hex(), transfer.Amount.String(), transfer.NotBefore, transfer.NotAfter)

	// The registry is authoritative on completion; never simulate or submit
	// a transfer it already recorded as executed.
	for {
		status, err := d.resolve().ReadCompletionStatus(ctx, transfer.Owner, transfer.Nonce)
		if err == nil {
			if status.Completed {
				d.logger.InfoWithState(models.StateAlreadyCompleted, "Transfer %s already executed, nothing to do", key)
				metrics.TransfersTerminal.WithLabelValues(models.StateAlreadyCompleted.String()).Inc()
				return
			}
			break
		}

		metrics.CompletionCheckFailures.Inc()
		d.logger.Error("Transfer %s: completion check failed: %v", key, err)

		if eligibility, _ := Classify(transfer, d.now()); eligibility == EligibilityTooLate {
			d.logger.InfoWithState(models.StateExpired, "Transfer %s: window passed while completion check kept failing", key)
			metrics.TransfersTerminal.WithLabelValues(models.StateExpired.String()).Inc()
			return
		}
		if !sleepCtx(ctx, d.feeRetryDelay) {
			return
		}
	}

	var readySince time.Time

	for {
		// Eligibility must be re-evaluated on every pass: waits and
		// backoffs can push the clock past either edge of the window.
		eligibility, wait := Classify(transfer, d.now())
		switch eligibility {
		case EligibilityTooLate:
			d.logger.InfoWithState(models.StateExpired, "Transfer %s: window passed, giving up", key)
			metrics.TransfersTerminal.WithLabelValues(models.StateExpired.String()).Inc()
			return
		case EligibilityTooEarly:
			d.logger.InfoWithState(models.StateWaitingForWindow, "Transfer %s: window opens in %s", key, wait)
			if !sleepCtx(ctx, wait) {
				return
			}
			continue
		}

		if readySince.IsZero() {
			readySince = d.now()
		}

		fees, err := d.resolve().CurrentFeeEstimate(ctx)
		if err != nil {
			metrics.FeeDataFailures.Inc()
			d.logger.Error("Transfer %s: fee estimate unavailable: %v, retrying in %s", key, err, d.feeRetryDelay)
			if !sleepCtx(ctx, d.feeRetryDelay) {
				return
			}
			continue
		}
		metrics.BaseFee.Set(gwei(fees.BaseFee))

		d.logger.InfoWithState(models.StateSimulating, "Transfer %s: simulating with gas limit %d, fee cap %s, tip %s",
			key, d.gasLimit, fees.GasFeeCap.String(), fees.GasTipCap.String())
		if err := d.resolve().SimulateExecution(ctx, transfer, d.gasLimit, fees); err != nil {
			metrics.SimulationFailures.WithLabelValues(classifyRevert(err)).Inc()
			d.logger.ErrorWithState(models.StateRetryBackoff, "Transfer %s: simulation failed: %v, retrying in %s",
				key, err, d.simBackoff)
			if !sleepCtx(ctx, d.simBackoff) {
				return
			}
			continue
		}

		d.logger.InfoWithState(models.StateSubmitting, "Transfer %s: submitting execution", key)
		tx, err := d.resolve().SubmitExecution(ctx, transfer, d.gasLimit, fees)
		if err != nil {
			metrics.SubmissionFailures.Inc()
			d.logger.ErrorWithState(models.StateRetryBackoff, "Transfer %s: submission failed: %v, retrying in %s",
				key, err, d.simBackoff)
			if !sleepCtx(ctx, d.simBackoff) {
				return
			}
			continue
		}

		metrics.SubmissionLatency.Observe(d.now().Sub(readySince).Seconds())
		metrics.TransfersTerminal.WithLabelValues(models.StateConfirmed.String()).Inc()
		d.logger.NoticeWithState(models.StateConfirmed, "Transfer %s: execution accepted, tx %s", key, tx.Hash().Hex())
		return
	}
}

// classifyRevert maps a simulation error onto a small label set to keep
// metric cardinality bounded.
func classifyRevert(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "MaxBaseFeeExceeded") {
		return "max_base_fee"
	}
	if strings.Contains(errStr, "TransferTooEarly") {
		return "too_early"
	}
	if strings.Contains(errStr, "TransferExpired") {
		return "too_late"
	}
	if strings.Contains(errStr, "InvalidSignature") {
		return "invalid_signature"
	}
	if strings.Contains(errStr, "execution reverted") {
		return "revert"
	}
	return "rpc_error"
}

// sleepCtx is a timed suspension that yields until the delay elapses or ctx
// is cancelled. Returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func gwei(wei *big.Int) float64 {
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return value
}
