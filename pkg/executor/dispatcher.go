package executor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/schedpay/relayer/pkg/config"
	"github.com/schedpay/relayer/pkg/contracts"
	"github.com/schedpay/relayer/pkg/gateway"
	"github.com/schedpay/relayer/pkg/logger"
	"github.com/schedpay/relayer/pkg/metrics"
	"github.com/schedpay/relayer/pkg/models"
)

// activeLoops counts execution loops across dispatcher generations; loops
// started before a supervisor reset keep running under the new dispatcher.
var activeLoops atomic.Int64

// ActiveLoops returns the number of execution loops currently in flight.
func ActiveLoops() int64 {
	return activeLoops.Load()
}

// Resolver returns the current live gateway. Loops call it on every gateway
// access so they transparently pick up a freshly reset connection.
type Resolver func() gateway.Conn

// Dispatcher subscribes to the TransferScheduled stream and spawns one
// execution loop per observed transfer. One dispatcher instance exists per
// subscription session; the supervisor constructs a fresh one after every
// reset, so deduplication is scoped to the session and redelivered events
// are absorbed by the loop's completion check.
type Dispatcher struct {
	loopCtx       context.Context
	resolve       Resolver
	startBlock    uint64
	spender       common.Address
	gasLimit      uint64
	simBackoff    time.Duration
	feeRetryDelay time.Duration
	logger        logger.Logger
	now           func() time.Time
	seen          map[string]struct{}
}

// NewDispatcher creates a dispatcher for one subscription session. loopCtx
// governs the spawned execution loops and outlives the subscription: a
// supervisor reset cancels the subscription but never the loops.
func NewDispatcher(loopCtx context.Context, resolve Resolver, cfg *config.Config, gasLimit uint64, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		loopCtx:       loopCtx,
		resolve:       resolve,
		startBlock:    cfg.StartBlock,
		spender:       common.HexToAddress(cfg.RegistryAddress),
		gasLimit:      gasLimit,
		simBackoff:    cfg.SimulationBackoff,
		feeRetryDelay: cfg.FeeRetryDelay,
		logger:        log,
		now:           time.Now,
		seen:          make(map[string]struct{}),
	}
}

// Run subscribes from the configured starting block and dispatches events
// until ctx is cancelled or the subscription fails. A long wait inside any
// execution loop never blocks this loop; dispatch is fire-and-forget.
func (d *Dispatcher) Run(ctx context.Context) error {
	gw := d.resolve()

	sink := make(chan *contracts.RegistryTransferScheduled, 64)
	sub, err := gw.SubscribeScheduled(ctx, d.startBlock, sink)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	d.logger.Info("Subscribed to TransferScheduled events from block %d", d.startBlock)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription ended")
			}
			return fmt.Errorf("event subscription failed: %v", err)
		case ev := <-sink:
			if !ev.NotBeforeDate.IsUint64() || !ev.NotAfterDate.IsUint64() {
				d.logger.Error("Dropping transfer %s:%s, window [%s, %s] out of range",
					ev.Owner.Hex(), ev.Nonce.String(), ev.NotBeforeDate.String(), ev.NotAfterDate.String())
				continue
			}

			transfer := d.transferFromEvent(ev)
			key := transfer.Key()

			if _, dup := d.seen[key]; dup {
				metrics.DuplicateEvents.Inc()
				d.logger.Debug("Duplicate scheduling event for transfer %s, already dispatched", key)
				continue
			}
			d.seen[key] = struct{}{}

			metrics.TransfersDiscovered.Inc()
			go d.runTransfer(d.loopCtx, transfer)
		}
	}
}

// transferFromEvent builds the immutable transfer value from a scheduling
// log. The spender is the registry itself; it is not part of the event.
func (d *Dispatcher) transferFromEvent(ev *contracts.RegistryTransferScheduled) models.ScheduledTransfer {
	return models.ScheduledTransfer{
		Owner:       ev.Owner,
		Nonce:       ev.Nonce,
		Token:       ev.Token,
		To:          ev.To,
		Amount:      ev.Amount,
		Spender:     d.spender,
		NotBefore:   ev.NotBeforeDate.Uint64(),
		NotAfter:    ev.NotAfterDate.Uint64(),
		MaxBaseFee:  ev.MaxBaseFee,
		Signature:   ev.Signature,
		BlockNumber: ev.Raw.BlockNumber,
	}
}
