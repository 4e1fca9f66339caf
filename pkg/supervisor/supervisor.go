package supervisor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schedpay/relayer/pkg/config"
	"github.com/schedpay/relayer/pkg/executor"
	"github.com/schedpay/relayer/pkg/gateway"
	"github.com/schedpay/relayer/pkg/logger"
	"github.com/schedpay/relayer/pkg/metrics"
)

// Supervisor keeps the chain gateway alive. It owns the swappable gateway
// handle, runs the periodic liveness probe, and is the only place
// resubscription logic lives. A probe failure, a socket error, and an ended
// subscription all funnel into the same reset path.
type Supervisor struct {
	cfg    *config.Config
	logger logger.Logger
	handle *gateway.Handle

	// dial builds a fresh gateway; replaceable in tests
	dial func(ctx context.Context) (gateway.Conn, error)

	mu             sync.Mutex
	resetting      bool
	gasLimit       uint64
	dispatchCancel context.CancelFunc

	probeMu      sync.Mutex
	probeRunning bool
	probeStop    chan struct{}

	resetCount atomic.Uint64
	lastProbe  atomic.Int64 // unix seconds of the last successful probe
}

// New creates a supervisor for the configured endpoint.
func New(cfg *config.Config, log logger.Logger) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		logger: log,
	}
	s.dial = func(ctx context.Context) (gateway.Conn, error) {
		return gateway.Dial(ctx, cfg, log)
	}
	return s
}

// Start establishes the initial gateway, reads the relay gas usage from the
// registry, and launches the event dispatcher and the liveness probe.
func (s *Supervisor) Start(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to establish initial gateway: %v", err)
	}

	gasLimit, err := s.relayGasLimit(ctx, conn)
	if err != nil {
		conn.Close()
		return err
	}

	s.handle = gateway.NewHandle(conn)
	s.mu.Lock()
	s.gasLimit = gasLimit
	s.mu.Unlock()
	s.lastProbe.Store(time.Now().Unix())

	s.startDispatcher(ctx)
	s.startProbe(ctx)

	s.logger.Notice("Relay worker started: relay %s, registry %s, gas limit %d, replaying from block %d",
		conn.RelayAddress().Hex(), conn.RegistryAddress().Hex(), gasLimit, s.cfg.StartBlock)
	return nil
}

// Stop halts the probe and closes the gateway, best effort. In-flight
// execution loops are abandoned.
func (s *Supervisor) Stop() {
	s.stopProbe()

	s.mu.Lock()
	cancel := s.dispatchCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if s.handle != nil {
		s.handle.Resolve().Close()
	}
}

// Handle exposes the swappable gateway reference.
func (s *Supervisor) Handle() *gateway.Handle {
	return s.handle
}

// ResetCount returns how many gateway resets have been performed.
func (s *Supervisor) ResetCount() uint64 {
	return s.resetCount.Load()
}

// Healthy reports whether the liveness probe succeeded recently.
func (s *Supervisor) Healthy() bool {
	last := time.Unix(s.lastProbe.Load(), 0)
	return time.Since(last) < 3*s.cfg.ProbeInterval
}

// relayGasLimit derives the execution gas limit from the contract-reported
// gas usage, buffered by the configured multiplier.
func (s *Supervisor) relayGasLimit(ctx context.Context, conn gateway.Conn) (uint64, error) {
	usage, err := conn.RelayGasUsage(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to derive relay gas usage: %v", err)
	}
	return uint64(float64(usage) * s.cfg.GasMultiplier), nil
}

// startDispatcher launches a fresh dispatcher session. The subscription
// context is cancelled on reset; the loop context (ctx) is not, so in-flight
// transfers keep retrying through the shared handle.
func (s *Supervisor) startDispatcher(ctx context.Context) {
	subCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.dispatchCancel = cancel
	gasLimit := s.gasLimit
	s.mu.Unlock()

	d := executor.NewDispatcher(ctx, s.handle.Resolve, s.cfg, gasLimit, s.logger)

	go func() {
		err := d.Run(subCtx)
		if err != nil && ctx.Err() == nil && subCtx.Err() == nil {
			s.reset(ctx, err)
		}
	}()
}

// startProbe begins the periodic liveness probe if it is not running.
func (s *Supervisor) startProbe(ctx context.Context) {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if s.probeRunning {
		return
	}

	s.probeStop = make(chan struct{})
	s.probeRunning = true

	go s.probeLoop(ctx, s.probeStop)
}

// stopProbe halts the periodic liveness probe.
func (s *Supervisor) stopProbe() {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if !s.probeRunning {
		return
	}

	close(s.probeStop)
	s.probeStop = nil
	s.probeRunning = false
}

func (s *Supervisor) probeLoop(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := s.probeOnce(ctx); err != nil {
				metrics.ProbeFailures.Inc()
				s.logger.Error("Liveness probe failed: %v", err)
				// reset restarts the probe with a fresh loop
				s.reset(ctx, err)
				return
			}
			s.lastProbe.Store(time.Now().Unix())
		}
	}
}

func (s *Supervisor) probeOnce(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	_, err := s.handle.Resolve().LatestBlockNumber(timeoutCtx)
	return err
}

// reset tears down and rebuilds the gateway plus the event subscription. It
// is idempotent: a reentrant trigger while a reset is in progress is a
// no-op. Reconnection has no retry limit; it loops until a connection
// succeeds or ctx is cancelled.
func (s *Supervisor) reset(ctx context.Context, cause error) {
	s.mu.Lock()
	if s.resetting {
		s.mu.Unlock()
		s.logger.Debug("Reset already in progress, ignoring trigger: %v", cause)
		return
	}
	s.resetting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.resetting = false
		s.mu.Unlock()
	}()

	s.resetCount.Add(1)
	metrics.GatewayResets.Inc()
	s.logger.Notice("Gateway reset triggered: %v", cause)

	s.stopProbe()

	s.mu.Lock()
	cancel := s.dispatchCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.handle.Resolve().Close()

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			s.logger.Error("Gateway reconnect failed: %v, retrying in %s", err, s.cfg.ReconnectDelay)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		gasLimit, err := s.relayGasLimit(ctx, conn)
		if err != nil {
			conn.Close()
			s.logger.Error("Gateway rebuild failed: %v, retrying in %s", err, s.cfg.ReconnectDelay)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		s.handle.Swap(conn)
		s.mu.Lock()
		s.gasLimit = gasLimit
		s.mu.Unlock()
		break
	}

	s.lastProbe.Store(time.Now().Unix())
	s.startDispatcher(ctx)
	s.startProbe(ctx)

	s.logger.Notice("Gateway reset complete, resubscribed from block %d", s.cfg.StartBlock)
}

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
