package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/five82/ts3view/internal/state"
	"github.com/five82/ts3view/internal/viewer"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// Renderer produces one render result per call.
type Renderer interface {
	Render(ctx context.Context) viewer.Result
}

// Poller re-renders the server into the store at a fixed cadence and backs
// off exponentially while renders fail.
type Poller struct {
	renderer Renderer
	store    *state.Store
	interval time.Duration
	logger   *slog.Logger
	kick     chan struct{}
}

// NewPoller builds a Poller. A non-positive interval uses the default.
func NewPoller(renderer Renderer, store *state.Store, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		renderer: renderer,
		store:    store,
		interval: interval,
		logger:   logger,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine. It returns immediately; the first
// render starts right away.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

// Refresh asks for a render now instead of at the next tick. It never
// blocks; requests made while one is pending are merged.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *Poller) run(ctx context.Context) {
	p.logger.Info("poller started", slog.Duration("interval", p.interval))
	failures := 0
	for {
		failures = p.poll(ctx, failures)
		wait := calculateBackoff(failures, p.interval)
		if failures > 0 {
			p.logger.Warn("poll failed, backing off",
				slog.Int("failures", failures),
				slog.Duration("backoff", wait))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("poller stopped")
			return
		case <-timer.C:
		case <-p.kick:
			timer.Stop()
		}
	}
}

// poll renders once, records the result and returns the new consecutive
// failure count.
func (p *Poller) poll(ctx context.Context, failures int) int {
	res := p.renderer.Render(ctx)
	if ctx.Err() != nil && !res.OK() {
		// Shutting down; do not record the cancellation as a failure.
		return failures
	}
	p.store.Update(res)
	if res.OK() {
		if failures > 0 {
			p.logger.Info("poll recovered", slog.Int("after_failures", failures))
		}
		return 0
	}
	return failures + 1
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff. Intervals already above the cap are left alone.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 || interval >= maxBackoff {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
