package payments

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrPollTimeout means the attempt cap was reached with the transaction
// still pending. The webhook remains the authoritative completion path;
// the poller only shortens the common case.
var ErrPollTimeout = errors.New("payment status polling timed out")

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollAttempts = 12
)

// StatusPoller polls PayFlow for a transaction outcome on a fixed
// interval with a capped attempt count. The clock is injected so tests
// drive time themselves.
type StatusPoller struct {
	gateway  Gateway
	clock    clockwork.Clock
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

func NewStatusPoller(gateway Gateway, clock clockwork.Clock, interval time.Duration, attempts int, logger *slog.Logger) *StatusPoller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusPoller{
		gateway:  gateway,
		clock:    clock,
		interval: interval,
		attempts: attempts,
		logger:   logger,
	}
}

// Poll queries until the transaction leaves pending, the attempt cap is
// reached, or ctx is cancelled. Query errors count as attempts: a flaky
// gateway must not extend the polling window.
func (p *StatusPoller) Poll(ctx context.Context, checkoutID string) (*TransactionStatus, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		status, err := p.gateway.QueryStatus(ctx, checkoutID)
		if err != nil {
			p.logger.Warn("payment status query failed",
				slog.String("checkout_id", checkoutID),
				slog.Int("attempt", attempt),
				slog.Any("error", err))
		} else if status.Status != TxPending {
			return status, nil
		}

		if attempt == p.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
	return nil, ErrPollTimeout
}
