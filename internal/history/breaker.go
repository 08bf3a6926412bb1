package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
	"github.com/siakad-labs/kbk-classifier/internal/metrics"
)

// BreakerStore decorates a Store with a circuit breaker so a dead
// backing store fails fast instead of spending a timeout on every
// request. History is best-effort by contract, which makes shedding
// these calls safe.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps a store. The circuit opens after five
// consecutive failures and probes again after 15 seconds.
func NewBreakerStore(inner Store) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "history-redis",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("History circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &BreakerStore{inner: inner, cb: cb}
}

func (b *BreakerStore) execute(op string, fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if err != nil {
		metrics.HistoryFailures.WithLabelValues(op).Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return res, nil
}

func (b *BreakerStore) Append(ctx context.Context, sessionID string, rec domain.HistoryRecord) (string, error) {
	res, err := b.execute("append", func() (any, error) {
		return b.inner.Append(ctx, sessionID, rec)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *BreakerStore) List(ctx context.Context, sessionID string, limit int) ([]domain.HistoryRecord, error) {
	res, err := b.execute("list", func() (any, error) {
		return b.inner.List(ctx, sessionID, limit)
	})
	if err != nil {
		return nil, err
	}
	return res.([]domain.HistoryRecord), nil
}

func (b *BreakerStore) DeleteOne(ctx context.Context, sessionID, recordID string) (bool, error) {
	res, err := b.execute("delete", func() (any, error) {
		return b.inner.DeleteOne(ctx, sessionID, recordID)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (b *BreakerStore) Clear(ctx context.Context, sessionID string) (int, error) {
	res, err := b.execute("clear", func() (any, error) {
		return b.inner.Clear(ctx, sessionID)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}

// HealthCheck bypasses the breaker: the probe itself is how the service
// learns the store recovered.
func (b *BreakerStore) HealthCheck(ctx context.Context) bool {
	return b.inner.HealthCheck(ctx)
}

func (b *BreakerStore) Close() error {
	return b.inner.Close()
}
