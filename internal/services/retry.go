package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// RetryPolicy bounds how often a failed durability write is repeated. Only
// StorageError is retried and never a version conflict.
type RetryPolicy struct {
	Retries int
	Backoff time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Retries < 0 {
		return 1
	}
	return p.Retries + 1
}

func retryable(err error) bool {
	return domain.IsStorage(err) && !errors.Is(err, domain.ErrVersionConflict)
}

func (p RetryPolicy) do(ctx context.Context, requestID, action string, fn func() error) error {
	var err error
	attempts := p.attempts()
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil || !retryable(err) || i == attempts {
			return err
		}
		utils.LogEvent(requestID, "storage", action+"_retry", fmt.Sprintf("attempt=%d err=%v", i, err))
		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.Backoff * time.Duration(i)):
		}
	}
	return err
}

// persistTo writes the ledger mutation back to the store. The claim or release it
// belongs to has already been decided; only the write is repeated.
func persistTo(store repositories.TripStore, policy RetryPolicy, requestID, action string) ledger.PersistFunc {
	return func(ctx context.Context, m ledger.Mutation) error {
		return policy.do(ctx, requestID, action, func() error {
			return store.SaveLedger(ctx, m.TripID, m.ExpectedVersion, m.Seats)
		})
	}
}
