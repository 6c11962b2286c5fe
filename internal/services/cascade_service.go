package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"busbooking/internal/domain"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"

	"golang.org/x/sync/errgroup"
)

// CascadeService frees every seat a removed user holds across all trips.
type CascadeService struct {
	Trips     repositories.TripStore
	Ledger    *ledger.Ledger
	Workers   int
	Retry     RetryPolicy
	RequestID string
}

// ReleaseUser sweeps all trips and returns the number of seats it freed. Trips
// where the user holds nothing are skipped without a write.
func (s CascadeService) ReleaseUser(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.ValidationError{Field: "userId", Msg: "is required"}
	}
	trips, err := s.Trips.ListTrips(ctx)
	if err != nil {
		return 0, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	var freed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, trip := range trips {
		g.Go(func() error {
			labels, err := s.releaseTrip(gctx, trip.ID, userID)
			if err != nil {
				return fmt.Errorf("release seats on trip %s: %w", trip.ID, err)
			}
			if len(labels) > 0 {
				freed.Add(int64(len(labels)))
				utils.LogEvent(s.RequestID, "cascade", "release_trip", fmt.Sprintf("trip_id=%s holder=%s seats=%s", trip.ID, userID, strings.Join(labels, ",")))
			}
			return nil
		})
	}
	err = g.Wait()
	total := int(freed.Load())
	utils.LogEvent(s.RequestID, "cascade", "release_user", fmt.Sprintf("holder=%s trips=%d freed=%d", userID, len(trips), total))
	return total, err
}

// releaseTrip repeats the whole sweep after a version conflict. The ledger has
// reloaded the trip by then, and releasing a holder's seats twice is harmless.
func (s CascadeService) releaseTrip(ctx context.Context, tripID, userID string) ([]string, error) {
	persist := persistTo(s.Trips, s.Retry, s.RequestID, "cascade_release")
	attempts := s.Retry.attempts()
	for i := 1; ; i++ {
		labels, err := s.Ledger.ReleaseAllForHolder(ctx, tripID, userID, persist)
		switch {
		case err == nil:
			return labels, nil
		case domain.IsNotFound(err):
			return nil, nil
		case errors.Is(err, domain.ErrVersionConflict) && i < attempts:
			continue
		default:
			return nil, err
		}
	}
}
