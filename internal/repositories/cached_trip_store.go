package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/redis/go-redis/v9"
)

const tripCachePrefix = "bus:trip:"

// CachedTripStore puts a Redis read-through tier in front of a TripStore. The
// cache is best effort: Redis failures are logged and reads fall through. Ledger
// writes invalidate the cached trip before returning.
type CachedTripStore struct {
	Inner TripStore
	Redis redis.Cmdable
	TTL   time.Duration
}

func tripCacheKey(id string) string { return tripCachePrefix + id }

// LedgerSource returns the store the seat ledger should seed from. The ledger must
// never reseed from a cached copy, so a cache tier is unwrapped.
func LedgerSource(s TripStore) TripStore {
	switch c := s.(type) {
	case CachedTripStore:
		return c.Inner
	case *CachedTripStore:
		return c.Inner
	}
	return s
}

func (s CachedTripStore) CreateTrip(ctx context.Context, trip models.Trip) error {
	return s.Inner.CreateTrip(ctx, trip)
}

func (s CachedTripStore) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	key := tripCacheKey(id)
	raw, err := s.Redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var trip models.Trip
		if jsonErr := json.Unmarshal(raw, &trip); jsonErr == nil {
			return trip, nil
		}
		log.Printf("[CACHE] action=get_trip trip_id=%s msg=dropping undecodable entry", id)
	case !errors.Is(err, redis.Nil):
		log.Printf("[CACHE] action=get_trip trip_id=%s msg=%v", id, err)
	}

	trip, err := s.Inner.GetTrip(ctx, id)
	if err != nil {
		return trip, err
	}
	if payload, err := json.Marshal(trip); err == nil {
		if err := s.Redis.Set(ctx, key, payload, s.TTL).Err(); err != nil {
			log.Printf("[CACHE] action=set_trip trip_id=%s msg=%v", id, err)
		}
	}
	return trip, nil
}

func (s CachedTripStore) ListTrips(ctx context.Context) ([]models.Trip, error) {
	return s.Inner.ListTrips(ctx)
}

func (s CachedTripStore) SearchByDestination(ctx context.Context, text string) ([]models.Trip, error) {
	return s.Inner.SearchByDestination(ctx, text)
}

func (s CachedTripStore) SaveLedger(ctx context.Context, id string, expectedVersion int64, seats map[string]models.Reservation) error {
	err := s.Inner.SaveLedger(ctx, id, expectedVersion, seats)
	if err == nil || errors.Is(err, domain.ErrVersionConflict) {
		if delErr := s.Redis.Del(ctx, tripCacheKey(id)).Err(); delErr != nil {
			log.Printf("[CACHE] action=invalidate_trip trip_id=%s msg=%v", id, delErr)
		}
	}
	return err
}
