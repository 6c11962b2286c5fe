package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"

	"github.com/stretchr/testify/require"
)

var (
	admin  = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	riderA = domain.Actor{UserID: "rider-a", Role: domain.RoleUser}
	riderB = domain.Actor{UserID: "rider-b", Role: domain.RoleUser}
)

// countingStore wraps MemoryStore and can fail the next ledger writes.
type countingStore struct {
	*repositories.MemoryStore

	mu       sync.Mutex
	failNext int
	failWith error
	saves    atomic.Int64

	// gate, when set, parks GetTrip until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (s *countingStore) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	s.mu.Lock()
	gate, entered := s.gate, s.entered
	s.gate, s.entered = nil, nil
	s.mu.Unlock()
	if gate != nil {
		close(entered)
		<-gate
	}
	return s.MemoryStore.GetTrip(ctx, id)
}

// pauseNextGetTrip parks the next GetTrip call. The returned channel closes once a
// caller is parked; closing resume lets it continue.
func (s *countingStore) pauseNextGetTrip() (parked <-chan struct{}, resume chan struct{}) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate, s.entered = gate, entered
	s.mu.Unlock()
	return entered, gate
}

func (s *countingStore) SaveLedger(ctx context.Context, id string, expectedVersion int64, seats map[string]models.Reservation) error {
	s.saves.Add(1)
	s.mu.Lock()
	if s.failNext > 0 {
		s.failNext--
		err := s.failWith
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	return s.MemoryStore.SaveLedger(ctx, id, expectedVersion, seats)
}

func (s *countingStore) failSaves(n int, err error) {
	s.mu.Lock()
	s.failNext, s.failWith = n, err
	s.mu.Unlock()
}

type fixture struct {
	store   *countingStore
	ledger  *ledger.Ledger
	catalog CatalogService
	booking ReservationService
	cascade CascadeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{MemoryStore: repositories.NewMemoryStore()}
	store.PutUser(models.User{ID: admin.UserID, Username: "root", Role: "admin"})
	store.PutUser(models.User{ID: riderA.UserID, Username: "rider-a", Role: "user"})
	store.PutUser(models.User{ID: riderB.UserID, Username: "rider-b", Role: "user"})
	led := ledger.New(store)
	retry := RetryPolicy{Retries: 2, Backoff: time.Millisecond}
	return &fixture{
		store:  store,
		ledger: led,
		catalog: CatalogService{
			Trips:              store,
			Ledger:             led,
			MaxSeatsPerTrip:    60,
			DefaultSeatsPerRow: 4,
			Now:                func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) },
		},
		booking: ReservationService{Trips: store, Users: store, Ledger: led, Retry: retry},
		cascade: CascadeService{Trips: store, Ledger: led, Workers: 3, Retry: retry},
	}
}

func tripInput(number, destination string, seats, perRow int) models.TripInput {
	return models.TripInput{
		TripNumber:    number,
		Date:          "2026-03-01",
		Origin:        "Kathmandu",
		Destination:   destination,
		DepartureTime: "2026-03-01 07:30",
		Fare:          1200,
		TotalSeats:    seats,
		SeatsPerRow:   perRow,
		DriverName:    "Hari",
		DriverContact: "980000000",
	}
}

func (f *fixture) addTrip(t *testing.T, number string, seats, perRow int) models.Trip {
	t.Helper()
	trip, err := f.catalog.CreateTrip(context.Background(), admin, tripInput(number, "Pokhara", seats, perRow))
	require.NoError(t, err)
	return trip
}

func (f *fixture) book(t *testing.T, actor domain.Actor, tripID, seat string) {
	t.Helper()
	_, err := f.booking.BookSeat(context.Background(), actor, models.BookingRequest{
		TripID: tripID, SeatLabel: seat, PickupLocation: "Downtown", ContactNumber: "555-0100",
	})
	require.NoError(t, err)
}
