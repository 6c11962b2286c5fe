package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	trips map[string]models.Trip
	loads int
}

func newFakeSource(trips ...models.Trip) *fakeSource {
	s := &fakeSource{trips: map[string]models.Trip{}}
	for _, t := range trips {
		s.trips[t.ID] = t
	}
	return s
}

func (s *fakeSource) GetTrip(_ context.Context, id string) (models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	t, ok := s.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func fourSeatTrip(id string) models.Trip {
	return models.Trip{ID: id, TotalSeats: 4, SeatsPerRow: 2, Version: 1}
}

var (
	r1    = domain.Actor{UserID: "R1", Role: domain.RoleUser}
	r2    = domain.Actor{UserID: "R2", Role: domain.RoleUser}
	admin = domain.Actor{UserID: "ADM", Role: domain.RoleAdmin}
)

func heldLabels(t *testing.T, l *Ledger, tripID string) []string {
	t.Helper()
	snap, err := l.Snapshot(context.Background(), tripID)
	require.NoError(t, err)
	return snap.HeldLabels()
}

func TestLedgerEndToEndExample(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555-0100", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))

	_, err = l.Claim(ctx, "T1", "1A", "R2", "Uptown", "555-0200", nil)
	assert.True(t, domain.IsSeatTaken(err), "got %v", err)
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))

	_, err = l.Claim(ctx, "T1", "1B", "R2", "Uptown", "555-0200", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A", "1B"}, heldLabels(t, l, "T1"))

	_, err = l.Release(ctx, "T1", "1A", r2, nil)
	assert.True(t, domain.IsPermission(err), "got %v", err)

	_, err = l.Release(ctx, "T1", "1A", r1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1B"}, heldLabels(t, l, "T1"))

	_, err = l.Release(ctx, "T1", "1A", r1, nil)
	assert.True(t, domain.IsNotBooked(err), "got %v", err)
}

func TestClaimConcurrentSameSeatExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(models.Trip{ID: "T1", TotalSeats: 40, SeatsPerRow: 4, Version: 1}))

	const n = 64
	var (
		wg     sync.WaitGroup
		wins   atomic.Int32
		taken  atomic.Int32
		writes atomic.Int32
	)
	persist := func(context.Context, Mutation) error {
		writes.Add(1)
		time.Sleep(time.Millisecond)
		return nil
	}
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := l.Claim(ctx, "T1", "3C", fmt.Sprintf("rider-%d", i), "Stop", "555", persist)
			switch {
			case err == nil:
				wins.Add(1)
			case domain.IsSeatTaken(err):
				taken.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, n-1, taken.Load())
	assert.EqualValues(t, 1, writes.Load())
	snap, err := l.Snapshot(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.HeldCount())
}

func TestClaimRejectsLabelsOutsideSeatMap(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	for _, label := range []string{"3A", "1C", "0A", "01A", "A1", "", "1", "1AA", "-1A", "+1A"} {
		_, err := l.Claim(ctx, "T1", label, "R1", "Downtown", "555", nil)
		assert.True(t, domain.IsInvalidSeat(err), "label %q: got %v", label, err)
	}
	assert.Empty(t, heldLabels(t, l, "T1"))
}

func TestClaimCapacityBound(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(models.Trip{ID: "T1", TotalSeats: 5, SeatsPerRow: 2, Version: 1}))

	layout, err := NewLayout(5, 2)
	require.NoError(t, err)
	for _, label := range layout.Labels() {
		_, err := l.Claim(ctx, "T1", label, "R1", "Downtown", "555", nil)
		require.NoError(t, err)
	}
	// 3B would be the sixth seat of a five-seat trip.
	_, err = l.Claim(ctx, "T1", "3B", "R1", "Downtown", "555", nil)
	assert.True(t, domain.IsInvalidSeat(err))

	snap, err := l.Snapshot(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 5, snap.HeldCount())
	assert.Equal(t, 0, snap.FreeCount())
}

func TestClaimRequiresPickupAndContact(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	_, err := l.Claim(ctx, "T1", "1A", "R1", "  ", "555", nil)
	assert.True(t, domain.IsValidation(err))
	_, err = l.Claim(ctx, "T1", "1A", "R1", "Downtown", "", nil)
	assert.True(t, domain.IsValidation(err))
	_, err = l.Claim(ctx, "T1", "1A", "", "Downtown", "555", nil)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, heldLabels(t, l, "T1"))
}

func TestClaimNormalizesLabel(t *testing.T) {
	l := New(newFakeSource(fourSeatTrip("T1")))
	held, err := l.Claim(context.Background(), "T1", " 2b ", "R1", "Downtown", "555", nil)
	require.NoError(t, err)
	assert.Equal(t, "2B", held.Seat)
}

func TestRoundTripFreesSeatForAnotherHolder(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	_, err := l.Claim(ctx, "T1", "2A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)
	_, err = l.Release(ctx, "T1", "2A", r1, nil)
	require.NoError(t, err)
	held, err := l.Claim(ctx, "T1", "2A", "R2", "Uptown", "556", nil)
	require.NoError(t, err)
	assert.Equal(t, "R2", held.Reservation.HolderID)
}

func TestReleaseByAdminOverridesHolder(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)
	released, err := l.Release(ctx, "T1", "1A", admin, nil)
	require.NoError(t, err)
	assert.Equal(t, "R1", released.Reservation.HolderID)
}

func TestReleaseAllForHolderFreesOnlyThatHolder(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	for _, c := range []struct{ seat, holder string }{{"1A", "A"}, {"2B", "A"}, {"1B", "B"}} {
		_, err := l.Claim(ctx, "T1", c.seat, c.holder, "Stop", "555", nil)
		require.NoError(t, err)
	}

	labels, err := l.ReleaseAllForHolder(ctx, "T1", "A", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1A", "2B"}, labels)
	assert.Equal(t, []string{"1B"}, heldLabels(t, l, "T1"))

	labels, err = l.ReleaseAllForHolder(ctx, "T1", "nobody", func(context.Context, Mutation) error {
		t.Fatalf("persist must not run when nothing is released")
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, labels)
}

func TestReleaseAllForHolderRacesWithClaims(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(models.Trip{ID: "T1", TotalSeats: 40, SeatsPerRow: 4, Version: 1}))
	layout, _ := NewLayout(40, 4)
	labels := layout.Labels()

	for _, label := range labels[:20] {
		_, err := l.Claim(ctx, "T1", label, "leaving", "Stop", "555", nil)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := l.ReleaseAllForHolder(ctx, "T1", "leaving", nil)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		for _, label := range labels[20:] {
			_, err := l.Claim(ctx, "T1", label, "staying", "Stop", "555", nil)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	snap, err := l.Snapshot(ctx, "T1")
	require.NoError(t, err)
	assert.Empty(t, snap.HeldBy("leaving"))
	assert.Len(t, snap.HeldBy("staying"), 20)
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))
	boom := domain.StorageError{Op: "save_ledger", Err: errors.New("disk full")}
	failing := func(context.Context, Mutation) error { return boom }

	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", failing)
	assert.True(t, domain.IsStorage(err))
	assert.Empty(t, heldLabels(t, l, "T1"))

	_, err = l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)

	_, err = l.Release(ctx, "T1", "1A", r1, failing)
	assert.True(t, domain.IsStorage(err))
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))

	_, err = l.ReleaseAllForHolder(ctx, "T1", "R1", failing)
	assert.True(t, domain.IsStorage(err))
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))
}

func TestPersistReceivesFullSeatMapAndVersion(t *testing.T) {
	ctx := context.Background()
	trip := fourSeatTrip("T1")
	trip.Version = 7
	trip.Seats = map[string]models.Reservation{"2A": {HolderID: "R9", PickupLocation: "P", ContactNumber: "C"}}
	l := New(newFakeSource(trip))

	var got Mutation
	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", func(_ context.Context, m Mutation) error {
		got = m
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ExpectedVersion)
	assert.Len(t, got.Seats, 2)
	assert.Equal(t, "R9", got.Seats["2A"].HolderID)

	snap, err := l.Snapshot(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), snap.Version)
}

func TestVersionConflictReseedsFromSource(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(fourSeatTrip("T1"))
	l := New(src)

	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)

	// Another instance booked 2A meanwhile.
	src.mu.Lock()
	src.trips["T1"] = models.Trip{ID: "T1", TotalSeats: 4, SeatsPerRow: 2, Version: 5,
		Seats: map[string]models.Reservation{"2A": {HolderID: "R7", PickupLocation: "P", ContactNumber: "C"}}}
	src.mu.Unlock()

	conflict := func(context.Context, Mutation) error {
		return domain.StorageError{Op: "save_ledger", Err: domain.ErrVersionConflict}
	}
	_, err = l.Claim(ctx, "T1", "1B", "R1", "Downtown", "555", conflict)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	assert.Equal(t, []string{"2A"}, heldLabels(t, l, "T1"))
	assert.Equal(t, 2, src.loads)
}

func TestUnknownTripSurfacesNotFound(t *testing.T) {
	l := New(newFakeSource())
	_, err := l.Claim(context.Background(), "missing", "1A", "R1", "Downtown", "555", nil)
	assert.True(t, domain.IsNotFound(err))
	_, err = l.Snapshot(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))
	_, err = l.Snapshot(context.Background(), " ")
	assert.True(t, domain.IsValidation(err))
}

func TestTripsAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1"), fourSeatTrip("T2")))

	blocked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", func(context.Context, Mutation) error {
			close(blocked)
			<-release
			return nil
		})
	}()
	<-blocked

	done := make(chan error, 1)
	go func() {
		_, err := l.Claim(ctx, "T2", "1A", "R2", "Uptown", "556", nil)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("claim on T2 blocked behind T1")
	}
	close(release)
}

func TestSeedDoesNotOverrideLiveState(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))
	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)

	require.NoError(t, l.Seed(fourSeatTrip("T1")))
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))

	l.Evict("T1")
	assert.Empty(t, heldLabels(t, l, "T1"))
}

func TestUnknownTripsLeaveNoEntries(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("ghost-%d", i)
		_, err := l.Snapshot(ctx, id)
		require.True(t, domain.IsNotFound(err))
		_, err = l.Release(ctx, id, "1A", admin, nil)
		require.True(t, domain.IsNotFound(err))
		_, err = l.ReleaseAllForHolder(ctx, id, "R1", nil)
		require.True(t, domain.IsNotFound(err))
		l.Evict(id)
	}
	_, err := l.Snapshot(ctx, "T1")
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.trips, 1)
	assert.Contains(t, l.trips, "T1")
}

func TestRetiredHolderCannotClaim(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)

	l.RetireHolder("R1")
	assert.True(t, l.IsRetired("R1"))

	_, err = l.Claim(ctx, "T1", "1B", "R1", "Downtown", "555", nil)
	require.True(t, domain.IsPermission(err), "got %v", err)
	assert.Equal(t, []string{"1A"}, heldLabels(t, l, "T1"))

	// Other holders and releases are unaffected.
	_, err = l.Claim(ctx, "T1", "1B", "R2", "Uptown", "556", nil)
	require.NoError(t, err)
	labels, err := l.ReleaseAllForHolder(ctx, "T1", "R1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1A"}, labels)

	l.ReinstateHolder("R1")
	_, err = l.Claim(ctx, "T1", "2A", "R1", "Downtown", "555", nil)
	require.NoError(t, err)
}

func TestRetireWaitsForInFlightClaim(t *testing.T) {
	ctx := context.Background()
	l := New(newFakeSource(fourSeatTrip("T1")))

	inPersist := make(chan struct{})
	resume := make(chan struct{})
	claimed := make(chan error, 1)
	go func() {
		_, err := l.Claim(ctx, "T1", "1A", "R1", "Downtown", "555", func(context.Context, Mutation) error {
			close(inPersist)
			<-resume
			return nil
		})
		claimed <- err
	}()
	<-inPersist

	l.RetireHolder("R1")
	swept := make(chan []string, 1)
	go func() {
		labels, _ := l.ReleaseAllForHolder(ctx, "T1", "R1", nil)
		swept <- labels
	}()
	close(resume)

	require.NoError(t, <-claimed)
	assert.Equal(t, []string{"1A"}, <-swept)
	assert.Empty(t, heldLabels(t, l, "T1"))
}
