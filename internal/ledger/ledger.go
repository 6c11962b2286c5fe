// Package ledger owns the per-trip seat state and its concurrency discipline.
//
// Every mutation of a trip runs under that trip's mutex: the seat is tested and set
// in one step, the durability callback runs while the lock is still held, and a
// failed write rolls the seat back before the lock is released. Readers never take
// the lock; they load the last published Snapshot.
package ledger

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// Source loads the durable state of a trip when the ledger has no live copy.
type Source interface {
	GetTrip(ctx context.Context, id string) (models.Trip, error)
}

// Mutation is the full seat map to persist, tagged with the version it was built on.
type Mutation struct {
	TripID          string
	ExpectedVersion int64
	Seats           map[string]models.Reservation
}

// PersistFunc makes a mutation durable. A nil PersistFunc keeps the change in memory.
type PersistFunc func(ctx context.Context, m Mutation) error

type Ledger struct {
	source Source
	now    func() time.Time

	mu      sync.Mutex
	trips   map[string]*tripLedger
	retired map[string]struct{}
}

type tripLedger struct {
	id string

	mu      sync.Mutex
	loaded  bool
	layout  Layout
	slots   []*models.Reservation
	version int64

	snap atomic.Pointer[Snapshot]
}

func New(source Source) *Ledger {
	return &Ledger{
		source:  source,
		now:     time.Now,
		trips:   map[string]*tripLedger{},
		retired: map[string]struct{}{},
	}
}

// entry returns the single tripLedger for an id. Entries are never removed from the
// map so two goroutines can never hold different mutexes for the same trip.
func (l *Ledger) entry(tripID string) *tripLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.trips[tripID]
	if !ok {
		e = &tripLedger{id: tripID}
		l.trips[tripID] = e
	}
	return e
}

func (l *Ledger) lookup(tripID string) (*tripLedger, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.trips[tripID]
	return e, ok
}

// resolve returns the entry for a trip, loading it from the source first when the
// ledger has never seen the id. Unknown ids never get an entry.
func (l *Ledger) resolve(ctx context.Context, tripID string) (*tripLedger, error) {
	if e, ok := l.lookup(tripID); ok {
		return e, nil
	}
	if l.source == nil {
		return nil, domain.NotFoundError{Resource: "trip"}
	}
	trip, err := l.source.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	e := l.entry(tripID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		if err := e.install(trip); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// acquire locks the trip and seeds it from the source if needed. On success the
// caller owns e.mu.
func (l *Ledger) acquire(ctx context.Context, tripID string) (*tripLedger, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, domain.ValidationError{Field: "tripId", Msg: "is required"}
	}
	e, err := l.resolve(ctx, tripID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if !e.loaded {
		if err := l.seed(ctx, e); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	return e, nil
}

func (l *Ledger) seed(ctx context.Context, e *tripLedger) error {
	if l.source == nil {
		return domain.NotFoundError{Resource: "trip"}
	}
	trip, err := l.source.GetTrip(ctx, e.id)
	if err != nil {
		return err
	}
	return e.install(trip)
}

// Seed installs an already loaded trip, e.g. right after creation. It is a no-op
// when the trip is live in memory.
func (l *Ledger) Seed(trip models.Trip) error {
	e := l.entry(trip.ID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	return e.install(trip)
}

func (e *tripLedger) install(trip models.Trip) error {
	layout, err := NewLayout(trip.TotalSeats, trip.SeatsPerRow)
	if err != nil {
		return domain.InternalError{Msg: "stored trip has an invalid seat layout", Err: err}
	}
	slots := make([]*models.Reservation, layout.TotalSeats)
	for label, rec := range trip.Seats {
		idx, err := layout.Index(label)
		if err != nil {
			log.Printf("[LEDGER] action=seed trip_id=%s msg=dropping unknown seat %q", e.id, label)
			continue
		}
		r := rec
		slots[idx] = &r
	}
	e.layout = layout
	e.slots = slots
	e.version = trip.Version
	e.loaded = true
	e.publish()
	return nil
}

// Claim atomically moves a free seat to held.
func (l *Ledger) Claim(ctx context.Context, tripID, label, holderID, pickupLocation, contactNumber string, persist PersistFunc) (models.HeldSeat, error) {
	holderID = strings.TrimSpace(holderID)
	pickupLocation = strings.TrimSpace(pickupLocation)
	contactNumber = strings.TrimSpace(contactNumber)
	if holderID == "" {
		return models.HeldSeat{}, domain.ValidationError{Field: "holder", Msg: "is required"}
	}

	e, err := l.acquire(ctx, tripID)
	if err != nil {
		return models.HeldSeat{}, err
	}
	defer e.mu.Unlock()

	if l.IsRetired(holderID) {
		return models.HeldSeat{}, domain.PermissionError{Msg: "account has been removed"}
	}
	idx, err := e.layout.Index(label)
	if err != nil {
		return models.HeldSeat{}, err
	}
	if pickupLocation == "" {
		return models.HeldSeat{}, domain.ValidationError{Field: "pickupLocation", Msg: "is required"}
	}
	if contactNumber == "" {
		return models.HeldSeat{}, domain.ValidationError{Field: "contactNumber", Msg: "is required"}
	}

	seat := e.layout.Label(idx)
	if e.slots[idx] != nil {
		return models.HeldSeat{}, domain.SeatTakenError{Seat: seat}
	}

	rec := &models.Reservation{
		HolderID:       holderID,
		PickupLocation: pickupLocation,
		ContactNumber:  contactNumber,
		CreatedAt:      l.now().UTC(),
	}
	e.slots[idx] = rec
	if err := e.commit(ctx, persist); err != nil {
		e.slots[idx] = nil
		return models.HeldSeat{}, err
	}
	return models.HeldSeat{Seat: seat, Reservation: *rec}, nil
}

// Release frees a held seat. Only the holder or an admin may release it.
func (l *Ledger) Release(ctx context.Context, tripID, label string, requester domain.Actor, persist PersistFunc) (models.HeldSeat, error) {
	e, err := l.acquire(ctx, tripID)
	if err != nil {
		return models.HeldSeat{}, err
	}
	defer e.mu.Unlock()

	idx, err := e.layout.Index(label)
	if err != nil {
		return models.HeldSeat{}, err
	}
	seat := e.layout.Label(idx)
	rec := e.slots[idx]
	if rec == nil {
		return models.HeldSeat{}, domain.NotBookedError{Seat: seat}
	}
	if !requester.CanManage(rec.HolderID) {
		return models.HeldSeat{}, domain.PermissionError{Msg: "only the seat holder or an admin can cancel this booking"}
	}

	e.slots[idx] = nil
	if err := e.commit(ctx, persist); err != nil {
		e.slots[idx] = rec
		return models.HeldSeat{}, err
	}
	return models.HeldSeat{Seat: seat, Reservation: *rec}, nil
}

// ReleaseAllForHolder frees every seat of the trip held by holderID and returns the
// labels it touched. Nothing is persisted when the holder has no seats.
func (l *Ledger) ReleaseAllForHolder(ctx context.Context, tripID, holderID string, persist PersistFunc) ([]string, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, domain.ValidationError{Field: "holder", Msg: "is required"}
	}
	e, err := l.acquire(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	released := map[int]*models.Reservation{}
	labels := []string{}
	for i, rec := range e.slots {
		if rec != nil && rec.HolderID == holderID {
			released[i] = rec
			labels = append(labels, e.layout.Label(i))
		}
	}
	if len(released) == 0 {
		return labels, nil
	}

	for i := range released {
		e.slots[i] = nil
	}
	if err := e.commit(ctx, persist); err != nil {
		for i, rec := range released {
			e.slots[i] = rec
		}
		return nil, err
	}
	return labels, nil
}

// Snapshot returns the last published state of the trip without blocking writers.
func (l *Ledger) Snapshot(ctx context.Context, tripID string) (*Snapshot, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, domain.ValidationError{Field: "tripId", Msg: "is required"}
	}
	if e, ok := l.lookup(tripID); ok {
		if s := e.snap.Load(); s != nil {
			return s, nil
		}
	}
	locked, err := l.acquire(ctx, tripID)
	if err != nil {
		return nil, err
	}
	defer locked.mu.Unlock()
	return locked.snap.Load(), nil
}

// Evict drops the live copy of a trip; the next operation reseeds from the source.
func (l *Ledger) Evict(tripID string) {
	e, ok := l.lookup(tripID)
	if !ok {
		return
	}
	e.mu.Lock()
	e.drop()
	e.mu.Unlock()
}

// RetireHolder blocks every later Claim by holderID. It is set before a removed
// user's seats are swept, so a claim that reaches a trip after the sweep fails.
func (l *Ledger) RetireHolder(holderID string) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return
	}
	l.mu.Lock()
	l.retired[holderID] = struct{}{}
	l.mu.Unlock()
}

// ReinstateHolder undoes RetireHolder when the removal did not go through.
func (l *Ledger) ReinstateHolder(holderID string) {
	l.mu.Lock()
	delete(l.retired, strings.TrimSpace(holderID))
	l.mu.Unlock()
}

func (l *Ledger) IsRetired(holderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.retired[holderID]
	return ok
}

// commit persists the current slots and publishes a new snapshot. On error the
// caller rolls its change back; a version conflict also drops the live copy.
func (e *tripLedger) commit(ctx context.Context, persist PersistFunc) error {
	if persist != nil {
		m := Mutation{TripID: e.id, ExpectedVersion: e.version, Seats: e.seatMap()}
		if err := persist(ctx, m); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				e.drop()
			}
			return err
		}
	}
	e.version++
	e.publish()
	return nil
}

func (e *tripLedger) drop() {
	e.loaded = false
	e.snap.Store(nil)
}

func (e *tripLedger) seatMap() map[string]models.Reservation {
	out := make(map[string]models.Reservation)
	for i, rec := range e.slots {
		if rec != nil {
			out[e.layout.Label(i)] = *rec
		}
	}
	return out
}

func (e *tripLedger) publish() {
	held := []models.HeldSeat{}
	for i, rec := range e.slots {
		if rec != nil {
			held = append(held, models.HeldSeat{Seat: e.layout.Label(i), Reservation: *rec})
		}
	}
	e.snap.Store(&Snapshot{
		TripID:  e.id,
		Version: e.version,
		Layout:  e.layout,
		Held:    held,
	})
}
