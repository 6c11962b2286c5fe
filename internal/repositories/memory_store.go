package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

// MemoryStore keeps trips and users in process memory. It backs STORAGE=memory and
// the service tests; it honours the same version contract as TripRepository.
type MemoryStore struct {
	mu    sync.RWMutex
	trips map[string]models.Trip
	users map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trips: map[string]models.Trip{},
		users: map[string]models.User{},
	}
}

func (s *MemoryStore) CreateTrip(_ context.Context, trip models.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trips {
		if strings.EqualFold(t.TripNumber, trip.TripNumber) {
			return domain.ConflictError{Resource: "trip", Msg: "trip number " + trip.TripNumber + " already exists"}
		}
	}
	if _, ok := s.trips[trip.ID]; ok {
		return domain.ConflictError{Resource: "trip", Msg: "trip id already exists"}
	}
	s.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (s *MemoryStore) GetTrip(_ context.Context, id string) (models.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return cloneTrip(t), nil
}

func (s *MemoryStore) ListTrips(_ context.Context) ([]models.Trip, error) {
	return s.filter(func(models.Trip) bool { return true }), nil
}

func (s *MemoryStore) SearchByDestination(_ context.Context, text string) ([]models.Trip, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	return s.filter(func(t models.Trip) bool {
		return strings.Contains(strings.ToLower(t.Destination), needle)
	}), nil
}

func (s *MemoryStore) SaveLedger(_ context.Context, id string, expectedVersion int64, seats map[string]models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[id]
	if !ok || t.Version != expectedVersion {
		return domain.StorageError{Op: "save_ledger", Err: domain.ErrVersionConflict}
	}
	t.Seats = cloneSeats(seats)
	t.Version++
	t.UpdatedAt = time.Now().UTC()
	s.trips[id] = t
	return nil
}

// PutUser registers a user; the account component owns user creation.
func (s *MemoryStore) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedUsers registers "id:role" entries and returns how many it accepted. A missing
// role means a regular user.
func (s *MemoryStore) SeedUsers(specs []string) int {
	n := 0
	for _, spec := range specs {
		id, role, _ := strings.Cut(spec, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s.PutUser(models.User{ID: id, Username: id, Role: string(domain.ParseRole(role))})
		n++
	}
	return n
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) filter(keep func(models.Trip) bool) []models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Trip{}
	for _, t := range s.trips {
		if keep(t) {
			out = append(out, cloneTrip(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartureTime.Equal(out[j].DepartureTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].DepartureTime.Before(out[j].DepartureTime)
	})
	return out
}

func cloneTrip(t models.Trip) models.Trip {
	t.Seats = cloneSeats(t.Seats)
	return t
}

func cloneSeats(seats map[string]models.Reservation) map[string]models.Reservation {
	out := make(map[string]models.Reservation, len(seats))
	for k, v := range seats {
		out[k] = v
	}
	return out
}
