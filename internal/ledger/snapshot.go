package ledger

import "busbooking/internal/domain/models"

// Snapshot is an immutable, fully applied view of one trip's ledger.
type Snapshot struct {
	TripID  string
	Version int64
	Layout  Layout
	Held    []models.HeldSeat
}

func (s *Snapshot) HeldCount() int { return len(s.Held) }

func (s *Snapshot) FreeCount() int { return s.Layout.TotalSeats - len(s.Held) }

func (s *Snapshot) HeldLabels() []string {
	out := make([]string, 0, len(s.Held))
	for _, h := range s.Held {
		out = append(out, h.Seat)
	}
	return out
}

// Lookup returns the reservation for a label when the seat is held.
func (s *Snapshot) Lookup(label string) (models.Reservation, bool) {
	norm := NormalizeLabel(label)
	for _, h := range s.Held {
		if h.Seat == norm {
			return h.Reservation, true
		}
	}
	return models.Reservation{}, false
}

// HeldBy lists the labels held by one holder in seat order.
func (s *Snapshot) HeldBy(holderID string) []string {
	out := []string{}
	for _, h := range s.Held {
		if h.Reservation.HolderID == holderID {
			out = append(out, h.Seat)
		}
	}
	return out
}
