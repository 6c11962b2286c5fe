package services

import (
	"context"
	"fmt"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"
)

// ReservationService is the rider-facing layer over the seat ledger. It shapes
// input, authorizes, and wires the durable write into every ledger mutation.
type ReservationService struct {
	Trips     repositories.TripStore
	Users     repositories.UserStore
	Ledger    *ledger.Ledger
	Retry     RetryPolicy
	RequestID string
}

// BookSeat claims one seat for the actor.
func (s ReservationService) BookSeat(ctx context.Context, actor domain.Actor, req models.BookingRequest) (models.Confirmation, error) {
	tripID, err := requireTripID(req.TripID)
	if err != nil {
		return models.Confirmation{}, err
	}
	if actor.UserID == "" {
		return models.Confirmation{}, domain.PermissionError{Msg: "a signed-in rider is required to book"}
	}
	if err := s.requireAccount(ctx, actor.UserID); err != nil {
		return models.Confirmation{}, err
	}
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return models.Confirmation{}, err
	}

	held, err := s.Ledger.Claim(ctx, trip.ID, req.SeatLabel, actor.UserID, req.PickupLocation, req.ContactNumber,
		persistTo(s.Trips, s.Retry, s.RequestID, "book_seat"))
	if err != nil {
		if domain.IsSeatTaken(err) {
			utils.LogEvent(s.RequestID, "reservation", "book_seat_taken", fmt.Sprintf("trip_id=%s seat=%s holder=%s", trip.ID, ledger.NormalizeLabel(req.SeatLabel), actor.UserID))
		}
		return models.Confirmation{}, err
	}

	utils.LogEvent(s.RequestID, "reservation", "book_seat", fmt.Sprintf("trip_id=%s seat=%s holder=%s", trip.ID, held.Seat, actor.UserID))
	return models.Confirmation{
		TripID:         trip.ID,
		TripNumber:     trip.TripNumber,
		Seat:           held.Seat,
		Fare:           trip.Fare,
		PickupLocation: held.Reservation.PickupLocation,
		BookedAt:       held.Reservation.CreatedAt,
	}, nil
}

// requireAccount rejects tokens whose user record is gone. It is skipped when no
// user store is wired.
func (s ReservationService) requireAccount(ctx context.Context, userID string) error {
	if s.Users == nil {
		return nil
	}
	if _, err := s.Users.GetUser(ctx, userID); err != nil {
		if domain.IsNotFound(err) {
			return domain.PermissionError{Msg: "account has been removed"}
		}
		return err
	}
	return nil
}

// CancelBooking releases a seat held by the actor, or any seat when the actor is admin.
func (s ReservationService) CancelBooking(ctx context.Context, actor domain.Actor, tripID, label string) (models.HeldSeat, error) {
	tripID, err := requireTripID(tripID)
	if err != nil {
		return models.HeldSeat{}, err
	}
	released, err := s.Ledger.Release(ctx, tripID, label, actor, persistTo(s.Trips, s.Retry, s.RequestID, "cancel_booking"))
	if err != nil {
		return models.HeldSeat{}, err
	}
	utils.LogEvent(s.RequestID, "reservation", "cancel_booking", fmt.Sprintf("trip_id=%s seat=%s holder=%s by=%s", tripID, released.Seat, released.Reservation.HolderID, actor.UserID))
	return released, nil
}

// GetAvailability reports seat counts. Holder metadata is only returned to admins.
func (s ReservationService) GetAvailability(ctx context.Context, actor domain.Actor, tripID string) (models.Availability, error) {
	tripID, err := requireTripID(tripID)
	if err != nil {
		return models.Availability{}, err
	}
	snap, err := s.Ledger.Snapshot(ctx, tripID)
	if err != nil {
		return models.Availability{}, err
	}
	out := models.Availability{
		TripID:     snap.TripID,
		TotalSeats: snap.Layout.TotalSeats,
		HeldCount:  snap.HeldCount(),
		FreeCount:  snap.FreeCount(),
		HeldSeats:  snap.HeldLabels(),
	}
	if actor.IsAdmin() {
		out.Holders = make([]models.SeatHolder, 0, len(snap.Held))
		for _, h := range snap.Held {
			out.Holders = append(out.Holders, models.SeatHolder{
				Seat:           h.Seat,
				HolderID:       h.Reservation.HolderID,
				PickupLocation: h.Reservation.PickupLocation,
				ContactNumber:  h.Reservation.ContactNumber,
			})
		}
	}
	return out, nil
}

// MyBookings lists, per trip, the seats the actor currently holds.
func (s ReservationService) MyBookings(ctx context.Context, actor domain.Actor) ([]models.RiderBooking, error) {
	if actor.UserID == "" {
		return nil, domain.PermissionError{Msg: "a signed-in rider is required"}
	}
	trips, err := s.Trips.ListTrips(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.RiderBooking{}
	for _, trip := range trips {
		snap, err := s.Ledger.Snapshot(ctx, trip.ID)
		if err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		seats := snap.HeldBy(actor.UserID)
		if len(seats) == 0 {
			continue
		}
		out = append(out, models.RiderBooking{
			TripID:        trip.ID,
			TripNumber:    trip.TripNumber,
			Origin:        trip.Origin,
			Destination:   trip.Destination,
			DepartureTime: trip.DepartureTime,
			Fare:          trip.Fare,
			Seats:         seats,
			TotalFare:     trip.Fare * int64(len(seats)),
		})
	}
	return out, nil
}

// SeatDetails describes one seat. The reservation is only shown to its holder or an admin.
func (s ReservationService) SeatDetails(ctx context.Context, actor domain.Actor, tripID, label string) (models.SeatDetail, error) {
	tripID, err := requireTripID(tripID)
	if err != nil {
		return models.SeatDetail{}, err
	}
	snap, err := s.Ledger.Snapshot(ctx, tripID)
	if err != nil {
		return models.SeatDetail{}, err
	}
	idx, err := snap.Layout.Index(label)
	if err != nil {
		return models.SeatDetail{}, err
	}
	seat := snap.Layout.Label(idx)
	out := models.SeatDetail{TripID: snap.TripID, Seat: seat}
	rec, held := snap.Lookup(seat)
	if !held {
		return out, nil
	}
	out.Held = true
	out.Mine = actor.UserID != "" && rec.HolderID == actor.UserID
	if actor.CanManage(rec.HolderID) {
		out.Reservation = &rec
	}
	return out, nil
}
