package models

import "time"

// Reservation is owned by exactly one held seat.
type Reservation struct {
	HolderID       string    `json:"holderId"`
	PickupLocation string    `json:"pickupLocation"`
	ContactNumber  string    `json:"contactNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HeldSeat pairs a label with its reservation.
type HeldSeat struct {
	Seat        string      `json:"seat"`
	Reservation Reservation `json:"reservation"`
}

// BookingRequest is the rider-facing claim payload.
type BookingRequest struct {
	TripID         string `json:"tripId"`
	SeatLabel      string `json:"seatLabel"`
	PickupLocation string `json:"pickupLocation"`
	ContactNumber  string `json:"contactNumber"`
}

// Confirmation is returned after a successful booking.
type Confirmation struct {
	TripID         string    `json:"tripId"`
	TripNumber     string    `json:"tripNumber"`
	Seat           string    `json:"seat"`
	Fare           int64     `json:"fare"`
	PickupLocation string    `json:"pickupLocation"`
	BookedAt       time.Time `json:"bookedAt"`
}

// SeatHolder is the admin view of one held seat.
type SeatHolder struct {
	Seat           string `json:"seat"`
	HolderID       string `json:"holderId"`
	PickupLocation string `json:"pickupLocation"`
	ContactNumber  string `json:"contactNumber"`
}

// Availability summarizes a trip's seat ledger. Holders is only filled for admins.
type Availability struct {
	TripID     string       `json:"tripId"`
	TotalSeats int          `json:"totalSeats"`
	HeldCount  int          `json:"heldCount"`
	FreeCount  int          `json:"freeCount"`
	HeldSeats  []string     `json:"heldSeats"`
	Holders    []SeatHolder `json:"holders,omitempty"`
}

// SeatDetail describes one seat; Reservation is nil when free or redacted.
type SeatDetail struct {
	TripID      string       `json:"tripId"`
	Seat        string       `json:"seat"`
	Held        bool         `json:"held"`
	Mine        bool         `json:"mine"`
	Reservation *Reservation `json:"reservation,omitempty"`
}

// RiderBooking groups the seats one rider holds on a trip.
type RiderBooking struct {
	TripID        string    `json:"tripId"`
	TripNumber    string    `json:"tripNumber"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departureTime"`
	Fare          int64     `json:"fare"`
	Seats         []string  `json:"seats"`
	TotalFare     int64     `json:"totalFare"`
}
