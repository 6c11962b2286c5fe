package models

import "time"

// Trip is one scheduled bus run. Everything except Seats, Version and UpdatedAt is
// fixed at creation.
type Trip struct {
	ID            string                 `json:"id"`
	TripNumber    string                 `json:"tripNumber"`
	Date          string                 `json:"date"`
	Origin        string                 `json:"origin"`
	Destination   string                 `json:"destination"`
	DepartureTime time.Time              `json:"departureTime"`
	Fare          int64                  `json:"fare"`
	TotalSeats    int                    `json:"totalSeats"`
	SeatsPerRow   int                    `json:"seatsPerRow"`
	BoardingPoint string                 `json:"boardingPoint,omitempty"`
	DriverName    string                 `json:"driverName"`
	DriverContact string                 `json:"driverContact"`
	CreatedBy     string                 `json:"createdBy"`
	Seats         map[string]Reservation `json:"seats"`
	Version       int64                  `json:"version"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// TripInput is the admin payload for creating a trip.
type TripInput struct {
	TripNumber    string `json:"tripNumber" validate:"required,max=64"`
	Date          string `json:"date" validate:"required"`
	Origin        string `json:"origin" validate:"required,max=120"`
	Destination   string `json:"destination" validate:"required,max=120"`
	DepartureTime string `json:"departureTime" validate:"required"`
	Fare          int64  `json:"fare" validate:"gte=0"`
	TotalSeats    int    `json:"totalSeats" validate:"gte=0"`
	SeatsPerRow   int    `json:"seatsPerRow" validate:"gte=0,lte=26"`
	BoardingPoint string `json:"boardingPoint" validate:"max=255"`
	DriverName    string `json:"driverName" validate:"required,max=120"`
	DriverContact string `json:"driverContact" validate:"required,max=64"`
}
