package handlers

import (
	"net/http"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// TripDTO is the public view of a trip. Seat holders are never part of it.
type TripDTO struct {
	ID            string    `json:"id"`
	TripNumber    string    `json:"tripNumber"`
	Date          string    `json:"date"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departureTime"`
	Fare          int64     `json:"fare"`
	TotalSeats    int       `json:"totalSeats"`
	SeatsPerRow   int       `json:"seatsPerRow"`
	BoardingPoint string    `json:"boardingPoint,omitempty"`
	DriverName    string    `json:"driverName"`
	DriverContact string    `json:"driverContact"`
}

func toTripDTO(t models.Trip) TripDTO {
	return TripDTO{
		ID:            t.ID,
		TripNumber:    t.TripNumber,
		Date:          t.Date,
		Origin:        t.Origin,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		Fare:          t.Fare,
		TotalSeats:    t.TotalSeats,
		SeatsPerRow:   t.SeatsPerRow,
		BoardingPoint: t.BoardingPoint,
		DriverName:    t.DriverName,
		DriverContact: t.DriverContact,
	}
}

func toTripDTOs(trips []models.Trip) []TripDTO {
	out := make([]TripDTO, 0, len(trips))
	for _, t := range trips {
		out = append(out, toTripDTO(t))
	}
	return out
}

type cancelRequest struct {
	TripID    string `json:"tripId"`
	SeatLabel string `json:"seatLabel"`
}

// POST /api/v1/bus/addbus
func (h Handlers) AddBus(c *gin.Context) {
	var in models.TripInput
	if !BindJSONOrError(c, &in) {
		return
	}
	trip, err := h.catalog(c).CreateTrip(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "bus added", "bus": toTripDTO(trip)})
}

// GET /api/v1/bus/getbus
func (h Handlers) GetBuses(c *gin.Context) {
	trips, err := h.catalog(c).ListTrips(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": toTripDTOs(trips)})
}

// GET /api/v1/bus/getbus/:tripId
func (h Handlers) GetBus(c *gin.Context) {
	ctx := c.Request.Context()
	trip, err := h.catalog(c).GetTrip(ctx, c.Param("tripId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	avail, err := h.reservations(c).GetAvailability(ctx, middleware.Actor(c), trip.ID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bus": toTripDTO(trip), "availability": avail})
}

// GET /api/v1/bus/search?destination=
func (h Handlers) SearchBuses(c *gin.Context) {
	trips, err := h.catalog(c).SearchByDestination(c.Request.Context(), c.Query("destination"))
	if err != nil {
		if domain.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"message":    "no buses found for this destination",
				"code":       "not_found",
				"buses":      []TripDTO{},
				"request_id": middleware.GetRequestID(c),
			})
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": toTripDTOs(trips)})
}

// POST /api/v1/bus/bookseat
func (h Handlers) BookSeat(c *gin.Context) {
	var req models.BookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	conf, err := h.reservations(c).BookSeat(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat booked", "booking": conf})
}

// POST /api/v1/bus/cancelbooking
func (h Handlers) CancelBooking(c *gin.Context) {
	var req cancelRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	released, err := h.reservations(c).CancelBooking(c.Request.Context(), middleware.Actor(c), req.TripID, req.SeatLabel)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled", "tripId": req.TripID, "seat": released.Seat})
}

// GET /api/v1/bus/mybookings
func (h Handlers) MyBookings(c *gin.Context) {
	bookings, err := h.reservations(c).MyBookings(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GET /api/v1/bus/seat/:tripId/:seat
func (h Handlers) SeatDetails(c *gin.Context) {
	detail, err := h.reservations(c).SeatDetails(c.Request.Context(), middleware.Actor(c), c.Param("tripId"), c.Param("seat"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seat": detail})
}

// GET /api/v1/bus/ticket/:tripId/:seat returns the e-ticket inline.
func (h Handlers) ETicket(c *gin.Context) {
	pdfBytes, filename, err := h.tickets(c).ETicket(c.Request.Context(), middleware.Actor(c), c.Param("tripId"), c.Param("seat"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
