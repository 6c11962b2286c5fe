package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/utils"

	"github.com/google/uuid"
)

const DefaultTotalSeats = 40

// CatalogService manages trip definitions. Seat state lives in the ledger.
type CatalogService struct {
	Trips              repositories.TripStore
	Ledger             *ledger.Ledger
	MaxSeatsPerTrip    int
	DefaultSeatsPerRow int
	RequestID          string
	Now                func() time.Time
}

func (s CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

// CreateTrip registers a new trip with an empty seat ledger. Admin only.
func (s CatalogService) CreateTrip(ctx context.Context, actor domain.Actor, in models.TripInput) (models.Trip, error) {
	if !actor.IsAdmin() {
		return models.Trip{}, domain.PermissionError{Msg: "only admins can add trips"}
	}

	in.TripNumber = strings.TrimSpace(in.TripNumber)
	in.Origin = utils.NormalizeSpace(in.Origin)
	in.Destination = utils.NormalizeSpace(in.Destination)
	in.BoardingPoint = utils.NormalizeSpace(in.BoardingPoint)
	in.DriverName = utils.NormalizeSpace(in.DriverName)
	in.DriverContact = strings.TrimSpace(in.DriverContact)
	if err := validate.Struct(in); err != nil {
		return models.Trip{}, validationError(err)
	}

	date, err := utils.ParseDate(in.Date)
	if err != nil {
		return models.Trip{}, domain.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD", Err: err}
	}
	departure, err := utils.ParseDeparture(in.DepartureTime)
	if err != nil {
		return models.Trip{}, domain.ValidationError{Field: "departureTime", Msg: "must be RFC3339 or YYYY-MM-DD HH:MM", Err: err}
	}

	maxSeats := s.MaxSeatsPerTrip
	if maxSeats <= 0 {
		maxSeats = DefaultTotalSeats
	}
	total := in.TotalSeats
	if total == 0 {
		total = min(DefaultTotalSeats, maxSeats)
	}
	if total > maxSeats {
		return models.Trip{}, domain.ValidationError{Field: "totalSeats", Msg: fmt.Sprintf("must be between 1 and %d", maxSeats)}
	}
	perRow := in.SeatsPerRow
	if perRow == 0 {
		perRow = s.DefaultSeatsPerRow
	}
	if perRow <= 0 {
		perRow = 4
	}
	if _, err := ledger.NewLayout(total, perRow); err != nil {
		return models.Trip{}, err
	}

	now := s.now()
	trip := models.Trip{
		ID:            uuid.NewString(),
		TripNumber:    in.TripNumber,
		Date:          date.Format(utils.LayoutDate),
		Origin:        in.Origin,
		Destination:   in.Destination,
		DepartureTime: departure,
		Fare:          in.Fare,
		TotalSeats:    total,
		SeatsPerRow:   perRow,
		BoardingPoint: in.BoardingPoint,
		DriverName:    in.DriverName,
		DriverContact: in.DriverContact,
		CreatedBy:     actor.UserID,
		Seats:         map[string]models.Reservation{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Trips.CreateTrip(ctx, trip); err != nil {
		return models.Trip{}, err
	}
	if s.Ledger != nil {
		if err := s.Ledger.Seed(trip); err != nil {
			utils.LogEvent(s.RequestID, "catalog", "seed_ledger", "trip_id="+trip.ID+" err="+err.Error())
		}
	}
	utils.LogEvent(s.RequestID, "catalog", "create_trip", fmt.Sprintf("trip_id=%s trip_number=%s seats=%d", trip.ID, trip.TripNumber, trip.TotalSeats))
	return trip, nil
}

func (s CatalogService) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	id, err := requireTripID(id)
	if err != nil {
		return models.Trip{}, err
	}
	return s.Trips.GetTrip(ctx, id)
}

func (s CatalogService) ListTrips(ctx context.Context) ([]models.Trip, error) {
	return s.Trips.ListTrips(ctx)
}

// SearchByDestination matches a case-insensitive substring of the destination.
// No match is reported as NotFoundError rather than an empty list.
func (s CatalogService) SearchByDestination(ctx context.Context, text string) ([]models.Trip, error) {
	text = utils.NormalizeSpace(text)
	if text == "" {
		return nil, domain.ValidationError{Field: "destination", Msg: "is required"}
	}
	trips, err := s.Trips.SearchByDestination(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return []models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return trips, nil
}
