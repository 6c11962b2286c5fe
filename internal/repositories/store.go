package repositories

import (
	"context"

	"busbooking/internal/domain/models"
)

// TripStore is the durable, trip-keyed store behind the catalog and the ledger.
type TripStore interface {
	CreateTrip(ctx context.Context, trip models.Trip) error
	GetTrip(ctx context.Context, id string) (models.Trip, error)
	ListTrips(ctx context.Context) ([]models.Trip, error)
	SearchByDestination(ctx context.Context, text string) ([]models.Trip, error)
	// SaveLedger replaces the seat map when the stored version still equals
	// expectedVersion and bumps the version. Otherwise it fails with
	// domain.ErrVersionConflict.
	SaveLedger(ctx context.Context, id string, expectedVersion int64, seats map[string]models.Reservation) error
}

// UserStore exposes the slice of the account component the cascade needs.
type UserStore interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}
