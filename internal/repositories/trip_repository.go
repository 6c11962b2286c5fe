package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	intconfig "busbooking/internal/config"
	intdb "busbooking/internal/db"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

const tripColumns = `id, trip_number, DATE_FORMAT(trip_date, '%Y-%m-%d'), origin, destination, departure_time,
	fare, total_seats, seats_per_row, COALESCE(boarding_point, ''), driver_name, driver_contact,
	created_by, seat_ledger, version, created_at, updated_at`

type TripRepository struct {
	DB *sql.DB
}

func (r TripRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r TripRepository) CreateTrip(ctx context.Context, trip models.Trip) error {
	seats, err := encodeSeats(trip.Seats)
	if err != nil {
		return domain.InternalError{Msg: "encode seat ledger", Err: err}
	}
	_, err = r.db().ExecContext(ctx, `
		INSERT INTO trips (id, trip_number, trip_date, origin, destination, departure_time,
			fare, total_seats, seats_per_row, boarding_point, driver_name, driver_contact,
			created_by, seat_ledger, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		trip.ID, trip.TripNumber, trip.Date, trip.Origin, trip.Destination, trip.DepartureTime.UTC(),
		trip.Fare, trip.TotalSeats, trip.SeatsPerRow, intdb.NullIfEmpty(trip.BoardingPoint),
		trip.DriverName, trip.DriverContact, trip.CreatedBy, seats, trip.Version,
		trip.CreatedAt.UTC(), trip.UpdatedAt.UTC(),
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return domain.ConflictError{Resource: "trip", Msg: "trip number " + trip.TripNumber + " already exists", Err: err}
		}
		return domain.StorageError{Op: "create_trip", Err: err}
	}
	return nil
}

func (r TripRepository) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ? LIMIT 1`, id)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return models.Trip{}, domain.StorageError{Op: "get_trip", Err: err}
	}
	return trip, nil
}

func (r TripRepository) ListTrips(ctx context.Context) ([]models.Trip, error) {
	return r.queryTrips(ctx, "list_trips", `SELECT `+tripColumns+` FROM trips ORDER BY departure_time ASC, id ASC`)
}

// SearchByDestination matches a case-insensitive substring of the destination.
func (r TripRepository) SearchByDestination(ctx context.Context, text string) ([]models.Trip, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(text))) + "%"
	return r.queryTrips(ctx, "search_trips",
		`SELECT `+tripColumns+` FROM trips WHERE LOWER(destination) LIKE ? ORDER BY departure_time ASC, id ASC`, pattern)
}

func (r TripRepository) SaveLedger(ctx context.Context, id string, expectedVersion int64, seats map[string]models.Reservation) error {
	payload, err := encodeSeats(seats)
	if err != nil {
		return domain.InternalError{Msg: "encode seat ledger", Err: err}
	}
	res, err := r.db().ExecContext(ctx, `
		UPDATE trips SET seat_ledger = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, payload, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return domain.StorageError{Op: "save_ledger", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError{Op: "save_ledger", Err: err}
	}
	if n == 0 {
		return domain.StorageError{Op: "save_ledger", Err: domain.ErrVersionConflict}
	}
	return nil
}

func (r TripRepository) queryTrips(ctx context.Context, op, query string, args ...any) ([]models.Trip, error) {
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	out := []models.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return out, domain.StorageError{Op: op, Err: err}
		}
		out = append(out, trip)
	}
	if err := rows.Err(); err != nil {
		return out, domain.StorageError{Op: op, Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t      models.Trip
		ledger []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.TripNumber,
		&t.Date,
		&t.Origin,
		&t.Destination,
		&t.DepartureTime,
		&t.Fare,
		&t.TotalSeats,
		&t.SeatsPerRow,
		&t.BoardingPoint,
		&t.DriverName,
		&t.DriverContact,
		&t.CreatedBy,
		&ledger,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return t, err
	}
	t.Seats = map[string]models.Reservation{}
	if len(ledger) > 0 {
		if err := json.Unmarshal(ledger, &t.Seats); err != nil {
			return t, err
		}
	}
	return t, nil
}

func encodeSeats(seats map[string]models.Reservation) ([]byte, error) {
	if seats == nil {
		seats = map[string]models.Reservation{}
	}
	return json.Marshal(seats)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
