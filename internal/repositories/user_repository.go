package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "busbooking/internal/config"
	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r UserRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db().QueryRowContext(ctx, `SELECT id, username, email, role FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, domain.NotFoundError{Resource: "user", Err: err}
		}
		return u, domain.StorageError{Op: "get_user", Err: err}
	}
	return u, nil
}

func (r UserRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return domain.StorageError{Op: "delete_user", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError{Op: "delete_user", Err: err}
	}
	if n == 0 {
		return domain.NotFoundError{Resource: "user"}
	}
	return nil
}
