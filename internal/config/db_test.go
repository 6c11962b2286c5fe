package config

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDB(t *testing.T) {
	ctx := context.Background()
	CloseDB()
	assert.ErrorIs(t, EnsureDB(ctx), sql.ErrConnDone)

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	DB = db
	t.Cleanup(CloseDB)

	mock.ExpectPing()
	assert.NoError(t, EnsureDB(ctx))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, EnsureDB(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}
