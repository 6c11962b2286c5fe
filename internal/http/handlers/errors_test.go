package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"busbooking/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondDomainErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ValidationError{Field: "tripId", Msg: "is required"}, http.StatusBadRequest, "validation_error"},
		{domain.InvalidSeatError{Seat: "9Z"}, http.StatusBadRequest, "invalid_seat"},
		{domain.PermissionError{}, http.StatusForbidden, "forbidden"},
		{domain.NotBookedError{Seat: "1A"}, http.StatusNotFound, "not_booked"},
		{domain.NotFoundError{Resource: "trip"}, http.StatusNotFound, "not_found"},
		{domain.SeatTakenError{Seat: "1A"}, http.StatusConflict, "seat_taken"},
		{domain.ConflictError{Resource: "trip"}, http.StatusConflict, "conflict"},
		{domain.StorageError{Op: "save_ledger", Err: errors.New("dsn user:secret@tcp")}, http.StatusInternalServerError, "storage_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)
			RespondDomainError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
			assert.NotContains(t, w.Body.String(), "secret")
		})
	}
}
