package handlers

import (
	intconfig "busbooking/internal/config"
	"busbooking/internal/http/middleware"
	"busbooking/internal/ledger"
	"busbooking/internal/repositories"
	"busbooking/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers holds the shared dependencies; services are built per request so they
// carry the request id.
type Handlers struct {
	Env    intconfig.Env
	Trips  repositories.TripStore
	Users  repositories.UserStore
	Ledger *ledger.Ledger
}

func (h Handlers) retry() services.RetryPolicy {
	return services.RetryPolicy{Retries: h.Env.StorageRetries, Backoff: h.Env.StorageRetryBackoff}
}

func (h Handlers) catalog(c *gin.Context) services.CatalogService {
	return services.CatalogService{
		Trips:              h.Trips,
		Ledger:             h.Ledger,
		MaxSeatsPerTrip:    h.Env.MaxSeatsPerTrip,
		DefaultSeatsPerRow: h.Env.DefaultSeatsPerRow,
		RequestID:          middleware.GetRequestID(c),
	}
}

func (h Handlers) reservations(c *gin.Context) services.ReservationService {
	return services.ReservationService{
		Trips:     h.Trips,
		Users:     h.Users,
		Ledger:    h.Ledger,
		Retry:     h.retry(),
		RequestID: middleware.GetRequestID(c),
	}
}

func (h Handlers) tickets(c *gin.Context) services.TicketService {
	return services.TicketService{Trips: h.Trips, Ledger: h.Ledger, RequestID: middleware.GetRequestID(c)}
}

func (h Handlers) accounts(c *gin.Context) services.AccountService {
	rid := middleware.GetRequestID(c)
	return services.AccountService{
		Users: h.Users,
		Cascade: services.CascadeService{
			Trips:     h.Trips,
			Ledger:    h.Ledger,
			Workers:   h.Env.CascadeWorkers,
			Retry:     h.retry(),
			RequestID: rid,
		},
		RequestID: rid,
	}
}
