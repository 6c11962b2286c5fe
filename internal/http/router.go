package api

import (
	"log"
	stdhttp "net/http"

	h "busbooking/internal/http/handlers"
	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(deps h.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(deps.Env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", deps.DBCheck)
		api.GET("/routes", h.Routes)
	}

	v1 := api.Group("/v1", middleware.Auth([]byte(deps.Env.JWTSecret)))
	{
		bus := v1.Group("/bus")
		bus.POST("/addbus", middleware.RequireRoles("admin"), deps.AddBus)
		bus.GET("/getbus", deps.GetBuses)
		bus.GET("/getbus/:tripId", deps.GetBus)
		bus.GET("/search", deps.SearchBuses)
		bus.POST("/bookseat", deps.BookSeat)
		bus.POST("/cancelbooking", deps.CancelBooking)
		bus.GET("/mybookings", deps.MyBookings)
		bus.GET("/seat/:tripId/:seat", deps.SeatDetails)
		bus.GET("/ticket/:tripId/:seat", deps.ETicket)

		users := v1.Group("/users", middleware.RequireRoles("admin"))
		users.DELETE("/:userId", deps.DeleteUser)
	}

	h.SetRouter(r)
	return r
}
