package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/config"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/handler"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints: flight
// details and the seat map.  The seat map sits behind the Redis
// response cache (when available) since it is the hottest read and
// tolerates brief staleness — holds and commits always re-check seat
// state against the store.
func RegisterPublic(e *echo.Echo, f *handler.FlightHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/flights/:id", f.GetFlight)
	e.GET("/v1/flights/:id/seats", f.GetFlightSeats, cache)
}

// RegisterBooking registers the authenticated hold and checkout
// endpoints.  All routes require a valid access token with the
// CUSTOMER role; hold and checkout mutations additionally pass
// through the Redis token-bucket rate limiter.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("CUSTOMER"))

	g.POST("/flights/:id/hold", b.HoldSeats, limiter)
	g.DELETE("/flights/:id/hold", b.ReleaseHold)
	g.GET("/flights/:id/hold", b.ValidateHold)
	g.POST("/flights/:id/checkout", b.CheckoutSeats, limiter)
	g.POST("/checkout/round-trip", b.CheckoutRoundTrip, limiter)
	g.GET("/my-tickets", b.ListTickets)
}
