package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/RaihanAlfaiz/flyhan-sub001/internal/booking"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/config"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/database"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/handler"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/queue"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/repository"
	"github.com/RaihanAlfaiz/flyhan-sub001/internal/router"
	queue_publisher "github.com/RaihanAlfaiz/flyhan-sub001/internal/service"
)

func main() {
	// Load .env in development; in production the variables come from
	// the environment itself.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the rate limiter and response
	// cache become pass-through middleware.
	rdb := config.NewRedisClient()

	flightRepo := repository.NewFlightRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	ticketRepo := repository.NewTicketRepo(db)

	runner := database.NewRunner(db)
	holds := booking.NewHoldManager(runner, seatRepo, booking.SystemClock(), cfg.HoldDuration)
	checkout := booking.NewCheckoutEngine(runner, flightRepo, seatRepo, ticketRepo, queue_publisher.Publisher{}, booking.SystemClock())

	flightHandler := handler.NewFlightHandler(flightRepo, seatRepo)
	bookingHandler := handler.NewBookingHandler(flightRepo, ticketRepo, holds, checkout, cfg.RoundTripDiscountPct)

	// Background worker: delivers confirmation emails / log lines for
	// committed bookings. Runs its own reconnect loop.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterPublic(e, flightHandler, rdb)
	router.RegisterBooking(e, bookingHandler, cfg.JWTSecret, rdb)

	log.Printf("starting server on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
