package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/novamovie/ticket-booking/internal/config"
	"github.com/novamovie/ticket-booking/internal/database"
	"github.com/novamovie/ticket-booking/internal/handler"
	"github.com/novamovie/ticket-booking/internal/middleware"
	"github.com/novamovie/ticket-booking/internal/model"
	"github.com/novamovie/ticket-booking/internal/queue"
	"github.com/novamovie/ticket-booking/internal/repository"
	"github.com/novamovie/ticket-booking/internal/router"
	"github.com/novamovie/ticket-booking/internal/scheduler"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	holdRepo := repository.NewSeatHoldRepo(db)

	seedAdmin(ctx, cfg, userRepo)

	// Align active showings with today before serving traffic, then keep
	// the tables clean in the background.
	if err := movieRepo.RefreshActiveDates(ctx); err != nil {
		log.Printf("refresh active dates: %v", err)
	}
	sweeper := scheduler.NewStaleBookingSweeper(seatRepo, holdRepo, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	browseHandler := handler.NewBrowseHandler(movieRepo, seatRepo)
	bookingHandler := handler.NewBookingHandler(cfg, movieRepo, seatRepo, holdRepo)
	adminMovies := handler.NewAdminMovieHandler(movieRepo, seatRepo)
	adminSeats := handler.NewAdminSeatHandler(movieRepo, seatRepo)
	adminUsers := handler.NewAdminUserHandler(userRepo)

	router.RegisterHealth(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, browseHandler, cacheMW)
	router.RegisterBooking(e, bookingHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminMovies, adminSeats, adminUsers, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// seedAdmin creates the configured admin account when it does not exist
// yet. Without it a fresh install has no way to manage the catalogue.
func seedAdmin(ctx context.Context, cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return
	}
	_, err := users.Create(ctx, "Administrator", cfg.AdminUsername, cfg.AdminPassword, "", model.RoleAdmin, cfg.BcryptCost)
	switch {
	case err == nil:
		log.Printf("seeded admin account %q", cfg.AdminUsername)
	case err == repository.ErrUsernameExists:
		// already provisioned
	default:
		log.Printf("seed admin: %v", err)
	}
}
