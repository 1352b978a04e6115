package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/config"
	httptransport "github.com/example/desk-booking/internal/http"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := migration.NewManager(pool.DB(), logger).Run(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := sessionTokenGenerator(cfg.SessionSecret)
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	officeRepo := sqlite.NewOfficeRepository(pool)
	deskRepo := sqlite.NewDeskRepository(pool)
	reservationRepo := sqlite.NewReservationRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)
	outboxRepo := sqlite.NewOutboxRepository(pool)

	authService := application.NewAuthServiceWithLogger(userRepo, sessionRepo, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserServiceWithLogger(userRepo, outboxRepo, idGenerator, now, logger)
	officeService := application.NewOfficeServiceWithLogger(officeRepo, idGenerator, now, logger)
	deskService := application.NewDeskServiceWithLogger(deskRepo, officeRepo, idGenerator, uuid.NewString, now, logger)
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, deskRepo, officeRepo, idGenerator, now, logger)
	checkInService := application.NewCheckInServiceWithLogger(reservationRepo, deskRepo, officeRepo, now, logger)
	availabilityService := application.NewAvailabilityServiceWithLogger(reservationRepo, officeRepo, now, logger)

	// Stored policies are cached per office; a policy write flushes both
	// caches so the next booking or check-in sees the new window.
	officeService.OnPolicyChange(reservationService.InvalidatePolicies)
	officeService.OnPolicyChange(checkInService.InvalidatePolicies)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Offices:      httptransport.NewOfficeHandler(officeService, logger),
		Desks:        httptransport.NewDeskHandler(deskService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		CheckIns:     httptransport.NewCheckInHandler(checkInService, logger),
		Availability: httptransport.NewAvailabilityHandler(availabilityService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session creation is the only unauthenticated endpoint.
		if r.URL.Path == "/sessions" && r.Method == http.MethodPost {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("desk booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// sessionTokenGenerator derives opaque session tokens by signing a fresh
// UUID with the configured secret, so tokens cannot be forged from the
// database alone.
func sessionTokenGenerator(secret string) func() string {
	key := []byte(secret)
	return func() string {
		mac := hmac.New(sha256.New, key)
		mac.Write([]byte(uuid.NewString()))
		return hex.EncodeToString(mac.Sum(nil))
	}
}
