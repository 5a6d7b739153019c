package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/nmwangi/efootball-league/config"
	"github.com/nmwangi/efootball-league/db"
	"github.com/nmwangi/efootball-league/handlers"
	"github.com/nmwangi/efootball-league/live"
	"github.com/nmwangi/efootball-league/notifications"
	"github.com/nmwangi/efootball-league/payments"
	"github.com/nmwangi/efootball-league/repositories"
	api "github.com/nmwangi/efootball-league/routes"
	"github.com/nmwangi/efootball-league/scheduling"
	"github.com/nmwangi/efootball-league/services"
	"github.com/nmwangi/efootball-league/storage"
	"github.com/nmwangi/efootball-league/utils"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewR2Uploader(storage.R2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("R2 uploader initialized")

	hub := live.NewHub()
	go hub.Run()
	logger.Info("websocket hub started")

	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	fixtureRepo := repositories.NewPostgresFixtureRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	paymentRepo := repositories.NewPostgresPaymentRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	tokenRepo := repositories.NewPostgresDeviceTokenRepository(dbConn)
	logger.Info("repositories initialized")

	notifyStore := notifications.NewStore(dbConn)

	gateway := payments.NewClient(cfg.PayFlowBaseURL, cfg.PayFlowAPIKey, cfg.PayFlowRatePerMinute, logger)
	poller := payments.NewStatusPoller(gateway, clockwork.NewRealClock(), cfg.PayFlowPollInterval, cfg.PayFlowPollAttempts, logger)

	knockout := scheduling.NewKnockoutGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))

	// Background work (pollers, workers, scheduler) stops with this context.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	authService := services.NewAuthService(adminRepo, []byte(cfg.JWTSecretKey), utils.DefaultTokenTTL, logger)
	playerService := services.NewPlayerService(dbConn, playerRepo, fixtureRepo, resultRepo, standingRepo, tournamentRepo, tokenRepo, uploader, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, playerRepo, fixtureRepo, resultRepo, standingRepo, paymentRepo, uploader, logger)
	fixtureService := services.NewFixtureService(dbConn, tournamentRepo, playerRepo, fixtureRepo, resultRepo, standingRepo, knockout, hub, notifyStore, logger)
	resultService := services.NewResultService(dbConn, fixtureRepo, resultRepo, standingRepo, playerRepo, hub, notifyStore, logger)
	standingsService := services.NewStandingsService(playerRepo, resultRepo, standingRepo)
	importService := services.NewImportService(playerRepo, fixtureRepo, resultService, logger)
	paymentService := services.NewPaymentService(workerCtx, paymentRepo, tournamentRepo, playerRepo, playerService, gateway, poller, notifyStore, logger)
	logger.Info("services initialized")

	sender := notifications.NewFCMSender(cfg.FCMCredentialsFile, logger)
	go notifications.StartWorker(workerCtx, notifyStore, tokenRepo, sender, logger)

	// Moves tournaments through their lifecycle as reg/start/end dates pass.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("tournament status scheduler started", slog.Duration("interval", schedulerInterval))

		if _, err := tournamentService.AutoUpdateStatusesByDates(workerCtx); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}

		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				updated, err := tournamentService.AutoUpdateStatusesByDates(workerCtx)
				if err != nil {
					logger.Error("scheduler: periodic run failed", slog.Any("error", err))
					continue
				}
				if updated > 0 {
					logger.Info("scheduler: tournament statuses advanced", slog.Int("updated", updated))
				}
			}
		}
	}()

	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	fixtureHandler := handlers.NewFixtureHandler(fixtureService)
	resultHandler := handlers.NewResultHandler(resultService, importService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		playerHandler,
		tournamentHandler,
		fixtureHandler,
		resultHandler,
		standingsHandler,
		paymentHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancelWorkers()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
