package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vbif322/cue-bot/brackets"
	"github.com/Vbif322/cue-bot/config"
	"github.com/Vbif322/cue-bot/db"
	"github.com/Vbif322/cue-bot/events"
	"github.com/Vbif322/cue-bot/handlers"
	"github.com/Vbif322/cue-bot/repositories"
	"github.com/Vbif322/cue-bot/routes"
	"github.com/Vbif322/cue-bot/services"
)

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
		}
	}()
	logger.Info("database connection established")

	if err := db.RunMigrations(dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	hub := events.NewHub(logger)
	go hub.Run()

	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository()

	seedAssigner := brackets.NewSeedAssigner()
	engine := services.NewAdvancementEngine(matchRepo, tournamentRepo, logger)
	bracketService := services.NewBracketService(participantRepo, matchRepo, seedAssigner, logger)
	matchService := services.NewMatchService(dbConn, matchRepo, tournamentRepo, engine, hub, logger)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		bracketService,
		hub,
		logger,
	)

	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	matchHandler := handlers.NewMatchHandler(matchService)
	wsHandler := handlers.NewWebSocketHandler(hub, tournamentService)

	router := routes.SetupRoutes(tournamentHandler, matchHandler, wsHandler)

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
}
