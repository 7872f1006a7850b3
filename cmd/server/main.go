package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/roster/internal/api"
	"github.com/mcoot/roster/internal/config"
	"github.com/mcoot/roster/internal/factory"
)

func main() {
	configPath := flag.String("config", os.Getenv("ROSTER_CONFIG"), "Path to a YAML config file (env: ROSTER_CONFIG)")
	flag.Parse()

	// A missing .env is normal outside local development
	envErr := godotenv.Load()

	settings, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := config.ParseLevel(settings.Log.Level)

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Debug("no .env file loaded", slog.String("error", envErr.Error()))
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factory.Config{
		Logger:   logger,
		Settings: settings,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to release resources", slog.String("error", err.Error()))
		}
	}()

	app.RunBackground(ctx, settings.Sessions.SweepInterval)

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = settings.Server.Host
	serverConfig.Port = settings.Server.Port
	serverConfig.ReadTimeout = settings.Server.ReadTimeout
	serverConfig.ShutdownTimeout = settings.Server.ShutdownTimeout
	server := api.NewServer(app.Handler(settings.Server.AllowedOrigins), serverConfig, logger)

	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		return
	}

	// Serve in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", settings.Storage.Driver),
		slog.String("sessions", settings.Sessions.Registry),
		slog.String("blobs", settings.Blobs.Driver),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		// Open change feeds would otherwise hold Shutdown until its timeout
		app.Hub.Close()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return
		}
	}

	logger.Info("server stopped")
}
