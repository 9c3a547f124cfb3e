package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dishbook/backend/config"
	"github.com/dishbook/backend/internal/app"
	httpDelivery "github.com/dishbook/backend/internal/delivery/http"
	"github.com/dishbook/backend/internal/logger"
)

func main() {
	if err := config.LoadEnvFile(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.JSON); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Infow("starting DishBook backend v1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	services, err := app.New(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		logger.Logger.Errorw("failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(
		services.Matching,
		services.VerificationEndpoint(),
		services.Review,
		services.Catalog,
	)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Errorw("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Infow("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Errorw("server forced to shutdown", "error", err)
	}

	logger.Logger.Infow("server exited")
}
