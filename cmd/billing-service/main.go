package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sketchly/billing-service/internal/app"
	"github.com/sketchly/billing-service/internal/config"
	"github.com/sketchly/billing-service/pkg/logger"
)

func main() {
	level := logger.INFO
	if os.Getenv("APP_ENV") != "production" {
		level = logger.DEBUG
	}
	log := logger.New(level)

	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalw("Failed to initialize application", "error", err)
	}
	defer application.Close()

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      application.Engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // AI proxy calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("Starting HTTP server", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("HTTP server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("Graceful shutdown failed", "error", err)
	}
	log.Infow("Server stopped")
}
