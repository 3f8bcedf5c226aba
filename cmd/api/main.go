package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"isuclicker-api/internal/bootstrap"
	"isuclicker-api/internal/config"
	"isuclicker-api/internal/game"
	"isuclicker-api/internal/handler"
	"isuclicker-api/internal/middleware"
	"isuclicker-api/internal/router"
	"isuclicker-api/internal/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting isuclicker API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Open ledger, cache and journal
	app, err := bootstrap.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}()
	log.Printf("Ledger: %s, cache: %s", cfg.Ledger.Type, cfg.Cache.Type)

	var reporter *game.Reporter
	if cfg.Game.StatsInterval > 0 {
		reporter = game.NewReporter(app.Service, game.ReporterConfig{Interval: cfg.Game.StatsInterval})
		reporter.Start()
	}

	decoder, err := session.NewDecoder()
	if err != nil {
		log.Fatalf("Failed to compile request schema: %v", err)
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version, app.Ledger.Now)
	gameHandler := handler.NewGameHandler(app.Service, decoder, session.Config{
		PushInterval:     cfg.Game.PushInterval,
		ActionBatchDelay: cfg.Game.ActionBatchDelay,
		ActionRate:       cfg.Game.ActionRate,
		ActionBurst:      cfg.Game.ActionBurst,
	})
	adminHandler := handler.NewAdminHandler(app.Service, cfg.Ledger.Type, cfg.Cache.Type)
	logHandler := handler.NewLogHandler(app.Journal)

	if len(cfg.App.AdminKeys) == 0 {
		log.Println("Warning: ADMIN_API_KEYS not set, admin endpoints are open")
	}

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		GameHandler:     gameHandler,
		AdminHandler:    adminHandler,
		LogHandler:      logHandler,
		AdminMiddleware: middleware.NewAdminKeyMiddleware(cfg.App.AdminKeys),
		StaticDir:       cfg.Server.StaticDir,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	srv.RegisterOnShutdown(gameHandler.Shutdown)

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if reporter != nil {
		reporter.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
