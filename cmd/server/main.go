package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitrix/splitrix/internal/api"
	"github.com/splitrix/splitrix/internal/auth"
	"github.com/splitrix/splitrix/internal/config"
	"github.com/splitrix/splitrix/internal/events"
	"github.com/splitrix/splitrix/internal/ledger"
	"github.com/splitrix/splitrix/internal/metrics"
	"github.com/splitrix/splitrix/internal/mirror"
	"github.com/splitrix/splitrix/internal/storage"
	"github.com/splitrix/splitrix/internal/storage/memory"
	"github.com/splitrix/splitrix/internal/storage/sqlite"
	"github.com/splitrix/splitrix/pkg/logging"
)

func main() {
	logging.Setup()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	var store storage.Store
	switch cfg.Storage.Driver {
	case "memory":
		store = memory.New()
		slog.Warn("using in-memory ledger store, state will not survive restarts")
	default:
		store, err = sqlite.New(cfg.Storage.Path)
		if err != nil {
			slog.Error("failed to initialize ledger store", "error", err)
			os.Exit(1)
		}
		slog.Info("ledger store initialized", "database", cfg.Storage.Path)
	}
	defer store.Close()

	mirrorDB, err := mirror.Open(cfg.Mirror.Path)
	if err != nil {
		slog.Error("failed to initialize mirror", "error", err)
		os.Exit(1)
	}
	defer mirrorDB.Close()
	slog.Info("mirror initialized", "database", cfg.Mirror.Path)

	bus := events.NewBus(cfg.Events.BufferSize)
	led := ledger.New(store, bus)
	met := metrics.New()

	// The projector drains remaining notifications after the bus closes.
	var wg sync.WaitGroup
	projector := mirror.NewProjector(store, mirrorDB, met.EventsProjected)
	wg.Add(1)
	go func() {
		defer wg.Done()
		projector.Run(context.Background(), bus.Events())
	}()

	authenticator := auth.NewAuthenticator(mirrorDB)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	server := api.NewServer(led, mirrorDB, authenticator, jwtManager, met)

	// h2c enables HTTP/2 without TLS for clients behind a terminating proxy.
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	go func() {
		slog.Info("server starting", "address", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
	bus.Close()
	wg.Wait()
}
