// Package main initializes and starts the validator hub server,
// setting up configuration, logging, persistence, services and the
// websocket endpoint.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/avetisov/qrvalidator/internal/config"
	"github.com/avetisov/qrvalidator/internal/crypto"
	"github.com/avetisov/qrvalidator/internal/logger"
	"github.com/avetisov/qrvalidator/internal/repository"
	"github.com/avetisov/qrvalidator/internal/server/handler/http"
	"github.com/avetisov/qrvalidator/internal/server/handler/ws"
	"github.com/avetisov/qrvalidator/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Missing or malformed secrets and allow-list are fatal: the process
	// must not start without them.
	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	authCodec, err := crypto.NewCodec([]byte(options.AuthKey))
	if err != nil {
		zapLogger.Fatal("cannot build auth codec", zap.Error(err))
	}
	payloadCodec, err := crypto.NewCodec([]byte(options.PayloadKey))
	if err != nil {
		zapLogger.Fatal("cannot build payload codec", zap.Error(err))
	}

	allowlist, err := config.LoadAllowlist(options.AllowlistFile)
	if err != nil {
		zapLogger.Fatal("cannot load allow-list", zap.Error(err))
	}

	// The optional dataset backs the report view; the hub answers
	// init-dataset with an error shape when it is absent.
	var dataset *service.DatasetService
	if options.DatasetFile != "" {
		dataset, err = service.NewDatasetService(options.DatasetFile, options.DatasetKey)
		if err != nil {
			zapLogger.Fatal("cannot load dataset", zap.Error(err))
		}
	}

	// Initialize persistence and business-logic services.
	historyRepo := repository.NewFileHistoryRepository(options.HistoryFile)
	historyService := service.NewHistoryService(historyRepo, zapLogger)
	authService := service.NewAuthService(authCodec, allowlist)

	// The hub owns all connections and the broadcast fan-out.
	hub := ws.NewHub(authService, historyService, payloadCodec, dataset, zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(hub, zapLogger)

	zapLogger.Info("starting server",
		zap.String("addr", options.Addr),
		zap.String("history", options.HistoryFile))
	if err := nethttp.ListenAndServe(options.Addr, router); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
