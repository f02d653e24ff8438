package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"rewind/internal/api"
	"rewind/internal/backend"
	"rewind/internal/config"
	"rewind/internal/logging"
	"rewind/internal/middleware"

	shared "rewind/shared/types"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.json")
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatal("failed to load config:", err)
		}
		cfg = config.Default()
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Select the backend once at startup
	opts := backend.Options{
		Type:              shared.BackendType(cfg.Backend.Type),
		AllowMockFallback: cfg.Backend.AllowMockFallback && !cfg.IsProduction(),
	}
	manager, err := backend.NewManager(opts, logger.Logger)
	if err != nil {
		logger.Fatal("failed to select backend", zap.Error(err))
	}
	defer manager.Dispose()

	// Initialize handlers
	checkpointHandler := api.NewCheckpointHandler(manager, logger.Logger)

	// Set up router
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("/health", healthCheck)

	// Checkpoint endpoints
	mux.HandleFunc("POST /api/workspaces/checkpoint", checkpointHandler.Checkpoint)
	mux.HandleFunc("POST /api/workspaces/diff", checkpointHandler.Diff)
	mux.HandleFunc("POST /api/workspaces/revert", checkpointHandler.Revert)
	mux.HandleFunc("POST /api/workspaces/initialize", checkpointHandler.Initialize)
	mux.HandleFunc("GET /api/workspaces/has-repository", checkpointHandler.HasRepository)
	mux.HandleFunc("GET /api/workspaces/current", checkpointHandler.CurrentCommit)
	mux.HandleFunc("GET /api/workspaces/history", checkpointHandler.History)
	mux.HandleFunc("GET /api/workspaces/file", checkpointHandler.FileAtCommit)

	// Backend introspection
	mux.HandleFunc("GET /api/backend", checkpointHandler.BackendInfo)
	mux.HandleFunc("POST /api/backend/switch", checkpointHandler.SwitchBackend)

	// Apply middleware
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
	)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}
