package main

import (
	"context"
	"os"

	"github.com/yigit/admissions/internal/pkg/logger"
	"github.com/yigit/admissions/internal/server"
)

func main() {
	// NewServer loads config, opens the store, builds services and the router
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal arrives
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
