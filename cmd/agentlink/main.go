package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/agentlink/agentlink/cmd/agentlink/cmd"
	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/logging"
)

// main initializes configuration and logging, then dispatches to the CLI.
func main() {
	if err := config.Initialize(); err != nil {
		log.Error().Err(err).Msg("failed to initialize configuration")
		os.Exit(1)
	}

	cfg := config.Get()
	logging.InitLogger(cfg.Log.Level == "debug", cfg.Log.Format == "human")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
