package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"flanergide/internal/app"
	"flanergide/pkg/config"
	"flanergide/pkg/logger"
	"flanergide/pkg/shutdown"
)

// build metadata, set via ldflags during release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()
	eff, err := config.LoadEffective(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithLevel(eff.Config.Logging.Level)

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath, 0)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_exit", "error", err)
		a.Close()
		shutdown.Abort("server exited", err, eff.DBPath, 0)
	}
	logger.Info("shutdown_complete")
}
