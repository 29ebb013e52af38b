package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env supplies the ${ENV_VAR} references in dossier.yaml.
	_ = godotenv.Load()

	// Ctrl-C and SIGTERM cancel the command context; in-flight model calls
	// stop at their next suspension point and partial results are kept.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
