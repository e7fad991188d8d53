// Command server runs the trekkr API: location batch ingestion, travel
// statistics, achievements and auth.
//
// Configuration is read from config.yaml and environment variables; see
// internal/config. The server shuts down gracefully on SIGINT/SIGTERM.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/trekkr-app/trekkr-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
