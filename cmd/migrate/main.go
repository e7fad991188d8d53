// Command migrate applies goose SQL migrations.
//
// Usage:
//
//	migrate [-dir migrations] <up|down|status>
//
// Requires DATABASE_DSN environment variable to be set.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	dir := flag.String("dir", "migrations", "directory with migration files")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down|status>")
	}
	command := flag.Arg(0)

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(*dir))
	if err != nil {
		log.Fatalf("goose provider: %v", err)
	}

	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		for _, r := range results {
			log.Printf("applied %s", r.Source.Path)
		}
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("rolled back %s", result.Source.Path)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			log.Fatalf("migrate status: %v", err)
		}
		for _, st := range statuses {
			state := "pending"
			if st.State == goose.StateApplied {
				state = "applied"
			}
			log.Printf("%-8s %s", state, st.Source.Path)
		}
	default:
		log.Fatalf("unknown command %q (want up, down or status)", command)
	}
}
