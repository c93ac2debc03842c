// Command main seeds a development database with demo humans and requests.
package main

import (
	"flag"
	"log"
	"log/slog"

	"shaasam/internal/config"
	"shaasam/internal/database"
	"shaasam/internal/middleware"
	"shaasam/internal/seed"
)

func main() {
	humans := flag.Int("humans", 40, "Number of humans to create")
	requests := flag.Int("requests", 60, "Number of requests to create")
	pending := flag.Float64("pending", 0.2, "Share of humans left pending review")
	days := flag.Int("days", 30, "Spread profile updates over the last N days")
	clean := flag.Bool("clean", false, "Delete existing marketplace rows first")
	dryRun := flag.Bool("dry-run", false, "Build entities without writing them")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	slog.SetDefault(middleware.Logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *clean && !*dryRun {
		if err := seed.Clear(db); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		slog.Info("existing marketplace rows deleted")
	}

	factory := seed.NewFactory(db, seed.Options{
		Humans:       *humans,
		Requests:     *requests,
		PendingRatio: *pending,
		MaxDays:      *days,
		DryRun:       *dryRun,
		Seed:         *seedValue,
	})
	if err := factory.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
