// Command seed loads demo data: a user, a default account, a budget and 90
// days of transactions.
package main

import (
	"context"
	"flag"

	"github.com/dvloznov/wealth-tracker/internal/config"
	"github.com/dvloznov/wealth-tracker/internal/logger"
	"github.com/dvloznov/wealth-tracker/internal/seed"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

func main() {
	var (
		configDir = flag.String("config", "", "directory containing config.yaml")
		email     = flag.String("email", "demo@example.com", "demo user email")
		name      = flag.String("name", "Demo User", "demo user name")
		days      = flag.Int("days", 90, "days of transaction history")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	st, err := store.New(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	created, err := seed.Run(context.Background(), st, seed.Options{
		Email: *email,
		Name:  *name,
		Days:  *days,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	log.Info().Int("transactions", created).Str("email", *email).Msg("Seed data created")
}
