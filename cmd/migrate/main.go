// Command migrate creates or updates the database schema.
package main

import (
	"flag"

	"github.com/dvloznov/wealth-tracker/internal/config"
	"github.com/dvloznov/wealth-tracker/internal/logger"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

func main() {
	var (
		configDir = flag.String("config", "", "directory containing config.yaml")
		dsn       = flag.String("dsn", "", "database DSN (overrides config)")
	)
	flag.Parse()

	log := logger.New()

	target := *dsn
	if target == "" {
		cfg, err := config.Load(*configDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		target = cfg.DB.DSN
	}

	st, err := store.New(target)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Schema migration completed")
}
