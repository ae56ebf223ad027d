package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/dvloznov/family-budget/internal/config"
	"github.com/dvloznov/family-budget/internal/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		migrationsDir = flag.String("migrations", "migrations", "Path to migrations directory")
		down          = flag.Bool("down", false, "Roll back all migrations instead of applying them")
	)
	flag.Parse()

	log := logger.New()
	cfg := config.MustLoad()

	if _, err := os.Stat(*migrationsDir); os.IsNotExist(err) {
		log.Fatal().Str("dir", *migrationsDir).Msg("Migrations directory not found")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+*migrationsDir, "pgx", driver)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create migrator")
	}
	defer m.Close()

	before, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("Failed to read current migration version")
	}

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
		return
	}

	after, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("Failed to read post-migration version")
	}

	log.Info().
		Uint("from", before).
		Uint("to", after).
		Msg("Migration complete")
}
