// Command migrate applies the clinic schema migrations embedded in the
// binary. Usage:
//
//	migrate            apply everything outstanding
//	migrate force <v>  mark the schema as version v without running anything
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/clinicdesk/clinic-api/migrations"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("reach database: %w", err)
	}

	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("prepare target: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	// "force <version>" repairs a dirty schema after a failed migration.
	if len(args) >= 2 && args[0] == "force" {
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("force: version must be a number, got %q", args[1])
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force schema version %d: %w", version, err)
		}
		log.Printf("schema version forced to %d", version)
		return nil
	}

	switch err := m.Up(); {
	case err == nil:
		log.Println("schema migrated")
	case errors.Is(err, migrate.ErrNoChange):
		log.Println("schema already up to date")
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
