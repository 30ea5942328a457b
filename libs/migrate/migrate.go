package migrate

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Up applies every pending migration in fsys (NNNN_name.up.sql files) and
// records the version in table.
func Up(databaseURL string, fsys fs.FS, table string, logger *slog.Logger) error {
	src, err := newSource(fsys)
	if err != nil {
		return err
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = conn.Close() }()

	driver, err := postgres.WithInstance(conn, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return fmt.Errorf("db driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("migrations up to date", "table", table)
	case err != nil:
		return fmt.Errorf("migrate up: %w", err)
	default:
		version, _, _ := m.Version()
		logger.Info("migrations applied", "table", table, "version", version)
	}
	return nil
}

func newSource(fsys fs.FS) (source.Driver, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	return src, nil
}
