package db

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Migrate runs the goose migrations in dir against the Postgres database in
// cfg. The sqlite driver relies on AutoMigrate instead, goose is only wired
// for the production store.
func Migrate(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	conn, err := sql.Open("postgres", cfg.dsn())
	if err != nil {
		return err
	}
	defer conn.Close()

	return goose.Up(conn, dir)
}
