package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type txContextKey string

const txKey txContextKey = "trx"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver   string `env:"DRIVER"`
	User     string `env:"USER"`
	Host     string `env:"HOST"`
	Port     string `env:"PORT"`
	Password string `env:"PASSWORD"`
	Database string `env:"DBNAME"`

	// Path is the database file for the sqlite driver, ":memory:" works too.
	Path string `env:"PATH"`
}

func (c Config) dsn() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Database, c.Port)
}

// DB wraps a gorm connection and carries transactions through the context so
// repository code stays transaction-agnostic.
type DB struct {
	conn *gorm.DB
}

func Create(config Config, withDebug bool) (*DB, error) {
	var dial gorm.Dialector
	switch config.Driver {
	case DriverSQLite:
		dial = sqlite.Open(config.Path)
	case DriverPostgres, "":
		dial = postgres.Open(config.dsn())
	default:
		return nil, fmt.Errorf("db: unknown driver %q", config.Driver)
	}

	conn, err := gorm.Open(dial, &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	if withDebug {
		conn = conn.Debug()
	}
	return &DB{conn: conn}, nil
}

// FromGorm wraps an existing gorm connection. Used by tests that open their
// own in-memory sqlite handle.
func FromGorm(conn *gorm.DB) *DB {
	return &DB{conn: conn}
}

func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ctx = context.WithValue(ctx, txKey, tx)
		return fn(ctx)
	})
}

// Conn returns the transaction bound to ctx if one is open, otherwise the
// root connection.
func (r *DB) Conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return r.conn.WithContext(ctx)
}

// AutoMigrate creates or updates the schema for the given models.
func (r *DB) AutoMigrate(models ...any) error {
	return r.conn.AutoMigrate(models...)
}
