// Package store persists trained models in SQLite or PostgreSQL.
package store

import (
	"database/sql"
	"embed"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS

	ErrDBNotInitialized = errors.New("database not initialized")
)

// DB is a database handle that knows its placeholder dialect.
type DB struct {
	*sql.DB
	driver string
}

// Driver returns the name of the underlying database driver.
func (db *DB) Driver() string {
	return db.driver
}

// DriverFor picks the driver for a DSN: postgres URLs and key/value
// connection strings use lib/pq, anything else is a SQLite file path.
func DriverFor(dsn string) string {
	d := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://") ||
		strings.Contains(d, "host=") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Init creates the schema if it does not exist yet.
func Init(dsn string) error {
	if dsn == "" {
		return errors.New("dsn not specified")
	}

	db, err := GetDB(dsn)
	if err != nil {
		return errors.Wrap(err, "error opening database")
	}
	defer db.Close()

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}

	slog.Debug("ensuring db schema", "driver", db.driver)
	if _, err := db.Exec(string(b)); err != nil {
		return errors.Wrap(err, "failed to create database schema")
	}
	return nil
}

// GetDB opens the database for the DSN.
func GetDB(dsn string) (*DB, error) {
	driver := DriverFor(dsn)
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	if driver == DriverSQLite {
		// single writer
		conn.SetMaxOpenConns(1)
	}
	return &DB{DB: conn, driver: driver}, nil
}

// Rebind rewrites ? placeholders into the dialect of the database.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
