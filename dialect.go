package main

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	// Name is the config value selecting this dialect
	Name() string

	// DriverName is the database/sql driver to open
	DriverName() string

	// Rebind converts ? placeholders if the driver needs another syntax
	Rebind(query string) string

	// SupportsLastInsertID is false when inserts need a RETURNING clause
	SupportsLastInsertID() bool

	// Configure applies pool and session settings after opening
	Configure(db *sql.DB) error

	// AutoIncrement is the column definition of a generated primary key
	AutoIncrement() string

	// UpsertSetting stores one key/value pair in the settings table
	UpsertSetting() string
}

// ErrUnknownDriver is returned for a db driver name no dialect handles
var ErrUnknownDriver = errors.New("unknown database driver")

// DialectFor returns the dialect for a config driver name
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, nil
	case "postgres", "postgresql":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}

var placeholderRe = regexp.MustCompile(`\?`)

// rebindNumbered turns ? placeholders into $1, $2, ...
func rebindNumbered(query string) string {
	n := 0
	return placeholderRe.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return "sqlite" }
func (sqliteDialect) DriverName() string         { return "sqlite" }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) SupportsLastInsertID() bool { return true }
func (sqliteDialect) AutoIncrement() string      { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

// Configure limits the pool to one connection; sqlite allows a single writer
func (sqliteDialect) Configure(db *sql.DB) error {
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	_, err := db.Exec("PRAGMA foreign_keys=ON")
	return err
}

func (sqliteDialect) UpsertSetting() string {
	return `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = excluded.setting_value`
}

type postgresDialect struct{}

func (postgresDialect) Name() string               { return "postgres" }
func (postgresDialect) DriverName() string         { return "postgres" }
func (postgresDialect) Rebind(query string) string { return rebindNumbered(query) }
func (postgresDialect) SupportsLastInsertID() bool { return false }
func (postgresDialect) AutoIncrement() string      { return "BIGSERIAL PRIMARY KEY" }

func (postgresDialect) Configure(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (postgresDialect) UpsertSetting() string {
	return `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string               { return "mysql" }
func (mysqlDialect) DriverName() string         { return "mysql" }
func (mysqlDialect) Rebind(query string) string { return query }
func (mysqlDialect) SupportsLastInsertID() bool { return true }
func (mysqlDialect) AutoIncrement() string      { return "BIGINT AUTO_INCREMENT PRIMARY KEY" }

func (mysqlDialect) Configure(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (mysqlDialect) UpsertSetting() string {
	return `INSERT INTO settings (setting_key, setting_value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`
}
