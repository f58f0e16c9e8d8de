package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DB wraps the journal database connection
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// PlayerRow represents an account record
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents an account's career stats
type StatsRow struct {
	PlayerID int64
	Kills    int
	Deaths   int
	Wins     int
	Matches  int
	Playtime float64 // seconds
}

// MatchRow represents a finished match
type MatchRow struct {
	ID         int64     `json:"id"`
	RoomID     string    `json:"roomId"`
	Mode       GameMode  `json:"mode"`
	KillTarget int       `json:"killTarget"`
	TimeLimit  int       `json:"timeLimit"`
	Duration   float64   `json:"duration"`
	WinnerName string    `json:"winner"`
	CreatedAt  time.Time `json:"createdAt"`
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// OpenDB opens (or creates) the journal database and migrates it
func OpenDB(driver, dsn string) (*DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name(), err)
	}
	if err := dialect.Configure(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("configure %s: %w", dialect.Name(), err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Dialect returns the backend in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// schema holds one statement per entry. {{id}} is the dialect's generated key column.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS players (
		id {{id}},
		username VARCHAR(32) NOT NULL UNIQUE,
		pass_hash VARCHAR(255) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		player_id BIGINT PRIMARY KEY REFERENCES players(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		matches INTEGER NOT NULL DEFAULT 0,
		playtime DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id {{id}},
		room_id VARCHAR(64) NOT NULL,
		mode VARCHAR(16) NOT NULL,
		kill_target INTEGER NOT NULL DEFAULT 0,
		time_limit INTEGER NOT NULL DEFAULT 0,
		duration DOUBLE PRECISION NOT NULL DEFAULT 0,
		winner_name VARCHAR(64) NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS match_players (
		match_id BIGINT NOT NULL REFERENCES matches(id),
		account_id BIGINT NULL,
		name VARCHAR(64) NOT NULL,
		character_id VARCHAR(32) NOT NULL,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id {{id}},
		event_type VARCHAR(32) NOT NULL,
		account_id BIGINT NULL,
		room_id VARCHAR(64) NULL,
		data TEXT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		setting_key VARCHAR(64) PRIMARY KEY,
		setting_value TEXT NOT NULL
	)`,
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{id}}", db.dialect.AutoIncrement())
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", db.dialect.Name(), err)
		}
	}
	return nil
}

func (db *DB) exec(x execer, query string, args ...any) (sql.Result, error) {
	return x.Exec(db.dialect.Rebind(query), args...)
}

func (db *DB) queryRow(x execer, query string, args ...any) *sql.Row {
	return x.QueryRow(db.dialect.Rebind(query), args...)
}

// insert runs an INSERT and returns the generated id
func (db *DB) insert(x execer, query string, args ...any) (int64, error) {
	if db.dialect.SupportsLastInsertID() {
		res, err := db.exec(x, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}
	var id int64
	err := db.queryRow(x, query+" RETURNING id", args...).Scan(&id)
	return id, err
}

// withTx runs fn in a transaction, committing only if fn succeeds
func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CreatePlayer creates a new account and its stats row
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	var id int64
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		id, err = db.insert(tx,
			"INSERT INTO players (username, pass_hash, created_at) VALUES (?, ?, ?)",
			username, passHash, time.Now().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
		if _, err := db.exec(tx, "INSERT INTO stats (player_id) VALUES (?)", id); err != nil {
			return fmt.Errorf("insert stats: %w", err)
		}
		return nil
	})
	return id, err
}

// GetPlayerByUsername returns an account by username, or nil
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	p := &PlayerRow{}
	var created int64
	err := db.queryRow(db.conn,
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	).Scan(&p.ID, &p.Username, &p.PassHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(created)
	return p, nil
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.queryRow(db.conn, "SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns an account's stats, or nil
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	s := &StatsRow{}
	err := db.queryRow(db.conn,
		"SELECT player_id, kills, deaths, wins, matches, playtime FROM stats WHERE player_id = ?",
		playerID,
	).Scan(&s.PlayerID, &s.Kills, &s.Deaths, &s.Wins, &s.Matches, &s.Playtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetSetting returns a stored setting, "" if missing
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.queryRow(db.conn, "SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.exec(db.conn, db.dialect.UpsertSetting(), key, value)
	return err
}

// RecordMatch stores a finished match with its participants and updates career
// stats of account-linked players, all in one transaction
func (db *DB) RecordMatch(res MatchResult) (int64, error) {
	var matchID int64
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		matchID, err = db.insert(tx,
			`INSERT INTO matches (room_id, mode, kill_target, time_limit, duration, winner_name, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.RoomID, string(res.Mode), res.KillTarget, res.TimeLimit,
			res.EndedAt.Sub(res.StartedAt).Seconds(), res.WinnerName, res.EndedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		for _, p := range res.Players {
			account := sql.NullInt64{Int64: p.AccountID, Valid: p.AccountID > 0}
			if _, err := db.exec(tx,
				`INSERT INTO match_players (match_id, account_id, name, character_id, kills, deaths, won)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				matchID, account, p.Name, p.Character, p.Kills, p.Deaths, boolInt(p.Won),
			); err != nil {
				return fmt.Errorf("insert match player: %w", err)
			}
			if !account.Valid {
				continue
			}
			if _, err := db.exec(tx,
				`UPDATE stats SET
					kills = kills + ?,
					deaths = deaths + ?,
					wins = wins + ?,
					matches = matches + 1,
					playtime = playtime + ?
				WHERE player_id = ?`,
				p.Kills, p.Deaths, boolInt(p.Won), p.Playtime, p.AccountID,
			); err != nil {
				return fmt.Errorf("update stats: %w", err)
			}
		}
		return nil
	})
	return matchID, err
}

// RecentMatches returns the latest finished matches, newest first
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(db.dialect.Rebind(
		`SELECT id, room_id, mode, kill_target, time_limit, duration, winner_name, created_at
		 FROM matches ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]MatchRow, 0, limit)
	for rows.Next() {
		var m MatchRow
		var mode string
		var created int64
		if err := rows.Scan(&m.ID, &m.RoomID, &mode, &m.KillTarget, &m.TimeLimit, &m.Duration, &m.WinnerName, &created); err != nil {
			return nil, err
		}
		m.Mode = GameMode(mode)
		m.CreatedAt = time.UnixMilli(created)
		result = append(result, m)
	}
	return result, rows.Err()
}

// InsertEvents writes a batch of analytics events in one transaction
func (db *DB) InsertEvents(events []AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	return db.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(db.dialect.Rebind(
			`INSERT INTO events (event_type, account_id, room_id, data, created_at) VALUES (?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, evt := range events {
			account := sql.NullInt64{Int64: evt.AccountID, Valid: evt.AccountID > 0}
			room := sql.NullString{String: evt.RoomID, Valid: evt.RoomID != ""}
			data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
			if _, err := stmt.Exec(evt.Type, account, room, data, evt.Timestamp.UnixMilli()); err != nil {
				return fmt.Errorf("insert event: %w", err)
			}
		}
		return nil
	})
}

// EventCounts returns how many events of each type were recorded
func (db *DB) EventCounts() (map[string]int, error) {
	rows, err := db.conn.Query("SELECT event_type, COUNT(*) FROM events GROUP BY event_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
