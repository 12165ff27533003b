package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:concours.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/concours?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS contests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  institution_id TEXT NOT NULL,
  status TEXT NOT NULL,
  subjects_json TEXT NOT NULL,
  rules_json TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  published_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  contest_id TEXT NOT NULL REFERENCES contests(id) ON DELETE CASCADE,
  candidate_id TEXT NOT NULL,
  status TEXT NOT NULL,
  transcript_key TEXT NOT NULL DEFAULT '',
  submitted_at INTEGER NOT NULL,
  decided_at INTEGER NOT NULL DEFAULT 0,
  UNIQUE (contest_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS gradesheets (
  contest_id TEXT NOT NULL REFERENCES contests(id) ON DELETE CASCADE,
  candidate_id TEXT NOT NULL,
  grades_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (contest_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  offset INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  typ TEXT NOT NULL,                        -- e.g., ApplicationValidated
  key TEXT NOT NULL,                        -- natural key: applicationID / contestID
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,                       -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS contests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  institution_id TEXT NOT NULL,
  status TEXT NOT NULL,
  subjects_json TEXT NOT NULL,
  rules_json TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  published_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS applications (
  id TEXT PRIMARY KEY,
  contest_id TEXT NOT NULL REFERENCES contests(id) ON DELETE CASCADE,
  candidate_id TEXT NOT NULL,
  status TEXT NOT NULL,
  transcript_key TEXT NOT NULL DEFAULT '',
  submitted_at BIGINT NOT NULL,
  decided_at BIGINT NOT NULL DEFAULT 0,
  UNIQUE (contest_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS gradesheets (
  contest_id TEXT NOT NULL REFERENCES contests(id) ON DELETE CASCADE,
  candidate_id TEXT NOT NULL,
  grades_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL,
  PRIMARY KEY (contest_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  "offset" BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  actor TEXT NOT NULL DEFAULT '',
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
