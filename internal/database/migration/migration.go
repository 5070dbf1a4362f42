package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Dialect is a schema flavour with its own steps and sentinel query.
type Dialect struct {
	Name     string
	Sentinel string
	Steps    []migrationStep
}

// Postgres stores one row per document, ordered by position within an owner.
var Postgres = Dialect{
	Name:     "postgres",
	Sentinel: "SELECT to_regclass('public.catalog_documents') IS NOT NULL",
	Steps: []migrationStep{
		{
			Name: "create_table_catalog_documents",
			SQL: `CREATE TABLE IF NOT EXISTS catalog_documents (
  owner        TEXT        NOT NULL,
  id           TEXT        NOT NULL,
  position     INTEGER     NOT NULL,
  name         TEXT        NOT NULL,
  type         TEXT        NOT NULL,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  created_at   TIMESTAMPTZ NOT NULL,
  modified_at  TIMESTAMPTZ NOT NULL,
  tags         JSONB       NOT NULL DEFAULT '[]'::jsonb,
  category     TEXT        NOT NULL,
  description  TEXT,
  url          TEXT,
  is_favorite  BOOLEAN     NOT NULL DEFAULT FALSE,
  PRIMARY KEY (owner, id),
  CHECK (created_at <= modified_at)
);`,
		},
		{
			Name: "create_table_catalog_owners",
			SQL: `CREATE TABLE IF NOT EXISTS catalog_owners (
  owner     TEXT        PRIMARY KEY,
  saved_at  TIMESTAMPTZ NOT NULL
);`,
		},
		{
			Name: "create_index_catalog_documents_position",
			SQL:  `CREATE INDEX IF NOT EXISTS idx_catalog_documents_owner_position ON catalog_documents (owner, position);`,
		},
	},
}

// SQLite keeps one JSON snapshot per owner, mirroring a browser's local storage.
var SQLite = Dialect{
	Name:     "sqlite",
	Sentinel: "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'catalog_snapshots')",
	Steps: []migrationStep{
		{
			Name: "create_table_catalog_snapshots",
			SQL: `CREATE TABLE IF NOT EXISTS catalog_snapshots (
  owner     TEXT    PRIMARY KEY,
  payload   TEXT    NOT NULL,
  saved_at  INTEGER NOT NULL
);`,
		},
	},
}

// EnsureMigrated checks the dialect's sentinel table and runs its steps if it is missing.
func EnsureMigrated(ctx context.Context, db *sql.DB, d Dialect, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"dialect":   d.Name,
		"db_host":   dbHost,
	})

	var exists bool
	if err := db.QueryRowContext(ctx, d.Sentinel).Scan(&exists); err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"dialect":       d.Name,
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"dialect":     d.Name,
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range d.Steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"dialect":          d.Name,
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"dialect":          d.Name,
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"dialect":     d.Name,
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	if loc == nil {
		loc = time.UTC
	}
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
