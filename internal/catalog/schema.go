package catalog

import (
	"context"
	"fmt"
)

// schemaRevisions holds the catalog schema as ordered revisions. Applying
// revision i moves PRAGMA user_version from i to i+1, so a reopened database
// only runs the revisions it has not seen yet.
var schemaRevisions = []string{
	`CREATE TABLE products (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        brand TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        image_url TEXT NOT NULL DEFAULT '',
        targeting TEXT NOT NULL DEFAULT '{}',
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE TABLE liked_scenes (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session TEXT NOT NULL DEFAULT '',
        description TEXT NOT NULL,
        mood TEXT NOT NULL,
        product_name TEXT NOT NULL DEFAULT '',
        created_at TEXT NOT NULL
    );

    CREATE INDEX idx_liked_scenes_session ON liked_scenes (session, id DESC);`,
}

func (s *Store) applySchema(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("catalog: read schema version: %w", err)
	}
	if current > len(schemaRevisions) {
		return fmt.Errorf("catalog: database schema version %d is newer than this build understands", current)
	}

	for revision := current; revision < len(schemaRevisions); revision++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("catalog: begin schema tx: %w", err)
		}
		if _, err := tx.ExecContext(ctx, schemaRevisions[revision]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("catalog: apply schema revision %d: %w", revision+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", revision+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("catalog: record schema revision %d: %w", revision+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("catalog: commit schema revision %d: %w", revision+1, err)
		}
	}
	return nil
}
