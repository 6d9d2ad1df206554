package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vignette/internal/placement"
	"vignette/internal/services"
)

// Store manages product catalog and liked-scene persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("catalog: database path required")
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("catalog: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ReplaceProducts replaces the whole catalog in one transaction.
func (s *Store) ReplaceProducts(ctx context.Context, products []placement.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("catalog: clear products: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, product := range products {
		targeting, err := json.Marshal(product.Targeting)
		if err != nil {
			return fmt.Errorf("catalog: encode targeting for %s: %w", product.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, brand, description, image_url, targeting, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			product.ID, product.Name, product.Brand, product.Description,
			product.ImageURL, string(targeting), now, now,
		); err != nil {
			return fmt.Errorf("catalog: insert product %s: %w", product.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit replace: %w", err)
	}
	return nil
}

// UpsertProduct inserts or updates a single catalog entry.
func (s *Store) UpsertProduct(ctx context.Context, product placement.Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "upsert", "product id required", nil)
	}
	targeting, err := json.Marshal(product.Targeting)
	if err != nil {
		return fmt.Errorf("catalog: encode targeting for %s: %w", product.ID, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, brand, description, image_url, targeting, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             name = excluded.name,
             brand = excluded.brand,
             description = excluded.description,
             image_url = excluded.image_url,
             targeting = excluded.targeting,
             updated_at = excluded.updated_at`,
		product.ID, product.Name, product.Brand, product.Description,
		product.ImageURL, string(targeting), now, now,
	)
	if err != nil {
		return fmt.Errorf("catalog: upsert product %s: %w", product.ID, err)
	}
	return nil
}

// ListProducts returns the full catalog ordered by brand then name.
func (s *Store) ListProducts(ctx context.Context) ([]placement.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, brand, description, image_url, targeting FROM products ORDER BY brand, name")
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	var products []placement.Product
	for rows.Next() {
		var product placement.Product
		var targeting string
		if err := rows.Scan(&product.ID, &product.Name, &product.Brand,
			&product.Description, &product.ImageURL, &targeting); err != nil {
			return nil, fmt.Errorf("catalog: scan product: %w", err)
		}
		if targeting != "" {
			if err := json.Unmarshal([]byte(targeting), &product.Targeting); err != nil {
				return nil, fmt.Errorf("catalog: decode targeting for %s: %w", product.ID, err)
			}
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate products: %w", err)
	}
	return products, nil
}

// GetProduct returns one catalog entry by id.
func (s *Store) GetProduct(ctx context.Context, id string) (placement.Product, error) {
	var product placement.Product
	var targeting string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, brand, description, image_url, targeting FROM products WHERE id = ?", id).
		Scan(&product.ID, &product.Name, &product.Brand, &product.Description, &product.ImageURL, &targeting)
	if err == sql.ErrNoRows {
		return placement.Product{}, services.Wrap(services.ErrNotFound, "catalog", "get", fmt.Sprintf("product %q", id), nil)
	}
	if err != nil {
		return placement.Product{}, fmt.Errorf("catalog: get product %s: %w", id, err)
	}
	if targeting != "" {
		if err := json.Unmarshal([]byte(targeting), &product.Targeting); err != nil {
			return placement.Product{}, fmt.Errorf("catalog: decode targeting for %s: %w", id, err)
		}
	}
	return product, nil
}

// AddLikedScene appends a liked scene to a session's preference history.
func (s *Store) AddLikedScene(ctx context.Context, session string, scene placement.LikedScene) error {
	if strings.TrimSpace(scene.Description) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "like", "scene description required", nil)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO liked_scenes (session, description, mood, product_name, created_at) VALUES (?, ?, ?, ?, ?)",
		session, scene.Description, scene.Mood, scene.ProductName, now)
	if err != nil {
		return fmt.Errorf("catalog: insert liked scene: %w", err)
	}
	return nil
}

// RecentLikedScenes returns the newest limit liked scenes for a session,
// most recent first.
func (s *Store) RecentLikedScenes(ctx context.Context, session string, limit int) ([]placement.LikedScene, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT description, mood, product_name FROM liked_scenes WHERE session = ? ORDER BY id DESC LIMIT ?",
		session, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list liked scenes: %w", err)
	}
	defer rows.Close()

	var scenes []placement.LikedScene
	for rows.Next() {
		var scene placement.LikedScene
		if err := rows.Scan(&scene.Description, &scene.Mood, &scene.ProductName); err != nil {
			return nil, fmt.Errorf("catalog: scan liked scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate liked scenes: %w", err)
	}
	return scenes, nil
}
