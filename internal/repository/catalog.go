package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository mirrors snapshot bodies into Postgres, keyed by id, so
// the catalog can be queried without parsing the JSON tree on disk.
type CatalogRepository interface {
	SaveCategory(ctx context.Context, id int, raw json.RawMessage) error
	SaveProduct(ctx context.Context, id int, raw json.RawMessage) error
}

type catalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

func (r *catalogRepository) SaveCategory(ctx context.Context, id int, raw json.RawMessage) error {
	query := `
	INSERT INTO categories (id, data, fetched_at)
	VALUES ($1, $2, now())
	ON CONFLICT (id)
	DO UPDATE SET data = $2, fetched_at = now()`
	if _, err := r.db.Exec(ctx, query, id, raw); err != nil {
		return fmt.Errorf("failed to save category %d: %w", id, err)
	}
	return nil
}

func (r *catalogRepository) SaveProduct(ctx context.Context, id int, raw json.RawMessage) error {
	query := `
	INSERT INTO products (id, data, fetched_at)
	VALUES ($1, $2, now())
	ON CONFLICT (id)
	DO UPDATE SET data = $2, fetched_at = now()`
	if _, err := r.db.Exec(ctx, query, id, raw); err != nil {
		return fmt.Errorf("failed to save product %d: %w", id, err)
	}
	return nil
}
