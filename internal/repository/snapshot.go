package repository

import (
	"context"
	"fmt"
	"time"

	"catalog/sync/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Schema creates the snapshot table when it is missing
const Schema = `
CREATE TABLE IF NOT EXISTS catalog_snapshots (
	generated_at   TIMESTAMPTZ PRIMARY KEY,
	total_products INTEGER NOT NULL,
	total_public   INTEGER NOT NULL,
	catalog        JSONB NOT NULL,
	products       JSONB NOT NULL
)`

type SnapshotRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveSnapshot(ctx context.Context, catalog *domain.Catalog, products []domain.PublicProduct) error
}

// execer is the part of pgxpool.Pool the repository needs
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type snapshotRepository struct {
	db execer
}

func NewSnapshotRepository(db execer) SnapshotRepository {
	return &snapshotRepository{
		db: db,
	}
}

func (r *snapshotRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create catalog_snapshots: %w", err)
	}
	return nil
}

// SaveSnapshot stores a finished catalog keyed by its generation time. A
// second save of the same generation replaces the first.
func (r *snapshotRepository) SaveSnapshot(ctx context.Context, catalog *domain.Catalog, products []domain.PublicProduct) error {
	generatedAt, err := time.Parse(time.RFC3339, catalog.Metadata.GeneratedAt)
	if err != nil {
		return fmt.Errorf("invalid catalog generation time %q: %w", catalog.Metadata.GeneratedAt, err)
	}
	if products == nil {
		products = []domain.PublicProduct{}
	}

	query := `
	INSERT INTO catalog_snapshots (generated_at, total_products, total_public, catalog, products)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (generated_at)
	DO UPDATE SET total_products = $2, total_public = $3, catalog = $4, products = $5`
	_, err = r.db.Exec(ctx, query, generatedAt, catalog.Metadata.TotalProducts, len(products), catalog, products)
	if err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}

	return nil
}
