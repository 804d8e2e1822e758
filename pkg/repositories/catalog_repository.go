package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// CatalogRepository manages the catalog entry overview, the long-form
// description surface written on accept alongside the warehouse comment.
type CatalogRepository interface {
	GetOverview(ctx context.Context, target models.MetadataTarget) (string, error)
	SetOverview(ctx context.Context, target models.MetadataTarget, overview string) error
}

// catalogRepository implements CatalogRepository using PostgreSQL.
type catalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// GetOverview returns the stored overview, "" when the entry has none yet.
func (r *catalogRepository) GetOverview(ctx context.Context, target models.MetadataTarget) (string, error) {
	query := `
		SELECT overview
		FROM catalog_overviews
		WHERE project = $1 AND dataset = $2 AND table_name = $3`

	var overview string
	err := r.db.QueryRow(ctx, query, target.Project, target.Dataset, target.Table).Scan(&overview)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get overview: %w", err)
	}
	return overview, nil
}

// SetOverview writes the overview for a table entry.
func (r *catalogRepository) SetOverview(ctx context.Context, target models.MetadataTarget, overview string) error {
	query := `
		INSERT INTO catalog_overviews (project, dataset, table_name, overview, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (project, dataset, table_name) DO UPDATE
		SET overview = EXCLUDED.overview, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, target.Project, target.Dataset, target.Table, overview)
	if err != nil {
		return fmt.Errorf("failed to set overview: %w", err)
	}
	return nil
}
