package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// ScanRepository stores and serves the latest profile and quality scan
// results per table, as opaque JSON.
type ScanRepository interface {
	GetProfile(ctx context.Context, target models.MetadataTarget) (string, error)
	SetProfile(ctx context.Context, target models.MetadataTarget, resultJSON string) error
	GetQuality(ctx context.Context, target models.MetadataTarget) (string, error)
	SetQuality(ctx context.Context, target models.MetadataTarget, resultJSON string) error
}

// scanRepository implements ScanRepository using PostgreSQL.
type scanRepository struct {
	db *database.DB
}

// NewScanRepository creates a new scan repository.
func NewScanRepository(db *database.DB) ScanRepository {
	return &scanRepository{db: db}
}

func (r *scanRepository) get(ctx context.Context, table string, target models.MetadataTarget) (string, error) {
	// table is one of two hardcoded names, never user input.
	query := fmt.Sprintf(`
		SELECT result::text
		FROM %s
		WHERE project = $1 AND dataset = $2 AND table_name = $3`, table)

	var result string
	err := r.db.QueryRow(ctx, query, target.Project, target.Dataset, target.Table).Scan(&result)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get scan result from %s: %w", table, err)
	}
	return result, nil
}

func (r *scanRepository) set(ctx context.Context, table string, target models.MetadataTarget, resultJSON string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project, dataset, table_name, result, scanned_at)
		VALUES ($1, $2, $3, $4::jsonb, NOW())
		ON CONFLICT (project, dataset, table_name) DO UPDATE
		SET result = EXCLUDED.result, scanned_at = EXCLUDED.scanned_at`, table)

	_, err := r.db.Exec(ctx, query, target.Project, target.Dataset, target.Table, resultJSON)
	if err != nil {
		return fmt.Errorf("failed to store scan result in %s: %w", table, err)
	}
	return nil
}

// GetProfile returns the latest profile scan JSON for a table.
func (r *scanRepository) GetProfile(ctx context.Context, target models.MetadataTarget) (string, error) {
	return r.get(ctx, "profile_results", target)
}

// SetProfile stores the latest profile scan JSON for a table.
func (r *scanRepository) SetProfile(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	return r.set(ctx, "profile_results", target, resultJSON)
}

// GetQuality returns the latest quality scan JSON for a table.
func (r *scanRepository) GetQuality(ctx context.Context, target models.MetadataTarget) (string, error) {
	return r.get(ctx, "quality_results", target)
}

// SetQuality stores the latest quality scan JSON for a table.
func (r *scanRepository) SetQuality(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	return r.set(ctx, "quality_results", target, resultJSON)
}
