package repositories

import (
	"context"
	"fmt"

	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// LineageRepository reads and records table-level lineage: which tables feed
// a target and the queries that last wrote it.
type LineageRepository interface {
	GetSourceTables(ctx context.Context, target models.MetadataTarget) ([]models.MetadataTarget, error)
	GetSourceQueries(ctx context.Context, target models.MetadataTarget, limit int) ([]string, error)
	RecordLink(ctx context.Context, target, source models.MetadataTarget) error
	RecordProcess(ctx context.Context, target models.MetadataTarget, sqlQuery string) error
}

// lineageRepository implements LineageRepository using PostgreSQL.
type lineageRepository struct {
	db *database.DB
}

// NewLineageRepository creates a new lineage repository.
func NewLineageRepository(db *database.DB) LineageRepository {
	return &lineageRepository{db: db}
}

// GetSourceTables returns the upstream tables of a target.
func (r *lineageRepository) GetSourceTables(ctx context.Context, target models.MetadataTarget) ([]models.MetadataTarget, error) {
	query := `
		SELECT source_project, source_dataset, source_table
		FROM lineage_links
		WHERE target_project = $1 AND target_dataset = $2 AND target_table = $3
		ORDER BY source_project, source_dataset, source_table`

	rows, err := r.db.Query(ctx, query, target.Project, target.Dataset, target.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get source tables: %w", err)
	}
	defer rows.Close()

	var sources []models.MetadataTarget
	for rows.Next() {
		var project, dataset, table string
		if err := rows.Scan(&project, &dataset, &table); err != nil {
			return nil, fmt.Errorf("failed to scan source table: %w", err)
		}
		sources = append(sources, models.NewTableTarget(project, dataset, table))
	}
	return sources, rows.Err()
}

// GetSourceQueries returns the most recent queries that wrote the target,
// newest first.
func (r *lineageRepository) GetSourceQueries(ctx context.Context, target models.MetadataTarget, limit int) ([]string, error) {
	query := `
		SELECT sql_query
		FROM lineage_processes
		WHERE target_project = $1 AND target_dataset = $2 AND target_table = $3
		ORDER BY executed_at DESC
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, target.Project, target.Dataset, target.Table, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get source queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan source query: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// RecordLink stores one upstream edge, idempotently.
func (r *lineageRepository) RecordLink(ctx context.Context, target, source models.MetadataTarget) error {
	query := `
		INSERT INTO lineage_links (target_project, target_dataset, target_table,
		                           source_project, source_dataset, source_table)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table,
		source.Project, source.Dataset, source.Table)
	if err != nil {
		return fmt.Errorf("failed to record lineage link: %w", err)
	}
	return nil
}

// RecordProcess stores one query execution against the target.
func (r *lineageRepository) RecordProcess(ctx context.Context, target models.MetadataTarget, sqlQuery string) error {
	query := `
		INSERT INTO lineage_processes (target_project, target_dataset, target_table, sql_query)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, target.Project, target.Dataset, target.Table, sqlQuery)
	if err != nil {
		return fmt.Errorf("failed to record lineage process: %w", err)
	}
	return nil
}
