package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// WarehouseRepository defines read and write access to the warehouse itself:
// table inventories, schemas, row samples and the native description slots
// (table and column comments). Datasets map to schemas; the project component
// of a target is a logical namespace and does not participate in warehouse
// queries.
type WarehouseRepository interface {
	ListTables(ctx context.Context, ref models.DatasetRef) ([]string, error)
	GetSchema(ctx context.Context, target models.MetadataTarget) ([]models.SchemaField, error)
	SampleRows(ctx context.Context, target models.MetadataTarget, limit int) (string, error)
	GetTableDescription(ctx context.Context, target models.MetadataTarget) (string, error)
	SetTableDescription(ctx context.Context, target models.MetadataTarget, description string) error
	GetColumnDescription(ctx context.Context, target models.MetadataTarget) (string, error)
	SetColumnDescription(ctx context.Context, target models.MetadataTarget, description string) error
}

// warehouseRepository implements WarehouseRepository against PostgreSQL.
type warehouseRepository struct {
	db *database.DB
}

// NewWarehouseRepository creates a new warehouse repository.
func NewWarehouseRepository(db *database.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

// ListTables returns the base table names in a dataset, in catalog order.
func (r *warehouseRepository) ListTables(ctx context.Context, ref models.DatasetRef) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := r.db.Query(ctx, query, ref.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetSchema returns the column names and types of a table in ordinal order.
// Returns ErrNotFound when the table does not exist.
func (r *warehouseRepository) GetSchema(ctx context.Context, target models.MetadataTarget) ([]models.SchemaField, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := r.db.Query(ctx, query, target.Dataset, target.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	defer rows.Close()

	var fields []models.SchemaField
	for rows.Next() {
		var f models.SchemaField
		if err := rows.Scan(&f.Name, &f.Type); err != nil {
			return nil, fmt.Errorf("failed to scan schema field: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return fields, nil
}

// SampleRows returns up to limit rows of the table serialized as a JSON
// array. An empty table yields "[]".
func (r *warehouseRepository) SampleRows(ctx context.Context, target models.MetadataTarget, limit int) (string, error) {
	rel := pgx.Identifier{target.Dataset, target.Table}.Sanitize()
	query := fmt.Sprintf(
		`SELECT COALESCE(json_agg(t), '[]'::json)::text FROM (SELECT * FROM %s LIMIT $1) t`, rel)

	var sample string
	if err := r.db.QueryRow(ctx, query, limit).Scan(&sample); err != nil {
		return "", fmt.Errorf("failed to sample rows: %w", err)
	}
	return sample, nil
}

// GetTableDescription reads the table comment, "" when unset.
func (r *warehouseRepository) GetTableDescription(ctx context.Context, target models.MetadataTarget) (string, error) {
	query := `
		SELECT COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2`

	var description string
	err := r.db.QueryRow(ctx, query, target.Dataset, target.Table).Scan(&description)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get table description: %w", err)
	}
	return description, nil
}

// SetTableDescription writes the table comment.
func (r *warehouseRepository) SetTableDescription(ctx context.Context, target models.MetadataTarget, description string) error {
	// COMMENT ON does not take bind parameters; the literal is quoted here.
	stmt := fmt.Sprintf("COMMENT ON TABLE %s IS %s",
		pgx.Identifier{target.Dataset, target.Table}.Sanitize(),
		quoteLiteral(description))

	if _, err := r.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to set table description: %w", err)
	}
	return nil
}

// GetColumnDescription reads the column comment, "" when unset.
func (r *warehouseRepository) GetColumnDescription(ctx context.Context, target models.MetadataTarget) (string, error) {
	query := `
		SELECT COALESCE(col_description(c.oid, a.attnum), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		WHERE n.nspname = $1 AND c.relname = $2 AND a.attname = $3 AND NOT a.attisdropped`

	var description string
	err := r.db.QueryRow(ctx, query, target.Dataset, target.Table, target.Column).Scan(&description)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to get column description: %w", err)
	}
	return description, nil
}

// SetColumnDescription writes the column comment.
func (r *warehouseRepository) SetColumnDescription(ctx context.Context, target models.MetadataTarget, description string) error {
	stmt := fmt.Sprintf("COMMENT ON COLUMN %s IS %s",
		pgx.Identifier{target.Dataset, target.Table, target.Column}.Sanitize(),
		quoteLiteral(description))

	if _, err := r.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to set column description: %w", err)
	}
	return nil
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
