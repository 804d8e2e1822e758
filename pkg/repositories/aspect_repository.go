package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/database"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// AspectRecord pairs a target with its stored description record, for
// dataset-wide listings.
type AspectRecord struct {
	Target models.MetadataTarget
	Record *models.DescriptionRecord
}

// AspectRepository defines the interface for draft metadata persistence.
// Every write touches only the fields it names; unrelated review state
// survives regeneration.
type AspectRepository interface {
	Get(ctx context.Context, target models.MetadataTarget) (*models.DescriptionRecord, error)
	SetDraft(ctx context.Context, target models.MetadataTarget, draft string, generatedAt time.Time) error
	SetRegenerate(ctx context.Context, target models.MetadataTarget, flag bool) error
	MarkAccepted(ctx context.Context, target models.MetadataTarget, when time.Time) error
	AddHumanComment(ctx context.Context, target models.MetadataTarget, comment string) error
	AddNegativeExample(ctx context.Context, target models.MetadataTarget, example string) error
	SetExternalDocumentURI(ctx context.Context, target models.MetadataTarget, uri string) error
	ListByDataset(ctx context.Context, ref models.DatasetRef) ([]AspectRecord, error)
	ListMarkedForRegeneration(ctx context.Context, ref models.DatasetRef) ([]models.MetadataTarget, error)
}

// aspectRepository implements AspectRepository using PostgreSQL.
type aspectRepository struct {
	db *database.DB
}

// NewAspectRepository creates a new aspect repository.
func NewAspectRepository(db *database.DB) AspectRepository {
	return &aspectRepository{db: db}
}

const aspectColumns = `contents, generation_date, to_be_regenerated, is_accepted,
	when_accepted, human_comments, negative_examples, external_document_uri`

// Get retrieves the description record for a target.
func (r *aspectRepository) Get(ctx context.Context, target models.MetadataTarget) (*models.DescriptionRecord, error) {
	query := `
		SELECT ` + aspectColumns + `
		FROM description_aspects
		WHERE project = $1 AND dataset = $2 AND table_name = $3 AND aspect_path = $4`

	rec, err := scanRecord(r.db.QueryRow(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath()))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get aspect: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*models.DescriptionRecord, error) {
	var rec models.DescriptionRecord
	var generationDate *time.Time
	err := row.Scan(
		&rec.DraftText,
		&generationDate,
		&rec.ToBeRegenerated,
		&rec.IsAccepted,
		&rec.WhenAccepted,
		&rec.HumanComments,
		&rec.NegativeExamples,
		&rec.ExternalDocumentURI,
	)
	if err != nil {
		return nil, err
	}
	if generationDate != nil {
		rec.GenerationDate = *generationDate
	}
	if len(rec.HumanComments) == 0 {
		rec.HumanComments = nil
	}
	if len(rec.NegativeExamples) == 0 {
		rec.NegativeExamples = nil
	}
	return &rec, nil
}

// SetDraft writes a new draft text and generation date, clearing the
// regeneration flag. Review fields are left untouched.
func (r *aspectRepository) SetDraft(ctx context.Context, target models.MetadataTarget, draft string, generatedAt time.Time) error {
	query := `
		INSERT INTO description_aspects (project, dataset, table_name, aspect_path, contents, generation_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project, dataset, table_name, aspect_path) DO UPDATE
		SET contents = EXCLUDED.contents,
		    generation_date = EXCLUDED.generation_date,
		    to_be_regenerated = FALSE,
		    updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath(), draft, generatedAt)
	if err != nil {
		return fmt.Errorf("failed to set draft: %w", err)
	}
	return nil
}

// SetRegenerate flips the to-be-regenerated flag.
func (r *aspectRepository) SetRegenerate(ctx context.Context, target models.MetadataTarget, flag bool) error {
	query := `
		INSERT INTO description_aspects (project, dataset, table_name, aspect_path, to_be_regenerated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project, dataset, table_name, aspect_path) DO UPDATE
		SET to_be_regenerated = EXCLUDED.to_be_regenerated,
		    updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath(), flag)
	if err != nil {
		return fmt.Errorf("failed to set regenerate flag: %w", err)
	}
	return nil
}

// MarkAccepted records that the draft was accepted at the given time.
func (r *aspectRepository) MarkAccepted(ctx context.Context, target models.MetadataTarget, when time.Time) error {
	query := `
		UPDATE description_aspects
		SET is_accepted = TRUE, when_accepted = $5, updated_at = NOW()
		WHERE project = $1 AND dataset = $2 AND table_name = $3 AND aspect_path = $4`

	tag, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath(), when)
	if err != nil {
		return fmt.Errorf("failed to mark accepted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AddHumanComment appends a reviewer comment.
func (r *aspectRepository) AddHumanComment(ctx context.Context, target models.MetadataTarget, comment string) error {
	return r.appendToList(ctx, target, "human_comments", comment)
}

// AddNegativeExample appends a rejected draft to the negative examples.
func (r *aspectRepository) AddNegativeExample(ctx context.Context, target models.MetadataTarget, example string) error {
	return r.appendToList(ctx, target, "negative_examples", example)
}

func (r *aspectRepository) appendToList(ctx context.Context, target models.MetadataTarget, column, value string) error {
	// column is one of two hardcoded names, never user input.
	query := fmt.Sprintf(`
		INSERT INTO description_aspects (project, dataset, table_name, aspect_path, %s)
		VALUES ($1, $2, $3, $4, ARRAY[$5])
		ON CONFLICT (project, dataset, table_name, aspect_path) DO UPDATE
		SET %s = description_aspects.%s || EXCLUDED.%s,
		    updated_at = NOW()`, column, column, column, column)

	_, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath(), value)
	if err != nil {
		return fmt.Errorf("failed to append %s: %w", column, err)
	}
	return nil
}

// SetExternalDocumentURI attaches a documentation URI to the target.
func (r *aspectRepository) SetExternalDocumentURI(ctx context.Context, target models.MetadataTarget, uri string) error {
	query := `
		INSERT INTO description_aspects (project, dataset, table_name, aspect_path, external_document_uri)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (project, dataset, table_name, aspect_path) DO UPDATE
		SET external_document_uri = EXCLUDED.external_document_uri,
		    updated_at = NOW()`

	_, err := r.db.Exec(ctx, query,
		target.Project, target.Dataset, target.Table, target.AspectPath(), uri)
	if err != nil {
		return fmt.Errorf("failed to set document uri: %w", err)
	}
	return nil
}

// ListByDataset returns all stored records for tables and columns in a
// dataset, tables first, then by name and path.
func (r *aspectRepository) ListByDataset(ctx context.Context, ref models.DatasetRef) ([]AspectRecord, error) {
	query := `
		SELECT table_name, aspect_path, ` + aspectColumns + `
		FROM description_aspects
		WHERE project = $1 AND dataset = $2
		ORDER BY table_name, aspect_path`

	rows, err := r.db.Query(ctx, query, ref.Project, ref.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list aspects: %w", err)
	}
	defer rows.Close()

	var out []AspectRecord
	for rows.Next() {
		var tableName, aspectPath string
		var rec models.DescriptionRecord
		var generationDate *time.Time
		err := rows.Scan(
			&tableName,
			&aspectPath,
			&rec.DraftText,
			&generationDate,
			&rec.ToBeRegenerated,
			&rec.IsAccepted,
			&rec.WhenAccepted,
			&rec.HumanComments,
			&rec.NegativeExamples,
			&rec.ExternalDocumentURI,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aspect row: %w", err)
		}
		if generationDate != nil {
			rec.GenerationDate = *generationDate
		}
		if len(rec.HumanComments) == 0 {
			rec.HumanComments = nil
		}
		if len(rec.NegativeExamples) == 0 {
			rec.NegativeExamples = nil
		}

		target := models.NewTableTarget(ref.Project, ref.Dataset, tableName)
		if aspectPath != "" {
			target = target.WithColumn(columnFromAspectPath(aspectPath))
		}
		out = append(out, AspectRecord{Target: target, Record: &rec})
	}
	return out, rows.Err()
}

// ListMarkedForRegeneration returns targets in the dataset flagged for
// regeneration.
func (r *aspectRepository) ListMarkedForRegeneration(ctx context.Context, ref models.DatasetRef) ([]models.MetadataTarget, error) {
	query := `
		SELECT table_name, aspect_path
		FROM description_aspects
		WHERE project = $1 AND dataset = $2 AND to_be_regenerated
		ORDER BY table_name, aspect_path`

	rows, err := r.db.Query(ctx, query, ref.Project, ref.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to list regeneration targets: %w", err)
	}
	defer rows.Close()

	var out []models.MetadataTarget
	for rows.Next() {
		var tableName, aspectPath string
		if err := rows.Scan(&tableName, &aspectPath); err != nil {
			return nil, fmt.Errorf("failed to scan regeneration target: %w", err)
		}
		target := models.NewTableTarget(ref.Project, ref.Dataset, tableName)
		if aspectPath != "" {
			target = target.WithColumn(columnFromAspectPath(aspectPath))
		}
		out = append(out, target)
	}
	return out, rows.Err()
}

func columnFromAspectPath(path string) string {
	const prefix = "Schema."
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		return path[len(prefix):]
	}
	return path
}
