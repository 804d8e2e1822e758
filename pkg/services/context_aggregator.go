package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// sourceQueryLimit caps how many producing queries are pulled into a prompt.
const sourceQueryLimit = 5

// ContextAggregator assembles the read-only snapshot a prompt is built from.
// The table schema is the only required source; every other source degrades
// to absence when unavailable.
type ContextAggregator interface {
	BuildTableContext(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (*models.TableContext, error)
}

// contextAggregator implements ContextAggregator over the warehouse, scan,
// lineage and aspect stores.
type contextAggregator struct {
	warehouse  repositories.WarehouseRepository
	scans      repositories.ScanRepository
	lineage    repositories.LineageRepository
	aspects    repositories.AspectRepository
	sampleRows int
	logger     *zap.Logger
}

// NewContextAggregator creates a new context aggregator.
func NewContextAggregator(
	warehouse repositories.WarehouseRepository,
	scans repositories.ScanRepository,
	lineage repositories.LineageRepository,
	aspects repositories.AspectRepository,
	sampleRows int,
	logger *zap.Logger,
) ContextAggregator {
	return &contextAggregator{
		warehouse:  warehouse,
		scans:      scans,
		lineage:    lineage,
		aspects:    aspects,
		sampleRows: sampleRows,
		logger:     logger.Named("context"),
	}
}

// BuildTableContext implements ContextAggregator. The target may be a column
// target; context is always gathered at table level.
func (a *contextAggregator) BuildTableContext(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (*models.TableContext, error) {
	tableTarget := models.NewTableTarget(target.Project, target.Dataset, target.Table)

	schema, err := a.warehouse.GetSchema(ctx, tableTarget)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "table %s does not exist", tableTarget.FQN())
		}
		return nil, fmt.Errorf("failed to read schema for %s: %w", tableTarget.FQN(), err)
	}

	tctx := &models.TableContext{
		Target: target,
		Schema: schema,
	}

	tctx.SampleJSON = a.fetchSample(ctx, tableTarget)

	if opts.UseProfile {
		tctx.ProfileJSON = a.fetchOptional(ctx, "profile", func() (string, error) {
			return a.scans.GetProfile(ctx, tableTarget)
		})
	}
	if opts.UseDataQuality {
		tctx.QualityJSON = a.fetchOptional(ctx, "quality", func() (string, error) {
			return a.scans.GetQuality(ctx, tableTarget)
		})
	}
	if opts.UseLineageTables {
		tctx.SourceTables = a.fetchSourceTables(ctx, tableTarget)
	}
	if opts.UseLineageProcesses {
		queries, err := a.lineage.GetSourceQueries(ctx, tableTarget, sourceQueryLimit)
		if err != nil {
			a.logger.Warn("Source queries unavailable, continuing without",
				zap.String("table", tableTarget.FQN()),
				zap.Error(err))
		} else {
			tctx.SourceQueries = queries
		}
	}
	if opts.UseHumanComments || opts.UseExtDocuments {
		a.attachReviewContext(ctx, target, opts, tctx)
	}

	return tctx, nil
}

// fetchSample returns the row sample, degrading to "[]" on any failure.
func (a *contextAggregator) fetchSample(ctx context.Context, tableTarget models.MetadataTarget) string {
	sample, err := a.warehouse.SampleRows(ctx, tableTarget, a.sampleRows)
	if err != nil {
		a.logger.Warn("Row sampling failed, continuing with empty sample",
			zap.String("table", tableTarget.FQN()),
			zap.Error(err))
		return "[]"
	}
	return sample
}

func (a *contextAggregator) fetchOptional(ctx context.Context, source string, fetch func() (string, error)) string {
	result, err := fetch()
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			a.logger.Warn("Context source unavailable, continuing without",
				zap.String("source", source),
				zap.Error(err))
		}
		return ""
	}
	return result
}

// fetchSourceTables resolves upstream tables with their schemas and current
// descriptions. Individual sources that cannot be resolved are skipped.
func (a *contextAggregator) fetchSourceTables(ctx context.Context, tableTarget models.MetadataTarget) []models.SourceTable {
	sources, err := a.lineage.GetSourceTables(ctx, tableTarget)
	if err != nil {
		a.logger.Warn("Lineage unavailable, continuing without source tables",
			zap.String("table", tableTarget.FQN()),
			zap.Error(err))
		return nil
	}

	var out []models.SourceTable
	for _, src := range sources {
		schema, err := a.warehouse.GetSchema(ctx, src)
		if err != nil {
			a.logger.Warn("Skipping unresolvable source table",
				zap.String("source", src.FQN()),
				zap.Error(err))
			continue
		}
		description, err := a.warehouse.GetTableDescription(ctx, src)
		if err != nil {
			description = ""
		}
		out = append(out, models.SourceTable{
			Name:        src.TableFQN(),
			Schema:      schema,
			Description: description,
		})
	}
	return out
}

// attachReviewContext pulls reviewer comments, negative examples and the
// external document URI from the target's stored record.
func (a *contextAggregator) attachReviewContext(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions, tctx *models.TableContext) {
	rec, err := a.aspects.Get(ctx, target)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			a.logger.Warn("Stored record unavailable, continuing without review context",
				zap.String("target", target.FQN()),
				zap.Error(err))
		}
		return
	}
	if opts.UseHumanComments {
		tctx.HumanComments = rec.HumanComments
		tctx.NegativeExamples = rec.NegativeExamples
	}
	if opts.UseExtDocuments {
		tctx.DocumentURI = rec.ExternalDocumentURI
	}
}

// ColumnProfileJSON extracts the profile slice for a single column from a
// whole-table profile document. Returns "" when the document cannot be
// parsed or holds nothing for the column.
func ColumnProfileJSON(profileJSON, column string) string {
	if profileJSON == "" {
		return ""
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(profileJSON), &doc); err != nil {
		return ""
	}
	if raw, ok := doc[column]; ok {
		return string(raw)
	}
	// Some scanners nest per-column stats under a "columns" key.
	if rawCols, ok := doc["columns"]; ok {
		var cols map[string]json.RawMessage
		if err := json.Unmarshal(rawCols, &cols); err == nil {
			if raw, ok := cols[column]; ok {
				return string(raw)
			}
		}
	}
	return ""
}
