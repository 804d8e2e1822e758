package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// TargetError pairs a failed batch target with its error.
type TargetError struct {
	Target models.MetadataTarget
	Err    error
}

// BatchResult reports the outcome of a batch operation. A failed target
// never stops the rest of the batch.
type BatchResult struct {
	Generated []models.MetadataTarget
	Failed    []TargetError
}

// MetadataService is the operation boundary of the engine: single-target
// generation, dataset-wide batches and regeneration sweeps.
type MetadataService interface {
	GenerateTableDescription(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error)
	GenerateColumnDescription(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error)

	// GenerateColumnDescriptions drafts every column of a table.
	GenerateColumnDescriptions(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (*BatchResult, error)

	// GenerateDatasetDescriptions drafts every table of a dataset in
	// strategy order. Documentation-aware strategies attach the document URI
	// to each scheduled table before generation.
	GenerateDatasetDescriptions(ctx context.Context, ref models.DatasetRef, strategy models.Strategy, docURI string, opts models.GenerationOptions) (*BatchResult, error)

	// RegenerateDataset redrafts every target in the dataset flagged for
	// regeneration, feeding reviewer comments back into the prompts.
	RegenerateDataset(ctx context.Context, ref models.DatasetRef, opts models.GenerationOptions) (*BatchResult, error)
}

// metadataService implements MetadataService.
type metadataService struct {
	generation GenerationService
	scheduler  BatchScheduler
	warehouse  repositories.WarehouseRepository
	aspects    repositories.AspectRepository
	logger     *zap.Logger
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(
	generation GenerationService,
	scheduler BatchScheduler,
	warehouse repositories.WarehouseRepository,
	aspects repositories.AspectRepository,
	logger *zap.Logger,
) MetadataService {
	return &metadataService{
		generation: generation,
		scheduler:  scheduler,
		warehouse:  warehouse,
		aspects:    aspects,
		logger:     logger.Named("metadata"),
	}
}

// GenerateTableDescription implements MetadataService.
func (s *metadataService) GenerateTableDescription(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error) {
	return s.generation.GenerateTableDraft(ctx, target, opts)
}

// GenerateColumnDescription implements MetadataService.
func (s *metadataService) GenerateColumnDescription(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error) {
	return s.generation.GenerateColumnDraft(ctx, target, opts)
}

// GenerateColumnDescriptions implements MetadataService.
func (s *metadataService) GenerateColumnDescriptions(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (*BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	schema, err := s.warehouse.GetSchema(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, field := range schema {
		column := target.WithColumn(field.Name)
		if _, err := s.generation.GenerateColumnDraft(ctx, column, opts); err != nil {
			s.logger.Warn("Column draft failed, continuing batch",
				zap.String("target", column.FQN()),
				zap.Error(err))
			result.Failed = append(result.Failed, TargetError{Target: column, Err: err})
			continue
		}
		result.Generated = append(result.Generated, column)
	}
	return result, nil
}

// GenerateDatasetDescriptions implements MetadataService.
func (s *metadataService) GenerateDatasetDescriptions(ctx context.Context, ref models.DatasetRef, strategy models.Strategy, docURI string, opts models.GenerationOptions) (*BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.scheduler.PlanDataset(ctx, ref, strategy, docURI)
	if err != nil {
		return nil, err
	}

	// Every log line of a batch run shares one run ID.
	logger := s.logger.With(zap.String("run_id", uuid.NewString()), zap.String("dataset", ref.FQN()))
	logger.Info("Dataset batch starting",
		zap.String("strategy", string(strategy)),
		zap.Int("tables", len(plan)))

	result := &BatchResult{}
	for _, work := range plan {
		tableOpts := opts
		if work.DocumentURI != "" {
			if err := s.aspects.SetExternalDocumentURI(ctx, work.Target, work.DocumentURI); err != nil {
				result.Failed = append(result.Failed, TargetError{Target: work.Target, Err: err})
				continue
			}
			tableOpts.UseExtDocuments = true
		}

		if _, err := s.generation.GenerateTableDraft(ctx, work.Target, tableOpts); err != nil {
			if apperrors.IsKind(err, apperrors.KindConfigurationError) {
				return nil, err
			}
			logger.Warn("Table draft failed, continuing batch",
				zap.String("target", work.Target.FQN()),
				zap.Error(err))
			result.Failed = append(result.Failed, TargetError{Target: work.Target, Err: err})
			continue
		}
		result.Generated = append(result.Generated, work.Target)
	}

	logger.Info("Dataset batch finished",
		zap.Int("generated", len(result.Generated)),
		zap.Int("failed", len(result.Failed)))
	return result, nil
}

// RegenerateDataset implements MetadataService. Reviewer comments are always
// fed back into regeneration prompts.
func (s *metadataService) RegenerateDataset(ctx context.Context, ref models.DatasetRef, opts models.GenerationOptions) (*BatchResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.UseHumanComments = true
	opts.Regenerate = true

	targets, err := s.aspects.ListMarkedForRegeneration(ctx, ref)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, target := range targets {
		draft := s.generation.GenerateTableDraft
		if target.IsColumn() {
			draft = s.generation.GenerateColumnDraft
		}
		if _, err := draft(ctx, target, opts); err != nil {
			s.logger.Warn("Regeneration failed, continuing batch",
				zap.String("target", target.FQN()),
				zap.Error(err))
			result.Failed = append(result.Failed, TargetError{Target: target, Err: err})
			continue
		}
		result.Generated = append(result.Generated, target)
	}
	return result, nil
}
