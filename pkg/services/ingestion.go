package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// IngestionService records the context the generation pipeline later reads:
// lineage edges, the queries that produced a table, and profile and quality
// scan results.
type IngestionService interface {
	RecordLineageLink(ctx context.Context, target, source models.MetadataTarget) error
	RecordLineageProcess(ctx context.Context, target models.MetadataTarget, sqlQuery string) error
	RecordProfileScan(ctx context.Context, target models.MetadataTarget, resultJSON string) error
	RecordQualityScan(ctx context.Context, target models.MetadataTarget, resultJSON string) error
}

// ingestionService implements IngestionService.
type ingestionService struct {
	lineage repositories.LineageRepository
	scans   repositories.ScanRepository
	logger  *zap.Logger
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	lineage repositories.LineageRepository,
	scans repositories.ScanRepository,
	logger *zap.Logger,
) IngestionService {
	return &ingestionService{
		lineage: lineage,
		scans:   scans,
		logger:  logger.Named("ingestion"),
	}
}

// RecordLineageLink implements IngestionService. Both ends of the edge must
// be table targets.
func (s *ingestionService) RecordLineageLink(ctx context.Context, target, source models.MetadataTarget) error {
	if target.IsColumn() || source.IsColumn() {
		return apperrors.New(apperrors.KindConfigurationError, "lineage links connect tables, not columns")
	}
	if target.FQN() == source.FQN() {
		return apperrors.Newf(apperrors.KindConfigurationError, "table %s cannot be its own source", target.FQN())
	}
	if err := s.lineage.RecordLink(ctx, target, source); err != nil {
		return err
	}
	s.logger.Info("Lineage link recorded",
		zap.String("target", target.FQN()),
		zap.String("source", source.FQN()))
	return nil
}

// RecordLineageProcess implements IngestionService.
func (s *ingestionService) RecordLineageProcess(ctx context.Context, target models.MetadataTarget, sqlQuery string) error {
	if target.IsColumn() {
		return apperrors.New(apperrors.KindConfigurationError, "lineage processes attach to tables, not columns")
	}
	if strings.TrimSpace(sqlQuery) == "" {
		return apperrors.New(apperrors.KindConfigurationError, "sql query must not be empty")
	}
	return s.lineage.RecordProcess(ctx, target, sqlQuery)
}

// RecordProfileScan implements IngestionService.
func (s *ingestionService) RecordProfileScan(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	if err := validateScanResult(target, resultJSON); err != nil {
		return err
	}
	return s.scans.SetProfile(ctx, target, resultJSON)
}

// RecordQualityScan implements IngestionService.
func (s *ingestionService) RecordQualityScan(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	if err := validateScanResult(target, resultJSON); err != nil {
		return err
	}
	return s.scans.SetQuality(ctx, target, resultJSON)
}

// validateScanResult rejects malformed payloads before they reach storage:
// scan results end up verbatim inside prompts, so broken JSON would poison
// every later generation for the table.
func validateScanResult(target models.MetadataTarget, resultJSON string) error {
	if target.IsColumn() {
		return apperrors.New(apperrors.KindConfigurationError, "scan results attach to tables, not columns")
	}
	if !json.Valid([]byte(resultJSON)) {
		return apperrors.Newf(apperrors.KindConfigurationError, "scan result for %s is not valid JSON", target.FQN())
	}
	return nil
}
