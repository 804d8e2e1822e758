package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/llm"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/prompts"
	"github.com/datawisp/metadata-engine/pkg/repositories"
	"github.com/datawisp/metadata-engine/pkg/retry"
)

// GenerationService produces description drafts for single targets: it
// aggregates context, assembles the prompt, runs inference with retries and
// either stages the result as a draft or writes it straight to the
// permanent stores, depending on the options. Staging a draft clears any
// pending regeneration flag.
type GenerationService interface {
	GenerateTableDraft(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error)
	GenerateColumnDraft(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error)
}

// generationService implements GenerationService.
type generationService struct {
	aggregator ContextAggregator
	generator  llm.TextGenerator
	aspects    repositories.AspectRepository
	warehouse  repositories.WarehouseRepository
	catalog    repositories.CatalogRepository
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewGenerationService creates a new generation service. Pass nil retryCfg
// to use the inference retry policy.
func NewGenerationService(
	aggregator ContextAggregator,
	generator llm.TextGenerator,
	aspects repositories.AspectRepository,
	warehouse repositories.WarehouseRepository,
	catalog repositories.CatalogRepository,
	retryCfg *retry.Config,
	logger *zap.Logger,
) GenerationService {
	if retryCfg == nil {
		retryCfg = retry.InferenceConfig()
	}
	return &generationService{
		aggregator: aggregator,
		generator:  generator,
		aspects:    aspects,
		warehouse:  warehouse,
		catalog:    catalog,
		retryCfg:   retryCfg,
		logger:     logger.Named("generation"),
	}
}

// GenerateTableDraft implements GenerationService.
func (s *generationService) GenerateTableDraft(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if target.IsColumn() {
		return "", apperrors.New(apperrors.KindConfigurationError, "table draft requested for a column target")
	}

	tctx, err := s.aggregator.BuildTableContext(ctx, target, opts)
	if err != nil {
		return "", err
	}

	prompt := prompts.BuildTableDescriptionPrompt(tctx, opts)
	draft, err := s.infer(ctx, target, prompt, documentURI(tctx, opts))
	if err != nil {
		return "", err
	}

	if opts.AddAIWarning {
		draft = ApplyAIWarning(draft)
	}
	return s.store(ctx, target, draft, opts)
}

// GenerateColumnDraft implements GenerationService. The target must name a
// column that exists in the table schema.
func (s *generationService) GenerateColumnDraft(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if !target.IsColumn() {
		return "", apperrors.New(apperrors.KindConfigurationError, "column draft requested for a table target")
	}

	tctx, err := s.aggregator.BuildTableContext(ctx, target, opts)
	if err != nil {
		return "", err
	}
	if !schemaHasColumn(tctx.Schema, target.Column) {
		return "", apperrors.Newf(apperrors.KindNotFound, "column %s does not exist", target.FQN())
	}

	columnProfile := ColumnProfileJSON(tctx.ProfileJSON, target.Column)
	prompt := prompts.BuildColumnDescriptionPrompt(tctx, target.Column, columnProfile, opts)
	draft, err := s.infer(ctx, target, prompt, documentURI(tctx, opts))
	if err != nil {
		return "", err
	}

	if opts.AddAIWarning {
		draft = ApplyAIWarning(draft)
	}
	return s.store(ctx, target, draft, opts)
}

// store routes the generated text. Staged drafts are merged against the
// prior draft and recorded for review; otherwise the text goes straight to
// the permanent stores, each merged against its own prior value. A direct
// write during a regeneration pass clears the flag as the final step.
func (s *generationService) store(ctx context.Context, target models.MetadataTarget, draft string, opts models.GenerationOptions) (string, error) {
	if opts.StageForReview {
		prior, err := s.aspects.Get(ctx, target)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return "", err
		}
		priorDraft := ""
		if prior != nil {
			priorDraft = prior.DraftText
		}
		merged, err := CombineDescription(priorDraft, draft, opts.DescriptionHandling)
		if err != nil {
			return "", err
		}
		if err := s.aspects.SetDraft(ctx, target, merged, time.Now().UTC()); err != nil {
			return "", err
		}
		return merged, nil
	}

	if target.IsColumn() {
		if err := persistColumnDescription(ctx, s.warehouse, target, draft, opts); err != nil {
			return "", err
		}
	} else {
		if err := persistTableDescription(ctx, s.warehouse, s.catalog, s.logger, target, draft, opts); err != nil {
			return "", err
		}
	}
	if opts.Regenerate {
		if err := s.aspects.SetRegenerate(ctx, target, false); err != nil {
			return "", err
		}
	}
	return draft, nil
}

// infer runs one prompt through the model with the retry policy. Exhausted
// retries surface as a generation failure for the target.
func (s *generationService) infer(ctx context.Context, target models.MetadataTarget, prompt, docURI string) (string, error) {
	start := time.Now()
	text, err := retry.DoWithResult(ctx, s.retryCfg, func() (string, error) {
		return s.generator.Infer(ctx, prompt, docURI)
	})
	if err != nil {
		s.logger.Error("Inference failed after retries",
			zap.String("target", target.FQN()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", apperrors.Wrap(apperrors.KindGenerationFailure, "inference failed", err)
	}

	draft := strings.TrimSpace(text)
	if draft == "" {
		return "", apperrors.New(apperrors.KindGenerationFailure, "model returned an empty description")
	}

	s.logger.Info("Draft generated",
		zap.String("target", target.FQN()),
		zap.String("model", s.generator.GetModel()),
		zap.Int("draft_len", len(draft)),
		zap.Duration("elapsed", time.Since(start)))
	return draft, nil
}

func documentURI(tctx *models.TableContext, opts models.GenerationOptions) string {
	if opts.UseExtDocuments {
		return tctx.DocumentURI
	}
	return ""
}

func schemaHasColumn(schema []models.SchemaField, column string) bool {
	for _, f := range schema {
		if f.Name == column {
			return true
		}
	}
	return false
}
