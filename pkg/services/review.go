package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// ReviewItem is one pending draft in a review listing.
type ReviewItem struct {
	Target models.MetadataTarget
	Record *models.DescriptionRecord
}

// ReviewService drives the draft lifecycle after generation: accepting
// drafts into the permanent stores, rejecting them, collecting reviewer
// feedback and flagging targets for regeneration.
type ReviewService interface {
	// Accept merges the stored draft into the warehouse description and, for
	// tables, the catalog overview. The two writes are independent; when
	// exactly one fails the error carries KindPartialPersistence and nothing
	// is rolled back.
	Accept(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) error

	// Reject records the current draft as a negative example and flags the
	// target for regeneration.
	Reject(ctx context.Context, target models.MetadataTarget) error

	AddComment(ctx context.Context, target models.MetadataTarget, comment string) error
	AddNegativeExample(ctx context.Context, target models.MetadataTarget, example string) error
	MarkForRegeneration(ctx context.Context, target models.MetadataTarget) error
	AttachDocument(ctx context.Context, target models.MetadataTarget, uri string) error

	// GetReviewItems lists drafts in the dataset awaiting review. A zero
	// pageSize uses the default page size; the returned token is "" on the
	// last page.
	GetReviewItems(ctx context.Context, ref models.DatasetRef, pageSize int, pageToken string) ([]ReviewItem, string, error)

	// GetReviewDetails returns the full stored record for a target.
	GetReviewDetails(ctx context.Context, target models.MetadataTarget) (*models.DescriptionRecord, error)
}

// reviewService implements ReviewService.
type reviewService struct {
	aspects   repositories.AspectRepository
	warehouse repositories.WarehouseRepository
	catalog   repositories.CatalogRepository
	logger    *zap.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	aspects repositories.AspectRepository,
	warehouse repositories.WarehouseRepository,
	catalog repositories.CatalogRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		aspects:   aspects,
		warehouse: warehouse,
		catalog:   catalog,
		logger:    logger.Named("review"),
	}
}

// Accept implements ReviewService.
func (s *reviewService) Accept(ctx context.Context, target models.MetadataTarget, opts models.GenerationOptions) error {
	rec, err := s.aspects.Get(ctx, target)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Newf(apperrors.KindNotFound, "no draft for %s", target.FQN())
		}
		return err
	}
	if !rec.HasDraft() {
		return apperrors.Newf(apperrors.KindNotFound, "no draft for %s", target.FQN())
	}

	if target.IsColumn() {
		if err := persistColumnDescription(ctx, s.warehouse, target, rec.DraftText, opts); err != nil {
			return err
		}
	} else {
		if err := persistTableDescription(ctx, s.warehouse, s.catalog, s.logger, target, rec.DraftText, opts); err != nil {
			return err
		}
	}

	if err := s.aspects.MarkAccepted(ctx, target, time.Now().UTC()); err != nil {
		return err
	}
	s.logger.Info("Draft accepted", zap.String("target", target.FQN()))
	return nil
}

// Reject implements ReviewService.
func (s *reviewService) Reject(ctx context.Context, target models.MetadataTarget) error {
	rec, err := s.aspects.Get(ctx, target)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Newf(apperrors.KindNotFound, "no draft for %s", target.FQN())
		}
		return err
	}
	if !rec.HasDraft() {
		return apperrors.Newf(apperrors.KindNotFound, "no draft for %s", target.FQN())
	}

	if err := s.aspects.AddNegativeExample(ctx, target, rec.DraftText); err != nil {
		return err
	}
	return s.aspects.SetRegenerate(ctx, target, true)
}

// AddComment implements ReviewService.
func (s *reviewService) AddComment(ctx context.Context, target models.MetadataTarget, comment string) error {
	if comment == "" {
		return apperrors.New(apperrors.KindConfigurationError, "comment must not be empty")
	}
	return s.aspects.AddHumanComment(ctx, target, comment)
}

// AddNegativeExample implements ReviewService.
func (s *reviewService) AddNegativeExample(ctx context.Context, target models.MetadataTarget, example string) error {
	if example == "" {
		return apperrors.New(apperrors.KindConfigurationError, "negative example must not be empty")
	}
	return s.aspects.AddNegativeExample(ctx, target, example)
}

// MarkForRegeneration implements ReviewService.
func (s *reviewService) MarkForRegeneration(ctx context.Context, target models.MetadataTarget) error {
	return s.aspects.SetRegenerate(ctx, target, true)
}

// AttachDocument implements ReviewService.
func (s *reviewService) AttachDocument(ctx context.Context, target models.MetadataTarget, uri string) error {
	if uri == "" {
		return apperrors.New(apperrors.KindConfigurationError, "document uri must not be empty")
	}
	return s.aspects.SetExternalDocumentURI(ctx, target, uri)
}

const defaultReviewPageSize = 50

// GetReviewItems implements ReviewService. Page tokens are offsets into the
// filtered listing, which is stable because ListByDataset orders by target.
func (s *reviewService) GetReviewItems(ctx context.Context, ref models.DatasetRef, pageSize int, pageToken string) ([]ReviewItem, string, error) {
	if pageSize <= 0 {
		pageSize = defaultReviewPageSize
	}
	offset := 0
	if pageToken != "" {
		parsed, err := strconv.Atoi(pageToken)
		if err != nil || parsed < 0 {
			return nil, "", apperrors.Newf(apperrors.KindConfigurationError, "invalid page token %q", pageToken)
		}
		offset = parsed
	}

	records, err := s.aspects.ListByDataset(ctx, ref)
	if err != nil {
		return nil, "", err
	}

	var items []ReviewItem
	for _, r := range records {
		if r.Record.HasDraft() && !r.Record.IsAccepted {
			items = append(items, ReviewItem{Target: r.Target, Record: r.Record})
		}
	}

	if offset >= len(items) {
		return nil, "", nil
	}
	end := offset + pageSize
	nextToken := ""
	if end < len(items) {
		nextToken = strconv.Itoa(end)
	} else {
		end = len(items)
	}
	return items[offset:end], nextToken, nil
}

// GetReviewDetails implements ReviewService.
func (s *reviewService) GetReviewDetails(ctx context.Context, target models.MetadataTarget) (*models.DescriptionRecord, error) {
	rec, err := s.aspects.Get(ctx, target)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Newf(apperrors.KindNotFound, "no record for %s", target.FQN())
		}
		return nil, err
	}
	return rec, nil
}
