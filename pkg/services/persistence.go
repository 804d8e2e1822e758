package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// persistTableDescription writes the merged description to both permanent
// stores. The warehouse and catalog texts are each merged against their own
// prior value because the two stores may diverge. The merge policy is
// validated before either write so a bad policy aborts cleanly.
func persistTableDescription(
	ctx context.Context,
	warehouse repositories.WarehouseRepository,
	catalog repositories.CatalogRepository,
	logger *zap.Logger,
	target models.MetadataTarget,
	draft string,
	opts models.GenerationOptions,
) error {
	oldWarehouse, err := warehouse.GetTableDescription(ctx, target)
	warehouseErr := err
	var merged string
	if warehouseErr == nil {
		merged, warehouseErr = CombineDescription(oldWarehouse, draft, opts.DescriptionHandling)
		if warehouseErr != nil && apperrors.IsKind(warehouseErr, apperrors.KindConfigurationError) {
			return warehouseErr
		}
	}
	if warehouseErr == nil {
		warehouseErr = warehouse.SetTableDescription(ctx, target, merged)
	}

	var catalogErr error
	if opts.PersistToCatalog {
		oldOverview, err := catalog.GetOverview(ctx, target)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			catalogErr = err
		} else {
			mergedOverview, err := CombineDescription(oldOverview, draft, opts.DescriptionHandling)
			if err != nil {
				catalogErr = err
			} else {
				catalogErr = catalog.SetOverview(ctx, target, mergedOverview)
			}
		}
	}

	return reportPersistence(logger, target, warehouseErr, catalogErr, opts.PersistToCatalog)
}

// persistColumnDescription merges and writes a column description. Columns
// have no catalog counterpart; only the warehouse comment is written.
func persistColumnDescription(
	ctx context.Context,
	warehouse repositories.WarehouseRepository,
	target models.MetadataTarget,
	draft string,
	opts models.GenerationOptions,
) error {
	old, err := warehouse.GetColumnDescription(ctx, target)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	merged, err := CombineDescription(old, draft, opts.DescriptionHandling)
	if err != nil {
		return err
	}
	return warehouse.SetColumnDescription(ctx, target, merged)
}

// reportPersistence maps the independent write outcomes onto the error
// taxonomy: both fine, one failed (partial), or both failed.
func reportPersistence(logger *zap.Logger, target models.MetadataTarget, warehouseErr, catalogErr error, catalogAttempted bool) error {
	if warehouseErr == nil && catalogErr == nil {
		return nil
	}
	if !catalogAttempted {
		return warehouseErr
	}
	if warehouseErr != nil && catalogErr != nil {
		return fmt.Errorf("all description writes failed for %s: %w", target.FQN(), errors.Join(warehouseErr, catalogErr))
	}

	failed, store := warehouseErr, "warehouse"
	if catalogErr != nil {
		failed, store = catalogErr, "catalog"
	}
	logger.Warn("Partial persistence",
		zap.String("target", target.FQN()),
		zap.String("failed_store", store),
		zap.Error(failed))
	return apperrors.Wrap(apperrors.KindPartialPersistence, store+" write failed", failed)
}
