package services

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/objectstore"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// TableWork is one scheduled table in a dataset batch, with its
// documentation URI when the strategy surfaced one.
type TableWork struct {
	Target      models.MetadataTarget
	DocumentURI string
}

// BatchScheduler orders the tables of a dataset for batch generation
// according to a strategy. Documentation-aware strategies read the
// documentation CSV at docURI.
type BatchScheduler interface {
	PlanDataset(ctx context.Context, ref models.DatasetRef, strategy models.Strategy, docURI string) ([]TableWork, error)
}

// batchScheduler implements BatchScheduler.
type batchScheduler struct {
	warehouse repositories.WarehouseRepository
	docs      objectstore.DocumentationSource
	logger    *zap.Logger
}

// NewBatchScheduler creates a new batch scheduler.
func NewBatchScheduler(
	warehouse repositories.WarehouseRepository,
	docs objectstore.DocumentationSource,
	logger *zap.Logger,
) BatchScheduler {
	return &batchScheduler{
		warehouse: warehouse,
		docs:      docs,
		logger:    logger.Named("scheduler"),
	}
}

// PlanDataset implements BatchScheduler.
func (s *batchScheduler) PlanDataset(ctx context.Context, ref models.DatasetRef, strategy models.Strategy, docURI string) ([]TableWork, error) {
	if _, err := models.ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if strategy.RequiresDocumentation() && docURI == "" {
		return nil, apperrors.Newf(apperrors.KindConfigurationError,
			"strategy %s requires a documentation csv uri", strategy)
	}

	tables, err := s.warehouse.ListTables(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables for %s: %w", ref.FQN(), err)
	}

	var documented []models.DocumentedTable
	if strategy.RequiresDocumentation() {
		documented, err = s.docs.FetchDocumentedTables(ctx, docURI)
		if err != nil {
			return nil, err
		}
	}

	plan, err := s.order(ref, tables, documented, strategy)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Planned dataset batch",
		zap.String("dataset", ref.FQN()),
		zap.String("strategy", string(strategy)),
		zap.Int("tables", len(plan)))
	return plan, nil
}

func (s *batchScheduler) order(ref models.DatasetRef, tables []string, documented []models.DocumentedTable, strategy models.Strategy) ([]TableWork, error) {
	switch strategy {
	case models.StrategyAlphabetical:
		sorted := append([]string(nil), tables...)
		sort.Strings(sorted)
		return plainWork(ref, sorted), nil

	case models.StrategyRandom:
		shuffled := append([]string(nil), tables...)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return plainWork(ref, shuffled), nil

	case models.StrategyDocumented:
		return documentedWork(ref, tables, documented)

	case models.StrategyDocumentedThenRest:
		head, err := documentedWork(ref, tables, documented)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(head))
		for _, w := range head {
			seen[w.Target.Table] = true
		}
		for _, table := range tables {
			if !seen[table] {
				head = append(head, TableWork{Target: models.NewTableTarget(ref.Project, ref.Dataset, table)})
			}
		}
		return head, nil

	default: // StrategyNaive: warehouse catalog order.
		return plainWork(ref, tables), nil
	}
}

func plainWork(ref models.DatasetRef, tables []string) []TableWork {
	out := make([]TableWork, 0, len(tables))
	for _, table := range tables {
		out = append(out, TableWork{Target: models.NewTableTarget(ref.Project, ref.Dataset, table)})
	}
	return out
}

// documentedWork returns the documented tables in documentation index order.
// Every documented table must exist in the requested dataset; an entry the
// dataset does not contain means the CSV and the warehouse disagree, which
// is an operator problem.
func documentedWork(ref models.DatasetRef, tables []string, documented []models.DocumentedTable) ([]TableWork, error) {
	exists := make(map[string]bool, len(tables))
	for _, table := range tables {
		exists[table] = true
	}

	var out []TableWork
	seen := make(map[string]bool)
	for _, doc := range documented {
		if doc.Target.Project != ref.Project || doc.Target.Dataset != ref.Dataset || !exists[doc.Target.Table] {
			return nil, apperrors.Newf(apperrors.KindConfigurationError,
				"documented table %s does not exist in dataset %s", doc.Target.FQN(), ref.FQN())
		}
		if seen[doc.Target.Table] {
			continue
		}
		seen[doc.Target.Table] = true
		out = append(out, TableWork{Target: doc.Target, DocumentURI: doc.DocumentURI})
	}
	return out, nil
}
