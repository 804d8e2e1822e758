package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
)

func testSchema() []models.SchemaField {
	return []models.SchemaField{
		{Name: "order_id", Type: "bigint"},
		{Name: "amount", Type: "numeric"},
	}
}

func healthyWarehouse() *mockWarehouseRepo {
	return &mockWarehouseRepo{
		GetSchemaFunc: func(ctx context.Context, target models.MetadataTarget) ([]models.SchemaField, error) {
			return testSchema(), nil
		},
		SampleRowsFunc: func(ctx context.Context, target models.MetadataTarget, limit int) (string, error) {
			return `[{"order_id":1}]`, nil
		},
	}
}

func fullOptions() models.GenerationOptions {
	opts := models.DefaultGenerationOptions()
	opts.UseProfile = true
	opts.UseDataQuality = true
	opts.UseLineageTables = true
	opts.UseLineageProcesses = true
	opts.UseHumanComments = true
	opts.UseExtDocuments = true
	return opts
}

func TestBuildTableContextMissingTableIsFatal(t *testing.T) {
	agg := NewContextAggregator(&mockWarehouseRepo{}, &mockScanRepo{}, &mockLineageRepo{}, newMockAspectRepo(), 10, zap.NewNop())

	_, err := agg.BuildTableContext(context.Background(),
		models.NewTableTarget("proj", "sales", "ghost"), models.DefaultGenerationOptions())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestBuildTableContextSampleFailureDegrades(t *testing.T) {
	warehouse := healthyWarehouse()
	warehouse.SampleRowsFunc = func(ctx context.Context, target models.MetadataTarget, limit int) (string, error) {
		return "", errors.New("permission denied")
	}

	agg := NewContextAggregator(warehouse, &mockScanRepo{}, &mockLineageRepo{}, newMockAspectRepo(), 10, zap.NewNop())

	tctx, err := agg.BuildTableContext(context.Background(),
		models.NewTableTarget("proj", "sales", "orders"), models.DefaultGenerationOptions())
	require.NoError(t, err)
	assert.Equal(t, "[]", tctx.SampleJSON)
	assert.Equal(t, testSchema(), tctx.Schema)
}

func TestBuildTableContextGathersAllSources(t *testing.T) {
	aspects := newMockAspectRepo()
	target := models.NewTableTarget("proj", "sales", "orders")
	require.NoError(t, aspects.AddHumanComment(context.Background(), target, "mention currency"))
	require.NoError(t, aspects.AddNegativeExample(context.Background(), target, "bad draft"))
	require.NoError(t, aspects.SetExternalDocumentURI(context.Background(), target, "https://docs/orders.pdf"))

	lineage := &mockLineageRepo{
		Sources: []models.MetadataTarget{models.NewTableTarget("proj", "raw", "order_events")},
		Queries: []string{"q1", "q2", "q3", "q4", "q5", "q6"},
	}
	scans := &mockScanRepo{Profile: `{"amount":{"nulls":0}}`, Quality: `{"passed":10}`}

	agg := NewContextAggregator(healthyWarehouse(), scans, lineage, aspects, 10, zap.NewNop())

	tctx, err := agg.BuildTableContext(context.Background(), target, fullOptions())
	require.NoError(t, err)

	assert.Equal(t, `{"amount":{"nulls":0}}`, tctx.ProfileJSON)
	assert.Equal(t, `{"passed":10}`, tctx.QualityJSON)
	require.Len(t, tctx.SourceTables, 1)
	assert.Equal(t, "proj.raw.order_events", tctx.SourceTables[0].Name)
	assert.Len(t, tctx.SourceQueries, sourceQueryLimit)
	assert.Equal(t, []string{"mention currency"}, tctx.HumanComments)
	assert.Equal(t, []string{"bad draft"}, tctx.NegativeExamples)
	assert.Equal(t, "https://docs/orders.pdf", tctx.DocumentURI)
}

func TestBuildTableContextOptionalSourceFailuresAreIsolated(t *testing.T) {
	scans := &mockScanRepo{
		ProfileErr: errors.New("scan service down"),
		Quality:    `{"passed":10}`,
	}
	lineage := &mockLineageRepo{SourcesErr: errors.New("lineage down")}

	agg := NewContextAggregator(healthyWarehouse(), scans, lineage, newMockAspectRepo(), 10, zap.NewNop())

	tctx, err := agg.BuildTableContext(context.Background(),
		models.NewTableTarget("proj", "sales", "orders"), fullOptions())
	require.NoError(t, err)

	// The failing sources are absent; the healthy one is present.
	assert.Empty(t, tctx.ProfileJSON)
	assert.Empty(t, tctx.SourceTables)
	assert.Equal(t, `{"passed":10}`, tctx.QualityJSON)
}

func TestBuildTableContextDisabledSourcesNotFetched(t *testing.T) {
	scans := &mockScanRepo{Profile: `{"amount":{}}`, Quality: `{"passed":1}`}

	agg := NewContextAggregator(healthyWarehouse(), scans, &mockLineageRepo{Queries: []string{"q"}}, newMockAspectRepo(), 10, zap.NewNop())

	tctx, err := agg.BuildTableContext(context.Background(),
		models.NewTableTarget("proj", "sales", "orders"), models.DefaultGenerationOptions())
	require.NoError(t, err)
	assert.Empty(t, tctx.ProfileJSON)
	assert.Empty(t, tctx.QualityJSON)
	assert.Empty(t, tctx.SourceQueries)
}

func TestColumnProfileJSON(t *testing.T) {
	doc := `{"amount":{"nulls":3},"order_id":{"nulls":0}}`
	assert.JSONEq(t, `{"nulls":3}`, ColumnProfileJSON(doc, "amount"))
	assert.Empty(t, ColumnProfileJSON(doc, "missing"))
	assert.Empty(t, ColumnProfileJSON("not json", "amount"))
	assert.Empty(t, ColumnProfileJSON("", "amount"))

	nested := `{"columns":{"amount":{"nulls":3}}}`
	assert.JSONEq(t, `{"nulls":3}`, ColumnProfileJSON(nested, "amount"))
}
