package services

import (
	"context"
	"sort"
	"time"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
	"github.com/datawisp/metadata-engine/pkg/repositories"
)

// mockWarehouseRepo is a configurable warehouse double. Function fields
// override behavior; nil fields return not-found or zero values.
type mockWarehouseRepo struct {
	ListTablesFunc           func(ctx context.Context, ref models.DatasetRef) ([]string, error)
	GetSchemaFunc            func(ctx context.Context, target models.MetadataTarget) ([]models.SchemaField, error)
	SampleRowsFunc           func(ctx context.Context, target models.MetadataTarget, limit int) (string, error)
	GetTableDescriptionFunc  func(ctx context.Context, target models.MetadataTarget) (string, error)
	SetTableDescriptionFunc  func(ctx context.Context, target models.MetadataTarget, description string) error
	GetColumnDescriptionFunc func(ctx context.Context, target models.MetadataTarget) (string, error)
	SetColumnDescriptionFunc func(ctx context.Context, target models.MetadataTarget, description string) error

	SetTableDescriptionCalls  int
	SetColumnDescriptionCalls int
}

var _ repositories.WarehouseRepository = (*mockWarehouseRepo)(nil)

func (m *mockWarehouseRepo) ListTables(ctx context.Context, ref models.DatasetRef) ([]string, error) {
	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx, ref)
	}
	return nil, nil
}

func (m *mockWarehouseRepo) GetSchema(ctx context.Context, target models.MetadataTarget) ([]models.SchemaField, error) {
	if m.GetSchemaFunc != nil {
		return m.GetSchemaFunc(ctx, target)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockWarehouseRepo) SampleRows(ctx context.Context, target models.MetadataTarget, limit int) (string, error) {
	if m.SampleRowsFunc != nil {
		return m.SampleRowsFunc(ctx, target, limit)
	}
	return "[]", nil
}

func (m *mockWarehouseRepo) GetTableDescription(ctx context.Context, target models.MetadataTarget) (string, error) {
	if m.GetTableDescriptionFunc != nil {
		return m.GetTableDescriptionFunc(ctx, target)
	}
	return "", nil
}

func (m *mockWarehouseRepo) SetTableDescription(ctx context.Context, target models.MetadataTarget, description string) error {
	m.SetTableDescriptionCalls++
	if m.SetTableDescriptionFunc != nil {
		return m.SetTableDescriptionFunc(ctx, target, description)
	}
	return nil
}

func (m *mockWarehouseRepo) GetColumnDescription(ctx context.Context, target models.MetadataTarget) (string, error) {
	if m.GetColumnDescriptionFunc != nil {
		return m.GetColumnDescriptionFunc(ctx, target)
	}
	return "", nil
}

func (m *mockWarehouseRepo) SetColumnDescription(ctx context.Context, target models.MetadataTarget, description string) error {
	m.SetColumnDescriptionCalls++
	if m.SetColumnDescriptionFunc != nil {
		return m.SetColumnDescriptionFunc(ctx, target, description)
	}
	return nil
}

// mockScanRepo serves canned profile and quality documents.
type mockScanRepo struct {
	Profile    string
	Quality    string
	ProfileErr error
	QualityErr error
}

var _ repositories.ScanRepository = (*mockScanRepo)(nil)

func (m *mockScanRepo) GetProfile(ctx context.Context, target models.MetadataTarget) (string, error) {
	if m.ProfileErr != nil {
		return "", m.ProfileErr
	}
	if m.Profile == "" {
		return "", apperrors.ErrNotFound
	}
	return m.Profile, nil
}

func (m *mockScanRepo) SetProfile(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	m.Profile = resultJSON
	return nil
}

func (m *mockScanRepo) GetQuality(ctx context.Context, target models.MetadataTarget) (string, error) {
	if m.QualityErr != nil {
		return "", m.QualityErr
	}
	if m.Quality == "" {
		return "", apperrors.ErrNotFound
	}
	return m.Quality, nil
}

func (m *mockScanRepo) SetQuality(ctx context.Context, target models.MetadataTarget, resultJSON string) error {
	m.Quality = resultJSON
	return nil
}

// mockLineageRepo serves canned lineage and records writes.
type mockLineageRepo struct {
	Sources    []models.MetadataTarget
	Queries    []string
	SourcesErr error
	QueriesErr error

	RecordedLinks     [][2]models.MetadataTarget
	RecordedProcesses []string
}

var _ repositories.LineageRepository = (*mockLineageRepo)(nil)

func (m *mockLineageRepo) GetSourceTables(ctx context.Context, target models.MetadataTarget) ([]models.MetadataTarget, error) {
	return m.Sources, m.SourcesErr
}

func (m *mockLineageRepo) GetSourceQueries(ctx context.Context, target models.MetadataTarget, limit int) ([]string, error) {
	if m.QueriesErr != nil {
		return nil, m.QueriesErr
	}
	if limit < len(m.Queries) {
		return m.Queries[:limit], nil
	}
	return m.Queries, nil
}

func (m *mockLineageRepo) RecordLink(ctx context.Context, target, source models.MetadataTarget) error {
	m.RecordedLinks = append(m.RecordedLinks, [2]models.MetadataTarget{target, source})
	return nil
}

func (m *mockLineageRepo) RecordProcess(ctx context.Context, target models.MetadataTarget, sqlQuery string) error {
	m.RecordedProcesses = append(m.RecordedProcesses, sqlQuery)
	return nil
}

// mockAspectRepo keeps records in a map keyed by target FQN.
type mockAspectRepo struct {
	Records map[string]*models.DescriptionRecord

	GetErr      error
	SetDraftErr error

	SetDraftCalls int
}

var _ repositories.AspectRepository = (*mockAspectRepo)(nil)

func newMockAspectRepo() *mockAspectRepo {
	return &mockAspectRepo{Records: make(map[string]*models.DescriptionRecord)}
}

func (m *mockAspectRepo) record(target models.MetadataTarget) *models.DescriptionRecord {
	rec, ok := m.Records[target.FQN()]
	if !ok {
		rec = &models.DescriptionRecord{}
		m.Records[target.FQN()] = rec
	}
	return rec
}

func (m *mockAspectRepo) Get(ctx context.Context, target models.MetadataTarget) (*models.DescriptionRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	rec, ok := m.Records[target.FQN()]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *mockAspectRepo) SetDraft(ctx context.Context, target models.MetadataTarget, draft string, generatedAt time.Time) error {
	m.SetDraftCalls++
	if m.SetDraftErr != nil {
		return m.SetDraftErr
	}
	rec := m.record(target)
	rec.DraftText = draft
	rec.GenerationDate = generatedAt
	rec.ToBeRegenerated = false
	return nil
}

func (m *mockAspectRepo) SetRegenerate(ctx context.Context, target models.MetadataTarget, flag bool) error {
	m.record(target).ToBeRegenerated = flag
	return nil
}

func (m *mockAspectRepo) MarkAccepted(ctx context.Context, target models.MetadataTarget, when time.Time) error {
	rec, ok := m.Records[target.FQN()]
	if !ok {
		return apperrors.ErrNotFound
	}
	rec.IsAccepted = true
	rec.WhenAccepted = &when
	return nil
}

func (m *mockAspectRepo) AddHumanComment(ctx context.Context, target models.MetadataTarget, comment string) error {
	rec := m.record(target)
	rec.HumanComments = append(rec.HumanComments, comment)
	return nil
}

func (m *mockAspectRepo) AddNegativeExample(ctx context.Context, target models.MetadataTarget, example string) error {
	rec := m.record(target)
	rec.NegativeExamples = append(rec.NegativeExamples, example)
	return nil
}

func (m *mockAspectRepo) SetExternalDocumentURI(ctx context.Context, target models.MetadataTarget, uri string) error {
	m.record(target).ExternalDocumentURI = uri
	return nil
}

func (m *mockAspectRepo) ListByDataset(ctx context.Context, ref models.DatasetRef) ([]repositories.AspectRecord, error) {
	var out []repositories.AspectRecord
	for fqn, rec := range m.Records {
		target, err := parseAnyTarget(fqn)
		if err != nil {
			continue
		}
		if target.Project != ref.Project || target.Dataset != ref.Dataset {
			continue
		}
		copied := *rec
		out = append(out, repositories.AspectRecord{Target: target, Record: &copied})
	}
	// Match the repository's ORDER BY so listings are stable.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Target.FQN() < out[j].Target.FQN()
	})
	return out, nil
}

func (m *mockAspectRepo) ListMarkedForRegeneration(ctx context.Context, ref models.DatasetRef) ([]models.MetadataTarget, error) {
	records, err := m.ListByDataset(ctx, ref)
	if err != nil {
		return nil, err
	}
	var out []models.MetadataTarget
	for _, r := range records {
		if r.Record.ToBeRegenerated {
			out = append(out, r.Target)
		}
	}
	return out, nil
}

// parseAnyTarget accepts both table and column FQNs.
func parseAnyTarget(fqn string) (models.MetadataTarget, error) {
	if target, err := models.ParseTableFQN(fqn); err == nil {
		return target, nil
	}
	// Four parts: project.dataset.table.column.
	var parts []string
	start := 0
	for i := 0; i <= len(fqn); i++ {
		if i == len(fqn) || fqn[i] == '.' {
			parts = append(parts, fqn[start:i])
			start = i + 1
		}
	}
	if len(parts) == 4 {
		return models.NewTableTarget(parts[0], parts[1], parts[2]).WithColumn(parts[3]), nil
	}
	return models.MetadataTarget{}, apperrors.ErrNotFound
}

// mockCatalogRepo keeps overviews in a map keyed by table FQN.
type mockCatalogRepo struct {
	Overviews map[string]string

	SetOverviewErr   error
	SetOverviewCalls int
}

var _ repositories.CatalogRepository = (*mockCatalogRepo)(nil)

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{Overviews: make(map[string]string)}
}

func (m *mockCatalogRepo) GetOverview(ctx context.Context, target models.MetadataTarget) (string, error) {
	overview, ok := m.Overviews[target.TableFQN()]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return overview, nil
}

func (m *mockCatalogRepo) SetOverview(ctx context.Context, target models.MetadataTarget, overview string) error {
	m.SetOverviewCalls++
	if m.SetOverviewErr != nil {
		return m.SetOverviewErr
	}
	m.Overviews[target.TableFQN()] = overview
	return nil
}

// mockDocSource serves a canned documentation index.
type mockDocSource struct {
	Tables []models.DocumentedTable
	Err    error
}

func (m *mockDocSource) FetchDocumentedTables(ctx context.Context, uri string) ([]models.DocumentedTable, error) {
	return m.Tables, m.Err
}
