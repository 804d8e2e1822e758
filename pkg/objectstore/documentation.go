// Package objectstore fetches external artifacts referenced by the
// generation pipeline, currently the documentation CSV used by
// documentation-aware batch strategies.
package objectstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// DocumentationSource lists the tables that have external documentation.
type DocumentationSource interface {
	// FetchDocumentedTables reads the documentation index at uri and returns
	// one entry per documented table.
	FetchDocumentedTables(ctx context.Context, uri string) ([]models.DocumentedTable, error)
}

// csvSource reads a two-column CSV of table FQN and document URI, from a
// local path or an http(s) URL.
type csvSource struct {
	client *http.Client
	logger *zap.Logger
}

// NewCSVSource creates a documentation source backed by CSV files.
func NewCSVSource(logger *zap.Logger) DocumentationSource {
	return &csvSource{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.Named("objectstore"),
	}
}

// FetchDocumentedTables implements DocumentationSource. A missing or
// unreadable index is a configuration error; individual malformed rows are
// skipped with a warning.
func (s *csvSource) FetchDocumentedTables(ctx context.Context, uri string) ([]models.DocumentedTable, error) {
	if uri == "" {
		return nil, apperrors.New(apperrors.KindConfigurationError, "documentation csv uri is required")
	}

	body, err := s.open(ctx, uri)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfigurationError, "failed to open documentation csv", err)
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []models.DocumentedTable
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindConfigurationError, "failed to parse documentation csv", err)
		}
		line++

		if len(record) < 2 {
			s.logger.Warn("Skipping malformed documentation row",
				zap.Int("line", line),
				zap.Int("fields", len(record)))
			continue
		}

		target, err := models.ParseTableFQN(strings.TrimSpace(record[0]))
		if err != nil {
			s.logger.Warn("Skipping documentation row with bad table name",
				zap.Int("line", line),
				zap.String("table", record[0]))
			continue
		}

		out = append(out, models.DocumentedTable{
			Target:      target,
			DocumentURI: strings.TrimSpace(record[1]),
		})
	}

	s.logger.Debug("Loaded documentation index",
		zap.String("uri", uri),
		zap.Int("tables", len(out)))
	return out, nil
}

func (s *csvSource) open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, uri)
		}
		return resp.Body, nil
	}
	return os.Open(uri)
}
