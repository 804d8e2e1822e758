package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
)

const docCSV = `proj.sales.orders,https://docs.internal/orders.pdf
proj.sales.customers, https://docs.internal/customers.pdf
malformed-row
bad..fqn,https://docs.internal/bad.pdf
`

func TestFetchDocumentedTablesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.csv")
	require.NoError(t, os.WriteFile(path, []byte(docCSV), 0o600))

	src := NewCSVSource(zap.NewNop())
	got, err := src.FetchDocumentedTables(context.Background(), path)
	require.NoError(t, err)

	// Malformed and unparseable rows are skipped, not fatal.
	require.Len(t, got, 2)
	assert.Equal(t, "proj.sales.orders", got[0].Target.FQN())
	assert.Equal(t, "https://docs.internal/orders.pdf", got[0].DocumentURI)
	assert.Equal(t, "https://docs.internal/customers.pdf", got[1].DocumentURI)
}

func TestFetchDocumentedTablesFromHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("proj.sales.orders,https://docs.internal/orders.pdf\n"))
	}))
	defer server.Close()

	src := NewCSVSource(zap.NewNop())
	got, err := src.FetchDocumentedTables(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFetchDocumentedTablesMissingURI(t *testing.T) {
	src := NewCSVSource(zap.NewNop())
	_, err := src.FetchDocumentedTables(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfigurationError, apperrors.KindOf(err))
}

func TestFetchDocumentedTablesMissingFile(t *testing.T) {
	src := NewCSVSource(zap.NewNop())
	_, err := src.FetchDocumentedTables(context.Background(), "/nonexistent/docs.csv")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfigurationError, apperrors.KindOf(err))
}
