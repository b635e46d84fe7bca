package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

func discardLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, discardLogger())
	assert.EqualError(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "id"}, discardLogger())
	assert.EqualError(t, err, "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/does/not/exist.json"}, discardLogger())
	assert.ErrorContains(t, err, "read service account file")
}

func TestLoadCredentialsPrefersInlineJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))

	b, err := loadCredentials(Config{CredentialsJSON: `{"from":"env"}`, CredentialsFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"env"}`, string(b))

	b, err = loadCredentials(Config{CredentialsFile: path})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(b))
}

func TestAppend(t *testing.T) {
	var gotBody gsheet.ValueRange
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"updates":{"updatedRange":"Expenses!A7:E7","updatedRows":1}}`)
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c := NewWithService(svc, Config{SpreadsheetID: "sheet-id"}, discardLogger())
	e := core.Expense{
		ID:        12,
		AccountID: 3,
		Amount:    decimal.RequireFromString("42.5"),
		Date:      core.NewDate(2024, 3, 1),
		Category:  "food",
	}

	ref, err := c.Append(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, "Expenses!A7:E7", ref)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, []any{"2024-03-01", "food", "42.50", float64(3), float64(12)}, gotBody.Values[0])
}

func TestAppendPropagatesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	c := NewWithService(svc, Config{SpreadsheetID: "sheet-id", SheetName: "2024"}, discardLogger())
	_, err = c.Append(context.Background(), core.Expense{ID: 1, Date: core.NewDate(2024, 1, 1), Category: "x"})
	assert.ErrorContains(t, err, "append to sheet 2024")
}

func TestAppendWithoutService(t *testing.T) {
	c := &Client{sheetName: "Expenses"}
	_, err := c.Append(context.Background(), core.Expense{})
	assert.EqualError(t, err, "sheets service not initialized")
}
