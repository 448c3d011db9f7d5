package worker

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/thebtf/usageref/internal/config"
	dbgorm "github.com/thebtf/usageref/internal/db/gorm"
)

// testService creates a Service over a temporary SQLite database.
func testService(t *testing.T) (*Service, func()) {
	t.Helper()

	store, err := dbgorm.NewStore(dbgorm.Config{
		DSN:      filepath.Join(t.TempDir(), "worker.db"),
		MaxConns: 4,
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)

	svc := NewService("test", config.Default(), store)
	return svc, func() { _ = store.Close() }
}

// doJSON sends a request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals a recorder body into dst.
func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst), rr.Body.String())
}

// createTeam posts a team and returns its id.
func createTeam(t *testing.T, h http.Handler, name string) int64 {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/teams", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp teamResponse
	decode(t, rr, &resp)
	return resp.ID
}

// createMember posts a member and returns the decoded response.
func createMember(t *testing.T, h http.Handler, body map[string]any) memberResponse {
	t.Helper()
	rr := doJSON(t, h, http.MethodPost, "/api/members", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp memberResponse
	decode(t, rr, &resp)
	return resp
}
