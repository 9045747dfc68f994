package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/internal/storage"
)

func healthy(ctx context.Context) (Status, error) { return StatusHealthy, nil }

func TestRunChecksAggregatesStatus(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := NewHandler("1.2.3", logger)

	h.Register("storage", healthy)
	resp := h.RunChecks(context.Background())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)

	h.Register("analyzer", func(ctx context.Context) (Status, error) {
		return StatusDegraded, errors.New("stub")
	})
	resp = h.RunChecks(context.Background())
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, "stub", resp.Checks["analyzer"].Error)

	h.Register("storage", func(ctx context.Context) (Status, error) {
		return StatusUnhealthy, errors.New("bucket gone")
	})
	resp = h.RunChecks(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, []string{"analyzer", "storage"}, h.Names())

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestReadinessHandler(t *testing.T) {
	h := NewHandler("v", nil)
	mux := http.NewServeMux()
	h.Mount(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h.Register("storage", func(ctx context.Context) (Status, error) {
		return StatusUnhealthy, errors.New("down")
	})

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Checks["storage"].Status)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "full health report always answers 200")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestStorageCheck(t *testing.T) {
	adapter, err := storage.NewLocalAdapter(t.TempDir())
	require.NoError(t, err)

	status, err := StorageCheck(adapter)(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StatusHealthy, status)
}

func TestAnalyzerCheck(t *testing.T) {
	none := func() []string { return nil }
	some := func() []string { return []string{"openai"} }

	status, err := AnalyzerCheck(none, false)(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StatusUnhealthy, status)

	status, err = AnalyzerCheck(some, true)(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StatusDegraded, status)

	status, err = AnalyzerCheck(some, false)(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StatusHealthy, status)
}
