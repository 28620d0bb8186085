package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportsWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("files", IndexFilesCheck(func() []string { return []string{"a.idx"} }))
	c.Register("redis", PingCheck(nil, StatusDegraded))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusUp, report.Components["files"].Status)
	assert.Equal(t, "1 index files open", report.Components["files"].Message)

	c.Register("postgres", PingCheck(func(context.Context) error { return errors.New("refused") }, StatusDown))
	report = c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, "refused", report.Components["postgres"].Message)
}

func TestReadyHandlerStatusCodes(t *testing.T) {
	var files []string
	c := NewChecker()
	c.Register("files", IndexFilesCheck(func() []string { return files }))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	files = []string{"a.idx", "b.idx"}
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusUp, report.Status)
	assert.Equal(t, "2 index files open", report.Components["files"].Message)
}

func TestLiveHandlerAlwaysOK(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyWhenOnlyDegraded(t *testing.T) {
	c := NewChecker()
	c.Register("files", IndexFilesCheck(func() []string { return []string{"a.idx"} }))
	c.Register("redis", PingCheck(nil, StatusDegraded))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "not configured", report.Components["redis"].Message)
}

func TestRunHonoursCheckerTimeout(t *testing.T) {
	c := NewChecker()
	c.timeout = 10 * time.Millisecond
	c.Register("slow", PingCheck(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, StatusDown))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Contains(t, report.Components["slow"].Message, "deadline exceeded")
}
