package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hour-estimator-backend/internal/analytics"
	"hour-estimator-backend/internal/db"
	"hour-estimator-backend/internal/tasks"
)

type fakeLoader struct {
	list []tasks.Task
	err  error
}

func (f fakeLoader) GetTasks(context.Context, string) ([]tasks.Task, error) {
	return f.list, f.err
}

// slowLoader counts loads and holds each one long enough for overlapping
// requests to pile up behind it.
type slowLoader struct {
	list  []tasks.Task
	delay time.Duration
	loads atomic.Int32
}

func (l *slowLoader) GetTasks(ctx context.Context, _ string) ([]tasks.Task, error) {
	l.loads.Add(1)
	select {
	case <-time.After(l.delay):
		return l.list, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func serveExport(t *testing.T, loader TaskLoader, events *analytics.Logger, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /teams/{teamId}/export", NewHandler(loader, newTestExporter(), events, nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_Download(t *testing.T) {
	d := db.NewTestDB(t)
	events := analytics.NewLogger(d, nil)

	rec := serveExport(t, fakeLoader{list: scenarioTasks()}, events, "/teams/team-1/export")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	_, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "HourEstimator_team-1_2025-10-15_143005.xlsx", params["filename"])

	wb := openWorkbook(t, rec.Body.Bytes())
	assert.Equal(t, "5h", cellValue(t, wb, "E22"))

	var n int
	require.NoError(t, d.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM analytics_events WHERE event_name = ? AND team_id = ?`,
		analytics.EventTasksExported, "team-1").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		loader TaskLoader
		path   string
		want   int
	}{
		{"invalid team", fakeLoader{list: scenarioTasks()}, "/teams/x!/export", http.StatusBadRequest},
		{"nothing to export", fakeLoader{list: []tasks.Task{}}, "/teams/team-1/export", http.StatusUnprocessableEntity},
		{"store failure", fakeLoader{err: errors.New("connection reset")}, "/teams/team-1/export", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveExport(t, tt.loader, nil, tt.path)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandler_ConcurrentRequestsShareRender(t *testing.T) {
	loader := &slowLoader{list: scenarioTasks(), delay: 200 * time.Millisecond}
	mux := http.NewServeMux()
	mux.Handle("GET /teams/{teamId}/export", NewHandler(loader, newTestExporter(), nil, nil))

	const n = 5
	recs := make([]*httptest.ResponseRecorder, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range recs {
		recs[i] = httptest.NewRecorder()
		wg.Add(1)
		go func(rec *httptest.ResponseRecorder) {
			defer wg.Done()
			<-start
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/team-1/export", nil))
		}(recs[i])
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load())

	want := recs[0].Header().Get("Content-Disposition")
	require.NotEmpty(t, want)
	for i, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, want, rec.Header().Get("Content-Disposition"), "request %d", i)
		assert.Equal(t, recs[0].Body.Bytes(), rec.Body.Bytes(), "request %d", i)
	}
}

func TestHandler_CancelledRequestDoesNotFailOthers(t *testing.T) {
	loader := &slowLoader{list: scenarioTasks(), delay: 200 * time.Millisecond}
	mux := http.NewServeMux()
	mux.Handle("GET /teams/{teamId}/export", NewHandler(loader, newTestExporter(), nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	first := httptest.NewRecorder()
	second := httptest.NewRecorder()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mux.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/teams/team-1/export", nil).WithContext(ctx))
	}()
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		mux.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/teams/team-1/export", nil))
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "5h", cellValue(t, openWorkbook(t, second.Body.Bytes()), "E22"))
}

func TestHandler_LogsExportedWorkbook(t *testing.T) {
	var logs bytes.Buffer
	exporter := newTestExporter(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	mux := http.NewServeMux()
	mux.Handle("GET /teams/{teamId}/export", NewHandler(fakeLoader{list: scenarioTasks()}, exporter, nil, nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teams/team-1/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "workbook exported")
	assert.Contains(t, logs.String(), "file=HourEstimator_team-1_2025-10-15_143005.xlsx")
}
