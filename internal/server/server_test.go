package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hour-estimator-backend/internal/db"
	"hour-estimator-backend/internal/export"
	"hour-estimator-backend/internal/tasks"
)

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func newClient(t *testing.T) *client {
	t.Helper()
	h := New(Options{
		DB: db.NewTestDB(t),
		Exporter: export.New(
			export.WithClock(export.FixedClock(time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC))),
			export.WithLocation(time.UTC),
		),
		JWTSecret: []byte("server-test"),
	})
	c := &client{t: t, h: h}

	rec := c.do(http.MethodPost, "/auth/anonymous", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	c.token = session.Token
	return c
}

func TestHealth(t *testing.T) {
	c := &client{t: t, h: New(Options{DB: db.NewTestDB(t), Exporter: export.New()})}
	rec := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRequiresToken(t *testing.T) {
	c := newClient(t)
	c.token = ""

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/teams/team-1/tasks", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/teams/team-1/export", nil).Code)
}

func TestTaskLifecycleAndExport(t *testing.T) {
	c := newClient(t)

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/teams/team-1", nil).Code)

	// nothing to export yet
	assert.Equal(t, http.StatusUnprocessableEntity, c.do(http.MethodGet, "/teams/team-1/export", nil).Code)

	rec := c.do(http.MethodPost, "/teams/team-1/tasks", map[string]any{
		"tituloDaTarefa": "Tela de login",
		"contexto":       "Login",
		"responsavel":    "Ana",
		"horasEstimadas": 2,
		"status":         "planejada",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	rec = c.do(http.MethodPost, "/teams/team-1/tasks", map[string]any{
		"tituloDaTarefa": "Recuperar senha",
		"contexto":       "Login",
		"responsavel":    "Bia",
		"horasEstimadas": 4,
		"status":         "em-andamento",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do(http.MethodPut, "/teams/team-1/tasks/"+created.ID, map[string]any{
		"tituloDaTarefa": "Tela de login",
		"contexto":       "Login",
		"responsavel":    "Ana",
		"horasEstimadas": 2,
		"status":         "concluida",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/teams/team-1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []tasks.Task
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 2)

	rec = c.do(http.MethodGet, "/teams/team-1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "HourEstimator_team-1_2025-10-15_090000.xlsx"))

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(export.SheetName)
	require.NoError(t, err)

	var flat []string
	for _, r := range rows {
		flat = append(flat, strings.Join(r, "|"))
	}
	joined := strings.Join(flat, "\n")
	assert.Contains(t, joined, "• Login: 6h")
	assert.Contains(t, joined, "TOTAL GERAL:|6h")
	assert.Contains(t, joined, "• Concluída: 1 tarefa")
	assert.Contains(t, joined, "• Em Andamento: 1 tarefa")

	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/teams/team-1/tasks/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/teams/team-1/tasks/"+created.ID, nil).Code)
}

func TestTaskValidation(t *testing.T) {
	c := newClient(t)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"bad team", "/teams/ab/tasks", map[string]any{"tituloDaTarefa": "A", "responsavel": "X", "horasEstimadas": 1}, http.StatusBadRequest},
		{"zero hours", "/teams/team-1/tasks", map[string]any{"tituloDaTarefa": "A", "responsavel": "X", "horasEstimadas": 0}, http.StatusBadRequest},
		{"bad status", "/teams/team-1/tasks", map[string]any{"tituloDaTarefa": "A", "responsavel": "X", "horasEstimadas": 1, "status": "feita"}, http.StatusBadRequest},
		{"not json", "/teams/team-1/tasks", "{", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.do(http.MethodPost, tt.path, tt.body).Code)
		})
	}

	rec := c.do(http.MethodPut, "/teams/team-1/tasks/missing", map[string]any{
		"tituloDaTarefa": "A", "responsavel": "X", "horasEstimadas": 1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := New(Options{
		DB:             db.NewTestDB(t),
		Exporter:       export.New(),
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/teams/team-1/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
