package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/endpoint-authz/services/audit"
	"go.uber.org/zap"
)

type stubAudit struct {
	started bool
}

func (s stubAudit) GetStats() audit.Stats {
	return audit.Stats{Started: s.started}
}

func readiness(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var envelope struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	return w.Code, envelope.Data
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.NotEmpty(t, envelope.Data.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	t.Run("healthy when database is available", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		code, resp := readiness(t, NewHealthHandler(db, stubAudit{started: true}, logger))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "healthy", resp.Checks["database"])
		assert.Equal(t, "healthy", resp.Checks["audit"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database ping fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		code, resp := readiness(t, NewHealthHandler(db, nil, logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "unhealthy", resp.Checks["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database query fails", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

		code, resp := readiness(t, NewHealthHandler(db, nil, logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", resp.Checks["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("in-memory store", func(t *testing.T) {
		code, resp := readiness(t, NewHealthHandler(nil, nil, logger))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "in_memory", resp.Checks["database"])
		assert.NotContains(t, resp.Checks, "audit")
	})

	t.Run("stopped audit workers", func(t *testing.T) {
		code, resp := readiness(t, NewHealthHandler(nil, stubAudit{started: false}, logger))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "stopped", resp.Checks["audit"])
	})
}
