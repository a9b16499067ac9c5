package status

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"change-monitor/core/database"
	"change-monitor/core/history"
	"change-monitor/core/metrics"
	"change-monitor/core/storage"
	"change-monitor/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var started = time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

func setupHistory(t *testing.T) *history.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	store := history.NewStore(db, nil)
	require.NoError(t, store.Migrate(context.Background()))

	run := &history.Run{ID: "run-1", StartedAt: started, FinishedAt: started.Add(time.Minute), Added: 1, Commits: 1,
		Modules: []history.ModuleRun{{Module: "scripts", State: "completed", Added: 1}},
		Changes: []history.Change{{Module: "scripts", Kind: "added", ObjectID: "4", Name: "Install", Path: "scripts/4.data"}},
	}
	require.NoError(t, store.RecordRun(context.Background(), run))
	return store
}

func setupTestApp(t *testing.T, svc *Service) *fiber.App {
	t.Helper()
	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandleHealth(t *testing.T) {
	app := setupTestApp(t, &Service{Version: "1.2.0"})

	status, body := get(t, app, "/health")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.0"}`, body)
}

func TestHandleHistory(t *testing.T) {
	app := setupTestApp(t, &Service{History: setupHistory(t)})

	t.Run("List", func(t *testing.T) {
		status, body := get(t, app, "/history?limit=5")
		require.Equal(t, fiber.StatusOK, status)
		var runs []history.Run
		require.NoError(t, json.Unmarshal([]byte(body), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, "run-1", runs[0].ID)
		assert.Empty(t, runs[0].Changes)
	})

	t.Run("Get", func(t *testing.T) {
		status, body := get(t, app, "/history/run-1")
		require.Equal(t, fiber.StatusOK, status)
		var run history.Run
		require.NoError(t, json.Unmarshal([]byte(body), &run))
		require.Len(t, run.Changes, 1)
		assert.Equal(t, "4", run.Changes[0].ObjectID)
		require.Len(t, run.Modules, 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		status, _ := get(t, app, "/history/missing")
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("NoStorage", func(t *testing.T) {
		status, body := get(t, app, "/history/run-1/report")
		assert.Equal(t, fiber.StatusServiceUnavailable, status)
		assert.Contains(t, body, "storage is not configured")
	})
}

func TestHandleHistory_NotConfigured(t *testing.T) {
	app := setupTestApp(t, &Service{})

	status, body := get(t, app, "/history")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Contains(t, body, "history is not configured")
}

func TestHandleReport(t *testing.T) {
	client := new(mocks.Client)
	archive := storage.NewArchive(client, storage.Config{Bucket: "reports", Prefix: "runs"}, nil)
	client.On("GetObject", mock.Anything, "reports", "runs/2026/10/17/run-1/report.json", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader(`{"id":"run-1"}`)), nil)
	client.On("GetObject", mock.Anything, "reports", "runs/2026/10/17/run-1/run.log", minio.GetObjectOptions{}).
		Return(io.NopCloser(strings.NewReader("INFO Starting run\n")), nil)

	app := setupTestApp(t, &Service{History: setupHistory(t), Archive: archive})

	status, body := get(t, app, "/history/run-1/report")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"id":"run-1"}`, body)

	status, body = get(t, app, "/history/run-1/log")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "INFO Starting run\n", body)

	status, _ = get(t, app, "/history/missing/report")
	assert.Equal(t, fiber.StatusNotFound, status)
	client.AssertExpectations(t)
}

func TestHandleMetrics(t *testing.T) {
	m := metrics.New()
	m.ObserveRun("success")
	app := setupTestApp(t, &Service{Metrics: m.Handler()})

	status, body := get(t, app, "/metrics")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `result="success"`)
}
