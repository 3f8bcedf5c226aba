package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isuclicker-api/internal/cache"
	"isuclicker-api/internal/catalog"
	"isuclicker-api/internal/game"
	"isuclicker-api/internal/journal"
	"isuclicker-api/internal/repository"
	"isuclicker-api/internal/session"
)

func newService(t *testing.T, rec game.Recorder) *game.Service {
	t.Helper()
	repo := repository.NewMemoryLedgerRepository(repository.SystemClock)
	store := cache.NewMemoryCache(time.Hour)
	t.Cleanup(func() {
		store.Close()
		repo.Close()
	})
	cat, err := catalog.Default()
	require.NoError(t, err)
	return game.NewService(repo, cat, cache.NewSnapshotCache(store, 0), rec, game.Options{})
}

func TestRoom(t *testing.T) {
	dec, err := session.NewDecoder()
	require.NoError(t, err)
	h := NewGameHandler(newService(t, nil), dec, session.Config{})
	defer h.Shutdown()

	r := chi.NewRouter()
	r.Get("/room/", h.Room)
	r.Get("/room/{room_name}", h.Room)

	for path, want := range map[string]string{
		"/room/":          "/ws/",
		"/room/abc":       "/ws/abc",
		"/room/a%20b":     "/ws/a%20b",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body RoomResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, RoomResponse{Host: "", Path: want}, body, path)
	}
}

func TestInitialize(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	require.True(t, svc.AddIsu(ctx, "r", 0, big.NewInt(1)))

	dec, err := session.NewDecoder()
	require.NoError(t, err)
	h := NewGameHandler(svc, dec, session.Config{})
	defer h.Shutdown()

	rec := httptest.NewRecorder()
	h.Initialize(rec, httptest.NewRequest(http.MethodGet, "/initialize", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	ledger := stats["ledger"].(map[string]interface{})
	assert.EqualValues(t, 0, ledger["total_deposits"])
}

func TestReady(t *testing.T) {
	ok := New("test", func(ctx context.Context) (int64, error) { return 1, nil })
	rec := httptest.NewRecorder()
	ok.Ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	broken := New("test", func(ctx context.Context) (int64, error) { return 0, errors.New("down") })
	rec = httptest.NewRecorder()
	broken.Ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready":false`)
}

func TestAdminStats(t *testing.T) {
	h := NewAdminHandler(newService(t, nil), "memory", "memory")
	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "memory", body.Data["db_type"])
	assert.Contains(t, body.Data, "game")
}

func TestGetJournal_OpenFile(t *testing.T) {
	w := journal.NewWriter(t.TempDir(), "test")
	defer w.Close()
	svc := newService(t, w)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.True(t, svc.AddIsu(ctx, "a", 0, big.NewInt(1)))
	}

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	rec := httptest.NewRecorder()
	NewLogHandler(w).GetJournal(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/journal", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Meta.Total)
	assert.NotContains(t, logs.String(), "[LogHandler]")
}

func TestGetJournal(t *testing.T) {
	w := journal.NewWriter(t.TempDir(), "test")
	svc := newService(t, w)
	ctx := context.Background()
	require.True(t, svc.AddIsu(ctx, "a", 0, big.NewInt(1)))
	require.True(t, svc.AddIsu(ctx, "b", 0, big.NewInt(2)))
	require.NoError(t, w.Close())

	h := NewLogHandler(w)
	rec := httptest.NewRecorder()
	h.GetJournal(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/journal?room=b", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []journal.Entry `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body.Meta.Total)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2", body.Data[0].Isu)

	rec = httptest.NewRecorder()
	h.GetJournal(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/journal?hour=bad", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	NewLogHandler(nil).GetJournal(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/journal", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
