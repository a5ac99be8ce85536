package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/CTAG07/Runesmith/pkg/compilelog"
	"github.com/CTAG07/Runesmith/pkg/runesmith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*Server
	src        string
	actionChan chan string
}

// setupTestServer builds a Server over a fresh copy of the test site. With
// withHistory set, compiles are recorded to a temporary SQLite database.
func setupTestServer(t *testing.T, withHistory bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeSite(t, src)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	config.Server.HistoryDatabasePath = ""
	config.Compiler.TrimWhitespace = true
	config.Compiler.RootDir = src

	var history *compilelog.Store
	if withHistory {
		db, err := initDB(filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, compilelog.SetupSchema(db))
		history, err = compilelog.NewStore(db, logger)
		require.NoError(t, err)
		t.Cleanup(history.Close)
	}

	actionChan := make(chan string, 1)
	rs := newRunesmith(config, logger, history)
	return &testServer{
		Server:     NewServer(config, logger, rs, history, actionChan),
		src:        src,
		actionChan: actionChan,
	}
}

func (s *testServer) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.apiMux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestAPI_Health(t *testing.T) {
	s := setupTestServer(t, false)
	rec := s.do(http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_Compile(t *testing.T) {
	s := setupTestServer(t, false)

	rec := s.do(http.MethodGet, "/api/compile?file=index.html")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, siteOutput, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/map")
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]runesmith.MapEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	assert.Len(t, m, 3)
	assert.Equal(t, "Home", m[filepath.Join(s.src, "layout.html")].Namespace["title"])

	// Each compile starts from an empty map.
	rec = s.do(http.MethodGet, "/api/compile?file=partials/foot.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.rs.Map(), 1)
}

func TestAPI_ConcurrentCompilesKeepMapWhole(t *testing.T) {
	s := setupTestServer(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		file := "index.html"
		if i%2 == 1 {
			file = "partials/foot.html"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := s.do(http.MethodGet, "/api/compile?file="+file)
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()

	// index.html touches three files and foot.html one; anything else is a mix.
	n := len(s.rs.Map())
	assert.True(t, n == 1 || n == 3, "compile map holds %d entries", n)
}

func TestAPI_CompileErrors(t *testing.T) {
	s := setupTestServer(t, false)

	testCases := []struct {
		name   string
		method string
		target string
		status int
	}{
		{"missing parameter", http.MethodGet, "/api/compile", http.StatusBadRequest},
		{"missing file", http.MethodGet, "/api/compile?file=nope.html", http.StatusNotFound},
		{"circular import", http.MethodGet, "/api/compile?file=loop.html", http.StatusUnprocessableEntity},
		{"wrong method", http.MethodPost, "/api/compile?file=index.html", http.StatusMethodNotAllowed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.target)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}

	rec := s.do(http.MethodPost, "/api/compile?file=index.html")
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestAPI_CacheAndMapReset(t *testing.T) {
	s := setupTestServer(t, false)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/compile?file=index.html").Code)
	require.Equal(t, 3, s.rs.CacheSize())

	rec := s.do(http.MethodGet, "/api/cache/empty")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))

	rec = s.do(http.MethodPost, "/api/cache/empty")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 3, body["dropped"])
	assert.Zero(t, s.rs.CacheSize())
	assert.Len(t, s.rs.Map(), 3, "emptying the cache keeps the map")

	rec = s.do(http.MethodPost, "/api/map/clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.rs.Map())
}

func TestAPI_History(t *testing.T) {
	s := setupTestServer(t, true)
	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/compile?file=index.html").Code)
	}

	index := filepath.Join(s.src, "index.html")
	rec := s.do(http.MethodGet, "/api/history?target="+index)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []runesmith.MapEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, index, entries[0].Target)

	rec = s.do(http.MethodGet, "/api/history?limit=4")
	require.Equal(t, http.StatusOK, rec.Code)
	entries = nil
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	assert.Len(t, entries, 4)

	rec = s.do(http.MethodGet, "/api/history?limit=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	count, err := s.history.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestAPI_HistoryDisabled(t *testing.T) {
	s := setupTestServer(t, false)
	rec := s.do(http.MethodGet, "/api/history")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Compile history is disabled", decodeError(t, rec))
}

func TestAPI_ServerControl(t *testing.T) {
	s := setupTestServer(t, false)

	rec := s.do(http.MethodGet, "/api/server/version")
	require.Equal(t, http.StatusOK, rec.Code)
	var info VersionInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, Version, info.Version)

	rec = s.do(http.MethodGet, "/api/server/config")
	require.Equal(t, http.StatusOK, rec.Code)
	var config Config
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&config))
	assert.Equal(t, s.src, config.Compiler.RootDir)

	rec = s.do(http.MethodPost, "/api/server/restart")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, actionRestart, <-s.actionChan)
}
