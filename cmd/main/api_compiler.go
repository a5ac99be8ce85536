package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/Runesmith/pkg/compilelog"
	"github.com/CTAG07/Runesmith/pkg/fsutil"
	"github.com/CTAG07/Runesmith/pkg/runesmith"
)

// CompilerAPI holds the dependencies for the compile, map, cache and history
// handlers. Compiles through the API run one at a time, so the compile map
// always describes a single, complete compile.
type CompilerAPI struct {
	rs      *runesmith.Runesmith
	history *compilelog.Store
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewCompilerAPI creates a new instance of the CompilerAPI. history may be nil.
func NewCompilerAPI(rs *runesmith.Runesmith, history *compilelog.Store, logger *slog.Logger) *CompilerAPI {
	return &CompilerAPI{
		rs:      rs,
		history: history,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the compiler endpoints.
func (a *CompilerAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/compile", a.handleCompile)
	mux.HandleFunc("/api/map", a.handleMap)
	mux.HandleFunc("/api/map/clear", a.handleMapClear)
	mux.HandleFunc("/api/cache/empty", a.handleCacheEmpty)
	mux.HandleFunc("/api/history", a.handleHistory)
}

// handleCompile compiles the file named by the "file" query parameter and
// returns the markup. The compile map is reset first so it describes this
// compile only.
func (a *CompilerAPI) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	file := strings.TrimSpace(r.URL.Query().Get("file"))
	if file == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'file' query parameter")
		return
	}

	a.mu.Lock()
	a.rs.ClearMap()
	out, err := a.rs.Compile(r.Context(), file, nil)
	a.mu.Unlock()
	if err != nil {
		status := compileErrorStatus(err)
		if status == http.StatusInternalServerError {
			a.logger.Error("Failed to compile file", "file", file, "error", err)
		} else {
			a.logger.Info("Rejected compile request", "file", file, "error", err)
		}
		respondWithError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// compileErrorStatus maps a compile error onto an HTTP status.
func compileErrorStatus(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fsutil.ErrNotHTML):
		return http.StatusBadRequest
	case errors.Is(err, runesmith.ErrCircularImport):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleMap returns the compile map of the last compile.
func (a *CompilerAPI) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	a.mu.Lock()
	m := a.rs.Map()
	a.mu.Unlock()
	respondWithJSON(w, http.StatusOK, m)
}

func (a *CompilerAPI) handleMapClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	a.mu.Lock()
	a.rs.ClearMap()
	a.mu.Unlock()
	a.logger.Info("Compile map cleared via API")
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Compile map cleared"})
}

func (a *CompilerAPI) handleCacheEmpty(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	dropped := a.rs.CacheSize()
	a.rs.EmptyCache()
	a.logger.Info("File cache emptied via API", "dropped", dropped)
	respondWithJSON(w, http.StatusOK, map[string]any{"message": "File cache emptied", "dropped": dropped})
}

// handleHistory returns stored compile entries, for one target when the
// "target" parameter is set and across all targets otherwise.
func (a *CompilerAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.history == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Compile history is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' query parameter")
			return
		}
		limit = n
	}

	var (
		entries []runesmith.MapEntry
		err     error
	)
	if target := strings.TrimSpace(r.URL.Query().Get("target")); target != "" {
		entries, err = a.history.History(r.Context(), target, limit)
	} else {
		entries, err = a.history.Recent(r.Context(), limit)
	}
	if err != nil {
		a.logger.Error("Failed to query compile history", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to query compile history")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}
