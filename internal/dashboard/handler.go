package dashboard

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// RequiredFiles must exist in the dashboard directory before serving.
var RequiredFiles = []string{"index.html", "style.css", "script.js"}

// DatabaseRoute serves the DuckDB snapshot of the summary.
const DatabaseRoute = "/data/benchmark_summary.duckdb"

// MissingFilesError lists dashboard files that are absent.
type MissingFilesError struct {
	Dir   string
	Files []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("missing required files in %s: %s", e.Dir, strings.Join(e.Files, ", "))
}

// CheckRequiredFiles reports the required files missing from dir.
func CheckRequiredFiles(dir string) error {
	var missing []string
	for _, name := range RequiredFiles {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || info.IsDir() {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFilesError{Dir: dir, Files: missing}
	}
	return nil
}

// NewHandler builds the HTTP handler for the dashboard, the results
// directory and the DuckDB snapshot.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.DashboardDir == "" {
		return nil, errors.New("dashboard: dashboard dir is required")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/", http.StatusFound)
	})
	mux.Handle("/dashboard/", http.StripPrefix("/dashboard/", http.FileServer(http.Dir(cfg.DashboardDir))))
	if cfg.ResultsDir != "" {
		mux.Handle("/results/", http.StripPrefix("/results/", http.FileServer(http.Dir(cfg.ResultsDir))))
	}
	if cfg.DBPath != "" {
		mux.Handle(DatabaseRoute, serveDatabase(cfg.DBPath))
	}
	return withCORS(mux), nil
}

// withCORS adds permissive CORS headers and answers preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// serveDatabase serves the DuckDB file from disk for browser-side queries.
func serveDatabase(dbPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, err := os.Stat(dbPath); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, dbPath)
	})
}
