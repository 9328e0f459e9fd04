package harvest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/calvinalkan/fileproc"

	"github.com/daryltucker/daily-bench/internal/model"
	"github.com/daryltucker/daily-bench/internal/output"
)

// Run is one suite directory found under the results root together with
// the stats.json files it holds.
type Run struct {
	ID         string
	Dir        string
	StatsFiles []string
}

// RunID returns the run identifier for a stats.json path. Runs are keyed by
// the suite directory: <root>/<suite>/<scenario>/stats.json.
func RunID(statsPath string) string {
	return filepath.Base(suiteDir(statsPath))
}

func suiteDir(statsPath string) string {
	return filepath.Dir(filepath.Dir(statsPath))
}

// findFiles returns every file called name under root in lexical order.
// A missing root yields no files; unreadable subdirectories are logged and
// skipped.
func findFiles(root, name string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	results, errs := fileproc.Process(context.Background(), root,
		func(f *fileproc.File, _ *fileproc.FileWorker) (*string, error) {
			rel := f.RelPath()
			if filepath.Base(string(rel)) != name {
				return nil, nil
			}
			path := filepath.Join(root, string(rel))
			return &path, nil
		},
		fileproc.WithRecursive(),
		fileproc.WithSuffix(name),
		fileproc.WithFileWorkers(1),
		fileproc.WithScanWorkers(1),
	)
	for _, err := range errs {
		var ioErr *fileproc.IOError
		if errors.As(err, &ioErr) && ioErr.Path != "." {
			output.Logger.Warn("Skipping unreadable path", "path", filepath.Join(root, ioErr.Path), "error", ioErr.Err)
			continue
		}
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	paths := make([]string, 0, len(results))
	for _, p := range results {
		paths = append(paths, *p)
	}
	sort.Strings(paths)
	return paths, nil
}

// DiscoverRuns groups every stats.json under root by run identifier, in
// first-seen lexical order.
func DiscoverRuns(root string) ([]Run, error) {
	paths, err := findFiles(root, model.StatsFile)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var runs []Run
	for _, p := range paths {
		id := RunID(p)
		i, ok := index[id]
		if !ok {
			i = len(runs)
			index[id] = i
			runs = append(runs, Run{ID: id, Dir: suiteDir(p)})
		}
		runs[i].StatsFiles = append(runs[i].StatsFiles, p)
	}
	return runs, nil
}

// NewRuns returns the discovered runs whose identifier is not in known.
func NewRuns(root string, known map[string]struct{}) ([]Run, error) {
	runs, err := DiscoverRuns(root)
	if err != nil {
		return nil, err
	}
	var fresh []Run
	for _, r := range runs {
		if _, ok := known[r.ID]; !ok {
			fresh = append(fresh, r)
		}
	}
	return fresh, nil
}
