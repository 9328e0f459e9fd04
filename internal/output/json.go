/*
PURPOSE:
  Writes raw evaluation snapshots as pretty-printed JSON, one file per
  evaluation.

REQUIREMENTS:
  User-specified:
  - Raw snapshots live under results/raw with a timestamp+model file name.

  Implementation-discovered:
  - Model names may contain "/" or ":" (provider/model:tag); those are
    replaced so the name stays a single path element.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Recorder)
  - Consumes: internal/model.Evaluation

ERROR HANDLING:
  - Returns error on directory creation or write failure.

USAGE:
  path := output.SnapshotPath("results/raw", ts, "gpt2")
  output.WriteJSON(path, eval)

RELATED FILES:
  - internal/model/types.go
*/

package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SnapshotTimeLayout is the timestamp prefix of snapshot file names.
const SnapshotTimeLayout = "2006-01-02T1504Z"

var snapshotNameReplacer = strings.NewReplacer("/", "_", ":", "_", string(filepath.Separator), "_")

// SnapshotPath returns <dir>/<YYYY-MM-DDTHHMMZ>-<model>.json for ts in UTC.
func SnapshotPath(dir string, ts time.Time, model string) string {
	name := ts.UTC().Format(SnapshotTimeLayout) + "-" + snapshotNameReplacer.Replace(model) + ".json"
	return filepath.Join(dir, name)
}

// WriteJSON writes v to path indented by two spaces, creating the parent
// directory.
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
