/*
PURPOSE:
  Runs the external shell-scripted benchmark harness and reports its exit
  status.

REQUIREMENTS:
  User-specified:
  - The harness is an opaque collaborator that writes JSON results to disk.
  - The CLI exits with the harness exit status.
  - An interrupted run exits 130.

  Implementation-discovered:
  - The script is made executable before running (checkouts may drop the bit).
  - The script runs with the harness directory as its working directory.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (run)
  - Uses: internal/config

ERROR HANDLING:
  - Missing script: plain error (exit 1).
  - Non-zero exit or interrupt: *ExitError carrying the code.

RELATED FILES:
  - scripts/run_bench.sh
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/daryltucker/daily-bench/internal/config"
	"github.com/daryltucker/daily-bench/internal/output"
)

// InterruptExitCode is the status reported when the run is interrupted.
const InterruptExitCode = 130

// waitDelay bounds how long a cancelled command may hold its output pipes.
const waitDelay = 2 * time.Second

// ExitError carries the exit status of an external process.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Code == InterruptExitCode {
		return "benchmark interrupted"
	}
	return fmt.Sprintf("benchmark exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ScriptPath resolves the harness script against the harness directory.
func ScriptPath(h config.HarnessConfig) string {
	if filepath.IsAbs(h.Script) {
		return h.Script
	}
	return filepath.Join(h.Dir, h.Script)
}

// RunHarness runs `bash <script>` in the harness directory, streaming its
// output to stdout and stderr. Cancelling ctx interrupts the script.
func RunHarness(ctx context.Context, h config.HarnessConfig, stdout, stderr io.Writer) error {
	script, err := filepath.Abs(ScriptPath(h))
	if err != nil {
		return err
	}
	info, err := os.Stat(script)
	if err != nil || info.IsDir() {
		return fmt.Errorf("harness script not found at %s", script)
	}
	if err := os.Chmod(script, 0755); err != nil {
		return fmt.Errorf("failed to make %s executable: %w", script, err)
	}

	cmd := exec.CommandContext(ctx, "bash", script)
	cmd.Dir = h.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = os.Stdin
	cmd.WaitDelay = waitDelay

	output.Logger.Info("Running benchmark harness", "script", script, "dir", h.Dir)
	err = cmd.Run()
	if ctx.Err() != nil {
		return &ExitError{Code: InterruptExitCode, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		output.Logger.Info("Benchmark harness finished")
		return nil
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		if code < 0 {
			// killed by a signal
			code = 1
		}
		return &ExitError{Code: code, Err: err}
	default:
		return fmt.Errorf("failed to run harness: %w", err)
	}
}
