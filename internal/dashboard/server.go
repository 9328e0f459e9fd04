package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/daryltucker/daily-bench/internal/output"
)

// ErrPortInUse is returned when the listen address is already bound.
var ErrPortInUse = errors.New("address already in use")

const shutdownTimeout = 5 * time.Second

// Config captures the settings for serving the dashboard.
type Config struct {
	Addr         string
	DashboardDir string
	ResultsDir   string
	SummaryPath  string
	DBPath       string
}

// Serve checks the dashboard files, binds cfg.Addr and serves until ctx is
// cancelled. ready, if non-nil, receives the bound address once listening.
func Serve(ctx context.Context, cfg Config, ready func(addr string)) error {
	if ctx == nil {
		return errors.New("dashboard: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("dashboard: addr is required")
	}
	if err := CheckRequiredFiles(cfg.DashboardDir); err != nil {
		return err
	}
	if cfg.ResultsDir != "" {
		if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	if cfg.SummaryPath != "" {
		if _, err := os.Stat(cfg.SummaryPath); err != nil {
			output.Logger.Warn("No benchmark data found; run 'daily-bench extract' to generate it", "path", cfg.SummaryPath)
		} else {
			output.Logger.Info("Found benchmark data", "path", cfg.SummaryPath)
		}
	}

	handler, err := NewHandler(cfg)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %s: %w", cfg.Addr, ErrPortInUse)
		}
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	addr := ln.Addr().String()
	output.Logger.Info("Dashboard server started", "addr", addr, "url", "http://"+displayAddr(addr)+"/dashboard/")
	if ready != nil {
		ready(addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		output.Logger.Info("Dashboard server stopped")
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}

// displayAddr turns a wildcard listen address into one a browser can open.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
