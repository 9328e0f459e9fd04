package dashboard

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/daryltucker/daily-bench/internal/output"
)

//go:embed assets/*
var embeddedAssets embed.FS

// assetsFS returns the file system rooted at the embedded assets directory.
func assetsFS() (fs.FS, error) {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return nil, fmt.Errorf("dashboard: open embedded assets: %w", err)
	}
	return sub, nil
}

// Install writes the embedded dashboard files into dir. Existing files are
// left alone unless force is set. It returns the paths written.
func Install(dir string, force bool) ([]string, error) {
	assets, err := assetsFS()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dashboard directory: %w", err)
	}

	var written []string
	for _, name := range RequiredFiles {
		dst := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(dst); err == nil {
				output.Logger.Info("Keeping existing dashboard file", "path", dst)
				continue
			} else if !errors.Is(err, fs.ErrNotExist) {
				return written, err
			}
		}
		data, err := fs.ReadFile(assets, name)
		if err != nil {
			return written, fmt.Errorf("dashboard: read embedded %s: %w", name, err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
