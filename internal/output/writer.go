package output

import (
	"fmt"
	"os"
	"path/filepath"

	"catalog/sync/internal/config"

	log "github.com/sirupsen/logrus"
)

type Writer interface {
	// Write stores every artifact and returns the written paths
	Write(artifacts *Artifacts) ([]string, error)
}

type fileWriter struct {
	cfg config.OutputConfig
}

func NewFileWriter(cfg config.OutputConfig) Writer {
	return &fileWriter{cfg: cfg}
}

func (w *fileWriter) Write(artifacts *Artifacts) ([]string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", w.cfg.Dir, err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{w.cfg.CatalogJSON, artifacts.CatalogJSON},
		{w.cfg.CatalogCompact, artifacts.CatalogCompact},
		{w.cfg.CatalogTOON, artifacts.CatalogTOON},
		{w.cfg.ProductsJSON, artifacts.ProductsJSON},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.name == "" {
			continue
		}
		path := filepath.Join(w.cfg.Dir, f.name)
		if err := writeAtomic(path, f.data); err != nil {
			return paths, err
		}
		log.Infof("💾 Wrote %s (%d KB)", path, len(f.data)/1024)
		paths = append(paths, path)
	}

	return paths, nil
}

// writeAtomic replaces path so readers never see a partial file
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
