package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalog/sync/internal/catalog"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrUpstream marks failures of the data source. A run that sees one
// must not build a catalog.
var ErrUpstream = errors.New("upstream failure")

// SheetSource returns the raw bytes of an exported workbook
type SheetSource interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// SheetPaths names the three exports of one snapshot
type SheetPaths struct {
	Categories string
	Products   string
	URLs       string // optional
}

type localSource struct {
	dir string
}

// NewLocalSource reads exports from a directory on disk
func NewLocalSource(dir string) SheetSource {
	return &localSource{dir: dir}
}

func (s *localSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full := filepath.Join(s.dir, filepath.Clean("/"+strings.TrimPrefix(path, "/")))
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrUpstream, full, err)
	}
	return data, nil
}

// Loader produces one full input snapshot
type Loader interface {
	Load(ctx context.Context) (catalog.Input, error)
}

type sheetLoader struct {
	source SheetSource
	paths  SheetPaths
}

func NewSheetLoader(source SheetSource, paths SheetPaths) Loader {
	return &sheetLoader{source: source, paths: paths}
}

func (l *sheetLoader) Load(ctx context.Context) (catalog.Input, error) {
	return LoadInput(ctx, l.source, l.paths)
}

// LoadInput fetches and decodes all exports concurrently. Nothing is
// returned unless every export was read.
func LoadInput(ctx context.Context, source SheetSource, paths SheetPaths) (catalog.Input, error) {
	var input catalog.Input
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := source.Fetch(ctx, paths.Categories)
		if err != nil {
			return fmt.Errorf("failed to fetch categories: %w", err)
		}
		rows, err := ParseCategories(data)
		if err != nil {
			return fmt.Errorf("%w: failed to parse categories: %v", ErrUpstream, err)
		}
		input.Categories = rows
		log.Infof("   ✓ Categories read: %d", len(rows))
		return nil
	})

	g.Go(func() error {
		data, err := source.Fetch(ctx, paths.Products)
		if err != nil {
			return fmt.Errorf("failed to fetch products: %w", err)
		}
		rows, err := ParseProducts(data)
		if err != nil {
			return fmt.Errorf("%w: failed to parse products: %v", ErrUpstream, err)
		}
		input.Products = rows
		log.Infof("   ✓ Products read: %d", len(rows))
		return nil
	})

	if paths.URLs != "" {
		g.Go(func() error {
			data, err := source.Fetch(ctx, paths.URLs)
			if err != nil {
				return fmt.Errorf("failed to fetch product urls: %w", err)
			}
			rows, err := ParseURLs(data)
			if err != nil {
				return fmt.Errorf("%w: failed to parse product urls: %v", ErrUpstream, err)
			}
			input.URLs = rows
			log.Infof("   ✓ URLs read: %d", len(rows))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return catalog.Input{}, err
	}
	return input, nil
}
