package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string][]byte

func (m mapSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, ErrUpstream
	}
	return data, nil
}

func categoriesSheet(t *testing.T) []byte {
	return workbook(t,
		[]any{"Id", "Name", "SeName", "ParentCategoryId", "Published"},
		[]any{1, "Pisos", "pisos", 0, "TRUE"},
	)
}

func productsSheet(t *testing.T) []byte {
	return workbook(t,
		[]any{"SKU", "Name", "Price", "Categories", "Published", "VisibleIndividually"},
		[]any{"A-1", "Chapa", 100, "1|1", "TRUE", "TRUE"},
		[]any{"A-2", "Perfil", 200, "1|2", "TRUE", "TRUE"},
	)
}

func TestLoadInput(t *testing.T) {
	source := mapSource{
		"/c.xlsx": categoriesSheet(t),
		"/p.xlsx": productsSheet(t),
		"/u.xlsx": workbook(t, []any{"SKU", "Url"}, []any{"A-1", "https://shop.test/a-1"}),
	}

	input, err := LoadInput(context.Background(), source, SheetPaths{
		Categories: "/c.xlsx",
		Products:   "/p.xlsx",
		URLs:       "/u.xlsx",
	})
	require.NoError(t, err)
	assert.Len(t, input.Categories, 1)
	assert.Len(t, input.Products, 2)
	require.Len(t, input.URLs, 1)
	assert.Equal(t, "https://shop.test/a-1", input.URLs[0].URL)
}

func TestLoadInput_URLsOptional(t *testing.T) {
	source := mapSource{
		"/c.xlsx": categoriesSheet(t),
		"/p.xlsx": productsSheet(t),
	}

	input, err := LoadInput(context.Background(), source, SheetPaths{Categories: "/c.xlsx", Products: "/p.xlsx"})
	require.NoError(t, err)
	assert.Empty(t, input.URLs)
}

func TestLoadInput_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name   string
		source mapSource
	}{
		{"missing products", mapSource{"/c.xlsx": categoriesSheet(t)}},
		{"corrupt categories", mapSource{"/c.xlsx": []byte("not xlsx"), "/p.xlsx": productsSheet(t)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := LoadInput(context.Background(), tt.source, SheetPaths{Categories: "/c.xlsx", Products: "/p.xlsx"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUpstream))
			assert.Empty(t, input.Products)
			assert.Empty(t, input.Categories)
		})
	}
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "catalogo"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalogo", "c.xlsx"), []byte("data"), 0o644))

	source := NewLocalSource(dir)

	data, err := source.Fetch(context.Background(), "/catalogo/c.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	// paths cannot climb out of the directory
	_, err = source.Fetch(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = source.Fetch(context.Background(), "/catalogo/missing.xlsx")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSheetLoader(t *testing.T) {
	source := mapSource{"/c.xlsx": categoriesSheet(t), "/p.xlsx": productsSheet(t)}
	loader := NewSheetLoader(source, SheetPaths{Categories: "/c.xlsx", Products: "/p.xlsx"})

	input, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, input.Products, 2)
}
