package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"catalog/sync/internal/domain"

	"gopkg.in/yaml.v3"
)

// Artifacts are the encoded documents of one run
type Artifacts struct {
	CatalogJSON    []byte
	CatalogCompact []byte
	CatalogTOON    []byte
	ProductsJSON   []byte
}

// Encode renders the catalog as indented JSON, YAML and TOON, and the
// public product list as indented JSON. Equal inputs give byte-identical output.
func Encode(catalog *domain.Catalog, products []domain.PublicProduct) (*Artifacts, error) {
	if products == nil {
		products = []domain.PublicProduct{}
	}

	catalogJSON, err := EncodeJSON(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	compact, err := EncodeYAML(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode compact catalog: %w", err)
	}

	toon, err := EncodeTOON(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode toon catalog: %w", err)
	}

	productsJSON, err := EncodeJSON(products)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public products: %w", err)
	}

	return &Artifacts{
		CatalogJSON:    catalogJSON,
		CatalogCompact: compact,
		CatalogTOON:    toon,
		ProductsJSON:   productsJSON,
	}, nil
}

// EncodeJSON indents with two spaces and leaves URLs unescaped
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
