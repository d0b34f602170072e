package catalog

import (
	"strings"
	"time"

	"catalog/sync/internal/domain"
)

// Input is one full snapshot of the store export
type Input struct {
	Categories []domain.CategoryRow
	Products   []domain.ProductRow
	URLs       []domain.URLRow
}

// Result is everything a run produces
type Result struct {
	Catalog        *domain.Catalog
	PublicProducts []domain.PublicProduct
	Stats          Stats
}

type Options struct {
	BaseURL       string
	PriceBrackets []PriceBracket
	Now           func() time.Time
}

// Pipeline rebuilds the catalog from scratch on every run. It keeps no
// state between runs.
type Pipeline struct {
	opts Options
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.PriceBrackets) == 0 {
		opts.PriceBrackets = DefaultPriceBrackets
	}
	return &Pipeline{opts: opts}
}

func (p *Pipeline) Run(input Input) *Result {
	tree, stats := BuildTree(input.Categories, p.opts.BaseURL)

	rows, urlStats := JoinURLs(input.Products, input.URLs)
	stats.Add(urlStats)

	enricher := NewEnricher(NewResolver(tree), p.opts.BaseURL)
	products, enrichStats := enricher.EnrichAll(rows)
	stats.Add(enrichStats)

	index := BuildIndex(products, p.opts.PriceBrackets)
	catalog := Assemble(tree, products, index, p.opts.Now())

	public, skipped := PublicProducts(catalog, p.opts.BaseURL)
	stats.PublicProductsSkipped = skipped

	return &Result{
		Catalog:        catalog,
		PublicProducts: public,
		Stats:          stats,
	}
}

// JoinURLs copies external id, url and image onto products by SKU.
// The first URL row of a SKU wins.
func JoinURLs(products []domain.ProductRow, urls []domain.URLRow) ([]domain.ProductRow, Stats) {
	var stats Stats
	bySKU := make(map[string]domain.URLRow, len(urls))
	for _, u := range urls {
		sku := strings.TrimSpace(u.SKU)
		if sku == "" {
			continue
		}
		if _, exists := bySKU[sku]; exists {
			stats.DuplicateURLRows++
			continue
		}
		bySKU[sku] = u
	}

	matched := make(map[string]bool, len(bySKU))
	out := make([]domain.ProductRow, len(products))
	for i, row := range products {
		row.SKU = strings.TrimSpace(row.SKU)
		if u, ok := bySKU[row.SKU]; ok {
			row.ExternalID = u.ID
			row.URL = u.URL
			row.ImageURL = u.ImageURL
			matched[row.SKU] = true
		}
		out[i] = row
	}
	stats.UnmatchedURLRows = len(bySKU) - len(matched)

	return out, stats
}
