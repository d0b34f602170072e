package catalog

import (
	"strings"

	"catalog/sync/internal/domain"
	"catalog/sync/internal/keywords"

	"github.com/PuerkitoBio/goquery"
)

// Enricher attaches categories, keywords and URLs to published products
type Enricher struct {
	resolver *Resolver
	baseURL  string
}

func NewEnricher(resolver *Resolver, baseURL string) *Enricher {
	return &Enricher{
		resolver: resolver,
		baseURL:  baseURL,
	}
}

// Listed reports whether a product row takes part in the catalog
func Listed(row domain.ProductRow) bool {
	return row.Published && row.VisibleIndividually
}

// EnrichAll enriches the listed rows, keeping input order
func (e *Enricher) EnrichAll(rows []domain.ProductRow) ([]domain.EnrichedProduct, Stats) {
	var stats Stats
	products := make([]domain.EnrichedProduct, 0, len(rows))

	for _, row := range rows {
		stats.ProductsRead++
		if !Listed(row) {
			stats.ProductsFiltered++
			continue
		}

		product, rowStats := e.Enrich(row)
		stats.Add(rowStats)
		products = append(products, product)
	}

	return products, stats
}

// Enrich builds the derived record for one row. row is not modified.
func (e *Enricher) Enrich(row domain.ProductRow) (domain.EnrichedProduct, Stats) {
	paths, stats := e.resolver.Resolve(row.CategoryMembership)

	product := domain.EnrichedProduct{
		ID:                  row.ExternalID,
		SKU:                 row.SKU,
		Name:                row.Name,
		ShortDescription:    StripHTML(row.ShortDescriptionHTML),
		Price:               row.Price,
		Stock:               row.StockQuantity,
		Brand:               row.Brand,
		WeightKg:            row.WeightKg,
		CategoryMembership:  row.CategoryMembership,
		URL:                 row.URL,
		ImageURL:            row.ImageURL,
		Active:              true,
		Visible:             true,
		AllCategoryPaths:    paths,
		PrimaryCategoryName: domain.GeneralCategoryName,
		PrimaryCategorySlug: domain.GeneralCategorySlug,
		CategoryPathString:  domain.GeneralCategoryName,
		ResolvedCategoryURL: CategoryURL(e.baseURL, row.Brand),
	}

	if primary := PrimaryByOrder(paths); primary != nil {
		p := *primary
		product.PrimaryCategory = &p
		product.PrimaryCategoryName = p.Name
		product.PrimaryCategorySlug = p.Slug
		product.CategoryPathString = p.PathString
		product.ResolvedCategoryURL = CategoryURL(e.baseURL, p.Slug)
	}

	product.Keywords = productKeywords(product).Values()
	return product, stats
}

func productKeywords(p domain.EnrichedProduct) *keywords.Set {
	set := keywords.NewSet()
	keywords.Merge(set, p.Name, p.Brand, p.PrimaryCategoryName, p.CategoryPathString)
	for _, path := range p.AllCategoryPaths {
		keywords.Merge(set, path.Name, path.PathString)
	}
	if p.ShortDescription != "" {
		keywords.Merge(set, p.ShortDescription)
	}
	return set
}

// StripHTML returns the text content of an HTML fragment
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}
