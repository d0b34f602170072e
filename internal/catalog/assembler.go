package catalog

import (
	"strings"
	"time"

	"catalog/sync/internal/domain"
	"catalog/sync/internal/keywords"
)

// Assemble composes the full catalog document
func Assemble(tree *Tree, products []domain.EnrichedProduct, index domain.CatalogIndex, generatedAt time.Time) *domain.Catalog {
	active := tree.Active()

	inStock := 0
	for _, p := range products {
		if p.Stock > 0 {
			inStock++
		}
	}

	return &domain.Catalog{
		Metadata: domain.Metadata{
			GeneratedAt:      generatedAt.UTC().Format(time.RFC3339),
			TotalProducts:    len(products),
			ProductsInStock:  inStock,
			ActiveCategories: len(active),
			RootCategories:   len(tree.Roots),
			DistinctBrands:   len(index.ByBrand),
		},
		Categories: domain.Categories{
			Tree: tree.Roots,
			All:  active,
		},
		Indices:  index,
		Products: products,
	}
}

// PublicProducts derives the flat product list of the storefront
// assistant. Products without a price are left out.
func PublicProducts(catalog *domain.Catalog, baseURL string) ([]domain.PublicProduct, int) {
	out := make([]domain.PublicProduct, 0, len(catalog.Products))
	skipped := 0

	for _, p := range catalog.Products {
		if !p.Active || !p.Visible || p.Price <= 0 {
			skipped++
			continue
		}
		out = append(out, publicProduct(p, baseURL))
	}

	return out, skipped
}

func publicProduct(p domain.EnrichedProduct, baseURL string) domain.PublicProduct {
	label, url := CategoryLabel(p, baseURL)

	root := strings.Split(label, domain.PathSeparator)[0]
	if root == "" {
		root = domain.GeneralCategoryName
	}

	kw := keywords.NewSet(p.Keywords...)
	keywords.Merge(kw, p.Name, p.Brand, label, root)

	return domain.PublicProduct{
		ID:               p.ID,
		Active:           p.Active,
		SKU:              p.SKU,
		Name:             strings.TrimSpace(p.Name),
		Brand:            p.Brand,
		Category:         label,
		CategoryRoot:     root,
		CategoryURL:      url,
		Price:            p.Price,
		InStock:          p.Stock > 0,
		URL:              p.URL,
		ImageURL:         p.ImageURL,
		ShortDescription: strings.TrimSpace(p.ShortDescription),
		WeightKg:         p.WeightKg,
		Keywords:         kw.Join(","),
	}
}

// CategoryLabel returns the deepest category path of a product and its URL.
// Without resolved categories it falls back to the primary label and URL.
func CategoryLabel(p domain.EnrichedProduct, baseURL string) (string, string) {
	if deepest := DeepestPath(p.AllCategoryPaths); deepest != nil {
		url := CategoryURL(baseURL, "")
		if deepest.Slug != "" {
			url = CategoryURL(baseURL, deepest.Slug)
		}
		return deepest.PathString, url
	}

	label := p.CategoryPathString
	if label == "" {
		label = p.PrimaryCategoryName
	}
	if label == "" {
		label = domain.GeneralCategoryName
	}

	url := p.ResolvedCategoryURL
	if url == "" {
		url = CategoryURL(baseURL, "")
	}
	return label, url
}
