package catalog

import "catalog/sync/internal/domain"

// PriceBracket is an upper-exclusive price bound. The last bracket of a
// list takes every remaining product regardless of its bound.
type PriceBracket struct {
	Name  string  `mapstructure:"name"`
	Below float64 `mapstructure:"below"`
}

var DefaultPriceBrackets = []PriceBracket{
	{Name: "economico", Below: 50000},
	{Name: "medio", Below: 150000},
	{Name: "premium", Below: 250000},
	{Name: "alto"},
}

// Bracket returns the name of the bracket price falls into
func Bracket(brackets []PriceBracket, price float64) string {
	for i, b := range brackets {
		if i == len(brackets)-1 || price < b.Below {
			return b.Name
		}
	}
	return ""
}

// BuildIndex indexes products by category, brand and price bracket.
// Positions refer to the products slice, which must not be reordered after.
func BuildIndex(products []domain.EnrichedProduct, brackets []PriceBracket) domain.CatalogIndex {
	if len(brackets) == 0 {
		brackets = DefaultPriceBrackets
	}

	index := domain.CatalogIndex{
		ByCategoryID:   make(map[int]*domain.CategoryBucket),
		ByCategoryName: make(map[string][]int),
		ByCategorySlug: make(map[string][]int),
		ByBrand:        make(map[string][]int),
		ByPriceBracket: make(map[string][]int, len(brackets)),
	}
	for _, b := range brackets {
		index.ByPriceBracket[b.Name] = []int{}
	}

	for pos, p := range products {
		for _, path := range p.AllCategoryPaths {
			bucket, ok := index.ByCategoryID[path.CategoryID]
			if !ok {
				bucket = &domain.CategoryBucket{Info: path}
				index.ByCategoryID[path.CategoryID] = bucket
			}
			bucket.Products = append(bucket.Products, pos)

			index.ByCategoryName[path.Name] = append(index.ByCategoryName[path.Name], pos)
			index.ByCategorySlug[path.Slug] = append(index.ByCategorySlug[path.Slug], pos)
		}

		if p.Brand != "" {
			index.ByBrand[p.Brand] = append(index.ByBrand[p.Brand], pos)
		}

		name := Bracket(brackets, p.Price)
		index.ByPriceBracket[name] = append(index.ByPriceBracket[name], pos)
	}

	return index
}
