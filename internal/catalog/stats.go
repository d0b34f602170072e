package catalog

import log "github.com/sirupsen/logrus"

// Stats counts the recoveries made during a run. None of them stop the run.
type Stats struct {
	CategoriesRead        int
	DuplicateCategories   int
	PromotedRoots         int // parent id not found (or self reference)
	CyclesBroken          int
	ProductsRead          int
	ProductsFiltered      int // unpublished or not visible individually
	MalformedMemberships  int
	DanglingMemberships   int
	TruncatedPaths        int
	UnmatchedURLRows      int
	DuplicateURLRows      int
	PublicProductsSkipped int // inactive, hidden or without price
}

// Add merges other into s
func (s *Stats) Add(other Stats) {
	s.CategoriesRead += other.CategoriesRead
	s.DuplicateCategories += other.DuplicateCategories
	s.PromotedRoots += other.PromotedRoots
	s.CyclesBroken += other.CyclesBroken
	s.ProductsRead += other.ProductsRead
	s.ProductsFiltered += other.ProductsFiltered
	s.MalformedMemberships += other.MalformedMemberships
	s.DanglingMemberships += other.DanglingMemberships
	s.TruncatedPaths += other.TruncatedPaths
	s.UnmatchedURLRows += other.UnmatchedURLRows
	s.DuplicateURLRows += other.DuplicateURLRows
	s.PublicProductsSkipped += other.PublicProductsSkipped
}

func (s Stats) Fields() log.Fields {
	return log.Fields{
		"categories_read":         s.CategoriesRead,
		"duplicate_categories":    s.DuplicateCategories,
		"promoted_roots":          s.PromotedRoots,
		"cycles_broken":           s.CyclesBroken,
		"products_read":           s.ProductsRead,
		"products_filtered":       s.ProductsFiltered,
		"malformed_memberships":   s.MalformedMemberships,
		"dangling_memberships":    s.DanglingMemberships,
		"truncated_paths":         s.TruncatedPaths,
		"unmatched_url_rows":      s.UnmatchedURLRows,
		"duplicate_url_rows":      s.DuplicateURLRows,
		"public_products_skipped": s.PublicProductsSkipped,
	}
}

// Recoveries is the number of soft failures worth an operator's attention
func (s Stats) Recoveries() int {
	return s.DuplicateCategories + s.PromotedRoots + s.CyclesBroken +
		s.MalformedMemberships + s.DanglingMemberships + s.TruncatedPaths
}
