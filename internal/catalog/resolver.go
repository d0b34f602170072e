package catalog

import (
	"sort"
	"strconv"
	"strings"

	"catalog/sync/internal/domain"
)

// Membership is one "categoryId|order" entry of a product
type Membership struct {
	CategoryID int
	Order      int
}

// ParseMembership decodes "id|order;id|order". Entries with a non numeric
// id are dropped and counted; a missing or non numeric order means 0.
func ParseMembership(raw string) ([]Membership, int) {
	if strings.TrimSpace(raw) == "" {
		return nil, 0
	}

	var (
		out       []Membership
		malformed int
	)
	for _, entry := range strings.Split(raw, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		idPart, orderPart, _ := strings.Cut(entry, "|")
		id, err := strconv.Atoi(strings.TrimSpace(idPart))
		if err != nil {
			malformed++
			continue
		}

		order, err := strconv.Atoi(strings.TrimSpace(orderPart))
		if err != nil {
			order = 0
		}
		out = append(out, Membership{CategoryID: id, Order: order})
	}

	return out, malformed
}

// Resolver turns memberships into root-first category paths that follow
// the repaired forest, so a promoted root ends its own path.
type Resolver struct {
	index map[int]*domain.CategoryNode
	roots map[int]bool
}

func NewResolver(tree *Tree) *Resolver {
	roots := make(map[int]bool, len(tree.Roots))
	for _, r := range tree.Roots {
		roots[r.ID] = true
	}
	return &Resolver{index: tree.Index, roots: roots}
}

// Resolve parses raw and resolves every entry it can. Unknown category ids
// are dropped, the product keeps its other memberships. Paths come back
// ordered by membership order, input order on ties.
func (r *Resolver) Resolve(raw string) ([]domain.CategoryPath, Stats) {
	var stats Stats
	memberships, malformed := ParseMembership(raw)
	stats.MalformedMemberships = malformed

	paths := make([]domain.CategoryPath, 0, len(memberships))
	for _, m := range memberships {
		node, ok := r.index[m.CategoryID]
		if !ok {
			stats.DanglingMemberships++
			continue
		}

		segments, truncated := r.ancestry(node)
		if truncated {
			stats.TruncatedPaths++
		}
		paths = append(paths, domain.NewCategoryPath(node, segments, m.Order))
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].MembershipOrder < paths[j].MembershipOrder
	})
	return paths, stats
}

// ancestry walks parent pointers up to the root. A loop in the chain stops
// the walk at the first repeated node.
func (r *Resolver) ancestry(node *domain.CategoryNode) ([]string, bool) {
	var reversed []string
	visited := make(map[int]bool)

	current := node
	for current != nil {
		if visited[current.ID] {
			return reverse(reversed), true
		}
		visited[current.ID] = true
		reversed = append(reversed, current.Name)

		if current.ParentID == 0 || r.roots[current.ID] {
			break
		}
		current = r.index[current.ParentID]
	}

	return reverse(reversed), false
}

func reverse(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// PrimaryByOrder picks the path with the lowest membership order, the
// first one on ties. It returns nil when paths is empty.
func PrimaryByOrder(paths []domain.CategoryPath) *domain.CategoryPath {
	var best *domain.CategoryPath
	for i := range paths {
		if best == nil || paths[i].MembershipOrder < best.MembershipOrder {
			best = &paths[i]
		}
	}
	return best
}

// DeepestPath picks the path with the most segments, the first one on
// ties. It is independent of PrimaryByOrder and may disagree with it.
func DeepestPath(paths []domain.CategoryPath) *domain.CategoryPath {
	var best *domain.CategoryPath
	for i := range paths {
		if best == nil || paths[i].Depth() > best.Depth() {
			best = &paths[i]
		}
	}
	return best
}
