package catalog

import (
	"sort"
	"strings"

	"catalog/sync/internal/domain"
)

// Tree is the category forest and an index of every node by id
type Tree struct {
	Roots []*domain.CategoryNode
	Index map[int]*domain.CategoryNode
	// Order holds category ids in input order
	Order []int
}

// BuildTree assembles the forest from flat rows. A row whose parent is
// missing becomes a root instead of being dropped.
func BuildTree(rows []domain.CategoryRow, baseURL string) (*Tree, Stats) {
	var stats Stats
	tree := &Tree{
		Index: make(map[int]*domain.CategoryNode, len(rows)),
		Order: make([]int, 0, len(rows)),
	}

	for _, row := range rows {
		stats.CategoriesRead++
		if _, exists := tree.Index[row.ID]; exists {
			stats.DuplicateCategories++
			continue
		}
		tree.Index[row.ID] = &domain.CategoryNode{
			ID:           row.ID,
			Name:         row.Name,
			Slug:         row.Slug,
			URL:          CategoryURL(baseURL, row.Slug),
			Description:  row.Description,
			ParentID:     row.ParentID,
			DisplayOrder: row.DisplayOrder,
			Published:    row.Published,
			Children:     []*domain.CategoryNode{},
		}
		tree.Order = append(tree.Order, row.ID)
	}

	for _, id := range tree.Order {
		node := tree.Index[id]
		if node.ParentID == 0 {
			tree.Roots = append(tree.Roots, node)
			continue
		}
		parent, ok := tree.Index[node.ParentID]
		if !ok || parent == node {
			stats.PromotedRoots++
			tree.Roots = append(tree.Roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	stats.CyclesBroken = tree.breakCycles()
	sortLevel(tree.Roots)

	if tree.Roots == nil {
		tree.Roots = []*domain.CategoryNode{}
	}
	return tree, stats
}

// breakCycles promotes nodes that no root can reach, which only
// happens when parent pointers form a loop
func (t *Tree) breakCycles() int {
	reached := make(map[int]bool, len(t.Index))
	var mark func(n *domain.CategoryNode)
	mark = func(n *domain.CategoryNode) {
		if reached[n.ID] {
			return
		}
		reached[n.ID] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range t.Roots {
		mark(r)
	}

	broken := 0
	for _, id := range t.Order {
		if reached[id] {
			continue
		}
		node := t.Index[id]
		parent := t.Index[node.ParentID]
		parent.Children = removeChild(parent.Children, node)
		t.Roots = append(t.Roots, node)
		mark(node)
		broken++
	}
	return broken
}

func removeChild(children []*domain.CategoryNode, node *domain.CategoryNode) []*domain.CategoryNode {
	out := children[:0]
	for _, c := range children {
		if c != node {
			out = append(out, c)
		}
	}
	return out
}

func sortLevel(nodes []*domain.CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].DisplayOrder < nodes[j].DisplayOrder
	})
	for _, n := range nodes {
		sortLevel(n.Children)
	}
}

// Active returns the published categories in input order
func (t *Tree) Active() []domain.CategorySummary {
	active := make([]domain.CategorySummary, 0, len(t.Order))
	for _, id := range t.Order {
		if node := t.Index[id]; node.Published {
			active = append(active, node.Summary())
		}
	}
	return active
}

// CategoryURL templates a slug (or brand) into the storefront base URL
func CategoryURL(baseURL, slug string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + slug
}
