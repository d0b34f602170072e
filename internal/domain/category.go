package domain

import "strings"

// PathSeparator joins category names in a path string ("Construcción > Cales y Cementos")
const PathSeparator = " > "

// CategoryRow is a single category record as exported from the store
type CategoryRow struct {
	ID           int
	Name         string
	Slug         string
	Description  string
	ParentID     int // 0 means root
	DisplayOrder int
	Published    bool
}

// CategoryNode is a category placed in the category forest
type CategoryNode struct {
	ID           int             `json:"id" yaml:"id"`
	Name         string          `json:"nombre" yaml:"nombre"`
	Slug         string          `json:"slug" yaml:"slug"`
	URL          string          `json:"url_categoria" yaml:"url_categoria"`
	Description  string          `json:"descripcion" yaml:"descripcion"`
	ParentID     int             `json:"parent_id" yaml:"parent_id"`
	DisplayOrder int             `json:"orden" yaml:"orden"`
	Published    bool            `json:"visible" yaml:"visible"`
	Children     []*CategoryNode `json:"hijos" yaml:"hijos"`
}

// CategorySummary is the flat view used by the "all categories" listing
type CategorySummary struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"nombre" yaml:"nombre"`
	Slug     string `json:"slug" yaml:"slug"`
	ParentID int    `json:"parent_id" yaml:"parent_id"`
}

// CategoryPath is a resolved product membership, root first
type CategoryPath struct {
	CategoryID      int      `json:"id" yaml:"id"`
	Name            string   `json:"nombre" yaml:"nombre"`
	Slug            string   `json:"slug" yaml:"slug"`
	FullPath        []string `json:"segmentos" yaml:"segmentos"`
	PathString      string   `json:"ruta" yaml:"ruta"`
	Root            string   `json:"ruta_principal" yaml:"ruta_principal"`
	MembershipOrder int      `json:"orden" yaml:"orden"`
}

// NewCategoryPath builds a path from root-first segments
func NewCategoryPath(node *CategoryNode, segments []string, order int) CategoryPath {
	path := CategoryPath{
		CategoryID:      node.ID,
		Name:            node.Name,
		Slug:            node.Slug,
		FullPath:        segments,
		PathString:      strings.Join(segments, PathSeparator),
		MembershipOrder: order,
	}
	if len(segments) > 0 {
		path.Root = segments[0]
	}
	return path
}

// Depth returns the number of segments in the path
func (p CategoryPath) Depth() int {
	return len(p.FullPath)
}

func (n *CategoryNode) Summary() CategorySummary {
	return CategorySummary{
		ID:       n.ID,
		Name:     n.Name,
		Slug:     n.Slug,
		ParentID: n.ParentID,
	}
}
