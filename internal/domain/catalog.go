package domain

type Metadata struct {
	GeneratedAt      string `json:"ultima_actualizacion" yaml:"ultima_actualizacion"`
	TotalProducts    int    `json:"total_productos" yaml:"total_productos"`
	ProductsInStock  int    `json:"productos_disponibles" yaml:"productos_disponibles"`
	ActiveCategories int    `json:"total_categorias" yaml:"total_categorias"`
	RootCategories   int    `json:"categorias_principales" yaml:"categorias_principales"`
	DistinctBrands   int    `json:"marcas_total" yaml:"marcas_total"`
}

type Categories struct {
	Tree []*CategoryNode   `json:"arbol" yaml:"arbol"`
	All  []CategorySummary `json:"todas" yaml:"todas"`
}

// CategoryBucket lists positions of products belonging to one category
type CategoryBucket struct {
	Info     CategoryPath `json:"info" yaml:"info"`
	Products []int        `json:"productos" yaml:"productos"`
}

// CatalogIndex holds the secondary indices over Catalog.Products.
// Values are positions into the product slice.
type CatalogIndex struct {
	ByCategoryID   map[int]*CategoryBucket `json:"por_categoria_id" yaml:"por_categoria_id"`
	ByCategoryName map[string][]int        `json:"por_categoria_nombre" yaml:"por_categoria_nombre"`
	ByCategorySlug map[string][]int        `json:"por_categoria_slug" yaml:"por_categoria_slug"`
	ByBrand        map[string][]int        `json:"por_marca" yaml:"por_marca"`
	ByPriceBracket map[string][]int        `json:"por_rango_precio" yaml:"por_rango_precio"`
}

// Catalog is the full catalog document
type Catalog struct {
	Metadata   Metadata          `json:"metadata" yaml:"metadata"`
	Categories Categories        `json:"categorias" yaml:"categorias"`
	Indices    CatalogIndex      `json:"indices" yaml:"indices"`
	Products   []EnrichedProduct `json:"productos" yaml:"productos"`
}
