package domain

// Placeholder category used when no membership resolves
const (
	GeneralCategoryName = "General"
	GeneralCategorySlug = "general"
)

// ProductRow is a single product record as exported from the store,
// already joined with the URL dataset by SKU
type ProductRow struct {
	SKU                  string
	Name                 string
	ShortDescriptionHTML string
	Price                float64
	StockQuantity        int
	Brand                string
	WeightKg             float64
	CategoryMembership   string // "id|order;id|order"
	Published            bool
	VisibleIndividually  bool

	ExternalID string
	URL        string
	ImageURL   string
}

// URLRow carries the storefront URL and image of a product keyed by SKU
type URLRow struct {
	SKU      string
	ID       string
	URL      string
	ImageURL string
}

// EnrichedProduct is a published product with resolved categories and keywords
type EnrichedProduct struct {
	ID                  string         `json:"id" yaml:"id"`
	SKU                 string         `json:"sku" yaml:"sku"`
	Name                string         `json:"nombre" yaml:"nombre"`
	ShortDescription    string         `json:"descripcion_corta" yaml:"descripcion_corta"`
	Price               float64        `json:"precio" yaml:"precio"`
	Stock               int            `json:"stock" yaml:"stock"`
	Brand               string         `json:"marca" yaml:"marca"`
	WeightKg            float64        `json:"peso_kg" yaml:"peso_kg"`
	CategoryMembership  string         `json:"categorias" yaml:"categorias"`
	URL                 string         `json:"url" yaml:"url"`
	ImageURL            string         `json:"imageUrl" yaml:"imageUrl"`
	Active              bool           `json:"activo" yaml:"activo"`
	Visible             bool           `json:"visible" yaml:"visible"`
	Keywords            []string       `json:"keywords" yaml:"keywords"`
	PrimaryCategoryName string         `json:"categoria_principal" yaml:"categoria_principal"`
	PrimaryCategorySlug string         `json:"categoria_principal_slug" yaml:"categoria_principal_slug"`
	AllCategoryPaths    []CategoryPath `json:"categorias_completas" yaml:"categorias_completas"`
	CategoryPathString  string         `json:"ruta_categoria" yaml:"ruta_categoria"`
	ResolvedCategoryURL string         `json:"url_categoria" yaml:"url_categoria"`

	// PrimaryCategory is nil when no membership resolved
	PrimaryCategory *CategoryPath `json:"-" yaml:"-"`
}

// PublicProduct is the flat record consumed by the storefront assistant
type PublicProduct struct {
	ID               string  `json:"id"`
	Active           bool    `json:"activo"`
	SKU              string  `json:"sku"`
	Name             string  `json:"nombre"`
	Brand            string  `json:"marca"`
	Category         string  `json:"categoria"`
	CategoryRoot     string  `json:"categoria_root"`
	CategoryURL      string  `json:"url_categoria"`
	Price            float64 `json:"precio"`
	InStock          bool    `json:"stock"`
	URL              string  `json:"url"`
	ImageURL         string  `json:"imageUrl"`
	ShortDescription string  `json:"descripcion_corta"`
	WeightKg         float64 `json:"peso_kg"`
	Keywords         string  `json:"keywords"`
}
