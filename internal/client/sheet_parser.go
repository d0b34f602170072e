package client

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"catalog/sync/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// Column headers of the store exports
const (
	colCategoryID     = "id"
	colCategoryName   = "name"
	colCategorySlug   = "sename"
	colCategoryDesc   = "description"
	colCategoryParent = "parentcategoryid"
	colCategoryOrder  = "displayorder"
	colPublished      = "published"

	colSKU                 = "sku"
	colProductName         = "name"
	colShortDescription    = "shortdescription"
	colPrice               = "price"
	colStockQuantity       = "stockquantity"
	colManufacturers       = "manufacturers"
	colWeight              = "weight"
	colCategories          = "categories"
	colVisibleIndividually = "visibleindividually"

	colURLID    = "id"
	colURL      = "url"
	colImageURL = "imageurl"
)

// sheet is the first worksheet of a workbook with its header row indexed
type sheet struct {
	header map[string]int
	rows   [][]string
}

func readSheet(data []byte) (*sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", names[0], err)
	}
	if len(rows) == 0 {
		return &sheet{header: map[string]int{}}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := header[key]; !exists {
			header[key] = i
		}
	}

	return &sheet{header: header, rows: rows[1:]}, nil
}

// get returns the trimmed cell of a column, "" when the column or cell is absent
func (s *sheet) get(row []string, column string) string {
	i, ok := s.header[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseCategories decodes the category export. Rows without a numeric id
// are skipped.
func ParseCategories(data []byte) ([]domain.CategoryRow, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.CategoryRow, 0, len(s.rows))
	skipped := 0
	for _, row := range s.rows {
		if isBlank(row) {
			continue
		}

		id, ok := parseInt(s.get(row, colCategoryID))
		if !ok {
			skipped++
			continue
		}

		parentID, _ := parseInt(s.get(row, colCategoryParent))
		order, _ := parseInt(s.get(row, colCategoryOrder))

		categories = append(categories, domain.CategoryRow{
			ID:           id,
			Name:         s.get(row, colCategoryName),
			Slug:         s.get(row, colCategorySlug),
			Description:  s.get(row, colCategoryDesc),
			ParentID:     parentID,
			DisplayOrder: order,
			Published:    parseBool(s.get(row, colPublished)),
		})
	}

	if skipped > 0 {
		log.Warnf("⚠️ Skipped %d category rows without a numeric id", skipped)
	}
	log.Debugf("Parsed %d categories", len(categories))
	return categories, nil
}

// ParseProducts decodes the product export. Absent columns take their
// zero value.
func ParseProducts(data []byte) ([]domain.ProductRow, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	products := make([]domain.ProductRow, 0, len(s.rows))
	malformed := 0
	for _, row := range s.rows {
		if isBlank(row) {
			continue
		}

		stock, _ := parseInt(s.get(row, colStockQuantity))
		price, ok := parseFloat(s.get(row, colPrice))
		if !ok {
			malformed++
		}
		weight, ok := parseFloat(s.get(row, colWeight))
		if !ok {
			malformed++
		}

		products = append(products, domain.ProductRow{
			SKU:                  s.get(row, colSKU),
			Name:                 s.get(row, colProductName),
			ShortDescriptionHTML: s.get(row, colShortDescription),
			Price:                price,
			StockQuantity:        stock,
			Brand:                s.get(row, colManufacturers),
			WeightKg:             weight,
			CategoryMembership:   s.get(row, colCategories),
			Published:            parseBool(s.get(row, colPublished)),
			VisibleIndividually:  parseBool(s.get(row, colVisibleIndividually)),
		})
	}

	if malformed > 0 {
		log.Warnf("⚠️ %d price or weight cells could not be read as numbers and were set to 0", malformed)
	}
	log.Debugf("Parsed %d products", len(products))
	return products, nil
}

// ParseURLs decodes the URL enrichment export keyed by SKU
func ParseURLs(data []byte) ([]domain.URLRow, error) {
	s, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	urls := make([]domain.URLRow, 0, len(s.rows))
	for _, row := range s.rows {
		sku := s.get(row, colSKU)
		if sku == "" {
			continue
		}
		urls = append(urls, domain.URLRow{
			SKU:      sku,
			ID:       s.get(row, colURLID),
			URL:      s.get(row, colURL),
			ImageURL: s.get(row, colImageURL),
		})
	}

	log.Debugf("Parsed %d product URLs", len(urls))
	return urls, nil
}

// parseInt accepts integers and integral-looking floats ("3", "3.0")
func parseInt(v string) (int, bool) {
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// parseFloat reads plain and locale formatted numbers ("1234.5", "1,5",
// "1.234,56", "1,234.56"). An empty cell is 0 and ok, an unreadable one is
// 0 and not ok.
func parseFloat(v string) (float64, bool) {
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(normalizeDecimal(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizeDecimal keeps the last separator as the decimal point and drops
// the others as grouping
func normalizeDecimal(v string) string {
	v = strings.ReplaceAll(strings.TrimPrefix(v, "$"), " ", "")

	lastDot := strings.LastIndex(v, ".")
	lastComma := strings.LastIndex(v, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(v, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(v, ",", "")
	case lastComma >= 0:
		if strings.Count(v, ",") > 1 {
			return strings.ReplaceAll(v, ",", "")
		}
		return strings.Replace(v, ",", ".", 1)
	case strings.Count(v, ".") > 1:
		return strings.ReplaceAll(v, ".", "")
	default:
		return v
	}
}

// parseBool understands the spellings spreadsheet exports produce
func parseBool(v string) bool {
	switch strings.ToUpper(v) {
	case "TRUE", "1", "VERDADERO", "SI", "SÍ", "YES":
		return true
	default:
		return false
	}
}
