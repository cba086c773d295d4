package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Loader reads the product, replacement and tariff reference feeds.
// Rows that fail field conversion or validation are dropped, never
// propagated; a missing or unreadable file yields an empty collection
// alongside the error so callers degrade to "no data".
type Loader struct {
	validate *validator.Validate
	log      zerolog.Logger
}

// NewLoader creates a new reference data loader
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{
		validate: validator.New(),
		log:      log.With().Str("component", "refdata_loader").Logger(),
	}
}

// LoadProducts loads the product feed from a CSV file.
func (l *Loader) LoadProducts(path string) ([]domain.Product, error) {
	rows, header, err := l.readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	var products []domain.Product
	for i, row := range rows {
		p, err := parseProduct(row, header)
		if err == nil {
			err = l.validate.Struct(&p)
		}
		if err != nil {
			l.log.Warn().Err(err).Int("row", i+2).Str("file", path).Msg("Dropping malformed product row")
			continue
		}
		products = append(products, p)
	}

	l.log.Info().Int("count", len(products)).Str("file", path).Msg("Loaded products")
	return products, nil
}

// LoadReplacements loads the replacement feed from a CSV file.
func (l *Loader) LoadReplacements(path string) ([]domain.Replacement, error) {
	rows, header, err := l.readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load replacements: %w", err)
	}

	var replacements []domain.Replacement
	for i, row := range rows {
		r, err := parseReplacement(row, header)
		if err == nil {
			err = l.validate.Struct(&r)
		}
		if err != nil {
			l.log.Warn().Err(err).Int("row", i+2).Str("file", path).Msg("Dropping malformed replacement row")
			continue
		}
		replacements = append(replacements, r)
	}

	l.log.Info().Int("count", len(replacements)).Str("file", path).Msg("Loaded replacements")
	return replacements, nil
}

// LoadTariffs loads the tariff feed from a CSV file.
func (l *Loader) LoadTariffs(path string) ([]domain.TariffEntry, error) {
	rows, header, err := l.readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tariffs: %w", err)
	}

	var tariffs []domain.TariffEntry
	for i, row := range rows {
		entry, err := parseTariff(row, header)
		if err == nil {
			err = l.validate.Struct(&entry)
		}
		if err != nil {
			l.log.Warn().Err(err).Int("row", i+2).Str("file", path).Msg("Dropping malformed tariff row")
			continue
		}
		tariffs = append(tariffs, entry)
	}

	l.log.Info().Int("count", len(tariffs)).Str("file", path).Msg("Loaded tariffs")
	return tariffs, nil
}

// readCSV reads all records and returns data rows plus a header index.
func (l *Loader) readCSV(path string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows handled per-field

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, nil, io.ErrUnexpectedEOF
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	return records[1:], header, nil
}

// field returns the trimmed cell for a named column, or "" when the column
// is missing or the row is short.
func field(row []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseFloat(row []string, header map[string]int, name string) (float64, error) {
	raw := field(row, header, name)
	if raw == "" {
		return 0, fmt.Errorf("column %s is empty", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

func parseOptionalFloat(row []string, header map[string]int, name string) (*float64, error) {
	raw := field(row, header, name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", name, err)
	}
	return &v, nil
}

func parseInt(row []string, header map[string]int, name string) (int, error) {
	raw := field(row, header, name)
	if raw == "" {
		return 0, fmt.Errorf("column %s is empty", name)
	}
	// Some feeds emit stock levels as floats.
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return int(v), nil
}

func parseBool(row []string, header map[string]int, name string) (bool, error) {
	switch field(row, header, name) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("column %s is not a boolean", name)
	}
}

func parseProduct(row []string, header map[string]int) (domain.Product, error) {
	var p domain.Product
	var err error

	p.ProductID = field(row, header, "product_id")
	p.Name = field(row, header, "name")
	p.Brand = field(row, header, "brand")
	p.Category = field(row, header, "category")
	p.SubCategory = field(row, header, "sub_category")
	p.SupplierCountry = field(row, header, "supplier_country")
	p.HSCode = field(row, header, "hs_code")
	p.TariffStartDate = field(row, header, "tariff_start_date")
	p.TariffEndDate = field(row, header, "tariff_end_date")

	if p.BasePrice, err = parseFloat(row, header, "base_price"); err != nil {
		return p, err
	}
	if p.IsTariffed, err = parseBool(row, header, "is_tariffed"); err != nil {
		return p, err
	}
	if p.StockLevel, err = parseInt(row, header, "stock_level"); err != nil {
		return p, err
	}
	if p.Rating, err = parseFloat(row, header, "rating"); err != nil {
		return p, err
	}
	if p.TariffRate, err = parseOptionalFloat(row, header, "tariff_rate"); err != nil {
		return p, err
	}
	if p.DeltaCat, err = parseOptionalFloat(row, header, "delta_cat"); err != nil {
		return p, err
	}
	if p.PredPriceAfter, err = parseOptionalFloat(row, header, "pred_price_after"); err != nil {
		return p, err
	}

	return p, nil
}

func parseReplacement(row []string, header map[string]int) (domain.Replacement, error) {
	var r domain.Replacement
	var err error

	r.OriginalProductID = field(row, header, "original_product_id")
	r.ReplacementID = field(row, header, "replacement_id")
	r.Name = field(row, header, "name")
	r.Brand = field(row, header, "brand")
	r.Category = field(row, header, "category")
	r.ReasonCode = field(row, header, "reason_code")

	if r.StockLevel, err = parseInt(row, header, "stock_level"); err != nil {
		return r, err
	}
	if r.Price, err = parseFloat(row, header, "price"); err != nil {
		return r, err
	}
	if r.BrandPopularity, err = parseFloat(row, header, "brand_popularity"); err != nil {
		return r, err
	}

	return r, nil
}

func parseTariff(row []string, header map[string]int) (domain.TariffEntry, error) {
	var t domain.TariffEntry
	var err error

	t.Category = field(row, header, "category")
	t.HSCode = field(row, header, "hs_code")
	t.Country = field(row, header, "supplier_country")
	t.EffectiveDate = field(row, header, "effective_date")
	t.ProductID = field(row, header, "product_id")

	if t.TariffRate, err = parseFloat(row, header, "tariff_rate"); err != nil {
		return t, err
	}

	return t, nil
}
