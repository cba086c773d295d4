package analytics

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/modules/metrics"
	"github.com/mpapanik/tariff-scout/pkg/formulas"
)

// RefdataSource is the slice of the reference store analytics reads.
type RefdataSource interface {
	Products() []domain.Product
	Tariffs() []domain.TariffEntry
}

// CategoryBreakdown aggregates tariff exposure per product category.
type CategoryBreakdown struct {
	Category        string  `json:"category"`
	ProductCount    int     `json:"product_count"`
	TariffedCount   int     `json:"tariffed_count"`
	AvgTariffImpact float64 `json:"avg_tariff_impact"`
	AvgPctIncrease  float64 `json:"avg_pct_increase"`
}

// CountryExposure aggregates tariffed sourcing per supplier country.
type CountryExposure struct {
	Country       string  `json:"country"`
	ProductCount  int     `json:"product_count"`
	TariffedCount int     `json:"tariffed_count"`
	Share         float64 `json:"share"`
}

// AffectedProduct is one row of the most-affected ranking.
type AffectedProduct struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	BasePrice      float64         `json:"base_price"`
	PredictedPrice float64         `json:"predicted_price"`
	TariffImpact   float64         `json:"tariff_impact"`
	PctIncrease    float64         `json:"pct_increase"`
	StockLevel     int             `json:"stock_level"`
	Priority       domain.Priority `json:"priority"`
}

// StockBands groups tariffed products by how soon current stock runs out.
type StockBands struct {
	Critical int `json:"critical"` // below 1000 units
	Low      int `json:"low"`      // below 3000 units
	Healthy  int `json:"healthy"`
}

// TrendPoint is one month of tariff activity, derived from effective dates.
type TrendPoint struct {
	Month      string  `json:"month"` // YYYY-MM
	NewTariffs int     `json:"new_tariffs"`
	AvgRate    float64 `json:"avg_rate"`
}

// ImpactStats summarizes the tariff impact distribution.
type ImpactStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Total  float64 `json:"total"`
	Max    float64 `json:"max"`
}

// Service computes read-only aggregations over the reference data.
type Service struct {
	refdata RefdataSource
	log     zerolog.Logger
}

// NewService creates a new analytics service
func NewService(refdata RefdataSource, log zerolog.Logger) *Service {
	return &Service{
		refdata: refdata,
		log:     log.With().Str("service", "analytics").Logger(),
	}
}

// CategoryBreakdowns aggregates per category, sorted by tariffed count
// descending then name for a stable order.
func (s *Service) CategoryBreakdowns() []CategoryBreakdown {
	type acc struct {
		products int
		tariffed int
		impacts  []float64
		pcts     []float64
	}
	byCategory := make(map[string]*acc)

	for _, p := range s.refdata.Products() {
		a := byCategory[p.Category]
		if a == nil {
			a = &acc{}
			byCategory[p.Category] = a
		}
		a.products++
		if p.IsTariffed {
			a.tariffed++
			a.impacts = append(a.impacts, metrics.TariffImpact(p))
			a.pcts = append(a.pcts, metrics.PercentIncrease(p))
		}
	}

	out := make([]CategoryBreakdown, 0, len(byCategory))
	for category, a := range byCategory {
		out = append(out, CategoryBreakdown{
			Category:        category,
			ProductCount:    a.products,
			TariffedCount:   a.tariffed,
			AvgTariffImpact: formulas.Mean(a.impacts),
			AvgPctIncrease:  formulas.Mean(a.pcts),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TariffedCount != out[j].TariffedCount {
			return out[i].TariffedCount > out[j].TariffedCount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CountryExposures aggregates per supplier country. Share is the
// country's fraction of all tariffed products.
func (s *Service) CountryExposures() []CountryExposure {
	type acc struct {
		products int
		tariffed int
	}
	byCountry := make(map[string]*acc)
	totalTariffed := 0

	for _, p := range s.refdata.Products() {
		a := byCountry[p.SupplierCountry]
		if a == nil {
			a = &acc{}
			byCountry[p.SupplierCountry] = a
		}
		a.products++
		if p.IsTariffed {
			a.tariffed++
			totalTariffed++
		}
	}

	out := make([]CountryExposure, 0, len(byCountry))
	for country, a := range byCountry {
		share := 0.0
		if totalTariffed > 0 {
			share = float64(a.tariffed) / float64(totalTariffed)
		}
		out = append(out, CountryExposure{
			Country:       country,
			ProductCount:  a.products,
			TariffedCount: a.tariffed,
			Share:         share,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TariffedCount != out[j].TariffedCount {
			return out[i].TariffedCount > out[j].TariffedCount
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// MostAffected ranks tariffed products by absolute tariff impact, highest
// first, limited to n rows. n <= 0 returns the full ranking.
func (s *Service) MostAffected(n int) []AffectedProduct {
	var out []AffectedProduct
	for _, p := range s.refdata.Products() {
		if !p.IsTariffed {
			continue
		}
		out = append(out, AffectedProduct{
			ProductID:      p.ProductID,
			Name:           p.Name,
			Category:       p.Category,
			BasePrice:      p.BasePrice,
			PredictedPrice: metrics.PredictedPrice(p),
			TariffImpact:   metrics.TariffImpact(p),
			PctIncrease:    metrics.PercentIncrease(p),
			StockLevel:     p.StockLevel,
			Priority:       metrics.PriorityFor(p),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TariffImpact != out[j].TariffImpact {
			return out[i].TariffImpact > out[j].TariffImpact
		}
		return out[i].ProductID < out[j].ProductID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// StockImpact bands tariffed products by stock runway, using the same
// thresholds as priority classification.
func (s *Service) StockImpact() StockBands {
	var bands StockBands
	for _, p := range s.refdata.Products() {
		if !p.IsTariffed {
			continue
		}
		switch {
		case p.StockLevel < 1000:
			bands.Critical++
		case p.StockLevel < 3000:
			bands.Low++
		default:
			bands.Healthy++
		}
	}
	return bands
}

// MonthlyTrend buckets tariff entries by effective month. Entries whose
// effective date fails to parse are skipped.
func (s *Service) MonthlyTrend() []TrendPoint {
	type acc struct {
		count int
		rates []float64
	}
	byMonth := make(map[string]*acc)

	for _, t := range s.refdata.Tariffs() {
		parsed, err := time.Parse("2006-01-02", t.EffectiveDate)
		if err != nil {
			s.log.Debug().Str("effective_date", t.EffectiveDate).Msg("Skipping unparseable effective date")
			continue
		}
		month := parsed.Format("2006-01")
		a := byMonth[month]
		if a == nil {
			a = &acc{}
			byMonth[month] = a
		}
		a.count++
		a.rates = append(a.rates, t.TariffRate)
	}

	out := make([]TrendPoint, 0, len(byMonth))
	for month, a := range byMonth {
		out = append(out, TrendPoint{
			Month:      month,
			NewTariffs: a.count,
			AvgRate:    formulas.Mean(a.rates),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// ImpactDistribution summarizes the tariff impact across all tariffed
// products.
func (s *Service) ImpactDistribution() ImpactStats {
	var impacts []float64
	maxImpact := 0.0
	for _, p := range s.refdata.Products() {
		if !p.IsTariffed {
			continue
		}
		impact := metrics.TariffImpact(p)
		impacts = append(impacts, impact)
		if impact > maxImpact {
			maxImpact = impact
		}
	}

	return ImpactStats{
		Count:  len(impacts),
		Mean:   formulas.Mean(impacts),
		StdDev: formulas.StdDev(impacts),
		Total:  formulas.Sum(impacts),
		Max:    maxImpact,
	}
}
