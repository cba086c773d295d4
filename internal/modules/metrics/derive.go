package metrics

import (
	"math"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// DefaultDeltaCat is the category delta adjustment applied to tariffed
// products whose feed row does not carry an explicit delta_cat.
const DefaultDeltaCat = 0.05

// AlternativeSupplierCountry is where replacement candidates are sourced
// from. The replacement feed carries no country column; all candidates are
// domestic.
const AlternativeSupplierCountry = "US"

// Diversification score components.
const (
	diversificationBase       = 60
	diversificationCountryPts = 20
	diversificationBrandPts   = 10
	diversificationTariffPts  = 10
	diversificationMax        = 100
)

// Priority thresholds. Impact is in absolute currency units.
const (
	highImpactThreshold   = 50.0
	mediumImpactThreshold = 20.0
	highStockThreshold    = 1000
	mediumStockThreshold  = 3000
)

// PredictedPrice returns the post-tariff price of a product. Non-tariffed
// products keep their base price.
func PredictedPrice(p domain.Product) float64 {
	if !p.IsTariffed || p.TariffRate == nil {
		return p.BasePrice
	}

	delta := DefaultDeltaCat
	if p.DeltaCat != nil {
		delta = *p.DeltaCat
	}

	return p.BasePrice * (1 + *p.TariffRate/100) * (1 + delta)
}

// TariffImpact returns the absolute cost increase caused by the tariff.
func TariffImpact(p domain.Product) float64 {
	if !p.IsTariffed {
		return 0
	}
	return PredictedPrice(p) - p.BasePrice
}

// PercentIncrease returns the tariff impact as a percentage of base price.
func PercentIncrease(p domain.Product) float64 {
	if p.BasePrice == 0 {
		return 0
	}
	return TariffImpact(p) / p.BasePrice * 100
}

// CostSavings returns how much cheaper an alternative is than the
// original's predicted post-tariff price. Never negative.
func CostSavings(original domain.Product, alternativePrice float64) float64 {
	return math.Max(0, PredictedPrice(original)-alternativePrice)
}

// DiversificationScore scores how much an alternative reduces
// single-source dependency. Deterministic, bounded to [60, 100].
func DiversificationScore(original domain.Product, alt domain.Replacement) int {
	score := diversificationBase

	if original.SupplierCountry != AlternativeSupplierCountry {
		score += diversificationCountryPts
	}
	if original.Brand != alt.Brand {
		score += diversificationBrandPts
	}

	// Alternatives are tariff-free by definition.
	score += diversificationTariffPts

	if score > diversificationMax {
		score = diversificationMax
	}
	return score
}

// QualityRating converts a 0-10 brand popularity to the 0-5 rating scale.
func QualityRating(brandPopularity float64) float64 {
	return brandPopularity / 2
}

// PriorityFor classifies a tariffed product. Impact is checked before
// stock level at each tier.
func PriorityFor(p domain.Product) domain.Priority {
	impact := TariffImpact(p)

	if impact > highImpactThreshold || p.StockLevel < highStockThreshold {
		return domain.PriorityHigh
	}
	if impact > mediumImpactThreshold || p.StockLevel < mediumStockThreshold {
		return domain.PriorityMedium
	}
	return domain.PriorityLow
}
