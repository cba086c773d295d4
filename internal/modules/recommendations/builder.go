package recommendations

import (
	"time"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/modules/metrics"
)

// Build produces one pending recommendation per tariffed product that has
// at least one linked replacement. Non-tariffed products and tariffed
// products without replacements yield nothing. Alternative order follows
// the replacement feed; display sorting is a presentation concern.
func Build(products []domain.Product, replacements []domain.Replacement, now time.Time) []*domain.Recommendation {
	byOriginal := make(map[string][]domain.Replacement)
	for _, r := range replacements {
		byOriginal[r.OriginalProductID] = append(byOriginal[r.OriginalProductID], r)
	}

	var recs []*domain.Recommendation
	for _, p := range products {
		if !p.IsTariffed {
			continue
		}

		linked := byOriginal[p.ProductID]
		if len(linked) == 0 {
			continue
		}

		alternatives := make([]*domain.Alternative, 0, len(linked))
		for _, r := range linked {
			alternatives = append(alternatives, &domain.Alternative{
				Replacement:          r,
				DiversificationScore: metrics.DiversificationScore(p, r),
				CostSavings:          metrics.CostSavings(p, r.Price),
				QualityRating:        metrics.QualityRating(r.BrandPopularity),
				Selected:             true,
			})
		}

		// Equal split with the remainder assigned to the original, so the
		// sum is exactly 100 for any member count.
		n := 1 + len(alternatives)
		share := 100 / n
		remainder := 100 - share*n

		for _, alt := range alternatives {
			alt.AllocationPercentage = share
		}

		recs = append(recs, &domain.Recommendation{
			ID:                 "rec-" + p.ProductID,
			Original:           p,
			OriginalAllocation: share + remainder,
			TariffImpact:       metrics.TariffImpact(p),
			PredictedPrice:     metrics.PredictedPrice(p),
			Alternatives:       alternatives,
			Status:             domain.StatusPending,
			Category:           p.Category,
			Priority:           metrics.PriorityFor(p),
			CreatedAt:          now,
		})
	}

	return recs
}
