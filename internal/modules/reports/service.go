package reports

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/modules/analytics"
)

// RefdataSource is the slice of the reference store the report reads.
type RefdataSource interface {
	Products() []domain.Product
	Counts() (products, replacements, tariffs int)
}

// DecisionSource summarizes the decision log for the report.
type DecisionSource interface {
	ProcessingStats() (avgHours float64, totalSavings float64, err error)
	CountDecidedSince(status domain.Status, since time.Time) (int, error)
}

// Summary is the aggregate header of the report.
type Summary struct {
	TotalProducts     int     `json:"total_products"`
	TariffedProducts  int     `json:"tariffed_products"`
	TotalReplacements int     `json:"total_replacements"`
	TotalTariffs      int     `json:"total_tariffs"`
	TotalCostSavings  float64 `json:"total_cost_savings"`
	ApprovedAllTime   int     `json:"approved_all_time"`
	RejectedAllTime   int     `json:"rejected_all_time"`
}

// Snapshot is the full report payload.
type Snapshot struct {
	GeneratedAt      time.Time                     `json:"generated_at"`
	Summary          Summary                       `json:"summary"`
	TopCategories    []analytics.CategoryBreakdown `json:"top_categories"`
	TopCountries     []analytics.CountryExposure   `json:"top_countries"`
	MonthlyTrend     []analytics.TrendPoint        `json:"monthly_trend"`
	CriticalProducts []analytics.AffectedProduct   `json:"critical_products"`
}

// Top-list limits for the report payload.
const (
	topCategoryLimit = 5
	topCountryLimit  = 5
	criticalLimit    = 10
)

// Service assembles the report snapshot from analytics aggregations and
// the decision log.
type Service struct {
	analytics *analytics.Service
	refdata   RefdataSource
	decisions DecisionSource
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new reports service
func NewService(a *analytics.Service, refdata RefdataSource, decisions DecisionSource, log zerolog.Logger) *Service {
	return &Service{
		analytics: a,
		refdata:   refdata,
		decisions: decisions,
		log:       log.With().Str("service", "reports").Logger(),
		now:       time.Now,
	}
}

// Generate builds a report snapshot over the current data.
func (s *Service) Generate() (Snapshot, error) {
	products, replacements, tariffs := s.refdata.Counts()

	tariffed := 0
	for _, p := range s.refdata.Products() {
		if p.IsTariffed {
			tariffed++
		}
	}

	_, totalSavings, err := s.decisions.ProcessingStats()
	if err != nil {
		return Snapshot{}, err
	}
	approved, err := s.decisions.CountDecidedSince(domain.StatusApproved, time.Time{})
	if err != nil {
		return Snapshot{}, err
	}
	rejected, err := s.decisions.CountDecidedSince(domain.StatusRejected, time.Time{})
	if err != nil {
		return Snapshot{}, err
	}

	categories := s.analytics.CategoryBreakdowns()
	if len(categories) > topCategoryLimit {
		categories = categories[:topCategoryLimit]
	}
	countries := s.analytics.CountryExposures()
	if len(countries) > topCountryLimit {
		countries = countries[:topCountryLimit]
	}

	// Critical products: the most affected ranking narrowed to high
	// priority rows.
	var critical []analytics.AffectedProduct
	for _, p := range s.analytics.MostAffected(0) {
		if p.Priority != domain.PriorityHigh {
			continue
		}
		critical = append(critical, p)
		if len(critical) == criticalLimit {
			break
		}
	}

	return Snapshot{
		GeneratedAt: s.now(),
		Summary: Summary{
			TotalProducts:     products,
			TariffedProducts:  tariffed,
			TotalReplacements: replacements,
			TotalTariffs:      tariffs,
			TotalCostSavings:  totalSavings,
			ApprovedAllTime:   approved,
			RejectedAllTime:   rejected,
		},
		TopCategories:    categories,
		TopCountries:     countries,
		MonthlyTrend:     s.analytics.MonthlyTrend(),
		CriticalProducts: critical,
	}, nil
}
