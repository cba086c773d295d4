package dashboard

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
	"github.com/mpapanik/tariff-scout/pkg/formulas"
)

// RecommendationSource is the slice of the recommendation registry the
// dashboard reads.
type RecommendationSource interface {
	List(status domain.Status) []domain.Recommendation
	Counts() (total int, byStatus map[domain.Status]int)
}

// Service assembles the dashboard overview from the live registry and the
// decision log.
type Service struct {
	recs RecommendationSource
	repo *decisions.Repository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService creates a new dashboard service
func NewService(recs RecommendationSource, repo *decisions.Repository, log zerolog.Logger) *Service {
	return &Service{
		recs: recs,
		repo: repo,
		log:  log.With().Str("service", "dashboard").Logger(),
		now:  time.Now,
	}
}

// Metrics computes the dashboard summary block. "Today" is since local
// midnight.
func (s *Service) Metrics() (domain.DashboardMetrics, error) {
	total, byStatus := s.recs.Counts()

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	approvedToday, err := s.repo.CountDecidedSince(domain.StatusApproved, midnight)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	rejectedToday, err := s.repo.CountDecidedSince(domain.StatusRejected, midnight)
	if err != nil {
		return domain.DashboardMetrics{}, err
	}

	avgHours, totalSavings, err := s.repo.ProcessingStats()
	if err != nil {
		return domain.DashboardMetrics{}, err
	}

	return domain.DashboardMetrics{
		TotalRecommendations:    total,
		PendingApprovals:        byStatus[domain.StatusPending] + byStatus[domain.StatusMoreOptionsRequested],
		ApprovedToday:           approvedToday,
		RejectedToday:           rejectedToday,
		TotalCostSavings:        totalSavings,
		SupplierDiversification: s.averageDiversification(),
		AvgProcessingHours:      avgHours,
	}, nil
}

// averageDiversification is the mean diversification score over every
// alternative currently in the registry.
func (s *Service) averageDiversification() float64 {
	var scores []float64
	for _, rec := range s.recs.List("") {
		for _, alt := range rec.Alternatives {
			scores = append(scores, float64(alt.DiversificationScore))
		}
	}
	return formulas.Mean(scores)
}
