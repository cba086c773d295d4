package dashboard

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
)

type stubRegistry struct {
	recs []domain.Recommendation
}

func (s *stubRegistry) List(status domain.Status) []domain.Recommendation {
	if status == "" {
		return s.recs
	}
	var out []domain.Recommendation
	for _, rec := range s.recs {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

func (s *stubRegistry) Counts() (int, map[domain.Status]int) {
	byStatus := make(map[domain.Status]int)
	for _, rec := range s.recs {
		byStatus[rec.Status]++
	}
	return len(s.recs), byStatus
}

func newTestRepo(t *testing.T) *decisions.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, decisions.InitSchema(db))

	return decisions.NewRepository(db, zerolog.Nop())
}

func decidedRecord(uuid string, status domain.Status, decidedAt time.Time, savings float64) domain.DecisionRecord {
	return domain.DecisionRecord{
		UUID:             uuid,
		RecommendationID: "rec-" + uuid,
		Status:           status,
		CreatedAt:        decidedAt.Add(-time.Hour),
		DecidedAt:        decidedAt,
		Original:         domain.DecisionMember{ProductID: "P1", Price: 100},
		Alternatives: []domain.DecisionMember{
			{ProductID: "R1", Price: 90, AllocationPercentage: 100, CostSavings: savings},
		},
	}
}

func TestMetrics(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.Append(decidedRecord("u1", domain.StatusApproved, now, 40)))
	require.NoError(t, repo.Append(decidedRecord("u2", domain.StatusRejected, now, 0)))
	require.NoError(t, repo.Append(decidedRecord("u3", domain.StatusApproved, now.Add(-48*time.Hour), 10)))

	registry := &stubRegistry{recs: []domain.Recommendation{
		{
			ID:     "rec-a",
			Status: domain.StatusPending,
			Alternatives: []*domain.Alternative{
				{DiversificationScore: 80},
				{DiversificationScore: 100},
			},
		},
		{ID: "rec-b", Status: domain.StatusMoreOptionsRequested},
		{ID: "rec-c", Status: domain.StatusApproved},
	}}

	svc := NewService(registry, repo, zerolog.Nop())
	metrics, err := svc.Metrics()
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.TotalRecommendations)
	assert.Equal(t, 2, metrics.PendingApprovals)
	assert.Equal(t, 1, metrics.ApprovedToday)
	assert.Equal(t, 1, metrics.RejectedToday)
	assert.InDelta(t, 50.0, metrics.TotalCostSavings, 1e-6) // 40 + 10 at 100%
	assert.InDelta(t, 90.0, metrics.SupplierDiversification, 1e-6)
	assert.InDelta(t, 1.0, metrics.AvgProcessingHours, 0.01)
}

func TestMetricsEmptyState(t *testing.T) {
	svc := NewService(&stubRegistry{}, newTestRepo(t), zerolog.Nop())

	metrics, err := svc.Metrics()
	require.NoError(t, err)
	assert.Zero(t, metrics.TotalRecommendations)
	assert.Zero(t, metrics.PendingApprovals)
	assert.Zero(t, metrics.TotalCostSavings)
	assert.Zero(t, metrics.SupplierDiversification)
}
