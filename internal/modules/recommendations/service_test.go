package recommendations

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/events"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
)

type fakeRecommender struct {
	replacement  domain.Replacement
	err          error
	lastOriginal string
	lastRejected string
}

func (f *fakeRecommender) FetchAlternative(_ context.Context, originalID, rejectedID string) (domain.Replacement, error) {
	f.lastOriginal = originalID
	f.lastRejected = rejectedID
	if f.err != nil {
		return domain.Replacement{}, f.err
	}
	return f.replacement, nil
}

func newTestService(t *testing.T) (*Service, *decisions.Repository, *fakeRecommender) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, decisions.InitSchema(db))

	log := zerolog.Nop()
	repo := decisions.NewRepository(db, log)
	recommender := &fakeRecommender{}
	svc := NewService(repo, recommender, events.NewManager(log), log)
	return svc, repo, recommender
}

func seedService(t *testing.T, svc *Service, altCount int) string {
	t.Helper()

	products := []domain.Product{testProduct("P1", true)}
	var replacements []domain.Replacement
	for i := 0; i < altCount; i++ {
		replacements = append(replacements, testReplacement("P1", string(rune('A'+i))))
	}
	require.Equal(t, 1, svc.Rebuild(products, replacements))
	return "rec-P1"
}

func TestRebuildIsAddOnly(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedService(t, svc, 1)

	// Mutate, then rebuild with the same feed. The edit must survive.
	_, err := svc.SetAllocation(id, "A", 70)
	require.NoError(t, err)

	added := svc.Rebuild(
		[]domain.Product{testProduct("P1", true), testProduct("P2", true)},
		[]domain.Replacement{testReplacement("P1", "A"), testReplacement("P2", "X")},
	)
	assert.Equal(t, 1, added)

	rec, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 70, rec.Alternatives[0].AllocationPercentage)

	total, _ := svc.Counts()
	assert.Equal(t, 2, total)
}

func TestRebuildSkipsDecidedProducts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := seedService(t, svc, 1)

	_, err := svc.Approve(id, nil)
	require.NoError(t, err)

	// Fresh service over the same decision log: the decided product must
	// not come back as pending.
	svc2 := NewService(repo, &fakeRecommender{}, events.NewManager(zerolog.Nop()), zerolog.Nop())
	added := svc2.Rebuild(
		[]domain.Product{testProduct("P1", true)},
		[]domain.Replacement{testReplacement("P1", "A")},
	)
	assert.Equal(t, 0, added)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedService(t, svc, 1)

	assert.Len(t, svc.List(""), 1)
	assert.Len(t, svc.List(domain.StatusPending), 1)
	assert.Empty(t, svc.List(domain.StatusApproved))
}

func TestListReturnsCopies(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedService(t, svc, 1)

	recs := svc.List("")
	recs[0].Alternatives[0].AllocationPercentage = 99

	rec, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 50, rec.Alternatives[0].AllocationPercentage)
}

func TestApproveRequiresSelectionAndFullTotal(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedService(t, svc, 2) // 33/33, original 34

	// Deselect everything.
	_, err := svc.Approve(id, []string{})
	assert.ErrorIs(t, err, ErrNoSelection)

	// Unknown alternative in the selection list.
	_, err = svc.Approve(id, []string{"A", "nope"})
	assert.ErrorIs(t, err, ErrUnknownAlternative)

	// Over-allocated selections cannot be approved: 60+70 overshoots even
	// with the original floored at 0.
	_, err = svc.SetAllocation(id, "A", 60)
	require.NoError(t, err)
	_, err = svc.SetAllocation(id, "B", 70)
	require.NoError(t, err)
	_, err = svc.Approve(id, []string{"A", "B"})
	assert.ErrorIs(t, err, ErrTotalNot100)

	// Refused approvals leave the recommendation untouched.
	rec, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, 60, rec.Alternatives[0].AllocationPercentage)
	assert.Equal(t, 70, rec.Alternatives[1].AllocationPercentage)
	for _, alt := range rec.Alternatives {
		assert.True(t, alt.Selected)
	}

	_, err = svc.SetAllocation(id, "A", 33)
	require.NoError(t, err)
	_, err = svc.SetAllocation(id, "B", 33)
	require.NoError(t, err)

	// Selecting only A leaves 33 + 67 = 100, approvable.
	_, err = svc.Approve(id, []string{"A"})
	require.NoError(t, err)

	rec, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, rec.Status)
	require.NotNil(t, rec.ApprovedAt)
}

func TestApprovePersistsDecisionRecord(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := seedService(t, svc, 1)

	record, err := svc.Approve(id, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, record.UUID)
	assert.Equal(t, id, record.RecommendationID)
	assert.Equal(t, 50, record.Original.AllocationPercentage)
	require.Len(t, record.Alternatives, 1)
	assert.Equal(t, 50, record.Alternatives[0].AllocationPercentage)

	stored, err := repo.ListByStatus(domain.StatusApproved)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, record.UUID, stored[0].UUID)
	assert.Equal(t, "P1", stored[0].Original.ProductID)
	assert.Equal(t, "A", stored[0].Alternatives[0].ProductID)
}

func TestApproveIsFinal(t *testing.T) {
	svc, _, _ := newTestService(t)
	id := seedService(t, svc, 1)

	_, err := svc.Approve(id, nil)
	require.NoError(t, err)

	_, err = svc.Approve(id, nil)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	_, err = svc.Reject(id, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	_, err = svc.SetAllocation(id, "A", 10)
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRejectZeroesAllocationsAndRecordsAllMembers(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := seedService(t, svc, 2)

	record, err := svc.Reject(id, "")
	require.NoError(t, err)
	assert.Equal(t, "Manual rejection by user", record.RejectionReason)
	assert.Equal(t, 0, record.Original.AllocationPercentage)
	require.Len(t, record.Alternatives, 2)
	for _, m := range record.Alternatives {
		assert.Equal(t, 0, m.AllocationPercentage)
	}

	rec, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rec.Status)
	assert.Equal(t, 0, rec.OriginalAllocation)
	for _, alt := range rec.Alternatives {
		assert.Equal(t, 0, alt.AllocationPercentage)
	}

	stored, err := repo.ListByStatus(domain.StatusRejected)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Manual rejection by user", stored[0].RejectionReason)
}

func TestRequestMoreOptionsMergesAtZero(t *testing.T) {
	svc, _, recommender := newTestService(t)
	id := seedService(t, svc, 1)
	recommender.replacement = testReplacement("P1", "NEW")

	alt, err := svc.RequestMoreOptions(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "NEW", alt.ReplacementID)
	assert.Equal(t, 0, alt.AllocationPercentage)
	assert.True(t, alt.Selected)

	assert.Equal(t, "P1", recommender.lastOriginal)
	assert.Equal(t, "A", recommender.lastRejected)

	rec, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMoreOptionsRequested, rec.Status)
	require.Len(t, rec.Alternatives, 2)
	// Existing allocations untouched; the original's share is unchanged.
	assert.Equal(t, 50, rec.Alternatives[0].AllocationPercentage)
	assert.Equal(t, 50, rec.OriginalAllocation)
}

func TestRequestMoreOptionsFetchFailure(t *testing.T) {
	svc, _, recommender := newTestService(t)
	id := seedService(t, svc, 1)
	recommender.err = errors.New("connection refused")

	_, err := svc.RequestMoreOptions(context.Background(), id)
	require.Error(t, err)

	// The explicit request still changed the status; nothing was merged.
	rec, getErr := svc.Get(id)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusMoreOptionsRequested, rec.Status)
	assert.Len(t, rec.Alternatives, 1)
}

func TestBulkApproveReportsPerIDOutcomes(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Rebuild(
		[]domain.Product{testProduct("P1", true), testProduct("P2", true)},
		[]domain.Replacement{testReplacement("P1", "A"), testReplacement("P2", "B")},
	)

	// Break P2's total so its approval fails.
	_, err := svc.SetAllocation("rec-P2", "B", 10)
	require.NoError(t, err)

	results := svc.BulkApprove([]string{"rec-P1", "rec-P2", "rec-missing"})
	require.Len(t, results, 3)

	assert.True(t, results[0].Approved)
	assert.False(t, results[1].Approved)
	assert.Contains(t, results[1].Error, "100")
	assert.False(t, results[2].Approved)
}
