package recommendations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
	"github.com/mpapanik/tariff-scout/internal/events"
	"github.com/mpapanik/tariff-scout/internal/modules/decisions"
	"github.com/mpapanik/tariff-scout/internal/modules/metrics"
	"github.com/mpapanik/tariff-scout/internal/telemetry"
)

// RecommenderClient fetches one replacement candidate from the external
// recommender service.
type RecommenderClient interface {
	FetchAlternative(ctx context.Context, originalID, rejectedID string) (domain.Replacement, error)
}

// Service owns the in-memory recommendation registry. Each recommendation's
// allocation state is mutated only through the service, which serializes
// access; terminal transitions are persisted to the decision log before the
// in-memory state flips, so a failed append leaves the recommendation
// editable.
type Service struct {
	mu          sync.RWMutex
	recs        map[string]*domain.Recommendation
	order       []string
	repo        *decisions.Repository
	recommender RecommenderClient
	events      *events.Manager
	log         zerolog.Logger
}

// NewService creates a new recommendation service
func NewService(repo *decisions.Repository, recommender RecommenderClient, em *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		recs:        make(map[string]*domain.Recommendation),
		repo:        repo,
		recommender: recommender,
		events:      em,
		log:         log.With().Str("service", "recommendations").Logger(),
	}
}

// Rebuild derives recommendations from the current reference data and adds
// the ones the registry does not know yet. Existing entries are never
// clobbered and products with a persisted decision are skipped. Returns
// the number of recommendations added.
func (s *Service) Rebuild(products []domain.Product, replacements []domain.Replacement) int {
	built := Build(products, replacements, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, rec := range built {
		if _, exists := s.recs[rec.ID]; exists {
			continue
		}

		if s.repo != nil {
			decided, err := s.repo.HasDecision(rec.ID)
			if err != nil {
				s.log.Warn().Err(err).Str("id", rec.ID).Msg("Failed to check decision log")
			} else if decided {
				continue
			}
		}

		s.recs[rec.ID] = rec
		s.order = append(s.order, rec.ID)
		added++
	}

	if added > 0 {
		telemetry.RecommendationsBuilt.Add(float64(added))
		s.events.Emit(events.RecommendationsBuilt, "recommendations", map[string]interface{}{
			"added": added,
			"total": len(s.recs),
		})
	}

	return added
}

// List returns recommendations in build order, optionally filtered by
// status. Results are deep copies safe to marshal without holding the
// registry lock.
func (s *Service) List(status domain.Status) []domain.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Recommendation
	for _, id := range s.order {
		rec := s.recs[id]
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, cloneRecommendation(rec))
	}
	return out
}

// Get returns one recommendation by id.
func (s *Service) Get(id string) (domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return domain.Recommendation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneRecommendation(rec), nil
}

// ToggleSelection flips an alternative's membership in the selected set.
func (s *Service) ToggleSelection(id, altID string) (domain.Recommendation, error) {
	return s.mutate(id, func(rec *domain.Recommendation) error {
		return ToggleSelection(rec, altID)
	})
}

// SetAllocation sets an alternative's percentage.
func (s *Service) SetAllocation(id, altID string, pct int) (domain.Recommendation, error) {
	return s.mutate(id, func(rec *domain.Recommendation) error {
		return SetAllocation(rec, altID, pct)
	})
}

// RemoveAlternative permanently removes an alternative.
func (s *Service) RemoveAlternative(id, altID string) (domain.Recommendation, error) {
	rec, err := s.mutate(id, func(rec *domain.Recommendation) error {
		return RemoveAlternative(rec, altID)
	})
	if err == nil {
		s.events.Emit(events.AlternativeRemoved, "recommendations", map[string]interface{}{
			"recommendation_id": id,
			"replacement_id":    altID,
		})
	}
	return rec, err
}

func (s *Service) mutate(id string, op func(*domain.Recommendation) error) (domain.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return domain.Recommendation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := op(rec); err != nil {
		return domain.Recommendation{}, err
	}
	return cloneRecommendation(rec), nil
}

// Approve finalizes a recommendation. When selectedIDs is non-nil the
// selection set is replaced first; every id must belong to the
// recommendation. Preconditions: at least one selected alternative and a
// total allocation of exactly 100. The decision record is appended before
// the status flips.
func (s *Service) Approve(id string, selectedIDs []string) (domain.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return domain.DecisionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status.Terminal() {
		return domain.DecisionRecord{}, ErrAlreadyDecided
	}

	// Validate against the hypothetical selection before touching the
	// recommendation: a refused approval must leave state unchanged.
	var wanted map[string]bool
	selected := SelectedAlternatives(rec)
	originalPct := rec.OriginalAllocation
	if selectedIDs != nil {
		wanted = make(map[string]bool, len(selectedIDs))
		for _, altID := range selectedIDs {
			if findAlternative(rec, altID) == nil {
				return domain.DecisionRecord{}, fmt.Errorf("%w: %s", ErrUnknownAlternative, altID)
			}
			wanted[altID] = true
		}

		selected = nil
		sum := 0
		for _, alt := range rec.Alternatives {
			if wanted[alt.ReplacementID] {
				selected = append(selected, alt)
				sum += alt.AllocationPercentage
			}
		}
		if originalPct = 100 - sum; originalPct < 0 {
			originalPct = 0
		}
	}

	if len(selected) == 0 {
		return domain.DecisionRecord{}, ErrNoSelection
	}
	selectedSum := 0
	for _, alt := range selected {
		selectedSum += alt.AllocationPercentage
	}
	if total := originalPct + selectedSum; total != 100 {
		return domain.DecisionRecord{}, fmt.Errorf("%w: got %d", ErrTotalNot100, total)
	}

	if wanted != nil {
		for _, alt := range rec.Alternatives {
			alt.Selected = wanted[alt.ReplacementID]
		}
		reconcile(rec)
	}

	now := time.Now()
	record := domain.DecisionRecord{
		UUID:             uuid.New().String(),
		RecommendationID: rec.ID,
		Status:           domain.StatusApproved,
		Category:         rec.Category,
		Priority:         rec.Priority,
		CreatedAt:        rec.CreatedAt,
		DecidedAt:        now,
		Original:         originalMember(rec, rec.OriginalAllocation),
	}
	for _, alt := range selected {
		record.Alternatives = append(record.Alternatives, alternativeMember(alt, alt.AllocationPercentage))
	}

	if err := s.repo.Append(record); err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("failed to persist approval: %w", err)
	}

	rec.Status = domain.StatusApproved
	rec.ApprovedAt = &now

	telemetry.Approvals.Inc()
	s.events.Emit(events.RecommendationApproved, "recommendations", map[string]interface{}{
		"recommendation_id": rec.ID,
		"alternatives":      len(record.Alternatives),
	})

	return record, nil
}

// Reject finalizes a recommendation with every member's allocation forced
// to zero. The full alternative list is recorded, selected or not.
func (s *Service) Reject(id, reason string) (domain.DecisionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return domain.DecisionRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status.Terminal() {
		return domain.DecisionRecord{}, ErrAlreadyDecided
	}

	if reason == "" {
		reason = "Manual rejection by user"
	}

	now := time.Now()
	record := domain.DecisionRecord{
		UUID:             uuid.New().String(),
		RecommendationID: rec.ID,
		Status:           domain.StatusRejected,
		Category:         rec.Category,
		Priority:         rec.Priority,
		RejectionReason:  reason,
		CreatedAt:        rec.CreatedAt,
		DecidedAt:        now,
		Original:         originalMember(rec, 0),
	}
	for _, alt := range rec.Alternatives {
		record.Alternatives = append(record.Alternatives, alternativeMember(alt, 0))
	}

	if err := s.repo.Append(record); err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("failed to persist rejection: %w", err)
	}

	rec.OriginalAllocation = 0
	for _, alt := range rec.Alternatives {
		alt.AllocationPercentage = 0
	}
	rec.Status = domain.StatusRejected
	rec.RejectedAt = &now
	rec.RejectionReason = reason

	telemetry.Rejections.Inc()
	s.events.Emit(events.RecommendationRejected, "recommendations", map[string]interface{}{
		"recommendation_id": rec.ID,
		"reason":            reason,
	})

	return record, nil
}

// BulkApprove approves several recommendations with their current
// selection and allocation state, reporting per-id outcomes.
func (s *Service) BulkApprove(ids []string) []BulkApproveResult {
	results := make([]BulkApproveResult, 0, len(ids))
	for _, id := range ids {
		result := BulkApproveResult{RecommendationID: id}
		if _, err := s.Approve(id, nil); err != nil {
			result.Error = err.Error()
		} else {
			result.Approved = true
		}
		results = append(results, result)
	}
	return results
}

// RequestMoreOptions marks the recommendation as awaiting more options,
// then asks the recommender service for one new alternative and merges it
// at 0% allocation. A failed fetch reports an error and merges nothing;
// the status change from the explicit request stands.
func (s *Service) RequestMoreOptions(ctx context.Context, id string) (*domain.Alternative, error) {
	s.mu.Lock()
	rec, ok := s.recs[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status.Terminal() {
		s.mu.Unlock()
		return nil, ErrAlreadyDecided
	}

	rec.Status = domain.StatusMoreOptionsRequested
	original := rec.Original
	rejectedID := ""
	if len(rec.Alternatives) > 0 {
		rejectedID = rec.Alternatives[0].ReplacementID
	}
	s.mu.Unlock()

	s.events.Emit(events.MoreOptionsRequested, "recommendations", map[string]interface{}{
		"recommendation_id": id,
	})

	replacement, err := s.recommender.FetchAlternative(ctx, original.ProductID, rejectedID)
	if err != nil {
		telemetry.AlternativeFetchFailures.Inc()
		s.events.EmitError("recommendations", err, map[string]interface{}{
			"recommendation_id": id,
		})
		return nil, fmt.Errorf("failed to fetch alternative: %w", err)
	}
	replacement.OriginalProductID = original.ProductID

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: the recommendation may have been decided while the fetch
	// was in flight.
	rec, ok = s.recs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if rec.Status.Terminal() {
		return nil, ErrAlreadyDecided
	}

	if existing := findAlternative(rec, replacement.ReplacementID); existing != nil {
		clone := *existing
		return &clone, nil
	}

	alt := &domain.Alternative{
		Replacement:          replacement,
		AllocationPercentage: 0,
		DiversificationScore: metrics.DiversificationScore(original, replacement),
		CostSavings:          metrics.CostSavings(original, replacement.Price),
		QualityRating:        metrics.QualityRating(replacement.BrandPopularity),
		Selected:             true,
	}
	rec.Alternatives = append(rec.Alternatives, alt)
	reconcile(rec)

	s.events.Emit(events.AlternativeMerged, "recommendations", map[string]interface{}{
		"recommendation_id": id,
		"replacement_id":    replacement.ReplacementID,
	})

	clone := *alt
	return &clone, nil
}

// Counts returns the registry size and per-status counts.
func (s *Service) Counts() (total int, byStatus map[domain.Status]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus = make(map[domain.Status]int)
	for _, rec := range s.recs {
		byStatus[rec.Status]++
	}
	return len(s.recs), byStatus
}

func originalMember(rec *domain.Recommendation, pct int) domain.DecisionMember {
	return domain.DecisionMember{
		ProductID:            rec.Original.ProductID,
		Name:                 rec.Original.Name,
		Brand:                rec.Original.Brand,
		Category:             rec.Original.Category,
		Price:                rec.PredictedPrice,
		AllocationPercentage: pct,
	}
}

func alternativeMember(alt *domain.Alternative, pct int) domain.DecisionMember {
	return domain.DecisionMember{
		ProductID:            alt.ReplacementID,
		Name:                 alt.Name,
		Brand:                alt.Brand,
		Category:             alt.Category,
		Price:                alt.Price,
		AllocationPercentage: pct,
		DiversificationScore: alt.DiversificationScore,
		CostSavings:          alt.CostSavings,
	}
}

func cloneRecommendation(rec *domain.Recommendation) domain.Recommendation {
	clone := *rec
	clone.Alternatives = make([]*domain.Alternative, len(rec.Alternatives))
	for i, alt := range rec.Alternatives {
		altCopy := *alt
		clone.Alternatives[i] = &altCopy
	}
	return clone
}
