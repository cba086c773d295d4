package decisions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpapanik/tariff-scout/internal/domain"
)

// Repository is the append-only decision log. Records are written once on
// approval or rejection and never updated.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new decision repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "decisions").Logger(),
	}
}

// Append writes a decision record and its member snapshots in one
// transaction.
func (r *Repository) Append(rec domain.DecisionRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO decisions
		(uuid, recommendation_id, status, category, priority, rejection_reason, created_at, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.UUID,
		rec.RecommendationID,
		string(rec.Status),
		rec.Category,
		string(rec.Priority),
		rec.RejectionReason,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.DecidedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}

	if err := insertMember(tx, rec.UUID, roleOriginal, rec.Original); err != nil {
		return err
	}
	for _, member := range rec.Alternatives {
		if err := insertMember(tx, rec.UUID, roleAlternative, member); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}

	r.log.Debug().
		Str("uuid", rec.UUID).
		Str("recommendation_id", rec.RecommendationID).
		Str("status", string(rec.Status)).
		Msg("Decision appended")

	return nil
}

func insertMember(tx *sql.Tx, decisionUUID, role string, m domain.DecisionMember) error {
	_, err := tx.Exec(`
		INSERT INTO decision_members
		(decision_uuid, member_role, product_id, name, brand, category, price,
		 allocation_pct, diversification_score, cost_savings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		decisionUUID,
		role,
		m.ProductID,
		m.Name,
		m.Brand,
		m.Category,
		m.Price,
		m.AllocationPercentage,
		m.DiversificationScore,
		m.CostSavings,
	)
	if err != nil {
		return fmt.Errorf("failed to insert decision member: %w", err)
	}
	return nil
}

// ListByStatus returns decisions of one terminal status, oldest first.
func (r *Repository) ListByStatus(status domain.Status) ([]domain.DecisionRecord, error) {
	rows, err := r.db.Query(`
		SELECT uuid, recommendation_id, status, category, priority, rejection_reason, created_at, decided_at
		FROM decisions
		WHERE status = ?
		ORDER BY decided_at ASC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var records []domain.DecisionRecord
	for rows.Next() {
		var rec domain.DecisionRecord
		var status, priority, createdAt, decidedAt string

		if err := rows.Scan(
			&rec.UUID,
			&rec.RecommendationID,
			&status,
			&rec.Category,
			&priority,
			&rec.RejectionReason,
			&createdAt,
			&decidedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}

		rec.Status = domain.Status(status)
		rec.Priority = domain.Priority(priority)
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if rec.DecidedAt, err = time.Parse(time.RFC3339Nano, decidedAt); err != nil {
			return nil, fmt.Errorf("failed to parse decided_at: %w", err)
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	for i := range records {
		if err := r.loadMembers(&records[i]); err != nil {
			return nil, err
		}
	}

	return records, nil
}

func (r *Repository) loadMembers(rec *domain.DecisionRecord) error {
	rows, err := r.db.Query(`
		SELECT member_role, product_id, name, brand, category, price,
		       allocation_pct, diversification_score, cost_savings
		FROM decision_members
		WHERE decision_uuid = ?
		ORDER BY id ASC
	`, rec.UUID)
	if err != nil {
		return fmt.Errorf("failed to query decision members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var m domain.DecisionMember

		if err := rows.Scan(
			&role,
			&m.ProductID,
			&m.Name,
			&m.Brand,
			&m.Category,
			&m.Price,
			&m.AllocationPercentage,
			&m.DiversificationScore,
			&m.CostSavings,
		); err != nil {
			return fmt.Errorf("failed to scan decision member: %w", err)
		}

		if role == roleOriginal {
			rec.Original = m
		} else {
			rec.Alternatives = append(rec.Alternatives, m)
		}
	}

	return rows.Err()
}

// CountDecidedSince counts decisions of one status decided at or after
// the given time.
func (r *Repository) CountDecidedSince(status domain.Status, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM decisions
		WHERE status = ? AND decided_at >= ?
	`, string(status), since.UTC().Format(time.RFC3339Nano)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return count, nil
}

// HasDecision reports whether a recommendation already has a terminal
// record in the log.
func (r *Repository) HasDecision(recommendationID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM decisions
		WHERE recommendation_id = ?
	`, recommendationID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check decision: %w", err)
	}
	return count > 0, nil
}

// ProcessingStats returns mean decision latency in hours and the weighted
// cost savings of approved decisions.
func (r *Repository) ProcessingStats() (avgHours float64, totalSavings float64, err error) {
	err = r.db.QueryRow(`
		SELECT COALESCE(AVG((julianday(decided_at) - julianday(created_at)) * 24), 0)
		FROM decisions
	`).Scan(&avgHours)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute processing stats: %w", err)
	}

	err = r.db.QueryRow(`
		SELECT COALESCE(SUM(m.cost_savings * m.allocation_pct / 100.0), 0)
		FROM decision_members m
		JOIN decisions d ON d.uuid = m.decision_uuid
		WHERE d.status = 'approved' AND m.member_role = 'alternative'
	`).Scan(&totalSavings)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute cost savings: %w", err)
	}

	return avgHours, totalSavings, nil
}
