package domain

import "time"

// Status tracks a recommendation through its lifecycle.
type Status string

const (
	StatusPending              Status = "pending"
	StatusApproved             Status = "approved"
	StatusRejected             Status = "rejected"
	StatusMoreOptionsRequested Status = "more-options-requested"
)

// Terminal reports whether the status is a terminal decision state.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Priority classifies how urgently a tariffed product needs resourcing.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Product is a sourced item from the product reference data.
// TariffRate, DeltaCat and PredPriceAfter are nullable columns in the feed.
type Product struct {
	ProductID       string   `json:"product_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Brand           string   `json:"brand"`
	Category        string   `json:"category" validate:"required"`
	SubCategory     string   `json:"sub_category"`
	SupplierCountry string   `json:"supplier_country"`
	HSCode          string   `json:"hs_code"`
	BasePrice       float64  `json:"base_price" validate:"gte=0"`
	IsTariffed      bool     `json:"is_tariffed"`
	StockLevel      int      `json:"stock_level" validate:"gte=0"`
	Rating          float64  `json:"rating" validate:"gte=0,lte=5"`
	TariffStartDate string   `json:"tariff_start_date,omitempty"`
	TariffEndDate   string   `json:"tariff_end_date,omitempty"`
	TariffRate      *float64 `json:"tariff_rate,omitempty"`
	DeltaCat        *float64 `json:"delta_cat,omitempty"`
	PredPriceAfter  *float64 `json:"pred_price_after,omitempty"`
}

// Replacement is a candidate substitute for a tariffed original.
type Replacement struct {
	OriginalProductID string  `json:"original_product_id" validate:"required"`
	ReplacementID     string  `json:"replacement_id" validate:"required"`
	Name              string  `json:"name" validate:"required"`
	Brand             string  `json:"brand"`
	Category          string  `json:"category"`
	StockLevel        int     `json:"stock_level" validate:"gte=0"`
	ReasonCode        string  `json:"reason_code"`
	Price             float64 `json:"price" validate:"gte=0"`
	BrandPopularity   float64 `json:"brand_popularity" validate:"gte=0,lte=10"`
}

// TariffEntry is one row of the tariff reference feed.
type TariffEntry struct {
	Category      string  `json:"category"`
	HSCode        string  `json:"hs_code"`
	Country       string  `json:"supplier_country"`
	TariffRate    float64 `json:"tariff_rate" validate:"gte=0"`
	EffectiveDate string  `json:"effective_date"`
	ProductID     string  `json:"product_id"`
}

// Alternative is a replacement enriched with derived metrics and the
// allocation state it carries inside a recommendation.
type Alternative struct {
	Replacement

	AllocationPercentage int     `json:"allocation_percentage"`
	DiversificationScore int     `json:"diversification_score"`
	CostSavings          float64 `json:"cost_savings"`
	QualityRating        float64 `json:"quality_rating"`
	Selected             bool    `json:"selected"`
}

// Recommendation pairs one tariffed original with its candidate
// alternatives and tracks the decision lifecycle.
type Recommendation struct {
	ID                   string         `json:"id"`
	Original             Product        `json:"original_product"`
	OriginalAllocation   int            `json:"original_allocation"`
	TariffImpact         float64        `json:"tariff_impact"`
	PredictedPrice       float64        `json:"predicted_price"`
	Alternatives         []*Alternative `json:"alternatives"`
	Status               Status         `json:"status"`
	Category             string         `json:"category"`
	Priority             Priority       `json:"priority"`
	CreatedAt            time.Time      `json:"created_at"`
	ApprovedAt           *time.Time     `json:"approved_at,omitempty"`
	RejectedAt           *time.Time     `json:"rejected_at,omitempty"`
	RejectionReason      string         `json:"rejection_reason,omitempty"`
}

// DecisionMember is one participant of a finalized decision with its
// allocation snapshot.
type DecisionMember struct {
	ProductID            string  `json:"product_id"`
	Name                 string  `json:"name"`
	Brand                string  `json:"brand"`
	Category             string  `json:"category"`
	Price                float64 `json:"price"`
	AllocationPercentage int     `json:"allocation_percentage"`
	DiversificationScore int     `json:"diversification_score"`
	CostSavings          float64 `json:"cost_savings"`
}

// DecisionRecord is the immutable outcome of a recommendation, as stored
// in the append-only decision log.
type DecisionRecord struct {
	UUID             string           `json:"uuid"`
	RecommendationID string           `json:"recommendation_id"`
	Status           Status           `json:"status"`
	Category         string           `json:"category"`
	Priority         Priority         `json:"priority"`
	RejectionReason  string           `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	DecidedAt        time.Time        `json:"decided_at"`
	Original         DecisionMember   `json:"original"`
	Alternatives     []DecisionMember `json:"alternatives"`
}

// DashboardMetrics is the summary block rendered on the dashboard overview.
type DashboardMetrics struct {
	TotalRecommendations    int     `json:"total_recommendations"`
	PendingApprovals        int     `json:"pending_approvals"`
	ApprovedToday           int     `json:"approved_today"`
	RejectedToday           int     `json:"rejected_today"`
	TotalCostSavings        float64 `json:"total_cost_savings"`
	SupplierDiversification float64 `json:"supplier_diversification"`
	AvgProcessingHours      float64 `json:"average_processing_hours"`
}
