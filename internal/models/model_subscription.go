package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subguard/subguard/pkg/types"
)

// Subscription is one recurring paid service held by a user. Rows are created
// by detection or manual entry and mutated by optimization execution;
// cancellation is a status change, never a physical delete requirement.
type Subscription struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`

	ServiceName     string                   `gorm:"column:service_name;type:varchar(100);not null" json:"service_name"`
	ServiceCategory string                   `gorm:"column:service_category;type:varchar(50);not null" json:"service_category"`
	PlanName        string                   `gorm:"column:plan_name;type:varchar(100);not null" json:"plan_name"`
	MonthlyCost     float64                  `gorm:"column:monthly_cost;not null" json:"monthly_cost"`
	BillingCycle    types.BillingCycle       `gorm:"column:billing_cycle;type:varchar(16);not null" json:"billing_cycle"`
	Status          types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	DetectionSource types.DetectionSource    `gorm:"column:detection_source;type:varchar(16)" json:"detection_source,omitempty"`

	StartDate       time.Time  `gorm:"column:start_date" json:"start_date"`
	NextBillingDate *time.Time `gorm:"column:next_billing_date;default:null" json:"next_billing_date,omitempty"`
	LastUsedDate    *time.Time `gorm:"column:last_used_date;default:null" json:"last_used_date,omitempty"`

	// ConfidenceScore is the detection certainty, 0-1. Manual entries get 1.
	ConfidenceScore float64 `gorm:"column:confidence_score;default:1" json:"confidence_score"`
	Notes           string  `gorm:"column:notes;type:text" json:"notes,omitempty"`

	// Usage tracking inputs for the rule engine.
	UsageFrequency      types.UsageFrequency `gorm:"column:usage_frequency;type:varchar(16)" json:"usage_frequency,omitempty"`
	EstimatedValueScore *float64             `gorm:"column:estimated_value_score;default:null" json:"estimated_value_score,omitempty"`

	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) Active() bool {
	return s != nil && s.Status == types.SubscriptionStatusActive
}

// AgeDays is the number of whole days since the subscription started.
func (s *Subscription) AgeDays(now time.Time) int {
	if s.StartDate.IsZero() {
		return 0
	}
	return int(now.Sub(s.StartDate).Hours() / 24)
}
