package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subguard/subguard/pkg/types"
)

// Optimization is one proposed change to a subscription expected to reduce
// cost. Executed flips false->true at most once; after that the row is
// immutable except for ActualSavings/Notes written in the same transition.
type Optimization struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	UserID         string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`

	ActionType      types.ActionType `gorm:"column:action_type;type:varchar(16);not null" json:"action_type"`
	CurrentPlan     string           `gorm:"column:current_plan;type:varchar(100)" json:"current_plan"`
	RecommendedPlan string           `gorm:"column:recommended_plan;type:varchar(100)" json:"recommended_plan"`
	CurrentCost     float64          `gorm:"column:current_cost" json:"current_cost"`
	NewCost         float64          `gorm:"column:new_cost" json:"new_cost"`
	MonthlySavings  float64          `gorm:"column:monthly_savings" json:"monthly_savings"`
	YearlySavings   float64          `gorm:"column:yearly_savings" json:"yearly_savings"`

	ConfidenceScore      float64                     `gorm:"column:confidence_score" json:"confidence_score"`
	Reasoning            string                      `gorm:"column:reasoning;type:text" json:"reasoning"`
	StepsRequired        datatypes.JSONSlice[string] `gorm:"column:steps_required;type:jsonb;default:'[]'" json:"steps_required"`
	EstimatedTimeMinutes int                         `gorm:"column:estimated_time_minutes" json:"estimated_time_minutes"`

	PresentedToUser bool               `gorm:"column:presented_to_user;default:false" json:"presented_to_user"`
	UserFeedback    types.UserFeedback `gorm:"column:user_feedback;type:varchar(16)" json:"user_feedback,omitempty"`
	Executed        bool               `gorm:"column:executed;default:false" json:"executed"`
	ExecutionDate   *time.Time         `gorm:"column:execution_date;default:null" json:"execution_date,omitempty"`

	ActualSavings *float64 `gorm:"column:actual_savings;default:null" json:"actual_savings,omitempty"`
	Notes         string   `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Optimization) TableName() string {
	return "optimizations"
}
