package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account holder. The aggregate counters at the bottom are updated
// asynchronously after optimization executions and are eventually consistent.
type User struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Email          string `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	HashedPassword string `gorm:"column:hashed_password;type:varchar(255);not null" json:"-"`

	// Preferences
	RiskTolerance        float64 `gorm:"column:risk_tolerance;default:0.5" json:"risk_tolerance"`
	AutomationPreference float64 `gorm:"column:automation_preference;default:0.7" json:"automation_preference"`
	// NotificationPreferences stores per-channel opt-in flags.
	NotificationPreferences datatypes.JSONMap `gorm:"column:notification_preferences;type:jsonb;default:'{}'" json:"notification_preferences"`

	// Statistics
	TotalMonthlySpend      float64 `gorm:"column:total_monthly_spend;default:0" json:"total_monthly_spend"`
	TotalSubscriptions     int64   `gorm:"column:total_subscriptions;default:0" json:"total_subscriptions"`
	TotalSavingsToDate     float64 `gorm:"column:total_savings_to_date;default:0" json:"total_savings_to_date"`
	OptimizationsCompleted int64   `gorm:"column:optimizations_completed;default:0" json:"optimizations_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
