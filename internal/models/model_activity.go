package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subguard/subguard/pkg/types"
)

// Activity is one entry in the append-only audit log. Rows are never mutated
// after creation except for the read flag.
type Activity struct {
	ID           string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID       string             `gorm:"column:user_id;type:varchar(64);not null;index:idx_activity_user,priority:1" json:"user_id"`
	ActivityType types.ActivityType `gorm:"column:activity_type;type:varchar(32);not null" json:"activity_type"`
	Title        string             `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description  string             `gorm:"column:description;type:text" json:"description,omitempty"`
	Metadata     datatypes.JSONMap  `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	Read         bool               `gorm:"column:read;default:false" json:"read"`
	CreatedAt    time.Time          `json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}
