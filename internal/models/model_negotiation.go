package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/subguard/subguard/pkg/types"
)

// Negotiation is a simulated discount chat with a provider, spawned when a
// negotiate recommendation is executed. Messages are append-only; FinalOffer
// is set at most once.
type Negotiation struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OptimizationID string `gorm:"column:optimization_id;type:uuid;not null;index" json:"optimization_id"`
	SubscriptionID string `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	UserID         string `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`

	ProviderName    string  `gorm:"column:provider_name;type:varchar(100);not null" json:"provider_name"`
	CurrentPlan     string  `gorm:"column:current_plan;type:varchar(100)" json:"current_plan"`
	ProposedSavings float64 `gorm:"column:proposed_savings" json:"proposed_savings"`

	Status   types.NegotiationStatus                       `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	Messages datatypes.JSONSlice[types.NegotiationMessage] `gorm:"column:messages;type:jsonb;default:'[]'" json:"messages"`
	// MessageCount mirrors len(Messages) and guards concurrent appends.
	MessageCount  int                                   `gorm:"column:message_count;not null;default:0" json:"message_count"`
	OfferAccepted bool                                  `gorm:"column:offer_accepted;default:false" json:"offer_accepted"`
	FinalOffer    *datatypes.JSONType[types.FinalOffer] `gorm:"column:final_offer;type:jsonb;default:null" json:"final_offer,omitempty"`
	ExpiresAt     time.Time                             `gorm:"column:expires_at;not null" json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Negotiation) TableName() string {
	return "negotiations"
}

func (n *Negotiation) Expired(now time.Time) bool {
	return n != nil && (n.Status == types.NegotiationStatusExpired || now.After(n.ExpiresAt))
}
