package types

import "time"

type NegotiationStatus string

const (
	NegotiationStatusActive   NegotiationStatus = "active"
	NegotiationStatusAccepted NegotiationStatus = "accepted"
	NegotiationStatusRejected NegotiationStatus = "rejected"
	NegotiationStatusExpired  NegotiationStatus = "expired"
)

type NegotiationRole string

const (
	NegotiationRoleUser     NegotiationRole = "user"
	NegotiationRoleProvider NegotiationRole = "provider"
)

// NegotiationMessage is one entry in a negotiation's append-only chat history.
type NegotiationMessage struct {
	Role      NegotiationRole `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// FinalOffer is the provider's closing offer, set at most once per negotiation.
type FinalOffer struct {
	Plan    string  `json:"plan"`
	Price   float64 `json:"price"`
	Savings float64 `json:"savings"`
	Terms   string  `json:"terms"`
}
