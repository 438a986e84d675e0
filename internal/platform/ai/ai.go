package ai

import (
	"context"
	"errors"

	"github.com/subguard/subguard/pkg/types"
)

// ErrUnavailable is returned when the hosted model cannot be reached or its
// output cannot be used. Callers must recover locally and never surface it.
var ErrUnavailable = errors.New("ai collaborator unavailable")

// SubscriptionProfile is the context shipped to the model for plan scoring.
type SubscriptionProfile struct {
	ServiceName     string               `json:"service_name"`
	ServiceCategory string               `json:"service_category"`
	PlanName        string               `json:"plan_name"`
	MonthlyCost     float64              `json:"monthly_cost"`
	LastUsedDate    string               `json:"last_used_date,omitempty"`
	UsageFrequency  types.UsageFrequency `json:"usage_frequency,omitempty"`
	UserTotalSpend  float64              `json:"user_total_spend"`
	UserTotalSubs   int64                `json:"user_total_subs"`
	RiskTolerance   float64              `json:"risk_tolerance"`
}

// PlanAnalysis is the model's best-effort structured verdict. Confidence may
// arrive on a 0-100 scale; consumers normalize before use.
type PlanAnalysis struct {
	CurrentPlanFitScore float64  `json:"current_plan_fit_score"`
	OptimalPlan         string   `json:"optimal_plan"`
	MonthlySavings      float64  `json:"monthly_savings"`
	YearlySavings       float64  `json:"yearly_savings"`
	Reasoning           string   `json:"reasoning"`
	Confidence          float64  `json:"confidence"`
	SuggestedActions    []string `json:"suggested_actions"`
	ModelUsed           string   `json:"ai_model_used,omitempty"`
}

// NegotiationPrompt carries the chat state for a provider reply.
type NegotiationPrompt struct {
	ProviderName    string
	CurrentPlan     string
	ProposedSavings float64
	History         []types.NegotiationMessage
}

// ProviderReply is the model's turn in a negotiation. When ReadyForOffer is
// set, OfferPrice/OfferTerms describe the provider's final offer.
type ProviderReply struct {
	Content       string
	ReadyForOffer bool
	OfferPrice    float64
	OfferTerms    string
}

// PlanScorer scores a subscription's plan fit. Implemented by Gemini and by
// deterministic fakes in tests.
type PlanScorer interface {
	ScorePlan(ctx context.Context, profile *SubscriptionProfile) (*PlanAnalysis, error)
}

// ProviderAgent produces the provider side of a negotiation chat.
type ProviderAgent interface {
	ProviderReply(ctx context.Context, prompt *NegotiationPrompt) (*ProviderReply, error)
}
