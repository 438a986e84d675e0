package optimizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/types"
)

// rule is one entry in the declarative heuristic table. Predicates are total
// functions over the subscription; evaluation never fails.
type rule struct {
	name      string
	predicate func(sub *models.Subscription, now time.Time) bool
	action    types.ActionType
	priority  float64
}

// optimizationRules is evaluated in order; the highest-priority match wins.
var optimizationRules = []rule{
	{
		name: "low_usage_cancel",
		predicate: func(sub *models.Subscription, _ time.Time) bool {
			return (sub.UsageFrequency == types.UsageFrequencyRarely ||
				sub.UsageFrequency == types.UsageFrequencyNever) &&
				sub.Status == types.SubscriptionStatusActive
		},
		action:   types.ActionTypeCancel,
		priority: 1.0,
	},
	{
		name: "plan_mismatch",
		predicate: func(sub *models.Subscription, _ time.Time) bool {
			return strings.Contains(strings.ToLower(sub.PlanName), "premium") &&
				sub.EstimatedValueScore != nil &&
				*sub.EstimatedValueScore < 0.3
		},
		action:   types.ActionTypeDowngrade,
		priority: 0.9,
	},
	{
		name: "loyalty_discount",
		predicate: func(sub *models.Subscription, now time.Time) bool {
			return sub.AgeDays(now) > 365
		},
		action:   types.ActionTypeNegotiate,
		priority: 0.8,
	},
	{
		name: "bundle_opportunity",
		predicate: func(sub *models.Subscription, _ time.Time) bool {
			return (sub.ServiceCategory == "streaming" || sub.ServiceCategory == "software") &&
				sub.BillingCycle == types.BillingCycleMonthly
		},
		action:   types.ActionTypeBundle,
		priority: 0.7,
	},
}

// RuleResult is the rule engine's verdict: at most one suggested action.
type RuleResult struct {
	SuggestedActions []types.ActionType
	Confidence       float64
	Reasoning        string
	MatchedRule      string
}

// EvaluateRules runs the heuristic table over a subscription. With no match
// the result carries no actions and confidence 0.5.
func EvaluateRules(sub *models.Subscription, now time.Time) *RuleResult {
	var best *rule
	for i := range optimizationRules {
		r := &optimizationRules[i]
		if !r.predicate(sub, now) {
			continue
		}
		if best == nil || r.priority > best.priority {
			best = r
		}
	}

	if best == nil {
		return &RuleResult{
			Confidence: 0.5,
			Reasoning:  "no optimization rules matched",
		}
	}
	return &RuleResult{
		SuggestedActions: []types.ActionType{best.action},
		Confidence:       best.priority,
		Reasoning:        fmt.Sprintf("Matched rule: %s", best.name),
		MatchedRule:      best.name,
	}
}
