package optimizer

import (
	"fmt"
	"sort"

	"gorm.io/datatypes"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/types"
)

var actionTimeMinutes = map[types.ActionType]int{
	types.ActionTypeCancel:    5,
	types.ActionTypeDowngrade: 10,
	types.ActionTypeSwitch:    15,
	types.ActionTypeBundle:    20,
	types.ActionTypeNegotiate: 30,
}

const defaultTimeMinutes = 10

var actionSteps = map[types.ActionType][]string{
	types.ActionTypeCancel: {
		"Login to service account",
		"Navigate to subscription settings",
		"Click cancel subscription",
		"Confirm cancellation",
	},
	types.ActionTypeDowngrade: {
		"Login to service account",
		"Navigate to plan settings",
		"Select lower tier plan",
		"Confirm changes",
	},
	types.ActionTypeNegotiate: {
		"Contact customer support",
		"Explain usage patterns",
		"Request loyalty discount",
		"Accept/negotiate offer",
	},
}

var defaultSteps = []string{"Follow service-specific instructions"}

// GenerateRecommendations expands each suggested action into one concrete
// recommendation, ordered by monthly savings descending. Recommendations that
// cannot be priced (unknown downgrade targets) are omitted.
func (s *Service) GenerateRecommendations(sub *models.Subscription, analysis *SubscriptionAnalysis) []*models.Optimization {
	recs := make([]*models.Optimization, 0, len(analysis.SuggestedActions))
	for _, action := range analysis.SuggestedActions {
		rec, err := synthesize(sub, analysis, action)
		if err != nil {
			s.log.Debugw("skipping recommendation", "subscription_id", sub.ID,
				"action", action, "reason", err)
			continue
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MonthlySavings > recs[j].MonthlySavings
	})
	return recs
}

func synthesize(sub *models.Subscription, analysis *SubscriptionAnalysis, action types.ActionType) (*models.Optimization, error) {
	var recommendedPlan string
	var newCost float64

	switch action {
	case types.ActionTypeCancel:
		recommendedPlan = "Cancel subscription"
		newCost = 0
	case types.ActionTypeDowngrade:
		plan, ok := findDowngradePlan(sub.ServiceName, sub.MonthlyCost)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnpricedDowngrade, sub.ServiceName)
		}
		recommendedPlan = plan.Name
		newCost = plan.Price
	case types.ActionTypeSwitch, types.ActionTypeBundle, types.ActionTypeNegotiate:
		recommendedPlan = analysis.OptimalPlan
		// Flat assumed 20% discount unless the AI supplied a usable figure.
		newCost = sub.MonthlyCost * 0.8
		if analysis.MonthlySavings > 0 && analysis.MonthlySavings < sub.MonthlyCost {
			newCost = sub.MonthlyCost - analysis.MonthlySavings
		}
	default:
		return nil, fmt.Errorf("unknown action type: %s", action)
	}

	monthlySavings := sub.MonthlyCost - newCost

	steps, ok := actionSteps[action]
	if !ok {
		steps = defaultSteps
	}
	minutes, ok := actionTimeMinutes[action]
	if !ok {
		minutes = defaultTimeMinutes
	}

	return &models.Optimization{
		SubscriptionID:       sub.ID,
		UserID:               sub.UserID,
		ActionType:           action,
		CurrentPlan:          sub.PlanName,
		RecommendedPlan:      recommendedPlan,
		CurrentCost:          sub.MonthlyCost,
		NewCost:              newCost,
		MonthlySavings:       monthlySavings,
		YearlySavings:        monthlySavings * 12,
		ConfidenceScore:      clamp01(normalizeConfidence(analysis.Confidence)),
		Reasoning:            reasoningFor(sub, action, recommendedPlan, monthlySavings),
		StepsRequired:        datatypes.NewJSONSlice(steps),
		EstimatedTimeMinutes: minutes,
	}, nil
}

func reasoningFor(sub *models.Subscription, action types.ActionType, plan string, savings float64) string {
	var reasoning string
	switch action {
	case types.ActionTypeCancel:
		reasoning = fmt.Sprintf("Cancel %s because you haven't used it recently.", sub.ServiceName)
	case types.ActionTypeDowngrade:
		reasoning = fmt.Sprintf("Downgrade %s from %s to %s. You're paying for features you don't use.",
			sub.ServiceName, sub.PlanName, plan)
	case types.ActionTypeSwitch:
		reasoning = fmt.Sprintf("Switch to %s for better value.", plan)
	case types.ActionTypeBundle:
		reasoning = fmt.Sprintf("Bundle %s with other services for a package discount.", sub.ServiceName)
	case types.ActionTypeNegotiate:
		reasoning = fmt.Sprintf("Negotiate a better price with %s as a loyal customer.", sub.ServiceName)
	default:
		reasoning = "Optimize this subscription."
	}

	if savings > 0 {
		reasoning += fmt.Sprintf(" Save $%.2f/month ($%.2f/year).", savings, savings*12)
	}
	return reasoning
}
