package optimizer

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/internal/platform/ai"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/types"
)

// SubscriptionAnalysis is the transient merge of the rule engine's and the AI
// collaborator's verdicts. Produced fresh per call, never persisted.
type SubscriptionAnalysis struct {
	SubscriptionID      string             `json:"subscription_id"`
	CurrentPlanFitScore float64            `json:"current_plan_fit_score"`
	OptimalPlan         string             `json:"optimal_plan"`
	MonthlySavings      float64            `json:"monthly_savings"`
	YearlySavings       float64            `json:"yearly_savings"`
	Reasoning           string             `json:"reasoning"`
	Confidence          float64            `json:"confidence"`
	SuggestedActions    []types.ActionType `json:"suggested_actions"`
	AIModelUsed         string             `json:"ai_model_used,omitempty"`
}

// Analyze consults the AI collaborator and the rule engine and merges both.
// AI failures never propagate: the result degrades to rule-only analysis.
func (s *Service) Analyze(ctx context.Context, sub *models.Subscription) *SubscriptionAnalysis {
	ruleResult := EvaluateRules(sub, time.Now())

	aiResult, err := s.scorer.ScorePlan(ctx, s.userProfile(ctx, sub))
	if err != nil {
		logctx.FromCtx(ctx, s.log).Infow("ai analysis unavailable, using rules only",
			"subscription_id", sub.ID, "err", err)
		aiResult = nil
	}

	return combine(sub, aiResult, ruleResult)
}

// combine merges the two sources: union of actions, max confidence, AI
// reasoning first. A nil aiResult stands for a failed or absent AI call and
// contributes the 0.5 default confidence.
func combine(sub *models.Subscription, aiResult *ai.PlanAnalysis, ruleResult *RuleResult) *SubscriptionAnalysis {
	out := &SubscriptionAnalysis{
		SubscriptionID:      sub.ID,
		CurrentPlanFitScore: 0.5,
		OptimalPlan:         "Current plan",
	}

	aiConfidence := 0.5
	var aiReasoning string
	if aiResult != nil {
		out.CurrentPlanFitScore = clamp01(normalizeConfidence(aiResult.CurrentPlanFitScore))
		if aiResult.OptimalPlan != "" {
			out.OptimalPlan = aiResult.OptimalPlan
		}
		out.MonthlySavings = aiResult.MonthlySavings
		out.YearlySavings = aiResult.YearlySavings
		if out.YearlySavings == 0 && out.MonthlySavings > 0 {
			out.YearlySavings = out.MonthlySavings * 12
		}
		out.AIModelUsed = aiResult.ModelUsed
		out.SuggestedActions = parseActions(aiResult.SuggestedActions)
		aiConfidence = normalizeConfidence(aiResult.Confidence)
		aiReasoning = aiResult.Reasoning
	}

	out.SuggestedActions = lo.Uniq(append(out.SuggestedActions, ruleResult.SuggestedActions...))
	out.Confidence = clamp01(max(aiConfidence, ruleResult.Confidence))
	out.Reasoning = strings.TrimSpace(strings.TrimSpace(aiReasoning) + "\n\n" + ruleResult.Reasoning)
	return out
}

// normalizeConfidence maps percent-scale values (models often answer 0-100
// despite instructions) onto 0-1.
func normalizeConfidence(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
