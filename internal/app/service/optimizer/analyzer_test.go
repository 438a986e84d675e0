package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/internal/platform/ai"
	cfgpkg "github.com/subguard/subguard/pkg/config"
	"github.com/subguard/subguard/pkg/types"
)

// fakeScorer returns a canned analysis or error.
type fakeScorer struct {
	analysis *ai.PlanAnalysis
	err      error
}

func (f *fakeScorer) ScorePlan(context.Context, *ai.SubscriptionProfile) (*ai.PlanAnalysis, error) {
	return f.analysis, f.err
}

func newTestService(t *testing.T, scorer ai.PlanScorer) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled in-memory sqlite handle is a fresh database per connection.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Subscription{}, &models.Optimization{}))
	return NewService(&cfgpkg.Config{}, db, zap.NewNop().Sugar(), scorer)
}

func activeSub(service, plan string, cost float64) *models.Subscription {
	return &models.Subscription{
		ID:              "sub-1",
		UserID:          "user-1",
		ServiceName:     service,
		ServiceCategory: "streaming",
		PlanName:        plan,
		MonthlyCost:     cost,
		BillingCycle:    types.BillingCycleYearly,
		Status:          types.SubscriptionStatusActive,
		StartDate:       time.Now().AddDate(0, -3, 0),
	}
}

// Scenario: recent usage, no rule fires, AI supplies the recommendation.
func TestAnalyze_AIOnly(t *testing.T) {
	lastUsed := time.Now().AddDate(0, 0, -2)
	sub := activeSub("Netflix", "Premium 4K", 55.90)
	sub.LastUsedDate = &lastUsed

	svc := newTestService(t, &fakeScorer{analysis: &ai.PlanAnalysis{
		CurrentPlanFitScore: 0.4,
		OptimalPlan:         "Standard HD",
		MonthlySavings:      16.00,
		Reasoning:           "You rarely watch in 4K.",
		Confidence:          85, // percent scale, must be normalized
		SuggestedActions:    []string{"downgrade"},
		ModelUsed:           "gemini-test",
	}})

	got := svc.Analyze(context.Background(), sub)
	require.Equal(t, []types.ActionType{types.ActionTypeDowngrade}, got.SuggestedActions)
	assert.Equal(t, "Standard HD", got.OptimalPlan)
	assert.Equal(t, 16.00, got.MonthlySavings)
	assert.Equal(t, 192.00, got.YearlySavings)
	assert.Equal(t, 0.85, got.Confidence)
	assert.Equal(t, "gemini-test", got.AIModelUsed)
	assert.Contains(t, got.Reasoning, "You rarely watch in 4K.")
	assert.Contains(t, got.Reasoning, "no optimization rules matched")
}

// AI failure must be invisible: rule-only analysis with confidence 0.5 when
// no rule fires either.
func TestAnalyze_AIFailureFallsBackToRules(t *testing.T) {
	sub := activeSub("Obscure Service", "Basic", 10.0)
	sub.ServiceCategory = "news"

	svc := newTestService(t, &fakeScorer{err: ai.ErrUnavailable})

	got := svc.Analyze(context.Background(), sub)
	assert.Empty(t, got.SuggestedActions)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, "Current plan", got.OptimalPlan)
	assert.Equal(t, "no optimization rules matched", got.Reasoning)
}

func TestAnalyze_AIFailureKeepsRuleMatch(t *testing.T) {
	sub := activeSub("Gym App", "Basic", 29.90)
	sub.ServiceCategory = "fitness"
	sub.UsageFrequency = types.UsageFrequencyRarely

	svc := newTestService(t, &fakeScorer{err: errors.New("deadline exceeded")})

	got := svc.Analyze(context.Background(), sub)
	require.Equal(t, []types.ActionType{types.ActionTypeCancel}, got.SuggestedActions)
	assert.Equal(t, 1.0, got.Confidence)
}

// Union of actions, max confidence, AI reasoning first.
func TestCombine_MergesSources(t *testing.T) {
	sub := activeSub("Spotify", "Family", 34.90)
	aiResult := &ai.PlanAnalysis{
		OptimalPlan:      "Duo",
		Confidence:       0.6,
		Reasoning:        "Only two profiles are in use.",
		SuggestedActions: []string{"switch", "cancel", "launder"},
	}
	ruleResult := &RuleResult{
		SuggestedActions: []types.ActionType{types.ActionTypeCancel},
		Confidence:       1.0,
		Reasoning:        "Matched rule: low_usage_cancel",
	}

	got := combine(sub, aiResult, ruleResult)
	// Unknown AI action names are dropped; duplicates collapse.
	assert.ElementsMatch(t, []types.ActionType{types.ActionTypeSwitch, types.ActionTypeCancel}, got.SuggestedActions)
	assert.Equal(t, 1.0, got.Confidence)
	assert.True(t, len(got.Reasoning) > 0)
	assert.Less(t,
		indexOf(got.Reasoning, "Only two profiles"),
		indexOf(got.Reasoning, "Matched rule"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, 0.85, normalizeConfidence(85))
	assert.Equal(t, 0.85, normalizeConfidence(0.85))
	assert.Equal(t, 1.0, normalizeConfidence(250))
	assert.Equal(t, 0.0, normalizeConfidence(-3))
	assert.Equal(t, 1.0, normalizeConfidence(1))
}
