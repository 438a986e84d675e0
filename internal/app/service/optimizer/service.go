package optimizer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/internal/platform/ai"
	cfgpkg "github.com/subguard/subguard/pkg/config"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/tool"
	"github.com/subguard/subguard/pkg/types"
)

// Service combines the rule engine and the AI collaborator into persisted
// optimization recommendations.
type Service struct {
	cfg    *cfgpkg.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	scorer ai.PlanScorer
}

func NewService(cfg *cfgpkg.Config, db *gorm.DB, log *zap.SugaredLogger, scorer ai.PlanScorer) *Service {
	return &Service{cfg: cfg, db: db, log: log, scorer: scorer}
}

// GetSubscription loads a subscription owned by userID.
func (s *Service) GetSubscription(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", subscriptionID, userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// OptimizeSubscription analyzes a subscription, synthesizes recommendations
// and persists them as pending optimizations.
func (s *Service) OptimizeSubscription(ctx context.Context, userID, subscriptionID string) ([]*models.Optimization, error) {
	sub, err := s.GetSubscription(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	analysis := s.Analyze(ctx, sub)
	recs := s.GenerateRecommendations(sub, analysis)
	if len(recs) == 0 {
		return recs, nil
	}

	for _, rec := range recs {
		rec.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(recs).Error; err != nil {
		return nil, fmt.Errorf("failed to store recommendations: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("stored optimization recommendations",
		"subscription_id", sub.ID, "count", len(recs))
	return recs, nil
}

// ListByUser returns a user's optimizations, optionally filtered by status
// ("pending" or "executed").
func (s *Service) ListByUser(ctx context.Context, userID, status string) ([]*models.Optimization, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	switch status {
	case "pending":
		q = q.Where("executed = ?", false)
	case "executed":
		q = q.Where("executed = ?", true)
	}

	var items []*models.Optimization
	if err := q.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list optimizations: %w", err)
	}
	return items, nil
}

// userProfile loads aggregate context for the AI prompt. Failures degrade to
// a neutral profile; analysis must not depend on this read.
func (s *Service) userProfile(ctx context.Context, sub *models.Subscription) *ai.SubscriptionProfile {
	profile := &ai.SubscriptionProfile{
		ServiceName:     sub.ServiceName,
		ServiceCategory: sub.ServiceCategory,
		PlanName:        sub.PlanName,
		MonthlyCost:     sub.MonthlyCost,
		UsageFrequency:  sub.UsageFrequency,
		RiskTolerance:   0.5,
	}
	if sub.LastUsedDate != nil {
		profile.LastUsedDate = sub.LastUsedDate.Format("2006-01-02")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", sub.UserID).First(&user).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to load user profile for analysis", "err", err)
		return profile
	}
	profile.UserTotalSpend = user.TotalMonthlySpend
	profile.UserTotalSubs = user.TotalSubscriptions
	profile.RiskTolerance = user.RiskTolerance
	return profile
}

// parseActions filters the AI's free-form action names down to known ones.
func parseActions(raw []string) []types.ActionType {
	var out []types.ActionType
	for _, r := range raw {
		a := types.ActionType(r)
		if a.Known() {
			out = append(out, a)
		}
	}
	return out
}
