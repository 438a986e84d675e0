package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/app/service/activity"
	"github.com/subguard/subguard/internal/app/service/statistics"
	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/tool"
	"github.com/subguard/subguard/pkg/types"
)

var (
	ErrNotFound    = errors.New("subscription not found")
	ErrInvalidCost = errors.New("monthly cost must be positive")
)

// CreateInput is a manual or detected subscription entry.
type CreateInput struct {
	ServiceName     string                `json:"service_name" binding:"required"`
	ServiceCategory string                `json:"service_category" binding:"required"`
	PlanName        string                `json:"plan_name" binding:"required"`
	MonthlyCost     float64               `json:"monthly_cost" binding:"required,gt=0"`
	BillingCycle    types.BillingCycle    `json:"billing_cycle"`
	DetectionSource types.DetectionSource `json:"detection_source"`
	StartDate       *time.Time            `json:"start_date"`
	NextBillingDate *time.Time            `json:"next_billing_date"`
	UsageFrequency  types.UsageFrequency  `json:"usage_frequency"`
	ConfidenceScore *float64              `json:"confidence_score"`
	Notes           string                `json:"notes"`
}

// UpdateInput carries partial updates; nil fields are untouched.
type UpdateInput struct {
	PlanName        *string                   `json:"plan_name"`
	MonthlyCost     *float64                  `json:"monthly_cost" binding:"omitempty,gt=0"`
	BillingCycle    *types.BillingCycle       `json:"billing_cycle"`
	Status          *types.SubscriptionStatus `json:"status"`
	NextBillingDate *time.Time                `json:"next_billing_date"`
	LastUsedDate    *time.Time                `json:"last_used_date"`
	UsageFrequency  *types.UsageFrequency     `json:"usage_frequency"`
	Notes           *string                   `json:"notes"`
}

// Service owns the subscription inventory: manual CRUD plus detection from
// bank statements.
type Service struct {
	db         *gorm.DB
	log        *zap.SugaredLogger
	activities *activity.Service
	stats      *statistics.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, activities *activity.Service, stats *statistics.Service) *Service {
	return &Service{db: db, log: log, activities: activities, stats: stats}
}

// Create adds one subscription for a user.
func (s *Service) Create(ctx context.Context, userID string, in *CreateInput) (*models.Subscription, error) {
	sub := &models.Subscription{
		ID:              tool.GenerateUUIDV7(),
		UserID:          userID,
		ServiceName:     in.ServiceName,
		ServiceCategory: in.ServiceCategory,
		PlanName:        in.PlanName,
		MonthlyCost:     in.MonthlyCost,
		BillingCycle:    in.BillingCycle,
		Status:          types.SubscriptionStatusActive,
		DetectionSource: in.DetectionSource,
		NextBillingDate: in.NextBillingDate,
		UsageFrequency:  in.UsageFrequency,
		ConfidenceScore: 1,
		Notes:           in.Notes,
		StartDate:       time.Now(),
	}
	if in.BillingCycle == "" {
		sub.BillingCycle = types.BillingCycleMonthly
	}
	if in.DetectionSource == "" {
		sub.DetectionSource = types.DetectionSourceManual
	}
	if in.StartDate != nil {
		sub.StartDate = *in.StartDate
	}
	if in.ConfidenceScore != nil {
		sub.ConfidenceScore = *in.ConfidenceScore
	}

	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	activityType := types.ActivityTypeSubscriptionAdded
	if sub.DetectionSource != types.DetectionSourceManual {
		activityType = types.ActivityTypeSubscriptionDetected
	}
	s.activities.MustRecord(ctx, userID, activityType,
		fmt.Sprintf("Added %s", sub.ServiceName),
		fmt.Sprintf("%s plan at $%.2f/month", sub.PlanName, sub.MonthlyCost),
		datatypes.JSONMap{"subscription_id": sub.ID, "detection_source": string(sub.DetectionSource)})
	s.refreshTotals(ctx, userID)
	return sub, nil
}

// Get loads one subscription owned by userID.
func (s *Service) Get(ctx context.Context, userID, subscriptionID string) (*models.Subscription, error) {
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

// List returns a user's subscriptions, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status types.SubscriptionStatus) ([]*models.Subscription, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var items []*models.Subscription
	if err := q.Order("monthly_cost desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return items, nil
}

// Update applies a partial update to one owned subscription.
func (s *Service) Update(ctx context.Context, userID, subscriptionID string, in *UpdateInput) (*models.Subscription, error) {
	sub, err := s.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.PlanName != nil {
		updates["plan_name"] = *in.PlanName
	}
	if in.MonthlyCost != nil {
		if *in.MonthlyCost <= 0 {
			return nil, ErrInvalidCost
		}
		updates["monthly_cost"] = *in.MonthlyCost
	}
	if in.BillingCycle != nil {
		updates["billing_cycle"] = *in.BillingCycle
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.NextBillingDate != nil {
		updates["next_billing_date"] = *in.NextBillingDate
	}
	if in.LastUsedDate != nil {
		updates["last_used_date"] = *in.LastUsedDate
	}
	if in.UsageFrequency != nil {
		updates["usage_frequency"] = *in.UsageFrequency
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		return sub, nil
	}

	err = s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", sub.ID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.activities.MustRecord(ctx, userID, types.ActivityTypeSubscriptionUpdated,
		fmt.Sprintf("Updated %s", sub.ServiceName), "",
		datatypes.JSONMap{"subscription_id": sub.ID})
	s.refreshTotals(ctx, userID)
	return s.Get(ctx, userID, subscriptionID)
}

// Delete removes one owned subscription.
func (s *Service) Delete(ctx context.Context, userID, subscriptionID string) error {
	sub, err := s.Get(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.Subscription{}, "id = ?", sub.ID).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	s.activities.MustRecord(ctx, userID, types.ActivityTypeSubscriptionDeleted,
		fmt.Sprintf("Removed %s", sub.ServiceName), "",
		datatypes.JSONMap{"subscription_id": sub.ID})
	s.refreshTotals(ctx, userID)
	return nil
}

func (s *Service) refreshTotals(ctx context.Context, userID string) {
	if err := s.stats.RecomputeUserTotals(ctx, userID); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to recompute user totals",
			"user_id", userID, "err", err)
	}
}
