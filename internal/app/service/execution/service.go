package execution

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

const negotiationWindow = 7 * 24 * time.Hour

// Result is the outcome of one execution. Negotiation is non-nil only for
// negotiate actions, which spawn a chat instead of completing immediately.
type Result struct {
	Optimization *models.Optimization `json:"optimization"`
	Negotiation  *models.Negotiation  `json:"negotiation,omitempty"`
	NextSteps    []string             `json:"next_steps"`
}

// Service applies accepted recommendations to the owning subscription.
// Execution is a one-way transition: once an optimization row flips to
// executed it never flips back, even under concurrent requests.
type Service struct {
	db         *gorm.DB
	log        *zap.SugaredLogger
	activities *activity.Service
	stats      *statistics.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, activities *activity.Service, stats *statistics.Service) *Service {
	return &Service{db: db, log: log, activities: activities, stats: stats}
}

// Execute applies one pending optimization owned by userID. The optimization
// flip and the subscription mutation commit together or not at all.
func (s *Service) Execute(ctx context.Context, userID, optimizationID string) (*Result, error) {
	var out *Result

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var opt models.Optimization
		err := tx.Where("id = ? AND user_id = ?", optimizationID, userID).First(&opt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load optimization: %w", err)
		}
		if opt.Executed {
			return ErrAlreadyExecuted
		}
		if !opt.ActionType.Known() {
			return fmt.Errorf("%w: %s", ErrUnknownAction, opt.ActionType)
		}

		var sub models.Subscription
		err = tx.Where("id = ?", opt.SubscriptionID).First(&sub).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		now := time.Now()
		actualSavings, notes := settlement(&opt, &sub, now)

		// Compare-and-set on executed guards against a concurrent request
		// racing past the read above.
		res := tx.Model(&models.Optimization{}).
			Where("id = ? AND executed = ?", opt.ID, false).
			Updates(map[string]any{
				"executed":       true,
				"execution_date": now,
				"actual_savings": actualSavings,
				"notes":          notes,
				"user_feedback":  types.UserFeedbackAccepted,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark optimization executed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyExecuted
		}

		opt.Executed = true
		opt.ExecutionDate = &now
		opt.ActualSavings = actualSavings
		opt.Notes = notes
		opt.UserFeedback = types.UserFeedbackAccepted

		out = &Result{Optimization: &opt, NextSteps: nextSteps(&opt)}

		switch opt.ActionType {
		case types.ActionTypeCancel, types.ActionTypeDowngrade, types.ActionTypeSwitch:
			status := types.SubscriptionStatusActive
			if opt.ActionType == types.ActionTypeCancel {
				status = types.SubscriptionStatusCancelled
			}
			err = tx.Model(&models.Subscription{}).
				Where("id = ?", sub.ID).
				Updates(map[string]any{
					"status":       status,
					"plan_name":    opt.RecommendedPlan,
					"monthly_cost": opt.NewCost,
				}).Error
		case types.ActionTypeBundle:
			// Nothing changes until the user arranges the bundle with the
			// provider; the estimated savings are recorded above.
		case types.ActionTypeNegotiate:
			out.Negotiation, err = s.spawnNegotiation(tx, &opt, &sub, now)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", opt.ActionType, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordExecution(ctx, userID, out)
	return out, nil
}

// spawnNegotiation opens the chat with the provider's scripted greeting.
func (s *Service) spawnNegotiation(tx *gorm.DB, opt *models.Optimization, sub *models.Subscription, now time.Time) (*models.Negotiation, error) {
	opening := types.NegotiationMessage{
		Role: types.NegotiationRoleProvider,
		Content: fmt.Sprintf(
			"Hello! We received your negotiation request. I can see you've been a customer since %s. What discount would you like to request?",
			sub.StartDate.Format("January 2006")),
		Timestamp: now,
	}

	neg := &models.Negotiation{
		ID:              tool.GenerateUUIDV7(),
		OptimizationID:  opt.ID,
		SubscriptionID:  sub.ID,
		UserID:          opt.UserID,
		ProviderName:    sub.ServiceName,
		CurrentPlan:     opt.CurrentPlan,
		ProposedSavings: opt.MonthlySavings,
		Status:          types.NegotiationStatusActive,
		Messages:        datatypes.NewJSONSlice([]types.NegotiationMessage{opening}),
		MessageCount:    1,
		ExpiresAt:       now.Add(negotiationWindow),
	}
	if err := tx.Create(neg).Error; err != nil {
		return nil, fmt.Errorf("failed to create negotiation: %w", err)
	}
	return neg, nil
}

// recordExecution writes the audit entry and refreshes the user's lifetime
// counters. Runs after commit; failures are logged, never surfaced.
func (s *Service) recordExecution(ctx context.Context, userID string, out *Result) {
	opt := out.Optimization

	meta := datatypes.JSONMap{
		"optimization_id": opt.ID,
		"subscription_id": opt.SubscriptionID,
		"action_type":     string(opt.ActionType),
	}
	title := fmt.Sprintf("Executed %s optimization", opt.ActionType)
	description := opt.Notes
	if out.Negotiation != nil {
		meta["negotiation_id"] = out.Negotiation.ID
		s.activities.MustRecord(ctx, userID, types.ActivityTypeNegotiationCreated,
			fmt.Sprintf("Negotiation started for %s", out.Negotiation.ProviderName),
			fmt.Sprintf("Created negotiation with potential savings of $%.2f/month", opt.MonthlySavings),
			datatypes.JSONMap{"negotiation_id": out.Negotiation.ID, "subscription_id": opt.SubscriptionID})
	}
	s.activities.MustRecord(ctx, userID, types.ActivityTypeOptimizationExecuted, title, description, meta)

	savings := 0.0
	if opt.ActualSavings != nil {
		savings = *opt.ActualSavings
	}

	// Counter updates are deliberately off the request path.
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.stats.RecordExecution(ctx, userID, savings); err != nil {
			s.log.Warnw("failed to record execution stats", "user_id", userID, "err", err)
		}
		if err := s.stats.RecomputeUserTotals(ctx, userID); err != nil {
			s.log.Warnw("failed to recompute user totals", "user_id", userID, "err", err)
		}
	}()

	logctx.FromCtx(ctx, s.log).Infow("executed optimization",
		"optimization_id", opt.ID, "action_type", opt.ActionType, "actual_savings", opt.ActualSavings)
}

// settlement computes the savings credited at execution time and the audit
// note. Negotiations settle later, when an offer is accepted.
func settlement(opt *models.Optimization, sub *models.Subscription, now time.Time) (*float64, string) {
	switch opt.ActionType {
	case types.ActionTypeCancel:
		v := opt.MonthlySavings
		return &v, fmt.Sprintf("Cancelled %s on %s", sub.ServiceName, now.Format(time.DateOnly))
	case types.ActionTypeDowngrade:
		v := opt.MonthlySavings
		return &v, fmt.Sprintf("Downgraded from %s to %s", opt.CurrentPlan, opt.RecommendedPlan)
	case types.ActionTypeSwitch:
		v := opt.MonthlySavings
		return &v, fmt.Sprintf("Switched %s to %s", sub.ServiceName, opt.RecommendedPlan)
	case types.ActionTypeBundle:
		// Bundling savings depend on the provider's package; estimate low.
		v := opt.MonthlySavings * 0.8
		return &v, fmt.Sprintf("Bundle opportunity identified for %s", sub.ServiceName)
	case types.ActionTypeNegotiate:
		return nil, fmt.Sprintf("Negotiation opened with %s", sub.ServiceName)
	}
	return nil, ""
}

func nextSteps(opt *models.Optimization) []string {
	switch opt.ActionType {
	case types.ActionTypeCancel:
		return []string{
			"Check your email for cancellation confirmation",
			"Update payment methods if needed",
		}
	case types.ActionTypeDowngrade:
		return []string{
			"Check your account for plan confirmation",
			"Review new plan features",
		}
	case types.ActionTypeSwitch:
		return []string{
			fmt.Sprintf("Sign up for %s", opt.RecommendedPlan),
			"Cancel old service if not auto-cancelled",
		}
	case types.ActionTypeBundle:
		return []string{
			"Check bundle eligibility",
			"Contact service provider for bundle options",
		}
	case types.ActionTypeNegotiate:
		return []string{
			"Reply to the provider in the negotiation chat",
			"Review any offer before accepting",
		}
	}
	return nil
}
