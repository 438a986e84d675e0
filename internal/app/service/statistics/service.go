package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/types"
)

// DashboardSummary is the aggregate view behind the dashboard endpoint.
type DashboardSummary struct {
	ActiveSubscriptions     int64   `json:"active_subscriptions"`
	TotalMonthlySpend       float64 `json:"total_monthly_spend"`
	TotalYearlySpend        float64 `json:"total_yearly_spend"`
	PendingOptimizations    int64   `json:"pending_optimizations"`
	PotentialMonthlySavings float64 `json:"potential_monthly_savings"`
	ActiveNegotiations      int64   `json:"active_negotiations"`
	TotalSavingsToDate      float64 `json:"total_savings_to_date"`
	OptimizationsCompleted  int64   `json:"optimizations_completed"`
}

// OptimizationResults summarizes what execution has achieved so far.
type OptimizationResults struct {
	ExecutedCount           int64                      `json:"executed_count"`
	PendingCount            int64                      `json:"pending_count"`
	RealizedMonthlySavings  float64                    `json:"realized_monthly_savings"`
	RealizedYearlySavings   float64                    `json:"realized_yearly_savings"`
	PotentialMonthlySavings float64                    `json:"potential_monthly_savings"`
	ByAction                map[types.ActionType]int64 `json:"by_action"`
}

// Service computes aggregate statistics and maintains the per-user counters
// on the users table.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// RecordExecution bumps a user's lifetime counters after an optimization
// executes. Savings may be zero when the realized amount is not yet known.
func (s *Service) RecordExecution(ctx context.Context, userID string, monthlySavings float64) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"total_savings_to_date":   gorm.Expr("total_savings_to_date + ?", monthlySavings),
			"optimizations_completed": gorm.Expr("optimizations_completed + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record execution stats: %w", err)
	}
	return nil
}

// AddRealizedSavings credits savings discovered after execution, e.g. when a
// negotiation concludes with an accepted offer.
func (s *Service) AddRealizedSavings(ctx context.Context, userID string, monthlySavings float64) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("total_savings_to_date", gorm.Expr("total_savings_to_date + ?", monthlySavings)).Error
	if err != nil {
		return fmt.Errorf("failed to add realized savings: %w", err)
	}
	return nil
}

// RecomputeUserTotals refreshes total_monthly_spend and total_subscriptions
// from the live subscription rows.
func (s *Service) RecomputeUserTotals(ctx context.Context, userID string) error {
	var totals struct {
		Spend float64
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("COALESCE(SUM(monthly_cost), 0) as spend, COUNT(*) as count").
		Where("user_id = ? AND status = ?", userID, types.SubscriptionStatusActive).
		Scan(&totals).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate subscriptions: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"total_monthly_spend": totals.Spend,
			"total_subscriptions": totals.Count,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update user totals: %w", err)
	}
	return nil
}

// Dashboard assembles the summary for one user. The independent aggregates
// run concurrently; the first error wins.
func (s *Service) Dashboard(ctx context.Context, userID string) (*DashboardSummary, error) {
	out := &DashboardSummary{}

	queries := []func() error{
		func() error {
			return s.db.WithContext(ctx).Model(&models.Subscription{}).
				Select("COUNT(*) as count, COALESCE(SUM(monthly_cost), 0) as spend").
				Where("user_id = ? AND status = ?", userID, types.SubscriptionStatusActive).
				Row().Scan(&out.ActiveSubscriptions, &out.TotalMonthlySpend)
		},
		func() error {
			return s.db.WithContext(ctx).Model(&models.Optimization{}).
				Select("COUNT(*) as count, COALESCE(SUM(monthly_savings), 0) as savings").
				Where("user_id = ? AND executed = ?", userID, false).
				Row().Scan(&out.PendingOptimizations, &out.PotentialMonthlySavings)
		},
		func() error {
			return s.db.WithContext(ctx).Model(&models.Negotiation{}).
				Where("user_id = ? AND status = ?", userID, types.NegotiationStatusActive).
				Count(&out.ActiveNegotiations).Error
		},
		func() error {
			var user models.User
			if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
				return err
			}
			out.TotalSavingsToDate = user.TotalSavingsToDate
			out.OptimizationsCompleted = user.OptimizationsCompleted
			return nil
		},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(queries))
	for _, q := range queries {
		wg.Add(1)
		go func(q func() error) {
			defer wg.Done()
			if err := q(); err != nil {
				errChan <- err
			}
		}(q)
	}
	wg.Wait()
	close(errChan)
	if err := <-errChan; err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	out.TotalYearlySpend = out.TotalMonthlySpend * 12
	return out, nil
}

// Results aggregates executed versus pending optimizations for one user.
func (s *Service) Results(ctx context.Context, userID string) (*OptimizationResults, error) {
	var rows []*models.Optimization
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load optimizations: %w", err)
	}

	out := &OptimizationResults{ByAction: map[types.ActionType]int64{}}
	executed, pending := lo.FilterReject(rows, func(o *models.Optimization, _ int) bool {
		return o.Executed
	})

	out.ExecutedCount = int64(len(executed))
	out.PendingCount = int64(len(pending))
	for _, o := range executed {
		out.ByAction[o.ActionType]++
		if o.ActualSavings != nil {
			out.RealizedMonthlySavings += *o.ActualSavings
		}
	}
	for _, o := range pending {
		out.PotentialMonthlySavings += o.MonthlySavings
	}
	out.RealizedYearlySavings = out.RealizedMonthlySavings * 12
	return out, nil
}
