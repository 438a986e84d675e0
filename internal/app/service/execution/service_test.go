package execution

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/app/service/activity"
	"github.com/subguard/subguard/internal/app/service/statistics"
	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Subscription{}, &models.Optimization{},
		&models.Negotiation{}, &models.Activity{}))

	log := zap.NewNop().Sugar()
	return NewService(db, log, activity.NewService(db, log), statistics.New(db, log))
}

func seed(t *testing.T, svc *Service, action types.ActionType) (*models.Subscription, *models.Optimization) {
	t.Helper()
	require.NoError(t, svc.db.Create(&models.User{
		ID: "user-1", Email: "u@example.com", HashedPassword: "x",
	}).Error)

	sub := &models.Subscription{
		ID: "sub-1", UserID: "user-1",
		ServiceName: "Netflix", ServiceCategory: "streaming",
		PlanName: "Premium 4K", MonthlyCost: 55.90,
		BillingCycle: types.BillingCycleMonthly,
		Status:       types.SubscriptionStatusActive,
		StartDate:    time.Now().AddDate(-2, 0, 0),
	}
	require.NoError(t, svc.db.Create(sub).Error)

	opt := &models.Optimization{
		ID: "opt-1", SubscriptionID: sub.ID, UserID: "user-1",
		ActionType:  action,
		CurrentPlan: sub.PlanName, RecommendedPlan: "Standard HD",
		CurrentCost: 55.90, NewCost: 38.90,
		MonthlySavings: 17.00, YearlySavings: 204.00,
	}
	if action == types.ActionTypeCancel {
		opt.RecommendedPlan = "Cancel subscription"
		opt.NewCost = 0
		opt.MonthlySavings = 55.90
	}
	require.NoError(t, svc.db.Create(opt).Error)
	return sub, opt
}

func TestExecute_Cancel(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeCancel)

	got, err := svc.Execute(t.Context(), "user-1", opt.ID)
	require.NoError(t, err)
	require.True(t, got.Optimization.Executed)
	require.NotNil(t, got.Optimization.ActualSavings)
	assert.Equal(t, 55.90, *got.Optimization.ActualSavings)
	assert.Equal(t, types.UserFeedbackAccepted, got.Optimization.UserFeedback)
	assert.Nil(t, got.Negotiation)

	var sub models.Subscription
	require.NoError(t, svc.db.First(&sub, "id = ?", "sub-1").Error)
	assert.Equal(t, types.SubscriptionStatusCancelled, sub.Status)
	// Plan details track the recommendation alongside the status flip.
	assert.Equal(t, "Cancel subscription", sub.PlanName)
	assert.Equal(t, 0.0, sub.MonthlyCost)

	// Lifetime counters update asynchronously after commit.
	assert.Eventually(t, func() bool {
		var user models.User
		if err := svc.db.First(&user, "id = ?", "user-1").Error; err != nil {
			return false
		}
		return user.OptimizationsCompleted == 1 && user.TotalSavingsToDate == 55.90
	}, 2*time.Second, 10*time.Millisecond)

	var audits []*models.Activity
	require.NoError(t, svc.db.Where("user_id = ?", "user-1").Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, types.ActivityTypeOptimizationExecuted, audits[0].ActivityType)
}

func TestExecute_DowngradeMutatesSubscription(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeDowngrade)

	got, err := svc.Execute(t.Context(), "user-1", opt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Optimization.ActualSavings)
	assert.Equal(t, 17.00, *got.Optimization.ActualSavings)

	var sub models.Subscription
	require.NoError(t, svc.db.First(&sub, "id = ?", "sub-1").Error)
	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, "Standard HD", sub.PlanName)
	assert.Equal(t, 38.90, sub.MonthlyCost)
}

func TestExecute_BundleLeavesSubscriptionAlone(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeBundle)

	got, err := svc.Execute(t.Context(), "user-1", opt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Optimization.ActualSavings)
	assert.InDelta(t, 17.00*0.8, *got.Optimization.ActualSavings, 1e-9)

	var sub models.Subscription
	require.NoError(t, svc.db.First(&sub, "id = ?", "sub-1").Error)
	assert.Equal(t, "Premium 4K", sub.PlanName)
	assert.Equal(t, 55.90, sub.MonthlyCost)
}

func TestExecute_NegotiateSpawnsChat(t *testing.T) {
	svc := newTestService(t)
	sub, opt := seed(t, svc, types.ActionTypeNegotiate)

	got, err := svc.Execute(t.Context(), "user-1", opt.ID)
	require.NoError(t, err)
	assert.True(t, got.Optimization.Executed)
	// Savings settle only when the negotiation concludes.
	assert.Nil(t, got.Optimization.ActualSavings)

	neg := got.Negotiation
	require.NotNil(t, neg)
	assert.Equal(t, opt.ID, neg.OptimizationID)
	assert.Equal(t, sub.ServiceName, neg.ProviderName)
	assert.Equal(t, types.NegotiationStatusActive, neg.Status)
	assert.Equal(t, 17.00, neg.ProposedSavings)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), neg.ExpiresAt, time.Minute)
	require.Len(t, neg.Messages, 1)
	assert.Equal(t, types.NegotiationRoleProvider, neg.Messages[0].Role)
	assert.Contains(t, neg.Messages[0].Content, "negotiation request")

	assert.Eventually(t, func() bool {
		var audits []*models.Activity
		if err := svc.db.Where("user_id = ?", "user-1").Find(&audits).Error; err != nil {
			return false
		}
		return len(audits) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecute_NotFound(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeCancel)

	_, err := svc.Execute(t.Context(), "user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Ownership is part of the lookup.
	_, err = svc.Execute(t.Context(), "user-2", opt.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecute_Twice(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeCancel)

	_, err := svc.Execute(t.Context(), "user-1", opt.ID)
	require.NoError(t, err)

	_, err = svc.Execute(t.Context(), "user-1", opt.ID)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

// Concurrent requests for the same optimization: exactly one wins.
func TestExecute_ConcurrentSingleWinner(t *testing.T) {
	svc := newTestService(t)
	_, opt := seed(t, svc, types.ActionTypeCancel)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Execute(t.Context(), "user-1", opt.ID)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyExecuted)
		}
	}
	assert.Equal(t, 1, wins)

	assert.Eventually(t, func() bool {
		var user models.User
		if err := svc.db.First(&user, "id = ?", "user-1").Error; err != nil {
			return false
		}
		return user.OptimizationsCompleted == 1
	}, 2*time.Second, 10*time.Millisecond)
}
