package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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
		&models.User{}, &models.Subscription{}, &models.Optimization{}, &models.Negotiation{}))
	return New(db, zap.NewNop().Sugar())
}

func seedUser(t *testing.T, svc *Service, id string) {
	t.Helper()
	require.NoError(t, svc.db.Create(&models.User{
		ID:             id,
		Email:          id + "@example.com",
		HashedPassword: "x",
	}).Error)
}

func TestRecordExecution(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc, "user-1")
	ctx := t.Context()

	require.NoError(t, svc.RecordExecution(ctx, "user-1", 15.50))
	require.NoError(t, svc.RecordExecution(ctx, "user-1", 0))

	var user models.User
	require.NoError(t, svc.db.First(&user, "id = ?", "user-1").Error)
	assert.Equal(t, 15.50, user.TotalSavingsToDate)
	assert.EqualValues(t, 2, user.OptimizationsCompleted)
}

func TestRecomputeUserTotals(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc, "user-1")
	ctx := t.Context()

	subs := []*models.Subscription{
		{ID: "s1", UserID: "user-1", ServiceName: "Netflix", ServiceCategory: "streaming",
			PlanName: "Premium", MonthlyCost: 45.90, BillingCycle: types.BillingCycleMonthly,
			Status: types.SubscriptionStatusActive, StartDate: time.Now()},
		{ID: "s2", UserID: "user-1", ServiceName: "Spotify", ServiceCategory: "music",
			PlanName: "Duo", MonthlyCost: 27.90, BillingCycle: types.BillingCycleMonthly,
			Status: types.SubscriptionStatusActive, StartDate: time.Now()},
		{ID: "s3", UserID: "user-1", ServiceName: "Gym App", ServiceCategory: "fitness",
			PlanName: "Basic", MonthlyCost: 29.90, BillingCycle: types.BillingCycleMonthly,
			Status: types.SubscriptionStatusCancelled, StartDate: time.Now()},
	}
	require.NoError(t, svc.db.Create(subs).Error)

	require.NoError(t, svc.RecomputeUserTotals(ctx, "user-1"))

	var user models.User
	require.NoError(t, svc.db.First(&user, "id = ?", "user-1").Error)
	assert.InDelta(t, 73.80, user.TotalMonthlySpend, 1e-9)
	assert.EqualValues(t, 2, user.TotalSubscriptions)
}

func TestDashboard(t *testing.T) {
	svc := newTestService(t)
	seedUser(t, svc, "user-1")
	ctx := t.Context()

	require.NoError(t, svc.db.Create(&models.Subscription{
		ID: "s1", UserID: "user-1", ServiceName: "Netflix", ServiceCategory: "streaming",
		PlanName: "Premium", MonthlyCost: 45.90, BillingCycle: types.BillingCycleMonthly,
		Status: types.SubscriptionStatusActive, StartDate: time.Now(),
	}).Error)
	require.NoError(t, svc.db.Create(&models.Optimization{
		ID: "o1", SubscriptionID: "s1", UserID: "user-1",
		ActionType: types.ActionTypeDowngrade, MonthlySavings: 10.00,
	}).Error)
	require.NoError(t, svc.db.Create(&models.Negotiation{
		ID: "n1", OptimizationID: "o1", SubscriptionID: "s1", UserID: "user-1",
		ProviderName: "Netflix", Status: types.NegotiationStatusActive,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}).Error)
	require.NoError(t, svc.RecordExecution(ctx, "user-1", 5.00))

	got, err := svc.Dashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.ActiveSubscriptions)
	assert.InDelta(t, 45.90, got.TotalMonthlySpend, 1e-9)
	assert.InDelta(t, 45.90*12, got.TotalYearlySpend, 1e-9)
	assert.EqualValues(t, 1, got.PendingOptimizations)
	assert.InDelta(t, 10.00, got.PotentialMonthlySavings, 1e-9)
	assert.EqualValues(t, 1, got.ActiveNegotiations)
	assert.InDelta(t, 5.00, got.TotalSavingsToDate, 1e-9)
	assert.EqualValues(t, 1, got.OptimizationsCompleted)
}

func TestResults(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	realized := 12.00
	execDate := time.Now()
	rows := []*models.Optimization{
		{ID: "o1", SubscriptionID: "s1", UserID: "user-1",
			ActionType: types.ActionTypeCancel, MonthlySavings: 29.90,
			Executed: true, ExecutionDate: &execDate, ActualSavings: &realized},
		{ID: "o2", SubscriptionID: "s2", UserID: "user-1",
			ActionType: types.ActionTypeNegotiate, MonthlySavings: 8.00,
			Executed: true, ExecutionDate: &execDate},
		{ID: "o3", SubscriptionID: "s3", UserID: "user-1",
			ActionType: types.ActionTypeBundle, MonthlySavings: 6.50},
	}
	for _, row := range rows {
		require.NoError(t, svc.db.Create(row).Error)
	}

	got, err := svc.Results(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ExecutedCount)
	assert.EqualValues(t, 1, got.PendingCount)
	assert.InDelta(t, 12.00, got.RealizedMonthlySavings, 1e-9)
	assert.InDelta(t, 144.00, got.RealizedYearlySavings, 1e-9)
	assert.InDelta(t, 6.50, got.PotentialMonthlySavings, 1e-9)
	assert.EqualValues(t, 1, got.ByAction[types.ActionTypeCancel])
	assert.EqualValues(t, 1, got.ByAction[types.ActionTypeNegotiate])
}
