package subscription

import (
	"testing"
	"time"

	"github.com/samber/lo"
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
		&models.User{}, &models.Subscription{}, &models.Activity{}))

	log := zap.NewNop().Sugar()
	svc := NewService(db, log, activity.NewService(db, log), statistics.New(db, log))
	require.NoError(t, db.Create(&models.User{
		ID: "user-1", Email: "u@example.com", HashedPassword: "x",
	}).Error)
	return svc
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	sub, err := svc.Create(ctx, "user-1", &CreateInput{
		ServiceName:     "Netflix",
		ServiceCategory: "streaming",
		PlanName:        "Premium",
		MonthlyCost:     45.90,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, types.BillingCycleMonthly, sub.BillingCycle)
	assert.Equal(t, types.DetectionSourceManual, sub.DetectionSource)
	assert.Equal(t, 1.0, sub.ConfidenceScore)

	got, err := svc.Get(ctx, "user-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", got.ServiceName)

	_, err = svc.Get(ctx, "user-2", sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Creation refreshes the user's aggregate counters.
	var user models.User
	require.NoError(t, svc.db.First(&user, "id = ?", "user-1").Error)
	assert.InDelta(t, 45.90, user.TotalMonthlySpend, 1e-9)
	assert.EqualValues(t, 1, user.TotalSubscriptions)

	var audits []*models.Activity
	require.NoError(t, svc.db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, types.ActivityTypeSubscriptionAdded, audits[0].ActivityType)
}

func TestUpdatePartial(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	sub, err := svc.Create(ctx, "user-1", &CreateInput{
		ServiceName: "Spotify", ServiceCategory: "music",
		PlanName: "Family", MonthlyCost: 34.90,
	})
	require.NoError(t, err)

	got, err := svc.Update(ctx, "user-1", sub.ID, &UpdateInput{
		PlanName:       lo.ToPtr("Duo"),
		MonthlyCost:    lo.ToPtr(27.90),
		UsageFrequency: lo.ToPtr(types.UsageFrequencyWeekly),
	})
	require.NoError(t, err)
	assert.Equal(t, "Duo", got.PlanName)
	assert.Equal(t, 27.90, got.MonthlyCost)
	assert.Equal(t, types.UsageFrequencyWeekly, got.UsageFrequency)
	// Untouched fields survive.
	assert.Equal(t, "Spotify", got.ServiceName)
	assert.Equal(t, types.SubscriptionStatusActive, got.Status)
}

func TestUpdateRejectsNonPositiveCost(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	sub, err := svc.Create(ctx, "user-1", &CreateInput{
		ServiceName: "Spotify", ServiceCategory: "music",
		PlanName: "Family", MonthlyCost: 34.90,
	})
	require.NoError(t, err)

	for _, cost := range []float64{0, -5} {
		_, err = svc.Update(ctx, "user-1", sub.ID, &UpdateInput{
			MonthlyCost: lo.ToPtr(cost),
		})
		assert.ErrorIs(t, err, ErrInvalidCost)
	}

	// An active subscription never ends up free.
	got, err := svc.Get(ctx, "user-1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 34.90, got.MonthlyCost)
}

func TestListStatusFilterAndOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	cheap, err := svc.Create(ctx, "user-1", &CreateInput{
		ServiceName: "Spotify", ServiceCategory: "music", PlanName: "Individual", MonthlyCost: 21.90,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-1", &CreateInput{
		ServiceName: "Netflix", ServiceCategory: "streaming", PlanName: "Premium", MonthlyCost: 45.90,
	})
	require.NoError(t, err)
	_, err = svc.Update(ctx, "user-1", cheap.ID, &UpdateInput{
		Status: lo.ToPtr(types.SubscriptionStatusCancelled),
	})
	require.NoError(t, err)

	all, err := svc.List(ctx, "user-1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Netflix", all[0].ServiceName) // most expensive first

	active, err := svc.List(ctx, "user-1", types.SubscriptionStatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Netflix", active[0].ServiceName)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	sub, err := svc.Create(ctx, "user-1", &CreateInput{
		ServiceName: "Gym App", ServiceCategory: "fitness", PlanName: "Basic", MonthlyCost: 29.90,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", sub.ID))
	_, err = svc.Get(ctx, "user-1", sub.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "user-1", sub.ID), ErrNotFound)

	var user models.User
	require.NoError(t, svc.db.First(&user, "id = ?", "user-1").Error)
	assert.Zero(t, user.TotalSubscriptions)
}

func TestDetectFromTransactions(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	base := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	txns := []BankTransaction{
		// Monthly Netflix charges, noisy descriptions.
		{Description: "PAYMENT *NETFLIX.COM", Amount: 45.90, Date: base},
		{Description: "PAYMENT *NETFLIX.COM", Amount: 45.90, Date: base.AddDate(0, 0, 30)},
		{Description: "PAYMENT *NETFLIX.COM", Amount: 45.90, Date: base.AddDate(0, 0, 60)},
		// Single Spotify charge, not recurring.
		{Description: "SPOTIFY STOCKHOLM", Amount: 21.90, Date: base},
		// Recurring but unknown merchant.
		{Description: "CORNER BAKERY", Amount: 12.50, Date: base},
		{Description: "CORNER BAKERY", Amount: 12.50, Date: base.AddDate(0, 0, 30)},
	}

	created, err := svc.DetectFromTransactions(ctx, "user-1", txns)
	require.NoError(t, err)
	require.Len(t, created, 1)
	sub := created[0]
	assert.Equal(t, "Netflix", sub.ServiceName)
	assert.Equal(t, types.DetectionSourceBank, sub.DetectionSource)
	assert.Equal(t, types.BillingCycleMonthly, sub.BillingCycle)
	assert.Equal(t, 0.8, sub.ConfidenceScore)
	assert.InDelta(t, 45.90, sub.MonthlyCost, 1e-9)
	require.NotNil(t, sub.NextBillingDate)
	assert.Equal(t, base.AddDate(0, 0, 90), sub.NextBillingDate.UTC())

	// Already-tracked services are not duplicated.
	again, err := svc.DetectFromTransactions(ctx, "user-1", txns)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDetectBillingCycles(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	quarterly := []BankTransaction{
		{Description: "ADOBE SYSTEMS", Amount: 170.00, Date: base},
		{Description: "ADOBE SYSTEMS", Amount: 170.00, Date: base.AddDate(0, 0, 90)},
	}
	// A quarterly gap is not a monthly recurrence.
	assert.Empty(t, detectRecurring(quarterly))

	monthly := []BankTransaction{
		{Description: "SPOTIFY", Amount: 21.90, Date: base},
		{Description: "SPOTIFY", Amount: 21.90, Date: base.AddDate(0, 0, 31)},
	}
	got := detectRecurring(monthly)
	require.Len(t, got, 1)
	assert.Equal(t, "Spotify", got[0].ServiceName)
	assert.Equal(t, types.BillingCycleMonthly, got[0].BillingCycle)
}

func TestNormalizeDescription(t *testing.T) {
	assert.Equal(t, "netflix com", normalizeDescription("PAYMENT *NETFLIX.COM"))
	assert.Equal(t, "spotify stockholm", normalizeDescription("  SPOTIFY   Stockholm "))
	assert.Equal(t, "uber one", normalizeDescription("card UBER-ONE"))
}
