package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
	require.NoError(t, db.AutoMigrate(&models.Activity{}))
	return NewService(db, zap.NewNop().Sugar())
}

func TestRecordAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	first, err := svc.Record(ctx, "user-1", types.ActivityTypeSubscriptionAdded,
		"Added Netflix", "Detected from bank statement",
		datatypes.JSONMap{"subscription_id": "sub-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Read)

	_, err = svc.Record(ctx, "user-1", types.ActivityTypeOptimizationExecuted,
		"Cancelled Gym App", "", nil)
	require.NoError(t, err)
	_, err = svc.Record(ctx, "user-2", types.ActivityTypeAIAnalysis,
		"Analyzed Spotify", "", nil)
	require.NoError(t, err)

	items, err := svc.List(ctx, "user-1", false, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, types.ActivityTypeOptimizationExecuted, items[0].ActivityType)
	assert.Equal(t, "sub-1", items[1].Metadata["subscription_id"])
}

func TestMarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	entry, err := svc.Record(ctx, "user-1", types.ActivityTypeNegotiationCreated,
		"Negotiation started", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, "user-1", entry.ID))

	items, err := svc.List(ctx, "user-1", true, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, svc.MarkRead(ctx, "user-2", entry.ID), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, "user-1", "missing"), ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc := newTestService(t)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, "user-1", types.ActivityTypeNegotiationMessage,
			"Provider replied", "", nil)
		require.NoError(t, err)
	}

	n, err := svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = svc.MarkAllRead(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
