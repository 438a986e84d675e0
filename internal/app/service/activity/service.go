package activity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/tool"
	"github.com/subguard/subguard/pkg/types"
)

var ErrNotFound = errors.New("activity not found")

const defaultListLimit = 50

// Service maintains the append-only audit log. Entries record every
// user-visible event; nothing here is ever updated except the read flag.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Record appends one audit entry.
func (s *Service) Record(ctx context.Context, userID string, activityType types.ActivityType, title, description string, metadata datatypes.JSONMap) (*models.Activity, error) {
	if metadata == nil {
		metadata = datatypes.JSONMap{}
	}
	entry := &models.Activity{
		ID:           tool.GenerateUUIDV7(),
		UserID:       userID,
		ActivityType: activityType,
		Title:        title,
		Description:  description,
		Metadata:     metadata,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return entry, nil
}

// MustRecord is Record for callers on whose main path an audit failure must
// not surface. The failure is logged and swallowed.
func (s *Service) MustRecord(ctx context.Context, userID string, activityType types.ActivityType, title, description string, metadata datatypes.JSONMap) {
	if _, err := s.Record(ctx, userID, activityType, title, description, metadata); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to record activity",
			"user_id", userID, "activity_type", activityType, "err", err)
	}
}

// List returns a user's activities, newest first. unreadOnly restricts to
// entries with read=false. A non-positive limit falls back to the default.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	var items []*models.Activity
	// UUIDv7 ids break ties between entries created in the same instant.
	if err := q.Order("created_at desc, id desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return items, nil
}

// MarkRead flips the read flag on one owned activity.
func (s *Service) MarkRead(ctx context.Context, userID, activityID string) error {
	res := s.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ? AND user_id = ?", activityID, userID).
		Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark activity read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flips the read flag on every unread activity of a user and
// returns how many were flipped.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Activity{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark activities read: %w", res.Error)
	}
	return res.RowsAffected, nil
}
