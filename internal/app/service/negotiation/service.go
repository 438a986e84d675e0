package negotiation

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
	"github.com/subguard/subguard/internal/platform/ai"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/tool"
	"github.com/subguard/subguard/pkg/types"
)

// negotiationWindow is how long a provider keeps the chat open.
const negotiationWindow = 7 * 24 * time.Hour

// defaultProposedSavingsRatio seeds the savings target when the caller does
// not name one.
const defaultProposedSavingsRatio = 0.2

// acceptedSavingsRatio is applied to the proposed savings when a negotiation
// is accepted without the provider having tabled a concrete offer.
const acceptedSavingsRatio = 0.6

const defaultOfferTerms = "12-month contract with loyalty discount"

// Service runs the provider-side chat for negotiate optimizations. The
// provider is played by the AI collaborator, with scripted lines as fallback.
type Service struct {
	db         *gorm.DB
	log        *zap.SugaredLogger
	agent      ai.ProviderAgent
	activities *activity.Service
	stats      *statistics.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, agent ai.ProviderAgent, activities *activity.Service, stats *statistics.Service) *Service {
	return &Service{db: db, log: log, agent: agent, activities: activities, stats: stats}
}

// OpenInput starts a negotiation directly, outside the optimization flow.
type OpenInput struct {
	SubscriptionID  string  `json:"subscription_id" binding:"required"`
	OptimizationID  string  `json:"optimization_id"`
	ProposedSavings float64 `json:"proposed_savings" binding:"gte=0"`
}

// Open starts a chat with a subscription's provider. The provider opens with
// a greeting referencing the customer's tenure; the window closes after seven
// days.
func (s *Service) Open(ctx context.Context, userID string, in *OpenInput) (*models.Negotiation, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", in.SubscriptionID, userID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	now := time.Now()
	opening := types.NegotiationMessage{
		Role: types.NegotiationRoleProvider,
		Content: fmt.Sprintf(
			"Hello! We received your negotiation request. I can see you've been a customer since %s. What discount would you like to request?",
			sub.StartDate.Format("January 2006")),
		Timestamp: now,
	}

	proposed := in.ProposedSavings
	if proposed == 0 {
		proposed = sub.MonthlyCost * defaultProposedSavingsRatio
	}

	neg := &models.Negotiation{
		ID:              tool.GenerateUUIDV7(),
		OptimizationID:  in.OptimizationID,
		SubscriptionID:  sub.ID,
		UserID:          userID,
		ProviderName:    sub.ServiceName,
		CurrentPlan:     sub.PlanName,
		ProposedSavings: proposed,
		Status:          types.NegotiationStatusActive,
		Messages:        datatypes.NewJSONSlice([]types.NegotiationMessage{opening}),
		MessageCount:    1,
		ExpiresAt:       now.Add(negotiationWindow),
	}
	if err := s.db.WithContext(ctx).Create(neg).Error; err != nil {
		return nil, fmt.Errorf("failed to create negotiation: %w", err)
	}

	s.activities.MustRecord(ctx, userID, types.ActivityTypeNegotiationCreated,
		fmt.Sprintf("Started negotiation for %s", neg.ProviderName),
		fmt.Sprintf("Negotiation initiated - potential savings: $%.2f/month", proposed),
		datatypes.JSONMap{"negotiation_id": neg.ID, "subscription_id": sub.ID})
	return neg, nil
}

// Get loads one negotiation owned by userID. A stale active negotiation past
// its expiry is flipped to expired on read.
func (s *Service) Get(ctx context.Context, userID, negotiationID string) (*models.Negotiation, error) {
	var neg models.Negotiation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", negotiationID, userID).
		First(&neg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load negotiation: %w", err)
	}

	if neg.Status == types.NegotiationStatusActive && neg.Expired(time.Now()) {
		neg.Status = types.NegotiationStatusExpired
		if err := s.db.WithContext(ctx).Model(&models.Negotiation{}).
			Where("id = ? AND status = ?", neg.ID, types.NegotiationStatusActive).
			Update("status", types.NegotiationStatusExpired).Error; err != nil {
			return nil, fmt.Errorf("failed to expire negotiation: %w", err)
		}
	}
	return &neg, nil
}

// List returns a user's negotiations, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status types.NegotiationStatus) ([]*models.Negotiation, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var items []*models.Negotiation
	if err := q.Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	return items, nil
}

// sendRetries bounds the reload loop when concurrent appends collide.
const sendRetries = 3

// SendMessage appends the user's message and the provider's reply. A reply
// carrying a final offer is stored on the negotiation but the chat stays
// active until the user accepts or rejects. The write is guarded on
// message_count so concurrent appends reload instead of overwriting each
// other.
func (s *Service) SendMessage(ctx context.Context, userID, negotiationID, content string) (*models.Negotiation, error) {
	for attempt := 0; attempt < sendRetries; attempt++ {
		neg, err := s.openNegotiation(ctx, userID, negotiationID)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		neg.Messages = append(neg.Messages, types.NegotiationMessage{
			Role:      types.NegotiationRoleUser,
			Content:   content,
			Timestamp: now,
		})

		reply := s.providerReply(ctx, neg, content)
		neg.Messages = append(neg.Messages, types.NegotiationMessage{
			Role:      types.NegotiationRoleProvider,
			Content:   reply.Content,
			Timestamp: now,
		})

		updates := map[string]any{
			"messages":      neg.Messages,
			"message_count": neg.MessageCount + 2,
		}
		if reply.ReadyForOffer && neg.FinalOffer == nil {
			offer := datatypes.NewJSONType(types.FinalOffer{
				Plan:    neg.CurrentPlan,
				Price:   reply.OfferPrice,
				Savings: neg.ProposedSavings,
				Terms:   reply.OfferTerms,
			})
			neg.FinalOffer = &offer
			updates["final_offer"] = neg.FinalOffer
		}

		res := s.db.WithContext(ctx).Model(&models.Negotiation{}).
			Where("id = ? AND status = ? AND message_count = ?",
				neg.ID, types.NegotiationStatusActive, neg.MessageCount).
			Updates(updates)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to store messages: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the append race or the chat just closed; reload and retry.
			continue
		}
		neg.MessageCount += 2

		s.activities.MustRecord(ctx, userID, types.ActivityTypeNegotiationMessage,
			fmt.Sprintf("Message in %s negotiation", neg.ProviderName),
			truncate(content, 50),
			datatypes.JSONMap{"negotiation_id": neg.ID, "message_count": len(neg.Messages)})
		return neg, nil
	}
	return nil, fmt.Errorf("failed to store messages: negotiation %s kept changing", negotiationID)
}

// Accept closes the negotiation with an accepted offer. When the provider
// never tabled one, a fallback offer worth 60% of the proposed savings is
// synthesized. The realized savings settle onto the spawning optimization.
func (s *Service) Accept(ctx context.Context, userID, negotiationID string) (*models.Negotiation, error) {
	neg, err := s.openNegotiation(ctx, userID, negotiationID)
	if err != nil {
		return nil, err
	}

	if neg.FinalOffer == nil {
		offer := datatypes.NewJSONType(types.FinalOffer{
			Plan:    neg.CurrentPlan,
			Price:   neg.ProposedSavings * acceptedSavingsRatio,
			Savings: neg.ProposedSavings * acceptedSavingsRatio,
			Terms:   defaultOfferTerms,
		})
		neg.FinalOffer = &offer
	}
	savings := neg.FinalOffer.Data().Savings

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Negotiation{}).
			Where("id = ? AND status = ?", neg.ID, types.NegotiationStatusActive).
			Updates(map[string]any{
				"status":         types.NegotiationStatusAccepted,
				"offer_accepted": true,
				"final_offer":    neg.FinalOffer,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to accept negotiation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrClosed
		}

		// Deferred settlement of the negotiate optimization.
		return tx.Model(&models.Optimization{}).
			Where("id = ? AND actual_savings IS NULL", neg.OptimizationID).
			Update("actual_savings", savings).Error
	})
	if err != nil {
		return nil, err
	}
	neg.Status = types.NegotiationStatusAccepted
	neg.OfferAccepted = true

	if err := s.stats.AddRealizedSavings(ctx, userID, savings); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("failed to credit negotiation savings",
			"negotiation_id", neg.ID, "err", err)
	}
	s.activities.MustRecord(ctx, userID, types.ActivityTypeNegotiationAccepted,
		fmt.Sprintf("Accepted offer from %s", neg.ProviderName),
		fmt.Sprintf("Negotiation successful - savings: $%.2f/month", savings),
		datatypes.JSONMap{"negotiation_id": neg.ID, "savings": savings})
	return neg, nil
}

// Reject closes the negotiation without an offer.
func (s *Service) Reject(ctx context.Context, userID, negotiationID string) (*models.Negotiation, error) {
	neg, err := s.openNegotiation(ctx, userID, negotiationID)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Negotiation{}).
		Where("id = ? AND status = ?", neg.ID, types.NegotiationStatusActive).
		Update("status", types.NegotiationStatusRejected)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reject negotiation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrClosed
	}
	neg.Status = types.NegotiationStatusRejected

	s.activities.MustRecord(ctx, userID, types.ActivityTypeNegotiationRejected,
		fmt.Sprintf("Rejected %s negotiation", neg.ProviderName),
		"Negotiation closed",
		datatypes.JSONMap{"negotiation_id": neg.ID})
	return neg, nil
}

// openNegotiation loads an owned negotiation and enforces that it can still
// be acted on.
func (s *Service) openNegotiation(ctx context.Context, userID, negotiationID string) (*models.Negotiation, error) {
	neg, err := s.Get(ctx, userID, negotiationID)
	if err != nil {
		return nil, err
	}
	switch neg.Status {
	case types.NegotiationStatusActive:
		return neg, nil
	case types.NegotiationStatusExpired:
		return nil, ErrExpired
	default:
		return nil, ErrClosed
	}
}

// providerReply asks the AI collaborator for the provider's turn and falls
// back to the scripted lines on any failure.
func (s *Service) providerReply(ctx context.Context, neg *models.Negotiation, userMessage string) *ai.ProviderReply {
	reply, err := s.agent.ProviderReply(ctx, &ai.NegotiationPrompt{
		ProviderName:    neg.ProviderName,
		CurrentPlan:     neg.CurrentPlan,
		ProposedSavings: neg.ProposedSavings,
		History:         neg.Messages,
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Infow("provider agent unavailable, using scripted reply",
			"negotiation_id", neg.ID, "err", err)
		return &ai.ProviderReply{Content: scriptedReply(neg.ProviderName, userMessage)}
	}
	return reply
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
