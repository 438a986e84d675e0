package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	cfgpkg "github.com/subguard/subguard/pkg/config"
	"github.com/subguard/subguard/pkg/logctx"
)

const planScoringPrompt = `You are a personal finance AI assistant. Analyze this subscription and suggest optimizations.
Consider: usage patterns, alternative plans, market prices, user profile.
Return only a JSON object with fields: current_plan_fit_score (0-1), optimal_plan (name),
monthly_savings (amount), yearly_savings (amount), reasoning (detailed explanation),
confidence (0-1), suggested_actions (list of: cancel, downgrade, switch, bundle, negotiate).`

// Gemini talks to the hosted generative model. A nil inner client (no API key
// configured) makes every call fail with ErrUnavailable, which callers treat
// as the normal degraded path.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewGemini(cfg *cfgpkg.Config, log *zap.SugaredLogger) (*Gemini, error) {
	g := &Gemini{model: cfg.AI.Model, timeout: cfg.AI.Timeout, log: log}
	if g.timeout <= 0 {
		g.timeout = 15 * time.Second
	}
	if cfg.AI.APIKey == "" {
		log.Warnw("ai: no API key configured, running rule-only")
		return g, nil
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: cfg.AI.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return text, nil
}

// ScorePlan implements PlanScorer.
func (g *Gemini) ScorePlan(ctx context.Context, profile *SubscriptionProfile) (*PlanAnalysis, error) {
	payload, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	prompt := fmt.Sprintf(`%s

Subscription Data:
%s

User Profile:
- Total monthly spend: $%.2f
- Number of subscriptions: %d
- Risk tolerance: %.1f/1.0
`, planScoringPrompt, payload, profile.UserTotalSpend, profile.UserTotalSubs, profile.RiskTolerance)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		logctx.FromCtx(ctx, g.log).Warnw("ai: plan scoring failed", "err", err)
		return nil, err
	}

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		logctx.FromCtx(ctx, g.log).Warnw("ai: unparsable plan analysis", "err", err)
		return nil, err
	}
	analysis.ModelUsed = g.model
	return analysis, nil
}

// ProviderReply implements ProviderAgent.
func (g *Gemini) ProviderReply(ctx context.Context, prompt *NegotiationPrompt) (*ProviderReply, error) {
	history := prompt.History
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	historyJSON, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := fmt.Sprintf(`You are a customer service representative for %s.
A customer's AI assistant is negotiating a discount on their %s plan.
The AI is trying to get a discount of $%.2f/month.

Message history:
%s

Your goal:
1. Be professional and friendly
2. Acknowledge loyalty if mentioned
3. Offer a counter-discount (slightly less than requested)
4. After 2-3 messages, make a final offer

Respond as the provider. Keep it concise (2-3 sentences).
If this is the 3rd+ message, include: FINAL_OFFER:price:terms`,
		prompt.ProviderName, prompt.CurrentPlan, prompt.ProposedSavings, historyJSON)

	raw, err := g.generate(ctx, text)
	if err != nil {
		logctx.FromCtx(ctx, g.log).Warnw("ai: provider reply failed", "err", err)
		return nil, err
	}
	return parseProviderReply(raw), nil
}
