package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a markdown code fence wrapper from model output.
// Gemini frequently wraps JSON in ```json ... ``` even when told not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeAnalysis parses the model's plan-scoring output. Any shape problem is
// reported as ErrUnavailable so callers take the rule-only path.
func decodeAnalysis(raw string) (*PlanAnalysis, error) {
	cleaned := StripCodeFences(raw)
	var out PlanAnalysis
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: malformed analysis: %v", ErrUnavailable, err)
	}
	if out.OptimalPlan == "" && len(out.SuggestedActions) == 0 {
		return nil, fmt.Errorf("%w: analysis missing optimal_plan and suggested_actions", ErrUnavailable)
	}
	return &out, nil
}

const finalOfferMarker = "FINAL_OFFER:"

// parseProviderReply splits a negotiation reply into chat content and, when
// the marker is present, the final offer ("FINAL_OFFER:<price>:<terms>").
func parseProviderReply(raw string) *ProviderReply {
	content := strings.TrimSpace(raw)
	idx := strings.Index(content, finalOfferMarker)
	if idx < 0 {
		return &ProviderReply{Content: content}
	}

	reply := &ProviderReply{Content: strings.TrimSpace(content[:idx]), ReadyForOffer: true}
	offer := strings.TrimSpace(content[idx+len(finalOfferMarker):])
	parts := strings.SplitN(offer, ":", 2)
	if _, err := fmt.Sscanf(parts[0], "%f", &reply.OfferPrice); err != nil {
		reply.ReadyForOffer = false
		return reply
	}
	reply.OfferTerms = "12 month commitment"
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		reply.OfferTerms = strings.TrimSpace(parts[1])
	}
	return reply
}
