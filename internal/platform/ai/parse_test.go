package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no fence", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", in: "  ```json\n{}\n```  ", want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestDecodeAnalysis(t *testing.T) {
	raw := "```json\n" + `{
		"current_plan_fit_score": 0.4,
		"optimal_plan": "Standard HD",
		"monthly_savings": 16.0,
		"yearly_savings": 192.0,
		"reasoning": "usage does not justify 4K",
		"confidence": 85,
		"suggested_actions": ["downgrade"]
	}` + "\n```"

	got, err := decodeAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "Standard HD", got.OptimalPlan)
	assert.Equal(t, 16.0, got.MonthlySavings)
	assert.Equal(t, 85.0, got.Confidence)
	assert.Equal(t, []string{"downgrade"}, got.SuggestedActions)
}

func TestDecodeAnalysis_Malformed(t *testing.T) {
	for _, raw := range []string{"not json", "null", "{}", "```json\ngarbage\n```"} {
		_, err := decodeAnalysis(raw)
		require.ErrorIs(t, err, ErrUnavailable, "input %q", raw)
	}
}

func TestParseProviderReply(t *testing.T) {
	plain := parseProviderReply("We can offer 15% off your plan.")
	assert.False(t, plain.ReadyForOffer)
	assert.Equal(t, "We can offer 15% off your plan.", plain.Content)

	offer := parseProviderReply("Deal. FINAL_OFFER:39.90:12-month contract with loyalty discount")
	require.True(t, offer.ReadyForOffer)
	assert.Equal(t, "Deal.", offer.Content)
	assert.Equal(t, 39.90, offer.OfferPrice)
	assert.Equal(t, "12-month contract with loyalty discount", offer.OfferTerms)

	noTerms := parseProviderReply("Done. FINAL_OFFER:20")
	require.True(t, noTerms.ReadyForOffer)
	assert.Equal(t, "12 month commitment", noTerms.OfferTerms)

	badPrice := parseProviderReply("Hmm FINAL_OFFER:abc:terms")
	assert.False(t, badPrice.ReadyForOffer)
}
