package subscription

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/logctx"
	"github.com/subguard/subguard/pkg/types"
)

// BankTransaction is one statement line submitted for detection.
type BankTransaction struct {
	Description string    `json:"description" binding:"required"`
	Amount      float64   `json:"amount" binding:"required,gt=0"`
	Date        time.Time `json:"date" binding:"required"`
}

// servicePatterns maps a known service to the substrings that identify it in
// statement descriptions.
var servicePatterns = map[string][]string{
	"Netflix":       {"netflix", "nflx"},
	"Spotify":       {"spotify"},
	"Amazon Prime":  {"amazon prime", "amazon video"},
	"YouTube":       {"youtube premium"},
	"Apple":         {"apple.com", "itunes"},
	"Microsoft 365": {"microsoft 365"},
	"Adobe":         {"adobe"},
	"Gympass":       {"gympass"},
	"Uber One":      {"uber one"},
}

var (
	nonWordChars  = regexp.MustCompile(`[^\w\s]`)
	extraSpaces   = regexp.MustCompile(`\s+`)
	descPrefixes  = []string{"payment", "purchase", "debit", "card", "pos"}
	detectionConf = 0.8
)

// DetectFromTransactions scans bank statement lines for recurring charges and
// registers any known service not already tracked for the user. Returns the
// newly created subscriptions.
func (s *Service) DetectFromTransactions(ctx context.Context, userID string, txns []BankTransaction) ([]*models.Subscription, error) {
	existing, err := s.List(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	known := lo.SliceToMap(existing, func(sub *models.Subscription) (string, struct{}) {
		return strings.ToLower(sub.ServiceName), struct{}{}
	})

	var created []*models.Subscription
	for _, candidate := range detectRecurring(txns) {
		if _, ok := known[strings.ToLower(candidate.ServiceName)]; ok {
			continue
		}
		sub, err := s.Create(ctx, userID, candidate)
		if err != nil {
			return created, err
		}
		created = append(created, sub)
		known[strings.ToLower(sub.ServiceName)] = struct{}{}
	}

	logctx.FromCtx(ctx, s.log).Infow("bank statement analyzed",
		"user_id", userID, "transactions", len(txns), "detected", len(created))
	return created, nil
}

// detectRecurring groups statement lines by normalized description and amount
// and keeps groups that repeat on a roughly monthly cadence for a known
// service.
func detectRecurring(txns []BankTransaction) []*CreateInput {
	grouped := lo.GroupBy(txns, func(t BankTransaction) string {
		return fmt.Sprintf("%s_%.2f", normalizeDescription(t.Description), t.Amount)
	})

	keys := lo.Keys(grouped)
	sort.Strings(keys)

	var out []*CreateInput
	for _, key := range keys {
		group := grouped[key]
		if len(group) < 2 || !isRecurring(group) {
			continue
		}
		service := identifyService(group[0].Description)
		if service == "" {
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].Date.Before(group[j].Date) })
		avg := lo.SumBy(group, func(t BankTransaction) float64 { return t.Amount }) / float64(len(group))
		conf := detectionConf

		out = append(out, &CreateInput{
			ServiceName:     service,
			ServiceCategory: "detected",
			PlanName:        fmt.Sprintf("%s Subscription", service),
			MonthlyCost:     avg,
			BillingCycle:    billingCycleOf(group),
			DetectionSource: types.DetectionSourceBank,
			StartDate:       &group[0].Date,
			NextBillingDate: estimateNextBilling(group),
			ConfidenceScore: &conf,
		})
	}
	return out
}

func normalizeDescription(desc string) string {
	d := nonWordChars.ReplaceAllString(strings.ToLower(desc), " ")
	d = strings.TrimSpace(extraSpaces.ReplaceAllString(d, " "))
	for _, prefix := range descPrefixes {
		if strings.HasPrefix(d, prefix+" ") {
			d = strings.TrimSpace(strings.TrimPrefix(d, prefix))
			break
		}
	}
	return d
}

func identifyService(description string) string {
	desc := strings.ToLower(description)
	for service, patterns := range servicePatterns {
		for _, p := range patterns {
			if strings.Contains(desc, p) {
				return service
			}
		}
	}
	return ""
}

// isRecurring reports whether any two consecutive charges are roughly a month
// apart.
func isRecurring(group []BankTransaction) bool {
	sorted := make([]BankTransaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i := 1; i < len(sorted); i++ {
		days := int(sorted[i].Date.Sub(sorted[i-1].Date).Hours() / 24)
		if days >= 25 && days <= 35 {
			return true
		}
	}
	return false
}

// billingCycleOf infers the cycle from the gap between the first two charges.
func billingCycleOf(sorted []BankTransaction) types.BillingCycle {
	if len(sorted) < 2 {
		return types.BillingCycleMonthly
	}
	days := int(sorted[1].Date.Sub(sorted[0].Date).Hours() / 24)
	switch {
	case days >= 80 && days <= 100:
		return types.BillingCycleQuarterly
	case days >= 350 && days <= 380:
		return types.BillingCycleYearly
	default:
		return types.BillingCycleMonthly
	}
}

// estimateNextBilling projects the last observed interval forward.
func estimateNextBilling(sorted []BankTransaction) *time.Time {
	if len(sorted) < 2 {
		return nil
	}
	last := sorted[len(sorted)-1].Date
	interval := last.Sub(sorted[len(sorted)-2].Date)
	next := last.Add(interval)
	return &next
}
