package optimizer

import "strings"

// marketPlan is one known plan tier for a service.
type marketPlan struct {
	Name     string
	Price    float64
	Features []string
}

// marketData holds known plan tables per service, keyed by a lowercase token
// matched against the subscription's service name. Could be fetched from an
// external pricing API; a static table covers the common services.
var marketData = map[string][]marketPlan{
	"netflix": {
		{Name: "Basic", Price: 23.90, Features: []string{"1 screen", "HD"}},
		{Name: "Standard", Price: 38.90, Features: []string{"2 screens", "Full HD"}},
		{Name: "Premium", Price: 45.90, Features: []string{"4 screens", "Ultra HD"}},
	},
	"spotify": {
		{Name: "Individual", Price: 21.90, Features: []string{"1 account"}},
		{Name: "Duo", Price: 27.90, Features: []string{"2 accounts"}},
		{Name: "Family", Price: 34.90, Features: []string{"6 accounts"}},
		{Name: "Student", Price: 10.95, Features: []string{"1 account"}},
	},
}

// lookupPlans returns the plan table whose service token appears in the
// given service name, or nil for unknown services.
func lookupPlans(serviceName string) []marketPlan {
	lower := strings.ToLower(serviceName)
	for token, plans := range marketData {
		if strings.Contains(lower, token) {
			return plans
		}
	}
	return nil
}

// findDowngradePlan picks the most expensive known plan still cheaper than
// the current price (smallest step down that saves money). The second return
// is false when no cheaper plan is known for the service.
func findDowngradePlan(serviceName string, currentPrice float64) (marketPlan, bool) {
	var best marketPlan
	found := false
	for _, p := range lookupPlans(serviceName) {
		if p.Price >= currentPrice {
			continue
		}
		if !found || p.Price > best.Price {
			best = p
			found = true
		}
	}
	return best, found
}
