package types

type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleYearly    BillingCycle = "yearly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleWeekly    BillingCycle = "weekly"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
)

// DetectionSource records how a subscription entered the system.
type DetectionSource string

const (
	DetectionSourceEmail  DetectionSource = "email"
	DetectionSourceBank   DetectionSource = "bank"
	DetectionSourceManual DetectionSource = "manual"
	DetectionSourceAPI    DetectionSource = "api"
)

type UsageFrequency string

const (
	UsageFrequencyDaily   UsageFrequency = "daily"
	UsageFrequencyWeekly  UsageFrequency = "weekly"
	UsageFrequencyMonthly UsageFrequency = "monthly"
	UsageFrequencyRarely  UsageFrequency = "rarely"
	UsageFrequencyNever   UsageFrequency = "never"
)
