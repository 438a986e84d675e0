package types

type ActivityType string

const (
	ActivityTypeSubscriptionAdded    ActivityType = "subscription_added"
	ActivityTypeSubscriptionUpdated  ActivityType = "subscription_updated"
	ActivityTypeSubscriptionDeleted  ActivityType = "subscription_deleted"
	ActivityTypeSubscriptionDetected ActivityType = "subscription_detected"
	ActivityTypeAIAnalysis           ActivityType = "ai_analysis"
	ActivityTypeOptimizationExecuted ActivityType = "optimization_executed"
	ActivityTypeNegotiationCreated   ActivityType = "negotiation_created"
	ActivityTypeNegotiationMessage   ActivityType = "negotiation_message"
	ActivityTypeNegotiationAccepted  ActivityType = "negotiation_accepted"
	ActivityTypeNegotiationRejected  ActivityType = "negotiation_rejected"
)
