package types

// ActionType enumerates the optimization actions a recommendation can carry.
type ActionType string

const (
	ActionTypeCancel    ActionType = "cancel"
	ActionTypeDowngrade ActionType = "downgrade"
	ActionTypeSwitch    ActionType = "switch"
	ActionTypeBundle    ActionType = "bundle"
	ActionTypeNegotiate ActionType = "negotiate"
)

// Known reports whether a is one of the supported actions.
func (a ActionType) Known() bool {
	switch a {
	case ActionTypeCancel, ActionTypeDowngrade, ActionTypeSwitch, ActionTypeBundle, ActionTypeNegotiate:
		return true
	}
	return false
}

type UserFeedback string

const (
	UserFeedbackAccepted  UserFeedback = "accepted"
	UserFeedbackRejected  UserFeedback = "rejected"
	UserFeedbackPostponed UserFeedback = "postponed"
)
