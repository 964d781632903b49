package model

// Category classifies a relief resource.
type Category string

const (
	CategoryMedical        Category = "medical"
	CategoryFood           Category = "food"
	CategoryShelter        Category = "shelter"
	CategoryRescue         Category = "rescue"
	CategoryCommunication  Category = "communication"
	CategoryTransportation Category = "transportation"
	CategoryTools          Category = "tools"
	CategoryEnergy         Category = "energy"
)

// IsValid checks if the category is one of the known values.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMedical, CategoryFood, CategoryShelter, CategoryRescue,
		CategoryCommunication, CategoryTransportation, CategoryTools, CategoryEnergy:
		return true
	default:
		return false
	}
}

// Priority ranks how urgent a resource or request is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid checks if the priority is one of the known values.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// RequestStatus is the lifecycle state of a citizen request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusFulfilled RequestStatus = "fulfilled"
)

// IsValid checks if the status is one of the known values.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusFulfilled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusFulfilled
}

// CanTransition reports whether moving from s to next is a legal step.
// The lifecycle is one-directional: pending → approved|rejected and
// approved → fulfilled. Nothing ever returns to pending.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusFulfilled
	default:
		return false
	}
}

// NotificationType tags the decision a notification reports.
type NotificationType string

const (
	NotificationApproval    NotificationType = "approval"
	NotificationFulfillment NotificationType = "fulfillment"
)

// DecisionAction is an admin's verdict on a pending or approved request.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
	ActionFulfill DecisionAction = "fulfill"
)

// IsValid checks if the action is one of the known values.
func (a DecisionAction) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionFulfill:
		return true
	default:
		return false
	}
}
