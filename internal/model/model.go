// Package model defines the core domain types for the relief resource engine.
package model

import "time"

// Resource is a city-scoped stock record of a relief supply.
type Resource struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     Category  `json:"category"`
	Priority     Priority  `json:"priority"`
	City         string    `json:"city"`
	Total        int       `json:"total"`
	Available    int       `json:"available"`
	MinThreshold int       `json:"min_threshold"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
}

// IsLowStock returns true when available units have fallen to or below the
// restock threshold.
func (r *Resource) IsLowStock() bool {
	return r.Available <= r.MinThreshold
}

// Request is a citizen's ask for units of a named resource.
type Request struct {
	ID              string        `json:"id"`
	ResourceID      string        `json:"resource_id"`
	ResourceName    string        `json:"resource_name"`
	Quantity        int           `json:"quantity"`
	UserID          string        `json:"user_id"`
	UserName        string        `json:"user_name"`
	ContactNumber   string        `json:"contact_number"`
	City            string        `json:"city"`
	Status          RequestStatus `json:"status"`
	Priority        Priority      `json:"priority"`
	UrgencyNote     string        `json:"urgency_note,omitempty"`
	DeliveryAddress string        `json:"delivery_address,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty"`
	ProcessedBy     string        `json:"processed_by,omitempty"`
}

// Notification informs a citizen that an admin acted on their request.
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	ResourceID string           `json:"resource_id"`
	RequestID  string           `json:"request_id"`
	City       string           `json:"city"`
	CreatedAt  time.Time        `json:"created_at"`
	Read       bool             `json:"read"`
}

// CreateResourceRequest is the payload for creating a new resource.
// City is never taken from the payload; it is forced to the caller's city.
type CreateResourceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Priority     Priority `json:"priority"`
	Total        int      `json:"total"`
	Available    int      `json:"available"`
	MinThreshold int      `json:"min_threshold"`
}

// UpdateResourceRequest is the payload for editing an existing resource.
type UpdateResourceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Priority     Priority `json:"priority"`
	Total        int      `json:"total"`
	Available    int      `json:"available"`
	MinThreshold int      `json:"min_threshold"`
}

// AddStockRequest is the payload for restocking a resource.
type AddStockRequest struct {
	Amount int `json:"amount"`
}

// CreateRequestRequest is the payload for a citizen filing a resource request.
type CreateRequestRequest struct {
	ResourceID      string   `json:"resource_id"`
	Quantity        int      `json:"quantity"`
	Priority        Priority `json:"priority"`
	UrgencyNote     string   `json:"urgency_note"`
	DeliveryAddress string   `json:"delivery_address"`
}

// DecideRequestRequest is the payload for an admin decision on a request.
type DecideRequestRequest struct {
	Action DecisionAction `json:"action"`
}

// ResourceFilter narrows a city-scoped resource listing.
type ResourceFilter struct {
	// OnlyAvailable keeps resources with available > 0.
	OnlyAvailable bool
	// OnlyLowStock keeps resources with available <= min_threshold.
	OnlyLowStock bool
	// Category, when set, keeps a single category.
	Category Category
	// Priority, when set, keeps a single priority tier.
	Priority Priority
}

// DecisionResult reports the outcome of an admin decision. The transition is
// authoritative once committed; the notification is best-effort and its
// delivery is reported separately.
type DecisionResult struct {
	Request          *Request  `json:"request"`
	Resource         *Resource `json:"resource,omitempty"`
	NotificationSent bool      `json:"notification_sent"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
