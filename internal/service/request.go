package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/metrics"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/repository"
)

// RequestService drives the request lifecycle: citizen creation, admin
// decisions, and the notification side effects of those decisions.
type RequestService struct {
	requests      repository.RequestStore
	resources     repository.ResourceStore
	notifications repository.NotificationStore
}

// NewRequestService constructs a RequestService.
func NewRequestService(
	requests repository.RequestStore,
	resources repository.ResourceStore,
	notifications repository.NotificationStore,
) *RequestService {
	return &RequestService{
		requests:      requests,
		resources:     resources,
		notifications: notifications,
	}
}

// Create files a citizen request against a resource in the citizen's own
// city. Requests always start pending; matching is by resource id only.
func (s *RequestService) Create(ctx context.Context, caller auth.Identity, req model.CreateRequestRequest) (*model.Request, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if req.ResourceID == "" {
		return nil, fmt.Errorf("resource_id is required")
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be a positive integer")
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !req.Priority.IsValid() {
		return nil, fmt.Errorf("unknown priority %q", req.Priority)
	}

	res, err := s.resources.GetByID(ctx, caller.City, req.ResourceID)
	if err != nil {
		return nil, err
	}

	request := &model.Request{
		ID:              uuid.New().String(),
		ResourceID:      res.ID,
		ResourceName:    res.Name,
		Quantity:        req.Quantity,
		UserID:          caller.UserID,
		UserName:        caller.Name,
		ContactNumber:   caller.Contact,
		City:            caller.City,
		Status:          model.StatusPending,
		Priority:        req.Priority,
		UrgencyNote:     strings.TrimSpace(req.UrgencyNote),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		CreatedAt:       time.Now().UTC(),
	}
	ctx, cancel := boundStore(ctx)
	defer cancel()
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return request, nil
}

// List returns the admin's city requests, optionally filtered by status.
func (s *RequestService) List(ctx context.Context, caller auth.Identity, status string) ([]model.Request, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	var st model.RequestStatus
	if status != "" {
		st = model.RequestStatus(status)
		if !st.IsValid() {
			return nil, fmt.Errorf("unknown status %q", status)
		}
	}
	return s.requests.ListByCity(ctx, caller.City, st)
}

// ListMine returns the caller's own requests, newest first.
func (s *RequestService) ListMine(ctx context.Context, caller auth.Identity) ([]model.Request, error) {
	return s.requests.ListByUser(ctx, caller.UserID)
}

// Decide applies an admin's verdict to a request. Approval debits the
// referenced resource atomically with the status write; fulfillment is a
// pure status change. A committed transition is never rolled back for a
// failed notification: the write is best-effort and reported separately via
// DecisionResult.NotificationSent.
func (s *RequestService) Decide(ctx context.Context, caller auth.Identity, requestID string, action model.DecisionAction) (*model.DecisionResult, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}

	// A timed-out transition is failed-not-applied: status only advances on
	// an affirmative success from the store.
	ctx, cancel := boundStore(ctx)
	defer cancel()

	switch action {
	case model.ActionReject:
		req, err := s.requests.Reject(ctx, caller.City, requestID, caller.UserID)
		if err != nil {
			return nil, err
		}
		return &model.DecisionResult{Request: req}, nil

	case model.ActionApprove:
		req, res, err := s.requests.Approve(ctx, caller.City, requestID, caller.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				metrics.ReservationsRejected.Inc()
			}
			return nil, err
		}
		metrics.ReservationsCommitted.Inc()
		sent := s.notify(ctx, req, model.NotificationApproval,
			"Request approved",
			fmt.Sprintf("Your request for %d x %s has been approved.", req.Quantity, req.ResourceName),
		)
		return &model.DecisionResult{Request: req, Resource: res, NotificationSent: sent}, nil

	case model.ActionFulfill:
		req, err := s.requests.Fulfill(ctx, caller.City, requestID, caller.UserID)
		if err != nil {
			return nil, err
		}
		sent := s.notify(ctx, req, model.NotificationFulfillment,
			"Request fulfilled",
			fmt.Sprintf("Your request for %d x %s has been fulfilled.", req.Quantity, req.ResourceName),
		)
		return &model.DecisionResult{Request: req, NotificationSent: sent}, nil

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

// notify writes the decision notification. Failures are logged and counted
// but never propagate: the inventory transition already committed and
// re-running it would double-debit.
func (s *RequestService) notify(ctx context.Context, req *model.Request, typ model.NotificationType, title, message string) bool {
	n := &model.Notification{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Title:      title,
		Message:    message,
		Type:       typ,
		ResourceID: req.ResourceID,
		RequestID:  req.ID,
		City:       req.City,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		metrics.NotificationFailures.Inc()
		log.Printf("notification for request %s not delivered: %v", req.ID, err)
		return false
	}
	return true
}
