package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sahayata/resource-engine/internal/model"
)

// Memory is an in-memory implementation of all three stores, used for tests
// and ephemeral deployments (STORE=memory). A single mutex guards every
// operation, so each store call is atomic exactly like its Postgres
// counterpart.
type Memory struct {
	mu            sync.Mutex
	resources     map[string]model.Resource
	requests      map[string]model.Request
	notifications []model.Notification

	// notifyErr, when set, makes notification writes fail. Test hook for
	// the best-effort notification contract.
	notifyErr error
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		resources: make(map[string]model.Resource),
		requests:  make(map[string]model.Request),
	}
}

// Resources returns the resource store view.
func (m *Memory) Resources() *MemoryResourceStore { return &MemoryResourceStore{m} }

// Requests returns the request store view.
func (m *Memory) Requests() *MemoryRequestStore { return &MemoryRequestStore{m} }

// Notifications returns the notification store view.
func (m *Memory) Notifications() *MemoryNotificationStore { return &MemoryNotificationStore{m} }

// SetNotificationError makes subsequent notification writes fail with err.
// Pass nil to restore normal behavior.
func (m *Memory) SetNotificationError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyErr = err
}

// SentNotifications returns a copy of every notification written so far.
func (m *Memory) SentNotifications() []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}

// MemoryResourceStore implements ResourceStore over Memory.
type MemoryResourceStore struct{ m *Memory }

var _ ResourceStore = (*MemoryResourceStore)(nil)

func (s *MemoryResourceStore) Create(_ context.Context, res *model.Resource) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.resources[res.ID]; ok {
		return fmt.Errorf("resource %s already exists", res.ID)
	}
	s.m.resources[res.ID] = *res
	return nil
}

func (s *MemoryResourceStore) GetByID(_ context.Context, city, id string) (*model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.resourceInCity(city, id)
}

func (s *MemoryResourceStore) Update(_ context.Context, city string, res *model.Resource) (*model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, err := s.m.resourceInCity(city, res.ID)
	if err != nil {
		return nil, err
	}
	updated := *existing
	updated.Name = res.Name
	updated.Description = res.Description
	updated.Category = res.Category
	updated.Priority = res.Priority
	updated.Total = res.Total
	updated.Available = res.Available
	updated.MinThreshold = res.MinThreshold
	updated.LastUpdated = time.Now().UTC()
	s.m.resources[updated.ID] = updated
	return &updated, nil
}

func (s *MemoryResourceStore) Delete(_ context.Context, city, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, err := s.m.resourceInCity(city, id); err != nil {
		return err
	}
	delete(s.m.resources, id)
	return nil
}

func (s *MemoryResourceStore) AddStock(_ context.Context, city, id string, amount int) (*model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	res, err := s.m.resourceInCity(city, id)
	if err != nil {
		return nil, err
	}
	updated := *res
	updated.Total += amount
	updated.Available += amount
	updated.LastUpdated = time.Now().UTC()
	s.m.resources[id] = updated
	return &updated, nil
}

func (s *MemoryResourceStore) Reserve(_ context.Context, city, id string, quantity int) (*model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.reserveLocked(city, id, quantity)
}

func (s *MemoryResourceStore) List(_ context.Context, city string, filter model.ResourceFilter) ([]model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var resources []model.Resource
	for _, res := range s.m.resources {
		if res.City != city {
			continue
		}
		if filter.OnlyAvailable && res.Available <= 0 {
			continue
		}
		if filter.OnlyLowStock && res.Available > res.MinThreshold {
			continue
		}
		if filter.Category != "" && res.Category != filter.Category {
			continue
		}
		if filter.Priority != "" && res.Priority != filter.Priority {
			continue
		}
		resources = append(resources, res)
	}
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Name != resources[j].Name {
			return resources[i].Name < resources[j].Name
		}
		return resources[i].CreatedAt.Before(resources[j].CreatedAt)
	})
	return resources, nil
}

// MemoryRequestStore implements RequestStore over Memory.
type MemoryRequestStore struct{ m *Memory }

var _ RequestStore = (*MemoryRequestStore)(nil)

func (s *MemoryRequestStore) Create(_ context.Context, req *model.Request) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.requests[req.ID]; ok {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	s.m.requests[req.ID] = *req
	return nil
}

func (s *MemoryRequestStore) GetByID(_ context.Context, city, id string) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.requestInCity(city, id)
}

func (s *MemoryRequestStore) ListByCity(_ context.Context, city string, status model.RequestStatus) ([]model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var requests []model.Request
	for _, req := range s.m.requests {
		if req.City != city {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		requests = append(requests, req)
	}
	sortRequestsNewestFirst(requests)
	return requests, nil
}

func (s *MemoryRequestStore) ListByUser(_ context.Context, userID string) ([]model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	var requests []model.Request
	for _, req := range s.m.requests {
		if req.UserID == userID {
			requests = append(requests, req)
		}
	}
	sortRequestsNewestFirst(requests)
	return requests, nil
}

// Approve runs the same sequence as the Postgres transaction under the store
// mutex: status guard, conditional debit, status write. Any failure leaves
// both records untouched.
func (s *MemoryRequestStore) Approve(_ context.Context, city, id, adminID string) (*model.Request, *model.Resource, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	req, err := s.m.requestInCity(city, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != model.StatusPending {
		return nil, nil, ErrInvalidTransition
	}

	res, err := s.m.reserveLocked(city, req.ResourceID, req.Quantity)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil, fmt.Errorf("resource for request: %w", ErrNotFound)
		}
		return nil, nil, err
	}

	now := time.Now().UTC()
	updated := *req
	updated.Status = model.StatusApproved
	updated.ProcessedAt = &now
	updated.ProcessedBy = adminID
	s.m.requests[id] = updated
	return &updated, res, nil
}

func (s *MemoryRequestStore) Reject(_ context.Context, city, id, adminID string) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	req, err := s.m.requestInCity(city, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, ErrInvalidTransition
	}
	now := time.Now().UTC()
	updated := *req
	updated.Status = model.StatusRejected
	updated.ProcessedAt = &now
	updated.ProcessedBy = adminID
	s.m.requests[id] = updated
	return &updated, nil
}

func (s *MemoryRequestStore) Fulfill(_ context.Context, city, id, adminID string) (*model.Request, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	req, err := s.m.requestInCity(city, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusApproved {
		return nil, ErrInvalidTransition
	}
	updated := *req
	updated.Status = model.StatusFulfilled
	s.m.requests[id] = updated
	return &updated, nil
}

// MemoryNotificationStore implements NotificationStore over Memory.
type MemoryNotificationStore struct{ m *Memory }

var _ NotificationStore = (*MemoryNotificationStore)(nil)

func (s *MemoryNotificationStore) Create(_ context.Context, n *model.Notification) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.m.notifyErr != nil {
		return s.m.notifyErr
	}
	s.m.notifications = append(s.m.notifications, *n)
	return nil
}

// ── internal helpers, caller must hold the mutex ──

func (m *Memory) resourceInCity(city, id string) (*model.Resource, error) {
	res, ok := m.resources[id]
	if !ok || res.City != city {
		return nil, ErrNotFound
	}
	copied := res
	return &copied, nil
}

func (m *Memory) requestInCity(city, id string) (*model.Request, error) {
	req, ok := m.requests[id]
	if !ok || req.City != city {
		return nil, ErrNotFound
	}
	copied := req
	return &copied, nil
}

func (m *Memory) reserveLocked(city, id string, quantity int) (*model.Resource, error) {
	res, ok := m.resources[id]
	if !ok || res.City != city {
		return nil, ErrNotFound
	}
	if res.Available < quantity {
		return nil, ErrInsufficientStock
	}
	res.Available -= quantity
	res.LastUpdated = time.Now().UTC()
	m.resources[id] = res
	copied := res
	return &copied, nil
}

func sortRequestsNewestFirst(requests []model.Request) {
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
}
