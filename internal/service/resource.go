// Package service implements business rules, validation, and orchestration
// between HTTP handlers and the stores. Every call takes the authenticated
// identity explicitly; there is no ambient admin or city state.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/repository"
)

// defaultMinThreshold is applied when a resource is created without an
// explicit low-stock threshold.
const defaultMinThreshold = 5

// storeTimeout bounds every mutating store call. A timed-out call is treated
// as failed-not-applied; the caller never assumes a partial effect.
const storeTimeout = 5 * time.Second

func boundStore(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// CatalogService manages the city-scoped resource catalog.
type CatalogService struct {
	resources repository.ResourceStore
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(resources repository.ResourceStore) *CatalogService {
	return &CatalogService{resources: resources}
}

// Create validates and inserts a new resource. The record's city is always
// the admin's own city; any city in the payload is ignored.
func (s *CatalogService) Create(ctx context.Context, caller auth.Identity, req model.CreateResourceRequest) (*model.Resource, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if err := validateResourceFields(&req.Name, req.Category, &req.Priority, req.Total, req.Available, req.MinThreshold); err != nil {
		return nil, err
	}
	if req.MinThreshold == 0 {
		req.MinThreshold = defaultMinThreshold
	}

	now := time.Now().UTC()
	res := &model.Resource{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Category:     req.Category,
		Priority:     req.Priority,
		City:         caller.City,
		Total:        req.Total,
		Available:    req.Available,
		MinThreshold: req.MinThreshold,
		CreatedBy:    caller.UserID,
		CreatedAt:    now,
		LastUpdated:  now,
	}
	ctx, cancel := boundStore(ctx)
	defer cancel()
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return res, nil
}

// Update validates and rewrites an existing resource. Resources outside the
// admin's city are indistinguishable from missing ones.
func (s *CatalogService) Update(ctx context.Context, caller auth.Identity, id string, req model.UpdateResourceRequest) (*model.Resource, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if id == "" {
		return nil, fmt.Errorf("resource id is required")
	}
	if err := validateResourceFields(&req.Name, req.Category, &req.Priority, req.Total, req.Available, req.MinThreshold); err != nil {
		return nil, err
	}

	ctx, cancel := boundStore(ctx)
	defer cancel()
	return s.resources.Update(ctx, caller.City, &model.Resource{
		ID:           id,
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Category:     req.Category,
		Priority:     req.Priority,
		Total:        req.Total,
		Available:    req.Available,
		MinThreshold: req.MinThreshold,
	})
}

// Delete hard-deletes a resource within the admin's city.
func (s *CatalogService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if !caller.HasCity() {
		return repository.ErrCityNotAssigned
	}
	if id == "" {
		return fmt.Errorf("resource id is required")
	}
	ctx, cancel := boundStore(ctx)
	defer cancel()
	return s.resources.Delete(ctx, caller.City, id)
}

// AddStock adds amount units to both total and available.
func (s *CatalogService) AddStock(ctx context.Context, caller auth.Identity, id string, amount int) (*model.Resource, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if id == "" {
		return nil, fmt.Errorf("resource id is required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be a positive integer")
	}
	ctx, cancel := boundStore(ctx)
	defer cancel()
	return s.resources.AddStock(ctx, caller.City, id, amount)
}

// Get returns a single resource in the caller's city.
func (s *CatalogService) Get(ctx context.Context, caller auth.Identity, id string) (*model.Resource, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if id == "" {
		return nil, fmt.Errorf("resource id is required")
	}
	return s.resources.GetByID(ctx, caller.City, id)
}

// List returns the caller's city catalog, filtered.
func (s *CatalogService) List(ctx context.Context, caller auth.Identity, filter model.ResourceFilter) ([]model.Resource, error) {
	if !caller.HasCity() {
		return nil, repository.ErrCityNotAssigned
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, fmt.Errorf("unknown category %q", filter.Category)
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, fmt.Errorf("unknown priority %q", filter.Priority)
	}
	return s.resources.List(ctx, caller.City, filter)
}

// validateResourceFields checks the shared create/update constraints. Name is
// trimmed in place and priority defaults to medium when absent.
func validateResourceFields(name *string, category model.Category, priority *model.Priority, total, available, minThreshold int) error {
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return fmt.Errorf("resource name is required")
	}
	if !category.IsValid() {
		return fmt.Errorf("unknown category %q", category)
	}
	if *priority == "" {
		*priority = model.PriorityMedium
	}
	if !priority.IsValid() {
		return fmt.Errorf("unknown priority %q", *priority)
	}
	if total < 0 {
		return fmt.Errorf("total cannot be negative")
	}
	if available < 0 {
		return fmt.Errorf("available cannot be negative")
	}
	if available > total {
		return fmt.Errorf("available cannot exceed total")
	}
	if minThreshold < 0 {
		return fmt.Errorf("min_threshold cannot be negative")
	}
	return nil
}
