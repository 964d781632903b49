package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/repository"
)

var (
	puneAdmin = auth.Identity{
		UserID: "admin-pune", Name: "Asha", Role: auth.RoleAdmin, City: "pune",
	}
	nagpurAdmin = auth.Identity{
		UserID: "admin-nagpur", Name: "Ravi", Role: auth.RoleAdmin, City: "nagpur",
	}
	unprovisionedAdmin = auth.Identity{
		UserID: "admin-new", Name: "Kiran", Role: auth.RoleAdmin, City: auth.CityUnset,
	}
	puneCitizen = auth.Identity{
		UserID: "citizen-1", Name: "Meera", Role: auth.RoleCitizen, City: "pune",
		Contact: "+91-9000000000",
	}
)

func newCatalog(t *testing.T) (*repository.Memory, *CatalogService) {
	t.Helper()
	mem := repository.NewMemory()
	return mem, NewCatalogService(mem.Resources())
}

func mustCreateResource(t *testing.T, svc *CatalogService, caller auth.Identity, req model.CreateResourceRequest) *model.Resource {
	t.Helper()
	res, err := svc.Create(context.Background(), caller, req)
	if err != nil {
		t.Fatalf("create resource: %v", err)
	}
	return res
}

func TestCreateResourceDefaultsAndScoping(t *testing.T) {
	_, svc := newCatalog(t)

	res := mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "  Bandages ", Category: model.CategoryMedical,
		Total: 100, Available: 100,
	})
	if res.Name != "Bandages" {
		t.Fatalf("name not trimmed: %q", res.Name)
	}
	if res.City != "pune" {
		t.Fatalf("city should be forced to the admin's city, got %q", res.City)
	}
	if res.MinThreshold != 5 {
		t.Fatalf("min threshold should default to 5, got %d", res.MinThreshold)
	}
	if res.Priority != model.PriorityMedium {
		t.Fatalf("priority should default to medium, got %q", res.Priority)
	}
	if res.CreatedBy != puneAdmin.UserID {
		t.Fatalf("created_by = %q, want %q", res.CreatedBy, puneAdmin.UserID)
	}
}

func TestCreateResourceValidation(t *testing.T) {
	_, svc := newCatalog(t)
	ctx := context.Background()

	cases := []model.CreateResourceRequest{
		{Name: "", Category: model.CategoryFood, Total: 10, Available: 10},
		{Name: "Rice", Category: "weapons", Total: 10, Available: 10},
		{Name: "Rice", Category: model.CategoryFood, Total: -1, Available: 0},
		{Name: "Rice", Category: model.CategoryFood, Total: 10, Available: -1},
		{Name: "Rice", Category: model.CategoryFood, Total: 10, Available: 11},
		{Name: "Rice", Category: model.CategoryFood, Total: 10, Available: 5, MinThreshold: -2},
	}
	for i, req := range cases {
		if _, err := svc.Create(ctx, puneAdmin, req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestCreateResourceRequiresCity(t *testing.T) {
	_, svc := newCatalog(t)
	_, err := svc.Create(context.Background(), unprovisionedAdmin, model.CreateResourceRequest{
		Name: "Tents", Category: model.CategoryShelter, Total: 5, Available: 5,
	})
	if !errors.Is(err, repository.ErrCityNotAssigned) {
		t.Fatalf("expected ErrCityNotAssigned, got %v", err)
	}
}

func TestUpdateResourceEnforcesInvariant(t *testing.T) {
	_, svc := newCatalog(t)
	ctx := context.Background()
	res := mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Water", Category: model.CategoryFood, Total: 50, Available: 50,
	})

	if _, err := svc.Update(ctx, puneAdmin, res.ID, model.UpdateResourceRequest{
		Name: "Water", Category: model.CategoryFood, Total: 40, Available: 45, MinThreshold: 5,
	}); err == nil {
		t.Fatalf("available > total must be rejected")
	}

	updated, err := svc.Update(ctx, puneAdmin, res.ID, model.UpdateResourceRequest{
		Name: "Water Cans", Category: model.CategoryFood, Priority: model.PriorityHigh,
		Total: 40, Available: 35, MinThreshold: 10,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "pune" {
		t.Fatalf("city must be immutable, got %q", updated.City)
	}
	if updated.Total != 40 || updated.Available != 35 || updated.MinThreshold != 10 {
		t.Fatalf("unexpected counters after update: %+v", updated)
	}
}

func TestCrossCityUpdateIsNotFound(t *testing.T) {
	mem, svc := newCatalog(t)
	ctx := context.Background()
	res := mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Blankets", Category: model.CategoryShelter, Total: 30, Available: 30,
	})

	_, err := svc.Update(ctx, nagpurAdmin, res.ID, model.UpdateResourceRequest{
		Name: "Blankets", Category: model.CategoryShelter, Total: 1, Available: 1,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-city update must look like not-found, got %v", err)
	}
	if err := svc.Delete(ctx, nagpurAdmin, res.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-city delete must look like not-found, got %v", err)
	}

	// No mutation happened.
	kept, err := mem.Resources().GetByID(ctx, "pune", res.ID)
	if err != nil {
		t.Fatalf("resource vanished: %v", err)
	}
	if kept.Total != 30 || kept.Available != 30 {
		t.Fatalf("cross-city access mutated the record: %+v", kept)
	}
}

func TestAddStock(t *testing.T) {
	_, svc := newCatalog(t)
	ctx := context.Background()
	res := mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Torches", Category: model.CategoryTools, Total: 50, Available: 10,
	})

	updated, err := svc.AddStock(ctx, puneAdmin, res.ID, 20)
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if updated.Total != 70 || updated.Available != 30 {
		t.Fatalf("got total=%d available=%d, want 70/30", updated.Total, updated.Available)
	}
	if !updated.LastUpdated.After(res.LastUpdated) && !updated.LastUpdated.Equal(res.LastUpdated) {
		t.Fatalf("last_updated not bumped")
	}

	if _, err := svc.AddStock(ctx, puneAdmin, res.ID, 0); err == nil {
		t.Fatalf("amount 0 must be rejected")
	}
	if _, err := svc.AddStock(ctx, puneAdmin, res.ID, -5); err == nil {
		t.Fatalf("negative amount must be rejected")
	}
}

func TestListFiltersAndOrdering(t *testing.T) {
	_, svc := newCatalog(t)
	ctx := context.Background()

	mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Rice", Category: model.CategoryFood, Total: 10, Available: 0, MinThreshold: 2,
	})
	mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Antiseptic", Category: model.CategoryMedical, Priority: model.PriorityCritical,
		Total: 20, Available: 3, MinThreshold: 5,
	})
	mustCreateResource(t, svc, puneAdmin, model.CreateResourceRequest{
		Name: "Ropes", Category: model.CategoryRescue, Total: 15, Available: 15, MinThreshold: 2,
	})
	mustCreateResource(t, svc, nagpurAdmin, model.CreateResourceRequest{
		Name: "Rice", Category: model.CategoryFood, Total: 99, Available: 99,
	})

	all, err := svc.List(ctx, puneAdmin, model.ResourceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("city scoping broken: got %d resources", len(all))
	}
	if all[0].Name != "Antiseptic" || all[1].Name != "Rice" || all[2].Name != "Ropes" {
		t.Fatalf("not ordered by name: %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	available, err := svc.List(ctx, puneAdmin, model.ResourceFilter{OnlyAvailable: true})
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("available filter: got %d, want 2", len(available))
	}

	low, err := svc.List(ctx, puneAdmin, model.ResourceFilter{OnlyLowStock: true})
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("low-stock filter: got %d, want 2 (Rice at 0, Antiseptic at 3)", len(low))
	}

	critical, err := svc.List(ctx, puneAdmin, model.ResourceFilter{Priority: model.PriorityCritical})
	if err != nil {
		t.Fatalf("list critical: %v", err)
	}
	if len(critical) != 1 || critical[0].Name != "Antiseptic" {
		t.Fatalf("priority filter broken: %+v", critical)
	}

	medical, err := svc.List(ctx, puneAdmin, model.ResourceFilter{Category: model.CategoryMedical})
	if err != nil {
		t.Fatalf("list medical: %v", err)
	}
	if len(medical) != 1 || medical[0].Name != "Antiseptic" {
		t.Fatalf("category filter broken: %+v", medical)
	}
}
