package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/repository"
	"github.com/sahayata/resource-engine/internal/service"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*repository.Memory, http.Handler) {
	t.Helper()
	mem := repository.NewMemory()
	catalogSvc := service.NewCatalogService(mem.Resources())
	requestSvc := service.NewRequestService(mem.Requests(), mem.Resources(), mem.Notifications())
	resourceHandler := NewResourceHandler(catalogSvc)
	requestHandler := NewRequestHandler(requestSvc)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(testSecret))
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", resourceHandler.List)
			r.Get("/{id}", resourceHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Post("/", resourceHandler.Create)
				r.Put("/{id}", resourceHandler.Update)
				r.Delete("/{id}", resourceHandler.Delete)
				r.Post("/{id}/stock", resourceHandler.AddStock)
			})
		})
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", requestHandler.Create)
			r.Get("/mine", requestHandler.ListMine)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/", requestHandler.List)
				r.Post("/{id}/decision", requestHandler.Decide)
			})
		})
	})
	return mem, r
}

func token(t *testing.T, id auth.Identity) string {
	t.Helper()
	tok, err := auth.NewToken(testSecret, id, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var (
	adminID = auth.Identity{
		UserID: "admin-1", Name: "Asha", Role: auth.RoleAdmin, City: "pune",
	}
	citizenID = auth.Identity{
		UserID: "citizen-1", Name: "Meera", Role: auth.RoleCitizen, City: "pune",
		Contact: "+91-9000000000",
	}
)

func TestAuthRequired(t *testing.T) {
	_, srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/resources", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", rec.Code)
	}
}

func TestAdminGate(t *testing.T) {
	_, srv := newTestServer(t)

	// Citizens cannot touch the catalog's mutating routes.
	rec := doJSON(t, srv, http.MethodPost, "/resources", token(t, citizenID), model.CreateResourceRequest{
		Name: "Tents", Category: model.CategoryShelter, Total: 5, Available: 5,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("citizen create: status %d, want 403", rec.Code)
	}

	// An admin without a provisioned city fails closed.
	unset := auth.Identity{UserID: "admin-2", Role: auth.RoleAdmin, City: auth.CityUnset}
	rec = doJSON(t, srv, http.MethodPost, "/resources", token(t, unset), model.CreateResourceRequest{
		Name: "Tents", Category: model.CategoryShelter, Total: 5, Available: 5,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unprovisioned admin: status %d, want 403", rec.Code)
	}
}

func TestResourceAndRequestFlow(t *testing.T) {
	mem, srv := newTestServer(t)
	adminToken := token(t, adminID)
	citizenToken := token(t, citizenID)

	// Admin creates a resource.
	rec := doJSON(t, srv, http.MethodPost, "/resources", adminToken, model.CreateResourceRequest{
		Name: "Bandages", Category: model.CategoryMedical, Priority: model.PriorityHigh,
		Total: 100, Available: 100,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create resource: status %d, body %s", rec.Code, rec.Body.String())
	}
	var res model.Resource
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if res.City != "pune" {
		t.Fatalf("city = %q, want pune", res.City)
	}

	// Citizen files a request.
	rec = doJSON(t, srv, http.MethodPost, "/requests", citizenToken, model.CreateRequestRequest{
		ResourceID: res.ID, Quantity: 30,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create request: status %d, body %s", rec.Code, rec.Body.String())
	}
	var req model.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	// Admin approves: stock drops, notification recorded.
	rec = doJSON(t, srv, http.MethodPost, "/requests/"+req.ID+"/decision", adminToken, model.DecideRequestRequest{
		Action: model.ActionApprove,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: status %d, body %s", rec.Code, rec.Body.String())
	}
	var result model.DecisionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Request.Status != model.StatusApproved || result.Resource.Available != 70 {
		t.Fatalf("unexpected approval result: %+v", result)
	}
	if !result.NotificationSent {
		t.Fatalf("notification not sent")
	}

	// Fulfill: terminal, no further inventory effect.
	rec = doJSON(t, srv, http.MethodPost, "/requests/"+req.ID+"/decision", adminToken, model.DecideRequestRequest{
		Action: model.ActionFulfill,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("fulfill: status %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodGet, "/resources/"+res.ID, citizenToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get resource: status %d", rec.Code)
	}
	var after model.Resource
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if after.Available != 70 {
		t.Fatalf("fulfill changed stock: available = %d, want 70", after.Available)
	}

	// A second fulfill hits the transition guard.
	rec = doJSON(t, srv, http.MethodPost, "/requests/"+req.ID+"/decision", adminToken, model.DecideRequestRequest{
		Action: model.ActionFulfill,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double fulfill: status %d, want 409", rec.Code)
	}

	if n := len(mem.SentNotifications()); n != 2 {
		t.Fatalf("expected 2 notifications, got %d", n)
	}
}

func TestInsufficientStockSurfacesConflict(t *testing.T) {
	_, srv := newTestServer(t)
	adminToken := token(t, adminID)
	citizenToken := token(t, citizenID)

	rec := doJSON(t, srv, http.MethodPost, "/resources", adminToken, model.CreateResourceRequest{
		Name: "Tents", Category: model.CategoryShelter, Total: 5, Available: 5,
	})
	var res model.Resource
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resource: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/requests", citizenToken, model.CreateRequestRequest{
		ResourceID: res.ID, Quantity: 10,
	})
	var req model.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/requests/"+req.ID+"/decision", adminToken, model.DecideRequestRequest{
		Action: model.ActionApprove,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("approve beyond stock: status %d, want 409", rec.Code)
	}
	var body model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.Error == "" {
		t.Fatalf("error message missing")
	}
}

func TestCrossCityLooksLikeNotFound(t *testing.T) {
	_, srv := newTestServer(t)
	adminToken := token(t, adminID)

	rec := doJSON(t, srv, http.MethodPost, "/resources", adminToken, model.CreateResourceRequest{
		Name: "Fuel", Category: model.CategoryEnergy, Total: 10, Available: 10,
	})
	var res model.Resource
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resource: %v", err)
	}

	other := auth.Identity{UserID: "admin-3", Role: auth.RoleAdmin, City: "nagpur"}
	rec = doJSON(t, srv, http.MethodDelete, "/resources/"+res.ID, token(t, other), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-city delete: status %d, want 404", rec.Code)
	}
}

func TestListFilterValidation(t *testing.T) {
	_, srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/resources?filter=bogus", token(t, citizenID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus filter: status %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/resources?category=weapons", token(t, citizenID), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus category: status %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/resources", token(t, citizenID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("plain list: status %d, want 200", rec.Code)
	}
	if rec.Body.String() == "" || rec.Body.String() == "null\n" {
		t.Fatalf("empty list must encode as [], got %q", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d", rec.Code)
	}
}
