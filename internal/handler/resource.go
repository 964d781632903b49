package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/service"
)

// ResourceHandler holds the HTTP handlers for the resource catalog.
type ResourceHandler struct {
	svc *service.CatalogService
}

// NewResourceHandler constructs a ResourceHandler.
func NewResourceHandler(svc *service.CatalogService) *ResourceHandler {
	return &ResourceHandler{svc: svc}
}

// Create handles POST /resources
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.CreateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Create(r.Context(), caller, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /resources
// Supported query params: filter=available|low-stock, category, priority.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := model.ResourceFilter{
		Category: model.Category(r.URL.Query().Get("category")),
		Priority: model.Priority(r.URL.Query().Get("priority")),
	}
	switch r.URL.Query().Get("filter") {
	case "":
	case "available":
		filter.OnlyAvailable = true
	case "low-stock":
		filter.OnlyLowStock = true
	default:
		writeError(w, http.StatusBadRequest, "filter must be 'available' or 'low-stock'")
		return
	}

	resources, err := h.svc.List(r.Context(), caller, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	writeJSON(w, http.StatusOK, resources)
}

// Get handles GET /resources/{id}
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	res, err := h.svc.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Update handles PUT /resources/{id}
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.UpdateResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Delete handles DELETE /resources/{id}
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.svc.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddStock handles POST /resources/{id}/stock
func (h *ResourceHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.AddStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.AddStock(r.Context(), caller, chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
