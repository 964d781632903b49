package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sahayata/resource-engine/internal/auth"
	"github.com/sahayata/resource-engine/internal/model"
	"github.com/sahayata/resource-engine/internal/service"
)

// RequestHandler holds the HTTP handlers for citizen requests.
type RequestHandler struct {
	svc *service.RequestService
}

// NewRequestHandler constructs a RequestHandler.
func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// Create handles POST /requests
// Files a new request in the citizen's own city, always pending.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.CreateRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	request, err := h.svc.Create(r.Context(), caller, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// List handles GET /requests
// Admin view of the city's requests, optionally ?status= filtered.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	requests, err := h.svc.List(r.Context(), caller, r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// ListMine handles GET /requests/mine
// Citizen view of their own requests, newest first.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	requests, err := h.svc.ListMine(r.Context(), caller)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// Decide handles POST /requests/{id}/decision
// Applies an admin's approve/reject/fulfill verdict.
func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req model.DecideRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Action.IsValid() {
		writeError(w, http.StatusBadRequest, "action must be 'approve', 'reject' or 'fulfill'")
		return
	}

	result, err := h.svc.Decide(r.Context(), caller, chi.URLParam(r, "id"), req.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
