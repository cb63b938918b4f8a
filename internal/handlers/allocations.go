package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"timebank/internal/middleware"
	"timebank/internal/services"

	"github.com/go-chi/chi/v5"
)

type createAllocationRequest struct {
	Project   string    `json:"project"`
	Resource  string    `json:"resource"`
	Amount    int64     `json:"amount"`
	StartAt   time.Time `json:"start_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Comment   string    `json:"comment"`
}

func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateAmount(req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, err := h.dir.ResolveProject(r.Context(), req.Project)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	resourceID, err := h.dir.ResolveResource(r.Context(), req.Resource)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	allocationID, err := h.service.CreateAllocation(r.Context(), services.CreateAllocationRequest{
		ActingUserID: userID,
		ProjectID:    projectID,
		ResourceID:   resourceID,
		Amount:       req.Amount,
		StartAt:      req.StartAt,
		ExpiresAt:    req.ExpiresAt,
		Comment:      req.Comment,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": allocationID})
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	projectID, resourceID := "", ""
	if name := r.URL.Query().Get("project"); name != "" {
		id, err := h.dir.ResolveProject(r.Context(), name)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		projectID = id
	}
	if name := r.URL.Query().Get("resource"); name != "" {
		id, err := h.dir.ResolveResource(r.Context(), name)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		resourceID = id
	}
	summaries, err := h.allocations.ListSummaries(r.Context(), projectID, resourceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list allocations")
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// AllocationDetail returns one allocation with its holds, charges, and per
// charge refunds.
func (h *Handler) AllocationDetail(w http.ResponseWriter, r *http.Request) {
	allocationID := chi.URLParam(r, "id")
	alloc, err := h.allocations.GetByID(r.Context(), allocationID)
	if err != nil {
		respondError(w, http.StatusNotFound, "allocation not found")
		return
	}
	holds, err := h.holds.ListByAllocation(r.Context(), allocationID, false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list holds")
		return
	}
	charges, err := h.charges.ListByAllocation(r.Context(), allocationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list charges")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"allocation": alloc,
		"holds":      holds,
		"charges":    charges,
	})
}
