package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"timebank/internal/middleware"
	"timebank/internal/services"

	"github.com/go-chi/chi/v5"
)

type createHoldRequest struct {
	AllocationID  string `json:"allocation_id"`
	Project       string `json:"project"`
	Resource      string `json:"resource"`
	Amount        int64  `json:"amount"`
	AllowNegative bool   `json:"allow_negative"`
	Comment       string `json:"comment"`
}

func (h *Handler) CreateHold(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateAmount(req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	svcReq := services.HoldRequest{
		ActingUserID:  userID,
		AllocationID:  req.AllocationID,
		Amount:        req.Amount,
		AllowNegative: req.AllowNegative,
		Comment:       req.Comment,
	}
	if req.AllocationID == "" {
		projectID, resourceID, ok := h.resolvePair(w, r, req.Project, req.Resource)
		if !ok {
			return
		}
		svcReq.ProjectID, svcReq.ResourceID = projectID, resourceID
	}
	results, err := h.service.CreateHold(r.Context(), svcReq)
	if err != nil {
		// A distribution can commit some holds before a credit-limit
		// failure; report both the error and what stands.
		if errors.Is(err, services.ErrInsufficientFunds) && len(results) > 0 {
			respondJSON(w, http.StatusPaymentRequired, map[string]any{
				"error": err.Error(),
				"holds": results,
			})
			return
		}
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"holds": results})
}

func (h *Handler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	holdID := chi.URLParam(r, "id")
	if err := h.service.ReleaseHold(r.Context(), userID, holdID); err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

// resolvePair resolves project and resource names, writing the error
// response itself when either is unknown.
func (h *Handler) resolvePair(w http.ResponseWriter, r *http.Request, project, resource string) (string, string, bool) {
	projectID, err := h.dir.ResolveProject(r.Context(), project)
	if err != nil {
		respondLedgerError(w, err)
		return "", "", false
	}
	resourceID, err := h.dir.ResolveResource(r.Context(), resource)
	if err != nil {
		respondLedgerError(w, err)
		return "", "", false
	}
	return projectID, resourceID, true
}
