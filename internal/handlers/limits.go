package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"timebank/internal/middleware"
	"timebank/internal/services"
)

type setCreditLimitRequest struct {
	Project  string    `json:"project"`
	Resource string    `json:"resource"`
	StartAt  time.Time `json:"start_at"`
	Amount   int64     `json:"amount"`
}

func (h *Handler) SetCreditLimit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req setCreditLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateAmount(req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, resourceID, ok := h.resolvePair(w, r, req.Project, req.Resource)
	if !ok {
		return
	}
	limitID, err := h.service.SetCreditLimit(r.Context(), services.SetCreditLimitRequest{
		ActingUserID: userID,
		ProjectID:    projectID,
		ResourceID:   resourceID,
		StartAt:      req.StartAt,
		Amount:       req.Amount,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": limitID})
}

type setUnitFactorRequest struct {
	Resource string    `json:"resource"`
	StartAt  time.Time `json:"start_at"`
	Factor   string    `json:"factor"`
}

func (h *Handler) SetUnitFactor(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req setUnitFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	resourceID, err := h.dir.ResolveResource(r.Context(), req.Resource)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	factorID, err := h.service.SetUnitFactor(r.Context(), services.SetUnitFactorRequest{
		ActingUserID: userID,
		ResourceID:   resourceID,
		StartAt:      req.StartAt,
		Factor:       req.Factor,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": factorID})
}

func (h *Handler) ListCreditLimits(w http.ResponseWriter, r *http.Request) {
	projectID, err := h.dir.ResolveProject(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	limits, err := h.limits.ListByProject(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list credit limits")
		return
	}
	respondJSON(w, http.StatusOK, limits)
}

func (h *Handler) ListUnitFactors(w http.ResponseWriter, r *http.Request) {
	resourceID, err := h.dir.ResolveResource(r.Context(), r.URL.Query().Get("resource"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	factors, err := h.factors.ListByResource(r.Context(), resourceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list unit factors")
		return
	}
	respondJSON(w, http.StatusOK, factors)
}
