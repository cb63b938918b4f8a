package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"timebank/internal/middleware"
	"timebank/internal/services"
)

// ingestJobRequest is the batch accounting feed contract: an external
// producer reports time a finished job consumed.
type ingestJobRequest struct {
	JobID        string     `json:"job_id"`
	User         string     `json:"user"`
	Project      string     `json:"project"`
	Resource     string     `json:"resource"`
	AllocationID string     `json:"allocation_id"`
	AmountUsed   int64      `json:"amount_used"`
	StartedAt    *time.Time `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
}

func (h *Handler) IngestJob(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req ingestJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.JobID == "" {
		respondError(w, http.StatusBadRequest, "job_id is required")
		return
	}
	if err := validateAmount(req.AmountUsed); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, resourceID, ok := h.resolvePair(w, r, req.Project, req.Resource)
	if !ok {
		return
	}
	svcReq := services.IngestJobRequest{
		ActingUserID: userID,
		JobID:        req.JobID,
		ProjectID:    projectID,
		ResourceID:   resourceID,
		AllocationID: req.AllocationID,
		AmountUsed:   req.AmountUsed,
		StartedAt:    req.StartedAt,
		EndedAt:      req.EndedAt,
	}
	if req.User != "" {
		jobUserID, err := h.dir.ResolveUser(r.Context(), req.User)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		svcReq.UserID = &jobUserID
	}
	result, err := h.service.IngestJob(r.Context(), svcReq)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) && len(result.Charges) > 0 {
			respondJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":  err.Error(),
				"result": result,
			})
			return
		}
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
