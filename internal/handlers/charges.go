package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"timebank/internal/middleware"
	"timebank/internal/services"

	"github.com/go-chi/chi/v5"
)

type createChargeRequest struct {
	AllocationID  string `json:"allocation_id"`
	HoldID        string `json:"hold_id"`
	Project       string `json:"project"`
	Resource      string `json:"resource"`
	User          string `json:"user"`
	Amount        int64  `json:"amount"`
	AllowNegative bool   `json:"allow_negative"`
	Comment       string `json:"comment"`
}

func (h *Handler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateAmount(req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	svcReq := services.ChargeRequest{
		ActingUserID:  userID,
		AllocationID:  req.AllocationID,
		HoldID:        req.HoldID,
		Amount:        req.Amount,
		AllowNegative: req.AllowNegative,
		Comment:       req.Comment,
	}
	if req.User != "" {
		chargedID, err := h.dir.ResolveUser(r.Context(), req.User)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		svcReq.UserID = &chargedID
	}
	if req.AllocationID == "" && req.HoldID == "" {
		projectID, resourceID, ok := h.resolvePair(w, r, req.Project, req.Resource)
		if !ok {
			return
		}
		svcReq.ProjectID, svcReq.ResourceID = projectID, resourceID
	}
	results, err := h.service.CreateCharge(r.Context(), svcReq)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientFunds) && len(results) > 0 {
			respondJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":   err.Error(),
				"charges": results,
			})
			return
		}
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"charges": results})
}

type refundRequest struct {
	Amount  int64  `json:"amount"`
	Comment string `json:"comment"`
}

func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	chargeID := chi.URLParam(r, "id")
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateAmount(req.Amount); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	refundID, err := h.service.Refund(r.Context(), services.RefundRequest{
		ActingUserID: userID,
		ChargeID:     chargeID,
		Amount:       req.Amount,
		Comment:      req.Comment,
	})
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": refundID})
}

func (h *Handler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	chargeID := chi.URLParam(r, "id")
	refunds, err := h.refunds.ListByCharge(r.Context(), chargeID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list refunds")
		return
	}
	respondJSON(w, http.StatusOK, refunds)
}
