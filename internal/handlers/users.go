package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type setCapabilitiesRequest struct {
	CanRequest  bool `json:"can_request"`
	CanAllocate bool `json:"can_allocate"`
	CanHold     bool `json:"can_hold"`
	CanCharge   bool `json:"can_charge"`
	CanRefund   bool `json:"can_refund"`
}

// SetUserCapabilities replaces a user's capability flags wholesale. The
// payload states every flag explicitly so a grant cannot silently keep a
// stale one.
func (h *Handler) SetUserCapabilities(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req setCapabilitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	userID, err := h.dir.ResolveUser(r.Context(), name)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	var updated int64
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		updated, err = h.users.SetCapabilities(r.Context(), tx, userID,
			req.CanRequest, req.CanAllocate, req.CanHold, req.CanCharge, req.CanRefund)
		return err
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update capabilities")
		return
	}
	if updated == 0 {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
