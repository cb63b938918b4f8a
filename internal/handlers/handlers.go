package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"timebank/internal/config"
	"timebank/internal/db"
	"timebank/internal/directory"
	"timebank/internal/services"
	"timebank/internal/websocket"
)

type Handler struct {
	cfg         config.Config
	txRunner    db.TxRunner
	users       UserStore
	allocations AllocationReader
	holds       HoldReader
	charges     ChargeReader
	refunds     RefundReader
	limits      CreditLimitReader
	factors     UnitFactorReader
	jobs        JobReader
	audit       AuditReader
	dir         DirectoryAdmin
	service     LedgerService
	hub         *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, allocations AllocationReader, holds HoldReader, charges ChargeReader, refunds RefundReader, limits CreditLimitReader, factors UnitFactorReader, jobs JobReader, audit AuditReader, dir DirectoryAdmin, service LedgerService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:         cfg,
		txRunner:    txRunner,
		users:       users,
		allocations: allocations,
		holds:       holds,
		charges:     charges,
		refunds:     refunds,
		limits:      limits,
		factors:     factors,
		jobs:        jobs,
		audit:       audit,
		dir:         dir,
		service:     service,
		hub:         hub,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondLedgerError maps the service error taxonomy onto HTTP statuses.
// The error text carries the offending entity and amounts, so it is passed
// through as the explanation.
func respondLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, directory.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotPermitted):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidValue):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInsufficientFunds):
		respondError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrNoAllocationAvailable):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
