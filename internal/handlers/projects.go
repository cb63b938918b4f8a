package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Project, resource, and membership rows mirror identities owned upstream;
// these endpoints cache the keys locally so the ledger can reference them.

type registerNameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) RegisterProject(w http.ResponseWriter, r *http.Request) {
	var req registerNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.dir.RegisterProject(r.Context(), tx, projectID, req.Name)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to register project")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": projectID, "name": req.Name})
}

func (h *Handler) RegisterResource(w http.ResponseWriter, r *http.Request) {
	var req registerNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resourceID := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.dir.RegisterResource(r.Context(), tx, resourceID, req.Name)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to register resource")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": resourceID, "name": req.Name})
}

type addMemberRequest struct {
	Project   string `json:"project"`
	User      string `json:"user"`
	IsManager bool   `json:"is_manager"`
}

func (h *Handler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	projectID, err := h.dir.ResolveProject(r.Context(), req.Project)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	memberID, err := h.dir.ResolveUser(r.Context(), req.User)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.dir.AddMember(r.Context(), tx, projectID, memberID, req.IsManager)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "added"})
}
