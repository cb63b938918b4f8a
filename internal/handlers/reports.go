package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"timebank/internal/middleware"
	"timebank/internal/store"
	"timebank/internal/units"
	"timebank/internal/websocket"

	"github.com/go-chi/chi/v5"
)

// ProjectBalance reports a project's standing on one resource. With
// native=true the balance is also rendered in the resource's native unit
// using the effective conversion factor; stored quantities are untouched.
func (h *Handler) ProjectBalance(w http.ResponseWriter, r *http.Request) {
	projectID, err := h.dir.ResolveProject(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	resourceName := r.URL.Query().Get("resource")
	resourceID, err := h.dir.ResolveResource(r.Context(), resourceName)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	balance, err := h.service.ProjectBalance(r.Context(), projectID, resourceID)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	if r.URL.Query().Get("native") == "true" {
		factor, err := h.service.ResourceFactor(r.Context(), resourceID)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"balance":        balance,
			"native_balance": units.ToNative(balance.Balance, factor),
			"factor":         factor.String(),
		})
		return
	}
	respondJSON(w, http.StatusOK, balance)
}

// UsageReport serves the aggregate rollups for the reporting layer,
// filtered by an optional [after, before) window and name sets.
func (h *Handler) UsageReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	query := r.URL.Query()
	after, before, err := timeWindow(query.Get("after"), query.Get("before"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid time window")
		return
	}
	filter := store.UsageFilter{After: after, Before: before}
	for _, name := range splitNames(query.Get("projects")) {
		id, err := h.dir.ResolveProject(r.Context(), name)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		filter.Projects = append(filter.Projects, id)
	}
	for _, name := range splitNames(query.Get("resources")) {
		id, err := h.dir.ResolveResource(r.Context(), name)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		filter.Resources = append(filter.Resources, id)
	}
	for _, name := range splitNames(query.Get("users")) {
		id, err := h.dir.ResolveUser(r.Context(), name)
		if err != nil {
			respondLedgerError(w, err)
			return
		}
		filter.Users = append(filter.Users, id)
	}
	report, err := h.service.UsageReport(r.Context(), userID, filter)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	logs, err := h.audit.List(r.Context(), r.URL.Query().Get("entity"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	projectID, err := h.dir.ResolveProject(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	limit, offset := pagination(r)
	jobs, err := h.jobs.ListByProject(r.Context(), projectID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// WSBalances subscribes a client to live balance updates for one project.
// The token rides in the query string because browsers cannot set headers
// on websocket upgrades.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	projectID, err := h.dir.ResolveProject(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	websocket.ServeWS(w, r, h.hub, projectID)
}

func splitNames(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func pagination(r *http.Request) (int, int) {
	limit := 50
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
