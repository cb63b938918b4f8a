package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"timebank/internal/directory"
	"timebank/internal/services"
)

func TestCreateHoldResolvesNames(t *testing.T) {
	var gotReq services.HoldRequest
	service := stubService{
		createHoldFn: func(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error) {
			gotReq = req
			return []services.HoldResult{{HoldID: "h1", AllocationID: "a1", Amount: 100}}, nil
		},
	}
	dir := stubDirectoryAdmin{
		resolveProjectFn:  func(ctx context.Context, name string) (string, error) { return "p-" + name, nil },
		resolveResourceFn: func(ctx context.Context, name string) (string, error) { return "r-" + name, nil },
	}
	h := newTestHandler(stubUserStore{}, dir, service)

	rr := serveAuthedJSON(t, h.CreateHold, http.MethodPost,
		`{"project":"astro","resource":"cluster","amount":100}`, "u1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotReq.ActingUserID != "u1" || gotReq.ProjectID != "p-astro" || gotReq.ResourceID != "r-cluster" {
		t.Fatalf("names not resolved: %#v", gotReq)
	}
}

func TestCreateHoldUnknownProject(t *testing.T) {
	dir := stubDirectoryAdmin{
		resolveProjectFn: func(ctx context.Context, name string) (string, error) {
			return "", fmt.Errorf("project %s: %w", name, directory.ErrNotFound)
		},
	}
	h := newTestHandler(stubUserStore{}, dir, stubService{})

	rr := serveAuthedJSON(t, h.CreateHold, http.MethodPost,
		`{"project":"ghost","resource":"cluster","amount":100}`, "u1")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCreateHoldNegativeAmount(t *testing.T) {
	h := newTestHandler(stubUserStore{}, stubDirectoryAdmin{}, stubService{})
	rr := serveAuthedJSON(t, h.CreateHold, http.MethodPost,
		`{"project":"astro","resource":"cluster","amount":-5}`, "u1")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateHoldPartialCommitReports402(t *testing.T) {
	service := stubService{
		createHoldFn: func(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error) {
			return []services.HoldResult{{HoldID: "h1", AllocationID: "a1", Amount: 600}},
				fmt.Errorf("%w: project p1", services.ErrInsufficientFunds)
		},
	}
	h := newTestHandler(stubUserStore{}, stubDirectoryAdmin{}, service)

	rr := serveAuthedJSON(t, h.CreateHold, http.MethodPost,
		`{"project":"astro","resource":"cluster","amount":900}`, "u1")
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rr.Code)
	}
	var body struct {
		Error string                `json:"error"`
		Holds []services.HoldResult `json:"holds"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body.Error == "" || len(body.Holds) != 1 || body.Holds[0].HoldID != "h1" {
		t.Fatalf("committed holds must be reported alongside the error: %+v", body)
	}
}

func TestCreateHoldNoAllocation(t *testing.T) {
	service := stubService{
		createHoldFn: func(ctx context.Context, req services.HoldRequest) ([]services.HoldResult, error) {
			return nil, services.ErrNoAllocationAvailable
		},
	}
	h := newTestHandler(stubUserStore{}, stubDirectoryAdmin{}, service)

	rr := serveAuthedJSON(t, h.CreateHold, http.MethodPost,
		`{"project":"astro","resource":"cluster","amount":100}`, "u1")
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}
