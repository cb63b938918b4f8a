package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timebank/internal/directory"

	"github.com/go-chi/chi/v5"
)

func serveSetCapabilities(t *testing.T, h *Handler, name, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/users/"+name+"/capabilities", strings.NewReader(body))
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("name", name)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
	rr := httptest.NewRecorder()
	h.SetUserCapabilities(rr, req)
	return rr
}

func TestSetUserCapabilities(t *testing.T) {
	var gotUserID string
	var gotFlags [5]bool
	users := stubUserStore{
		setCapabilitiesFn: func(ctx context.Context, userID string, flags [5]bool) (int64, error) {
			gotUserID = userID
			gotFlags = flags
			return 1, nil
		},
	}
	dir := stubDirectoryAdmin{
		resolveUserFn: func(ctx context.Context, name string) (string, error) { return "uid-" + name, nil },
	}
	h := newTestHandler(users, dir, stubService{})

	rr := serveSetCapabilities(t, h, "bob", `{"can_request":true,"can_hold":true,"can_charge":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotUserID != "uid-bob" {
		t.Fatalf("name not resolved: %q", gotUserID)
	}
	want := [5]bool{true, false, true, true, false}
	if gotFlags != want {
		t.Fatalf("unexpected flags: %v", gotFlags)
	}
}

func TestSetUserCapabilitiesUnknownUser(t *testing.T) {
	dir := stubDirectoryAdmin{
		resolveUserFn: func(ctx context.Context, name string) (string, error) {
			return "", fmt.Errorf("user %s: %w", name, directory.ErrNotFound)
		},
	}
	h := newTestHandler(stubUserStore{}, dir, stubService{})

	rr := serveSetCapabilities(t, h, "ghost", `{"can_request":true}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
