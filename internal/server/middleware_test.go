package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"tailscale.com/client/tailscale/apitype"
	"tailscale.com/tailcfg"
)

type fakeWhoIs struct {
	profiles map[string]*tailcfg.UserProfile
}

func (f fakeWhoIs) WhoIs(_ context.Context, remoteAddr string) (*apitype.WhoIsResponse, error) {
	p, ok := f.profiles[remoteAddr]
	if !ok {
		return nil, errors.New("no match for IP:port")
	}
	return &apitype.WhoIsResponse{UserProfile: p}, nil
}

// TestDevIdentity verifies that the dev identity middleware sets user_id=1
// for all requests, enabling local development without Tailscale.
func TestDevIdentity(t *testing.T) {
	var gotUserID int
	handler := DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userIDFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if gotUserID != 1 {
		t.Errorf("userID = %d, want 1", gotUserID)
	}
}

// TestTailscaleIdentity verifies that tailnet users map to stable user IDs
// and unknown peers are rejected.
func TestTailscaleIdentity(t *testing.T) {
	whois := fakeWhoIs{profiles: map[string]*tailcfg.UserProfile{
		"100.64.0.1:1234": {LoginName: "alice@example.com", DisplayName: "Alice"},
		"100.64.0.2:1234": {LoginName: "bob@example.com", DisplayName: "Bob"},
	}}
	users := newMemStore()

	var gotID int
	var gotInfo UserInfo
	handler := TailscaleIdentity(whois, users, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call("100.64.0.1:1234"); code != http.StatusOK {
		t.Fatalf("alice status = %d", code)
	}
	aliceID := gotID
	if gotInfo.Login != "alice@example.com" || gotInfo.DisplayName != "Alice" {
		t.Errorf("alice info = %+v", gotInfo)
	}

	call("100.64.0.2:1234")
	if gotID == aliceID {
		t.Errorf("bob got alice's ID %d", gotID)
	}

	call("100.64.0.1:1234")
	if gotID != aliceID {
		t.Errorf("alice ID changed: %d -> %d", aliceID, gotID)
	}

	if code := call("192.0.2.1:9"); code != http.StatusUnauthorized {
		t.Errorf("unknown peer status = %d, want 401", code)
	}
}

// TestServerSetTailscale verifies that the server switches identity source
// once a whois client is configured.
func TestServerSetTailscale(t *testing.T) {
	s, _ := newTestServer(t)
	s.SetTailscale(fakeWhoIs{profiles: map[string]*tailcfg.UserProfile{
		"100.64.0.9:80": {LoginName: "carol@example.com", DisplayName: "Carol"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.RemoteAddr = "100.64.0.9:80"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if info := decode[UserInfo](t, rec); info.Login != "carol@example.com" {
		t.Errorf("login = %q, want carol@example.com", info.Login)
	}

	// Health stays reachable without identity.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

// TestUserIDFromContextDefault verifies that userIDFromContext returns 1
// when no identity middleware has set a value.
func TestUserIDFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := userIDFromContext(req); id != 1 {
		t.Errorf("userIDFromContext without context value = %d, want 1", id)
	}
}

// TestUserInfoFromContextDefault verifies the fallback UserInfo when no
// identity middleware has set a value.
func TestUserInfoFromContextDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	info := userInfoFromContext(req)
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

// TestRequestLogging verifies that the logging middleware calls the next handler and records status.
func TestRequestLogging(t *testing.T) {
	handler := RequestLogging(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
}

// TestCORSPreflight verifies that OPTIONS requests get 204 with CORS headers.
func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not be called for OPTIONS")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
}
