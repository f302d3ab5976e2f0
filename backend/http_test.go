package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Seann-Moser/reportgate/session"
)

func TestHTTPClientBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(AppInfo{Version: "25.2", InstanceType: InstanceTypeSaaS})
	}))
	defer srv.Close()

	s := session.New()
	s.SetToken("tok-123")
	client := NewHTTPClient(srv.URL, s)

	info, err := client.FetchAppInfo(context.Background())
	if err != nil {
		t.Fatalf("FetchAppInfo error: %v", err)
	}
	if info.Version != "25.2" {
		t.Errorf("Version = %q; want %q", info.Version, "25.2")
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer tok-123")
	}

	// token swap must be visible on the very next request
	s.SetToken("tok-456")
	if _, err := client.FetchAppInfo(context.Background()); err != nil {
		t.Fatalf("FetchAppInfo error: %v", err)
	}
	if gotAuth != "Bearer tok-456" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer tok-456")
	}
}

func TestHTTPClientAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, session.New())
	_, err := client.FetchCurrentUser(context.Background())
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !IsAuthError(err) {
		t.Errorf("IsAuthError = false for 401 response: %v", err)
	}
}

func TestHTTPClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, session.New())
	_, err := client.FetchPlugins(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if IsAuthError(err) {
		t.Errorf("IsAuthError = true for 500 response")
	}
}

func TestHTTPClientFetchCurrentUser(t *testing.T) {
	user := session.UserInfo{
		ID:          "u1",
		AccountRole: "ADMINISTRATOR",
		AssignedOrganizations: map[string]session.OrganizationAssignment{
			"org-a": {OrganizationID: "1", OrganizationRole: "MANAGER"},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, session.New())
	got, err := client.FetchCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrentUser error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q; want %q", got.ID, user.ID)
	}
	if got.AssignedOrganizations["org-a"].OrganizationRole != "MANAGER" {
		t.Errorf("assigned organizations did not round-trip: %+v", got.AssignedOrganizations)
	}
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"401", &APIError{StatusCode: http.StatusUnauthorized}, true},
		{"403", &APIError{StatusCode: http.StatusForbidden}, true},
		{"500", &APIError{StatusCode: http.StatusInternalServerError}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v; want %v", got, tt.want)
			}
		})
	}
}
