package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Seann-Moser/reportgate/backend"
	"github.com/Seann-Moser/reportgate/session"
)

func waitForState(t *testing.T, w *Workflow, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, still in %s", want, w.State())
}

func authedMock(projectFetches, publicPluginFetches *atomic.Int32) *backend.MockClient {
	return &backend.MockClient{
		FetchCurrentUserFunc: func(ctx context.Context) (*session.UserInfo, error) {
			return &session.UserInfo{ID: "u1", AccountRole: "USER"}, nil
		},
		FetchProjectByKeyFunc: func(ctx context.Context, key string) (*backend.Project, error) {
			if projectFetches != nil {
				projectFetches.Add(1)
			}
			return &backend.Project{Key: key, Slug: "my-proj", OrganizationSlug: "my-org"}, nil
		},
		FetchPublicPluginsFunc: func(ctx context.Context) ([]backend.Plugin, error) {
			if publicPluginFetches != nil {
				publicPluginFetches.Add(1)
			}
			return nil, nil
		},
	}
}

func TestRunAuthenticatedPath(t *testing.T) {
	var projectFetches, pluginFetches, integrationFetches atomic.Int32
	client := authedMock(&projectFetches, nil)
	client.FetchPluginsFunc = func(ctx context.Context) ([]backend.Plugin, error) {
		pluginFetches.Add(1)
		return []backend.Plugin{{Name: "jira", Enabled: true}}, nil
	}
	client.FetchGlobalIntegrationsFunc = func(ctx context.Context) ([]backend.Integration, error) {
		integrationFetches.Add(1)
		return []backend.Integration{{Name: "slack", Enabled: true}}, nil
	}

	s := session.New()
	w := New(s, session.NewMemoryTokenStore("stored-token"), client)
	var authenticated atomic.Int32
	w.OnAuthenticated(func() { authenticated.Add(1) })

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(context.Background()) }()

	waitForState(t, w, StateAwaitingProjectKey)
	if s.IsReady() {
		t.Fatal("session must not be ready while awaiting the project key")
	}
	if s.Token() != "stored-token" {
		t.Errorf("token = %q; want restored %q", s.Token(), "stored-token")
	}

	w.SetActiveProjectKey("proj-key")
	if err := <-runErr; err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()

	if !s.IsReady() {
		t.Error("session must be ready after the authenticated branch")
	}
	if w.State() != StateReady {
		t.Errorf("state = %s; want %s", w.State(), StateReady)
	}
	if !w.Authenticated() {
		t.Error("expected Authenticated true")
	}
	if got := authenticated.Load(); got != 1 {
		t.Errorf("authenticated callback fired %d times; want 1", got)
	}
	if s.ActiveProjectKey() != "proj-key" {
		t.Errorf("ActiveProjectKey = %q; want %q", s.ActiveProjectKey(), "proj-key")
	}
	if ap := s.ActiveProject(); ap.OrganizationSlug != "my-org" || ap.ProjectSlug != "my-proj" {
		t.Errorf("ActiveProject = %+v; want my-org/my-proj", ap)
	}
	if projectFetches.Load() != 1 {
		t.Errorf("project fetched %d times; want 1", projectFetches.Load())
	}
	if pluginFetches.Load() != 1 || integrationFetches.Load() != 1 {
		t.Errorf("plugins/integrations fetched %d/%d times; want 1/1",
			pluginFetches.Load(), integrationFetches.Load())
	}
	if len(w.Plugins()) != 1 || len(w.GlobalIntegrations()) != 1 {
		t.Errorf("discovery results not recorded")
	}

	// a late signal after AUTHENTICATED_DONE has no effect
	w.SetActiveProjectKey("other-key")
	if s.ActiveProjectKey() != "proj-key" {
		t.Errorf("late signal changed the active project key to %q", s.ActiveProjectKey())
	}
}

func TestRunAnonymousPath(t *testing.T) {
	var projectFetches, publicPluginFetches atomic.Int32
	client := &backend.MockClient{
		FetchCurrentUserFunc: func(ctx context.Context) (*session.UserInfo, error) {
			return nil, &backend.APIError{StatusCode: http.StatusUnauthorized, Message: "expired"}
		},
		FetchProjectByKeyFunc: func(ctx context.Context, key string) (*backend.Project, error) {
			projectFetches.Add(1)
			return nil, errors.New("must not be called")
		},
		FetchPublicPluginsFunc: func(ctx context.Context) ([]backend.Plugin, error) {
			publicPluginFetches.Add(1)
			return []backend.Plugin{{Name: "login-page", Public: true}}, nil
		},
	}

	store := session.NewMemoryTokenStore("stale-token")
	s := session.New()
	w := New(s, store, client)

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()

	if !s.IsReady() {
		t.Error("session must be ready after the anonymous branch")
	}
	if s.Token() != session.DefaultToken {
		t.Errorf("token = %q; want unauthenticated sentinel", s.Token())
	}
	if persisted, _ := store.Load(context.Background()); persisted != "" {
		t.Errorf("persisted token = %q; want cleared", persisted)
	}
	if projectFetches.Load() != 0 {
		t.Errorf("project fetch issued %d times on the anonymous path; want 0", projectFetches.Load())
	}
	if publicPluginFetches.Load() != 1 {
		t.Errorf("public plugins fetched %d times; want 1", publicPluginFetches.Load())
	}
	if w.Authenticated() {
		t.Error("expected Authenticated false")
	}
}

func TestRunAbsentToken(t *testing.T) {
	client := &backend.MockClient{
		FetchCurrentUserFunc: func(ctx context.Context) (*session.UserInfo, error) {
			return nil, &backend.APIError{StatusCode: http.StatusUnauthorized}
		},
	}
	s := session.New()
	w := New(s, session.NewMemoryTokenStore(""), client)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()
	if !s.IsReady() {
		t.Error("session must reach ready with no stored token")
	}
	if s.Token() != session.DefaultToken {
		t.Errorf("token = %q; want sentinel", s.Token())
	}
}

type failingTokenStore struct{}

func (failingTokenStore) Load(ctx context.Context) (string, error) {
	return "", errors.New("storage broken")
}
func (failingTokenStore) Save(ctx context.Context, token string) error { return nil }
func (failingTokenStore) Clear(ctx context.Context) error              { return errors.New("storage broken") }

func TestRunTokenStoreFailure(t *testing.T) {
	client := &backend.MockClient{
		FetchCurrentUserFunc: func(ctx context.Context) (*session.UserInfo, error) {
			return nil, &backend.APIError{StatusCode: http.StatusUnauthorized}
		},
	}
	s := session.New()
	w := New(s, failingTokenStore{}, client)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()
	if !s.IsReady() {
		t.Error("session must reach ready even when token storage fails")
	}
}

func TestRunProjectFetchFailureStillReady(t *testing.T) {
	projectErr := errors.New("project gone")
	client := authedMock(nil, nil)
	client.FetchProjectByKeyFunc = func(ctx context.Context, key string) (*backend.Project, error) {
		return nil, projectErr
	}

	s := session.New()
	w := New(s, session.NewMemoryTokenStore("tok"), client)
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(context.Background()) }()

	waitForState(t, w, StateAwaitingProjectKey)
	w.SetActiveProjectKey("proj-key")
	if err := <-runErr; err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()

	if !s.IsReady() {
		t.Error("a failed project load must not gate readiness")
	}
	if !errors.Is(w.ProjectErr(), projectErr) {
		t.Errorf("ProjectErr = %v; want %v", w.ProjectErr(), projectErr)
	}
}

func TestEarlyProjectKeySignal(t *testing.T) {
	client := authedMock(nil, nil)
	s := session.New()
	w := New(s, session.NewMemoryTokenStore("tok"), client)

	// signal delivered before Run even starts must be buffered
	w.SetActiveProjectKey("proj-key")
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	w.background.Wait()
	if s.ActiveProjectKey() != "proj-key" {
		t.Errorf("ActiveProjectKey = %q; want %q", s.ActiveProjectKey(), "proj-key")
	}
	if !s.IsReady() {
		t.Error("session must be ready")
	}
}

func TestRunTwice(t *testing.T) {
	client := &backend.MockClient{
		FetchCurrentUserFunc: func(ctx context.Context) (*session.UserInfo, error) {
			return nil, &backend.APIError{StatusCode: http.StatusUnauthorized}
		},
	}
	w := New(session.New(), session.NewMemoryTokenStore(""), client)
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if err := w.Run(context.Background()); err == nil {
		t.Error("second Run must be rejected")
	}
	w.background.Wait()
}

func TestRunCancelledWhileAwaitingProjectKey(t *testing.T) {
	client := authedMock(nil, nil)
	s := session.New()
	w := New(s, session.NewMemoryTokenStore("tok"), client)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	waitForState(t, w, StateAwaitingProjectKey)
	cancel()
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v; want context.Canceled", err)
	}
	w.background.Wait()
	if s.IsReady() {
		t.Error("a cancelled bootstrap must not mark the session ready")
	}
}
