// Package bootstrap runs the one-time startup sequence that establishes the
// session before the application can render anything: restore the persisted
// token, fetch app info and the current user, then either load the active
// project and plugin state (authenticated) or fall back to public-plugin
// discovery (anonymous). Whatever happens, the session ends up ready.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Seann-Moser/reportgate/backend"
	"github.com/Seann-Moser/reportgate/session"
)

// State identifies where the workflow currently is.
type State string

const (
	StateInit               State = "INIT"
	StateTokenRestored      State = "TOKEN_RESTORED"
	StateUserPending        State = "USER_PENDING"
	StateAwaitingProjectKey State = "AWAITING_PROJECT_KEY"
	StateProjectLoading     State = "PROJECT_LOADING"
	StateAuthenticatedDone  State = "AUTHENTICATED_DONE"
	StateAnonymous          State = "ANONYMOUS"
	StateReady              State = "READY"
)

// Workflow is the one-shot bootstrap sequence. Create it with New, deliver
// the active project key with SetActiveProjectKey, and run it exactly once.
type Workflow struct {
	session *session.Session
	tokens  session.TokenStore
	backend backend.Client

	projectKey chan string

	mu            sync.Mutex
	state         State
	started       bool
	appInfo       *backend.AppInfo
	plugins       []backend.Plugin
	integrations  []backend.Integration
	projectErr    error
	authenticated bool

	onAuthenticated func()

	background sync.WaitGroup
}

// New creates a workflow over the given session, token store, and backend.
func New(s *session.Session, tokens session.TokenStore, client backend.Client) *Workflow {
	return &Workflow{
		session:    s,
		tokens:     tokens,
		backend:    client,
		projectKey: make(chan string, 1),
		state:      StateInit,
	}
}

// OnAuthenticated registers a callback fired once the authenticated branch
// completes. Must be called before Run.
func (w *Workflow) OnAuthenticated(fn func()) {
	w.onAuthenticated = fn
}

// Run executes the bootstrap sequence. It returns an error only when the
// context is cancelled while awaiting the active-project signal, or when it
// is called a second time; in every other outcome the session is marked ready
// before Run returns.
func (w *Workflow) Run(ctx context.Context) error {
	if !w.begin() {
		return errors.New("bootstrap already run")
	}

	// The token must be in the session before any authenticated request.
	token, err := w.tokens.Load(ctx)
	if err != nil {
		slog.Warn("failed to load persisted token", "err", err)
		token = ""
	}
	if token == "" {
		token = session.DefaultToken
	}
	w.session.SetToken(token)
	w.setState(StateTokenRestored)

	// App info is informational only; it races with the user fetch.
	w.spawn(func() {
		info, err := w.backend.FetchAppInfo(ctx)
		if err != nil {
			slog.Warn("failed to fetch app info", "err", err)
			return
		}
		w.mu.Lock()
		w.appInfo = info
		w.mu.Unlock()
	})

	w.setState(StateUserPending)
	user, err := w.backend.FetchCurrentUser(ctx)
	if err != nil {
		// The single branch decision: any failure here means anonymous.
		w.runAnonymous(ctx, err)
	} else if err := w.runAuthenticated(ctx, user); err != nil {
		return err
	}

	w.setState(StateReady)
	w.session.MarkReady()
	return nil
}

func (w *Workflow) runAuthenticated(ctx context.Context, user *session.UserInfo) error {
	w.session.SetUser(user)

	w.setState(StateAwaitingProjectKey)
	var key string
	select {
	case key = <-w.projectKey:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.session.SetActiveProjectKey(key)

	w.setState(StateProjectLoading)
	project, err := w.backend.FetchProjectByKey(ctx, key)
	if err != nil {
		// A failed project load does not hold the session hostage; the
		// error stays observable through ProjectErr.
		slog.Error("failed to load active project", "key", key, "err", err)
		w.mu.Lock()
		w.projectErr = err
		w.mu.Unlock()
	} else {
		w.session.SetActiveProject(session.ActiveProject{
			OrganizationSlug: project.OrganizationSlug,
			ProjectSlug:      project.Slug,
		})
	}

	w.spawn(func() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			plugins, err := w.backend.FetchPlugins(gctx)
			if err != nil {
				return err
			}
			w.mu.Lock()
			w.plugins = plugins
			w.mu.Unlock()
			return nil
		})
		g.Go(func() error {
			integrations, err := w.backend.FetchGlobalIntegrations(gctx)
			if err != nil {
				return err
			}
			w.mu.Lock()
			w.integrations = integrations
			w.mu.Unlock()
			return nil
		})
		if err := g.Wait(); err != nil {
			slog.Warn("plugin discovery failed", "err", err)
		}
	})

	w.mu.Lock()
	w.authenticated = true
	w.state = StateAuthenticatedDone
	w.mu.Unlock()
	if w.onAuthenticated != nil {
		w.onAuthenticated()
	}
	return nil
}

func (w *Workflow) runAnonymous(ctx context.Context, cause error) {
	slog.Info("current user fetch failed, continuing anonymous", "err", cause)
	w.session.ResetToken()
	if err := w.tokens.Clear(ctx); err != nil {
		slog.Warn("failed to clear persisted token", "err", err)
	}
	w.setState(StateAnonymous)

	w.spawn(func() {
		plugins, err := w.backend.FetchPublicPlugins(ctx)
		if err != nil {
			slog.Warn("failed to fetch public plugins", "err", err)
			return
		}
		w.mu.Lock()
		w.plugins = plugins
		w.mu.Unlock()
	})
}

// SetActiveProjectKey delivers the externally resolved active project key.
// The first delivery unblocks the workflow; later deliveries have no effect
// on this workflow instance.
func (w *Workflow) SetActiveProjectKey(key string) {
	select {
	case w.projectKey <- key:
	default:
	}
}

// State returns the workflow's current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Authenticated reports whether the authenticated branch completed.
func (w *Workflow) Authenticated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.authenticated
}

// AppInfo returns the instance metadata, nil until the app info fetch
// succeeds.
func (w *Workflow) AppInfo() *backend.AppInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appInfo
}

// Plugins returns the discovered plugins: installed ones on the
// authenticated path, public ones on the anonymous path.
func (w *Workflow) Plugins() []backend.Plugin {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plugins
}

// GlobalIntegrations returns the enabled global integrations, authenticated
// path only.
func (w *Workflow) GlobalIntegrations() []backend.Integration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.integrations
}

// ProjectErr returns the error of the active-project fetch, if it failed.
func (w *Workflow) ProjectErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projectErr
}

func (w *Workflow) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return false
	}
	w.started = true
	return true
}

func (w *Workflow) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Workflow) spawn(fn func()) {
	w.background.Add(1)
	go func() {
		defer w.background.Done()
		fn()
	}()
}
