package session

import (
	"sync"
)

// Session is the process-wide authentication/authorization context for a
// running instance. It is created once at startup and mutated only by the
// bootstrap workflow and by explicit user actions (login, logout, project
// switch). Readers may call the accessors from any goroutine.
type Session struct {
	mu               sync.RWMutex
	token            string
	user             *UserInfo
	activeProjectKey string
	activeProject    ActiveProject

	readyOnce sync.Once
	ready     chan struct{}
}

// New returns an unauthenticated, not-yet-ready session.
func New() *Session {
	return &Session{
		token: DefaultToken,
		ready: make(chan struct{}),
	}
}

// Token returns the current auth token, DefaultToken when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken publishes a new auth token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		token = DefaultToken
	}
	s.token = token
}

// ResetToken reverts the token to the unauthenticated sentinel.
func (s *Session) ResetToken() {
	s.SetToken(DefaultToken)
}

// User returns the current-user record, nil until the user fetch succeeds.
// Callers must not mutate the returned record.
func (s *Session) User() *UserInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// SetUser replaces the current-user record wholesale.
func (s *Session) SetUser(u *UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// SignedIn reports whether a current-user record is present.
func (s *Session) SignedIn() bool {
	return s.User() != nil
}

// ActiveProjectKey returns the last-known working project key.
func (s *Session) ActiveProjectKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProjectKey
}

// SetActiveProjectKey records the working project key.
func (s *Session) SetActiveProjectKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeProjectKey = key
}

// ActiveProject returns the remembered organization/project slug pair.
func (s *Session) ActiveProject() ActiveProject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProject
}

// SetActiveProject records the organization/project slug pair backing the
// route fallback.
func (s *Session) SetActiveProject(p ActiveProject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeProject = p
}

// Reset drops the authenticated state on logout. The ready flag survives: a
// session becomes ready exactly once per process lifetime.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = DefaultToken
	s.user = nil
	s.activeProjectKey = ""
	s.activeProject = ActiveProject{}
}

// MarkReady flags the session ready to render. Idempotent; the flag never
// reverts.
func (s *Session) MarkReady() {
	s.readyOnce.Do(func() {
		close(s.ready)
	})
}

// IsReady reports whether bootstrap has completed.
func (s *Session) IsReady() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Ready returns a channel closed once the session is ready.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}
