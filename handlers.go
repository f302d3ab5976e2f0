package reportgate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Seann-Moser/reportgate/session"
)

// writeJSON helper sends a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Error writing JSON response", "err", err)
	}
}

// writeError helper sends a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type LoginRequest struct {
	Token string `json:"token"`
}

type SwitchProjectRequest struct {
	ProjectKey string `json:"project_key"`
}

// LoginHandler establishes an authenticated session from a token issued by
// the backend. The token is validated by fetching the current user with it;
// on success it is persisted and a signed session cookie is set.
func (g *Gate) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" || req.Token == session.DefaultToken {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}

	g.session.SetToken(req.Token)
	user, err := g.backend.FetchCurrentUser(r.Context())
	if err != nil {
		g.session.ResetToken()
		slog.Info("login rejected", "err", err)
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	g.session.SetUser(user)
	if err := g.tokens.Save(r.Context(), req.Token); err != nil {
		slog.Warn("failed to persist token", "err", err)
	}

	var roles []string
	if g.rbac != nil {
		roles, err = g.rbac.ListRolesForUser(r.Context(), user.ID)
		if err != nil {
			slog.Warn("failed to load roles", "user", user.ID, "err", err)
			roles = nil
		}
	}

	principal := &session.Principal{
		UserID:           user.ID,
		AccountRole:      user.AccountRole,
		Roles:            roles,
		ActiveProjectKey: g.session.ActiveProjectKey(),
		SignedIn:         true,
		ExpiresAt:        time.Now().Add(g.ttl).Unix(),
		Domain:           getDomain(r),
	}
	if err := session.SetSessionCookie(w, principal, g.secret); err != nil {
		slog.Error("Error setting session cookie", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to set session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in", "userId": user.ID})
}

// LogoutHandler drops the authenticated state: the cookie is cleared and the
// session reverts to the unauthenticated sentinel.
func (g *Gate) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session.ClearSessionCookie(w)
	g.session.Reset()
	if err := g.tokens.Clear(r.Context()); err != nil {
		slog.Warn("failed to clear persisted token", "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// SwitchProjectHandler changes the working project. During bootstrap this is
// the signal the workflow waits on; afterwards the project record is loaded
// here so the scope fallback stays coherent.
func (g *Gate) SwitchProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req SwitchProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProjectKey == "" {
		writeError(w, http.StatusBadRequest, "Missing project key")
		return
	}
	if !g.session.SignedIn() {
		writeError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	// Signal before checking: if the workflow finishes bootstrap between the
	// two steps the key would otherwise sit unread in the signal buffer.
	g.workflow.SetActiveProjectKey(req.ProjectKey)
	if g.workflow.Authenticated() {
		g.session.SetActiveProjectKey(req.ProjectKey)
		project, err := g.backend.FetchProjectByKey(r.Context(), req.ProjectKey)
		if err != nil {
			slog.Error("failed to load project", "key", req.ProjectKey, "err", err)
		} else {
			g.session.SetActiveProject(session.ActiveProject{
				OrganizationSlug: project.OrganizationSlug,
				ProjectSlug:      project.Slug,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Active project updated", "projectKey": req.ProjectKey})
}

// ReadyHandler reports whether bootstrap has finished and where the workflow
// currently is.
func (g *Gate) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready": g.session.IsReady(),
		"state": g.workflow.State(),
	})
}

// Router mounts the session endpoints and wraps the application handler with
// the scope guard for organization/project routes.
func (g *Gate) Router(app http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/session/login", g.LoginHandler)
	r.Post("/session/logout", g.LogoutHandler)
	r.Post("/session/project", g.SwitchProjectHandler)
	r.Get("/session/ready", g.ReadyHandler)

	r.Route("/organizations/{organizationSlug}", func(r chi.Router) {
		r.With(g.Middleware).Handle("/*", app)
		r.Route("/projects/{projectSlug}", func(r chi.Router) {
			r.With(g.Middleware).Handle("/*", app)
		})
	})
	r.Route("/projects/{projectSlug}", func(r chi.Router) {
		r.With(g.Middleware).Handle("/*", app)
	})
	return r
}

func getDomain(r *http.Request) string {
	origin := getOrigin(r)
	if origin == "" {
		return ""
	}
	if !strings.HasPrefix(origin, "http") {
		origin = "https://" + origin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	// Hostname() drops any port from "dev.example.com:3000"
	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		// covers "localhost" or "example.com"
		return host
	}
	n := len(parts)
	return parts[n-2] + "." + parts[n-1]
}

func getOrigin(r *http.Request) string {
	if v := r.Header.Get("Origin"); v != "" {
		return v
	}
	if v := r.Header.Get("Referer"); v != "" {
		return v
	}
	return ""
}
