// Package reportgate is the front door of a test-reporting platform
// instance: it bootstraps the session once at startup, derives per-request
// access for the addressed organization/project scope, and serves the
// explicit session mutations (login, logout, project switch).
package reportgate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Seann-Moser/rbac"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Seann-Moser/reportgate/access"
	"github.com/Seann-Moser/reportgate/backend"
	"github.com/Seann-Moser/reportgate/bootstrap"
	"github.com/Seann-Moser/reportgate/config"
	"github.com/Seann-Moser/reportgate/route"
	"github.com/Seann-Moser/reportgate/session"
)

// Gate ties the session, the bootstrap workflow, and the access derivation
// together behind an HTTP surface.
type Gate struct {
	session  *session.Session
	workflow *bootstrap.Workflow
	backend  backend.Client
	tokens   session.TokenStore
	rbac     *rbac.Manager
	secret   []byte
	ttl      time.Duration
}

// New constructs a Gate over an existing session, backend client, and token
// store.
func New(s *session.Session, client backend.Client, tokens session.TokenStore, secret []byte, sessionTTL time.Duration) *Gate {
	return &Gate{
		session:  s,
		workflow: bootstrap.New(s, tokens, client),
		backend:  client,
		tokens:   tokens,
		secret:   secret,
		ttl:      sessionTTL,
	}
}

// SetupRBAC attaches a role manager used for cookie role loading and the
// optional resource-permission check in the guard.
func (g *Gate) SetupRBAC(manager *rbac.Manager) {
	g.rbac = manager
}

// FromConfig wires a Gate from configuration: Redis-backed token storage when
// a Redis address is configured, and either the Mongo directory (instance
// local) or the REST client depending on whether a Mongo URI is present.
func FromConfig(ctx context.Context, cfg config.Config) (*Gate, error) {
	s := session.New()

	var tokens session.TokenStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		tokens = session.NewRedisTokenStore(rdb, cfg.TokenTTL)
	} else {
		tokens = session.NewMemoryTokenStore("")
	}

	var client backend.Client
	if cfg.MongoURI != "" {
		mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		client = backend.NewMongoDirectory(mc.Database(cfg.MongoDatabase)).ForSession(s)
	} else {
		client = backend.NewHTTPClient(cfg.BackendURL, s)
	}

	return New(s, client, tokens, []byte(cfg.SessionSecret), cfg.SessionTTL), nil
}

// Start launches the bootstrap workflow in the background. The session
// becomes ready once the workflow terminates; use WaitReady to block on it.
func (g *Gate) Start(ctx context.Context) {
	go func() {
		if err := g.workflow.Run(ctx); err != nil {
			slog.Error("bootstrap did not complete", "err", err)
		}
	}()
}

// WaitReady blocks until the session is ready or the context expires.
func (g *Gate) WaitReady(ctx context.Context) error {
	select {
	case <-g.session.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session exposes the process-wide session.
func (g *Gate) Session() *session.Session {
	return g.session
}

// Workflow exposes the bootstrap workflow, mainly so callers can deliver the
// active-project signal.
func (g *Gate) Workflow() *bootstrap.Workflow {
	return g.workflow
}

// Middleware guards scoped routes: it resolves the addressed
// organization/project (falling back to the session's active project),
// derives access for the signed-in user, and rejects anything the principal
// may not view. The derived result and the cookie principal are attached to
// the request context for downstream handlers.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.session.IsReady() {
			writeError(w, http.StatusServiceUnavailable, "Session is not ready")
			return
		}

		loc := route.FromRequest(r)
		active := g.session.ActiveProject()
		scope := loc.Scope(route.Scope{
			OrganizationSlug: active.OrganizationSlug,
			ProjectSlug:      active.ProjectSlug,
		})
		result := access.Derive(g.session.User(), scope)
		if !result.HasPermission {
			writeError(w, http.StatusForbidden, "Not authorized for this scope")
			return
		}

		principal, err := session.GetPrincipalFromCookie(r, g.secret)
		if err != nil {
			principal = g.anonymousPrincipal(r)
			_ = session.SetSessionCookie(w, principal, g.secret)
		}

		if g.rbac != nil && principal.SignedIn {
			ok, err := g.rbac.HasPermission(r.Context(), principal.UserID, r.URL.Path)
			if err == nil && !ok {
				writeError(w, http.StatusForbidden, "Not authorized for this resource")
				return
			}
		}

		ctx := principal.WithContext(r.Context())
		ctx = access.WithResult(ctx, result)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) anonymousPrincipal(r *http.Request) *session.Principal {
	return &session.Principal{
		UserID:    "anon-" + uuid.New().String(),
		SignedIn:  false,
		ExpiresAt: time.Now().Add(g.ttl).Unix(),
		Roles:     []string{"default"},
		Domain:    getDomain(r),
	}
}
