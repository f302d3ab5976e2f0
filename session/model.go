package session

import (
	"context"
)

type contextKey string

const (
	principalKey contextKey = "REPORTGATE_PRINCIPAL"
)
const sessionCookieName = "session"

// DefaultToken is the sentinel value marking an unauthenticated session.
const DefaultToken = "empty"

// TokenKey is the persisted-storage key holding the last-known auth token.
const TokenKey = "token"

// OrganizationAssignment records a user's membership in one organization.
type OrganizationAssignment struct {
	OrganizationID   string `json:"organization_id" bson:"organization_id"`
	OrganizationRole string `json:"organization_role" bson:"organization_role"`
}

// ProjectAssignment records a user's membership in one project.
type ProjectAssignment struct {
	ProjectKey     string `json:"project_key" bson:"project_key"`
	ProjectRole    string `json:"project_role" bson:"project_role"`
	OrganizationID string `json:"organization_id" bson:"organization_id"`
	ProjectSlug    string `json:"project_slug" bson:"project_slug"`
}

// UserInfo is the current-user record returned by the backend. The assignment
// maps are keyed by organization slug and project key respectively, and are
// treated as immutable once set on a Session.
type UserInfo struct {
	ID                    string                            `json:"id" bson:"id"`
	AccountRole           string                            `json:"account_role" bson:"account_role"`
	AssignedOrganizations map[string]OrganizationAssignment `json:"assigned_organizations,omitempty" bson:"assigned_organizations,omitempty"`
	AssignedProjects      map[string]ProjectAssignment      `json:"assigned_projects,omitempty" bson:"assigned_projects,omitempty"`
}

// ActiveProject is the last-known working organization/project slug pair,
// used as the scope fallback when the route carries no explicit slugs.
type ActiveProject struct {
	OrganizationSlug string `json:"organization_slug"`
	ProjectSlug      string `json:"project_slug"`
}

// Principal is the signed-cookie projection of a session. The gate middleware
// attaches it to request contexts.
type Principal struct {
	UserID           string   `json:"user_id"`
	AccountRole      string   `json:"account_role,omitempty"`
	Roles            []string `json:"roles,omitempty"`
	ActiveProjectKey string   `json:"active_project_key,omitempty"`
	SignedIn         bool     `json:"signed_in"`
	ExpiresAt        int64    `json:"expires_at"`
	Domain           string   `json:"domain,omitempty"`
}

// WithContext attaches the principal to a request context.
func (p *Principal) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
