// Package route models the current URL location: the organization/project
// slugs addressed by the path and the namespace-qualified query parameters.
// The router owns the location; everything here is a read-only snapshot.
package route

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Scope is the organization/project pair addressed by the current route.
// Either slug may be empty.
type Scope struct {
	OrganizationSlug string
	ProjectSlug      string
}

// Location is a snapshot of the current URL.
type Location struct {
	OrganizationSlug string
	ProjectSlug      string
	Query            url.Values
}

// FromRequest builds a Location from a routed HTTP request. Slug segments are
// read from the chi route params {organizationSlug} and {projectSlug}.
func FromRequest(r *http.Request) Location {
	return Location{
		OrganizationSlug: chi.URLParam(r, "organizationSlug"),
		ProjectSlug:      chi.URLParam(r, "projectSlug"),
		Query:            r.URL.Query(),
	}
}

// Scope resolves the addressed scope. Explicit slugs in the path win; a route
// without both falls back to the session's remembered active project.
func (l Location) Scope(fallback Scope) Scope {
	if l.OrganizationSlug != "" && l.ProjectSlug != "" {
		return Scope{
			OrganizationSlug: l.OrganizationSlug,
			ProjectSlug:      l.ProjectSlug,
		}
	}
	return fallback
}
