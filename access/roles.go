package access

import (
	"sort"

	"github.com/Seann-Moser/reportgate/route"
	"github.com/Seann-Moser/reportgate/session"
)

// Account-level roles.
const (
	Administrator = "ADMINISTRATOR"
	RegularUser   = "USER"
)

// Organization-level roles.
const (
	Manager = "MANAGER"
	Member  = "MEMBER"
)

// Project-level roles.
const (
	Editor = "EDITOR"
	Viewer = "VIEWER"
)

// Roles is the role triple a principal holds in the addressed scope.
type Roles struct {
	UserRole         string
	OrganizationRole string
	ProjectRole      string
}

// RolesFor resolves the account, organization, and project role of the user
// for the given scope. Missing memberships yield empty role strings.
func RolesFor(user *session.UserInfo, scope route.Scope) Roles {
	if user == nil {
		return Roles{}
	}
	roles := Roles{UserRole: user.AccountRole}
	if org, ok := user.AssignedOrganizations[scope.OrganizationSlug]; ok {
		roles.OrganizationRole = org.OrganizationRole
	}
	if project, ok := findProjectBySlug(user.AssignedProjects, scope.ProjectSlug); ok {
		roles.ProjectRole = project.ProjectRole
	}
	return roles
}

// findProjectBySlug scans the assigned projects for the first entry with the
// given slug. Keys are visited in sorted order so repeated calls agree on the
// winner when two organizations reuse a slug.
func findProjectBySlug(projects map[string]session.ProjectAssignment, projectSlug string) (session.ProjectAssignment, bool) {
	return findProject(projects, "", projectSlug)
}

func findProject(projects map[string]session.ProjectAssignment, organizationID, projectSlug string) (session.ProjectAssignment, bool) {
	if projectSlug == "" || len(projects) == 0 {
		return session.ProjectAssignment{}, false
	}
	keys := make([]string, 0, len(projects))
	for k := range projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := projects[k]
		if p.ProjectSlug != projectSlug {
			continue
		}
		if organizationID != "" && p.OrganizationID != organizationID {
			continue
		}
		return p, true
	}
	return session.ProjectAssignment{}, false
}
