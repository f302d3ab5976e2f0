package access

import (
	"github.com/Seann-Moser/reportgate/route"
	"github.com/Seann-Moser/reportgate/session"
)

// Result answers whether the principal may view the addressed scope. It is
// recomputed on demand and never persisted.
type Result struct {
	IsAdmin                        bool
	HasPermission                  bool
	AssignedProjectKey             string
	AssignmentNotRequired          bool
	IsAssignedToTargetProject      bool
	IsAssignedToTargetOrganization bool
}

// Derive computes the access result for a user addressing the given scope.
//
// Administrators pass regardless of assignment. An organization manager has
// blanket access to every project inside an organization they manage, but only
// within that organization. Everyone else needs an explicit project
// assignment under the addressed organization. A nil user (anonymous visitor)
// gets no access.
//
// The function is pure: it never mutates its inputs and all lookups degrade
// to false/empty on miss.
func Derive(user *session.UserInfo, scope route.Scope) Result {
	if user == nil {
		return Result{}
	}

	isAdmin := user.AccountRole == Administrator

	org, orgMember := session.OrganizationAssignment{}, false
	if scope.OrganizationSlug != "" {
		org, orgMember = user.AssignedOrganizations[scope.OrganizationSlug]
	}
	isManager := orgMember && org.OrganizationRole == Manager

	// Resolve the assigned project. With an organization in the route the
	// match is on (organizationId, projectSlug); without one the slug alone
	// decides and the organization membership is recovered from the match.
	var assigned session.ProjectAssignment
	var assignedOK bool
	if scope.OrganizationSlug != "" {
		if orgMember {
			assigned, assignedOK = findProject(user.AssignedProjects, org.OrganizationID, scope.ProjectSlug)
		}
	} else {
		assigned, assignedOK = findProjectBySlug(user.AssignedProjects, scope.ProjectSlug)
	}

	var isAssignedToTargetOrganization bool
	if scope.OrganizationSlug != "" {
		isAssignedToTargetOrganization = orgMember
	} else {
		organizationID := ""
		if assignedOK {
			organizationID = assigned.OrganizationID
		}
		if organizationID != "" {
			for _, o := range user.AssignedOrganizations {
				if o.OrganizationID == organizationID {
					isAssignedToTargetOrganization = true
					break
				}
			}
		}
	}

	isAssignedToTargetProject := scope.ProjectSlug != "" && assignedOK && isAssignedToTargetOrganization
	assignmentNotRequired := isAdmin || (isManager && isAssignedToTargetOrganization)
	hasPermission := isAssignedToTargetProject || assignmentNotRequired

	assignedProjectKey := ""
	if assignedOK {
		assignedProjectKey = assigned.ProjectKey
	}

	return Result{
		IsAdmin:                        isAdmin,
		HasPermission:                  hasPermission,
		AssignedProjectKey:             assignedProjectKey,
		AssignmentNotRequired:          assignmentNotRequired,
		IsAssignedToTargetProject:      isAssignedToTargetProject,
		IsAssignedToTargetOrganization: isAssignedToTargetOrganization,
	}
}
