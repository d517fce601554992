package rbac

import (
	"github.com/teamflow/teamflow/internal/models"
)

// TeamRole resolves the effective role of a user within a team.
// The owner always resolves to Owner; otherwise the explicit membership
// entry decides; absent membership yields None.
func TeamRole(team *models.Team, members []models.TeamMember, userID uint) Role {
	if team == nil {
		return None
	}
	if team.OwnerID == userID {
		return Owner
	}
	for _, m := range members {
		if m.UserID == userID {
			return ParseRole(m.Role)
		}
	}
	return None
}

// ProjectRole resolves the effective role of a user within a project.
// A team admin or manager is implicitly at least a project Manager even
// without an explicit project-membership row; otherwise the explicit
// project membership decides; absent membership yields None.
func ProjectRole(team *models.Team, teamMembers []models.TeamMember, projectMembers []models.ProjectMember, userID uint) Role {
	inherited := None
	if tr := TeamRole(team, teamMembers, userID); tr.AtLeast(Manager) {
		inherited = Manager
	}

	explicit := None
	for _, m := range projectMembers {
		if m.UserID == userID {
			explicit = ParseRole(m.Role)
			break
		}
	}

	if inherited > explicit {
		return inherited
	}
	return explicit
}

// IsGlobalAdmin reports whether the user carries the global admin role,
// which overrides every scoped check.
func IsGlobalAdmin(user *models.User) bool {
	return user != nil && user.Role == models.GlobalRoleAdmin
}
