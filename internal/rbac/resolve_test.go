package rbac

import (
	"testing"

	"github.com/teamflow/teamflow/internal/models"
)

func TestTeamRole(t *testing.T) {
	team := &models.Team{OwnerID: 1}
	members := []models.TeamMember{
		{UserID: 1, Role: models.TeamRoleAdmin},
		{UserID: 2, Role: models.TeamRoleManager},
		{UserID: 3, Role: models.TeamRoleMember},
	}

	tests := []struct {
		name   string
		userID uint
		want   Role
	}{
		{"owner wins over explicit row", 1, Owner},
		{"manager", 2, Manager},
		{"member", 3, Member},
		{"non-member denied", 9, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TeamRole(team, members, tt.userID); got != tt.want {
				t.Errorf("TeamRole(%d) = %s, want %s", tt.userID, got, tt.want)
			}
		})
	}

	if got := TeamRole(nil, members, 1); got != None {
		t.Errorf("TeamRole(nil team) = %s, want None", got)
	}
}

func TestProjectRoleInheritance(t *testing.T) {
	team := &models.Team{OwnerID: 1}
	teamMembers := []models.TeamMember{
		{UserID: 2, Role: models.TeamRoleManager},
		{UserID: 3, Role: models.TeamRoleMember},
		{UserID: 4, Role: models.TeamRoleMember},
	}
	projectMembers := []models.ProjectMember{
		{UserID: 3, Role: models.ProjectRoleMember},
		{UserID: 4, Role: models.ProjectRoleManager},
	}

	tests := []struct {
		name   string
		userID uint
		want   Role
	}{
		{"team owner inherits manager", 1, Manager},
		{"team manager inherits manager", 2, Manager},
		{"explicit project member", 3, Member},
		{"explicit role above inherited", 4, Manager},
		{"team member without project row denied", 5, None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectRole(team, teamMembers, projectMembers, tt.userID)
			if got != tt.want {
				t.Errorf("ProjectRole(%d) = %s, want %s", tt.userID, got, tt.want)
			}
		})
	}
}

func TestIsGlobalAdmin(t *testing.T) {
	if !IsGlobalAdmin(&models.User{Role: models.GlobalRoleAdmin}) {
		t.Error("admin user should pass")
	}
	if IsGlobalAdmin(&models.User{Role: models.GlobalRoleMember}) {
		t.Error("member user should not pass")
	}
	if IsGlobalAdmin(nil) {
		t.Error("nil user should not pass")
	}
}
