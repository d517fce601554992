package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

func appErrStatus(t *testing.T, err error) int {
	t.Helper()
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	return appErr.HTTPStatus
}

func seedTeam(t *testing.T, db *gorm.DB, owner *models.User) *models.Team {
	t.Helper()
	svc := NewTeamService(db)
	team, err := svc.Create(owner, &CreateTeamRequest{Name: "core"})
	if err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

func TestTeamCreateSeedsOwnerAsAdmin(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)

	team := seedTeam(t, db, owner)

	var member models.TeamMember
	if err := db.Where("team_id = ? AND user_id = ?", team.ID, owner.ID).First(&member).Error; err != nil {
		t.Fatalf("owner member row missing: %v", err)
	}
	if member.Role != models.TeamRoleAdmin {
		t.Errorf("owner role = %q, want admin", member.Role)
	}
}

func TestTeamDeleteRequiresAdmin(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	member := seedUser(t, db, "plainmember", true)
	team := seedTeam(t, db, owner)

	svc := NewTeamService(db)
	if _, err := svc.AddMember(owner, team.ID, &TeamMemberRequest{UserID: member.ID, Role: models.TeamRoleMember}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	err := svc.Delete(member, team.ID)
	if status := appErrStatus(t, err); status != 403 {
		t.Errorf("member delete status = %d, want 403", status)
	}
	if err.Error() != "access denied" {
		t.Errorf("denial message = %q, want the generic one", err.Error())
	}

	if err := svc.Delete(owner, team.ID); err != nil {
		t.Errorf("owner delete of empty team failed: %v", err)
	}
}

func TestTeamDeleteBlockedWhileProjectsExist(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	team := seedTeam(t, db, owner)

	projects := NewProjectService(db)
	if _, err := projects.Create(owner, &CreateProjectRequest{TeamID: team.ID, Name: "launch"}); err != nil {
		t.Fatalf("seed project: %v", err)
	}

	svc := NewTeamService(db)
	err := svc.Delete(owner, team.ID)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("delete status = %d, want 409", status)
	}
	if !strings.Contains(err.Error(), "1 project(s)") {
		t.Errorf("conflict message %q should carry the project count", err.Error())
	}

	var count int64
	db.Model(&models.Team{}).Where("id = ?", team.ID).Count(&count)
	if count != 1 {
		t.Error("rejected delete must leave the team in place")
	}
}

func TestTeamSoleAdminCannotBeDemotedOrRemoved(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	admin := seedUser(t, db, "secondadmin", true)
	team := seedTeam(t, db, owner)

	svc := NewTeamService(db)

	// The owner's row is the only admin row right now.
	_, err := svc.UpdateMemberRole(owner, team.ID, owner.ID, models.TeamRoleMember)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("sole-admin demotion status = %d, want 409", status)
	}

	// With a second admin the demotion goes through.
	if _, err := svc.AddMember(owner, team.ID, &TeamMemberRequest{UserID: admin.ID, Role: models.TeamRoleAdmin}); err != nil {
		t.Fatalf("add second admin: %v", err)
	}
	if _, err := svc.UpdateMemberRole(owner, team.ID, owner.ID, models.TeamRoleMember); err != nil {
		t.Errorf("demotion with a second admin failed: %v", err)
	}

	// Now the second admin is the sole admin again and cannot be removed.
	err = svc.RemoveMember(admin, team.ID, admin.ID)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("sole-admin removal status = %d, want 409", status)
	}
}

func TestTeamRemoveMemberCascades(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	worker := seedUser(t, db, "worker", true)
	team := seedTeam(t, db, owner)

	teams := NewTeamService(db)
	if _, err := teams.AddMember(owner, team.ID, &TeamMemberRequest{UserID: worker.ID, Role: models.TeamRoleMember}); err != nil {
		t.Fatalf("add member: %v", err)
	}

	projects := NewProjectService(db)
	project, err := projects.Create(owner, &CreateProjectRequest{TeamID: team.ID, Name: "launch"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	if _, err := projects.AddMember(owner, project.ID, &ProjectMemberRequest{UserID: worker.ID, Role: models.ProjectRoleMember}); err != nil {
		t.Fatalf("add project member: %v", err)
	}

	tasks := NewTaskService(db, nil)
	task, err := tasks.Create(owner, &CreateTaskRequest{
		ProjectID:   project.ID,
		Title:       "ship it",
		AssigneeIDs: []uint{worker.ID},
	})
	if err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if err := teams.RemoveMember(owner, team.ID, worker.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	var projectMembers, assignments int64
	db.Model(&models.ProjectMember{}).Where("user_id = ? AND project_id = ?", worker.ID, project.ID).Count(&projectMembers)
	db.Model(&models.TaskAssignee{}).Where("user_id = ? AND task_id = ?", worker.ID, task.ID).Count(&assignments)

	if projectMembers != 0 {
		t.Error("project membership should be cleared with the team membership")
	}
	if assignments != 0 {
		t.Error("task assignments should be cleared with the team membership")
	}
}

func TestTeamRemoveOwnerRejected(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	team := seedTeam(t, db, owner)

	svc := NewTeamService(db)
	err := svc.RemoveMember(owner, team.ID, owner.ID)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("owner removal status = %d, want 409", status)
	}
}
