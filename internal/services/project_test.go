package services

import (
	"testing"

	"github.com/teamflow/teamflow/internal/models"
)

func TestProjectMemberMustBelongToTeam(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	outsider := seedUser(t, db, "outsider", true)
	team := seedTeam(t, db, owner)

	projects := NewProjectService(db)
	project, err := projects.Create(owner, &CreateProjectRequest{TeamID: team.ID, Name: "launch"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}

	_, err = projects.AddMember(owner, project.ID, &ProjectMemberRequest{UserID: outsider.ID, Role: models.ProjectRoleMember})
	if status := appErrStatus(t, err); status != 400 {
		t.Errorf("outsider add status = %d, want 400", status)
	}

	teams := NewTeamService(db)
	if _, err := teams.AddMember(owner, team.ID, &TeamMemberRequest{UserID: outsider.ID, Role: models.TeamRoleMember}); err != nil {
		t.Fatalf("add team member: %v", err)
	}
	if _, err := projects.AddMember(owner, project.ID, &ProjectMemberRequest{UserID: outsider.ID, Role: models.ProjectRoleMember}); err != nil {
		t.Errorf("add after joining the team failed: %v", err)
	}
}

func TestProjectCreateRequiresTeamManager(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	member := seedUser(t, db, "member", true)
	team := seedTeam(t, db, owner)

	teams := NewTeamService(db)
	if _, err := teams.AddMember(owner, team.ID, &TeamMemberRequest{UserID: member.ID, Role: models.TeamRoleMember}); err != nil {
		t.Fatalf("add team member: %v", err)
	}

	projects := NewProjectService(db)
	_, err := projects.Create(member, &CreateProjectRequest{TeamID: team.ID, Name: "forbidden"})
	if status := appErrStatus(t, err); status != 403 {
		t.Errorf("member create status = %d, want 403", status)
	}
}

func TestProjectRemoveMemberClearsAssignments(t *testing.T) {
	f := newTaskFixture(t)

	projects := NewProjectService(f.db)
	if err := projects.RemoveMember(f.owner, f.project.ID, f.assignee.ID); err != nil {
		t.Fatalf("remove project member: %v", err)
	}

	var assignments int64
	f.db.Model(&models.TaskAssignee{}).
		Where("user_id = ? AND task_id = ?", f.assignee.ID, f.task.ID).
		Count(&assignments)
	if assignments != 0 {
		t.Error("removing a project member should clear their task assignments")
	}
}

func TestProjectVisibilityDeniedToNonMembers(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner", true)
	stranger := seedUser(t, db, "stranger", true)
	team := seedTeam(t, db, owner)

	projects := NewProjectService(db)
	project, err := projects.Create(owner, &CreateProjectRequest{TeamID: team.ID, Name: "private"})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}

	_, err = projects.Get(stranger, project.ID)
	if status := appErrStatus(t, err); status != 403 {
		t.Errorf("stranger get status = %d, want 403", status)
	}
	if err.Error() != "access denied" {
		t.Errorf("denial message = %q, want the generic one", err.Error())
	}
}

func TestProjectIsMember(t *testing.T) {
	f := newTaskFixture(t)
	projects := NewProjectService(f.db)

	if !projects.IsMember(f.assignee.ID, f.project.ID) {
		t.Error("explicit project member should pass the room check")
	}
	if !projects.IsMember(f.owner.ID, f.project.ID) {
		t.Error("team owner should pass the room check")
	}
	stranger := seedUser(t, f.db, "stranger", true)
	if projects.IsMember(stranger.ID, f.project.ID) {
		t.Error("stranger should fail the room check")
	}
}
