package services

import (
	"fmt"
	"time"

	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/internal/rbac"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
}

type UpdateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TeamMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"` // admin, manager, member
}

// loadTeam fetches a team with its member rows.
func (s *TeamService) loadTeam(teamID uint) (*models.Team, []models.TeamMember, error) {
	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		return nil, nil, response.NewNotFound("team not found")
	}
	var members []models.TeamMember
	if err := s.db.Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		return nil, nil, err
	}
	return &team, members, nil
}

// EffectiveRole resolves the actor's effective role within the team.
func (s *TeamService) EffectiveRole(actor *models.User, teamID uint) (rbac.Role, error) {
	team, members, err := s.loadTeam(teamID)
	if err != nil {
		return rbac.None, err
	}
	if rbac.IsGlobalAdmin(actor) {
		return rbac.Admin, nil
	}
	return rbac.TeamRole(team, members, actor.ID), nil
}

// Create creates a team owned by the actor. The owner is inserted into
// the member list with the admin role, keeping the owner-is-admin
// invariant from the start.
func (s *TeamService) Create(actor *models.User, req *CreateTeamRequest) (*models.Team, error) {
	team := models.Team{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     actor.ID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		member := models.TeamMember{
			TeamID:   team.ID,
			UserID:   actor.ID,
			Role:     models.TeamRoleAdmin,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns the teams the actor belongs to. Global admins see all.
func (s *TeamService) List(actor *models.User, page, limit int) ([]models.Team, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Team{})
	if !rbac.IsGlobalAdmin(actor) {
		query = query.Where(
			"id IN (?) OR owner_id = ?",
			s.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", actor.ID),
			actor.ID,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teams []models.Team
	if err := query.Preload("Members.User").
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&teams).Error; err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}

// Get returns a team visible to the actor.
func (s *TeamService) Get(actor *models.User, teamID uint) (*models.Team, error) {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return nil, err
	}
	if role == rbac.None {
		return nil, response.NewAuthorization()
	}

	var team models.Team
	if err := s.db.Preload("Owner").Preload("Members.User").First(&team, teamID).Error; err != nil {
		return nil, response.NewNotFound("team not found")
	}
	return &team, nil
}

// Update renames a team. Requires manager or above.
func (s *TeamService) Update(actor *models.User, teamID uint, req *UpdateTeamRequest) (*models.Team, error) {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return nil, err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return nil, response.NewAuthorization()
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.Team{}).Where("id = ?", teamID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// Delete removes a team. Only a team admin (or global admin) may delete,
// and only when the team owns no projects.
func (s *TeamService) Delete(actor *models.User, teamID uint) error {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Admin), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return response.NewAuthorization()
	}

	var projectCount int64
	if err := s.db.Model(&models.Project{}).Where("team_id = ?", teamID).Count(&projectCount).Error; err != nil {
		return err
	}
	if projectCount > 0 {
		return response.NewConflict(fmt.Sprintf("team still owns %d project(s); delete or move them first", projectCount))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", teamID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, teamID).Error
	})
}

// AddMember adds a user to the team. Requires manager or above.
func (s *TeamService) AddMember(actor *models.User, teamID uint, req *TeamMemberRequest) (*models.TeamMember, error) {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return nil, err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return nil, response.NewAuthorization()
	}

	if req.Role != models.TeamRoleAdmin && req.Role != models.TeamRoleManager && req.Role != models.TeamRoleMember {
		return nil, response.NewValidation("invalid role, must be 'admin', 'manager', or 'member'")
	}

	var user models.User
	if err := s.db.First(&user, req.UserID).Error; err != nil {
		return nil, response.NewNotFound("user not found")
	}

	var existing models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, req.UserID).First(&existing).Error; err == nil {
		return nil, response.NewConflict("user is already a member of this team")
	}

	member := models.TeamMember{
		TeamID:   teamID,
		UserID:   req.UserID,
		Role:     req.Role,
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// UpdateMemberRole changes a member's team role. Demoting the team's
// sole admin is rejected and leaves state unchanged.
func (s *TeamService) UpdateMemberRole(actor *models.User, teamID, userID uint, newRole string) (*models.TeamMember, error) {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return nil, err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Admin), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return nil, response.NewAuthorization()
	}

	if newRole != models.TeamRoleAdmin && newRole != models.TeamRoleManager && newRole != models.TeamRoleMember {
		return nil, response.NewValidation("invalid role, must be 'admin', 'manager', or 'member'")
	}

	var member models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
		return nil, response.NewNotFound("member not found")
	}

	if member.Role == models.TeamRoleAdmin && newRole != models.TeamRoleAdmin {
		var adminCount int64
		s.db.Model(&models.TeamMember{}).
			Where("team_id = ? AND role = ?", teamID, models.TeamRoleAdmin).
			Count(&adminCount)
		if adminCount <= 1 {
			return nil, response.NewConflict("cannot demote the team's only admin")
		}
	}

	member.Role = newRole
	if err := s.db.Model(&member).UpdateColumn("role", newRole).Error; err != nil {
		return nil, err
	}

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// RemoveMember removes a user from the team. Removing the sole admin is
// rejected. The removal cascades: the user's project memberships under
// the team and their task assignments in those projects are cleared.
func (s *TeamService) RemoveMember(actor *models.User, teamID, userID uint) error {
	role, err := s.EffectiveRole(actor, teamID)
	if err != nil {
		return err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return response.NewAuthorization()
	}

	var team models.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		return response.NewNotFound("team not found")
	}
	if team.OwnerID == userID {
		return response.NewConflict("cannot remove the team owner")
	}

	var member models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error; err != nil {
		return response.NewNotFound("member not found")
	}

	if member.Role == models.TeamRoleAdmin {
		var adminCount int64
		s.db.Model(&models.TeamMember{}).
			Where("team_id = ? AND role = ?", teamID, models.TeamRoleAdmin).
			Count(&adminCount)
		if adminCount <= 1 {
			return response.NewConflict("cannot remove the team's only admin")
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var projectIDs []uint
		if err := tx.Model(&models.Project{}).Where("team_id = ?", teamID).Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			if err := tx.Where("user_id = ? AND project_id IN ?", userID, projectIDs).
				Delete(&models.ProjectMember{}).Error; err != nil {
				return err
			}
			var taskIDs []uint
			if err := tx.Model(&models.Task{}).Where("project_id IN ?", projectIDs).Pluck("id", &taskIDs).Error; err != nil {
				return err
			}
			if len(taskIDs) > 0 {
				if err := tx.Where("user_id = ? AND task_id IN ?", userID, taskIDs).
					Delete(&models.TaskAssignee{}).Error; err != nil {
					return err
				}
			}
		}
		return tx.Delete(&member).Error
	})
}
