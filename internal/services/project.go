package services

import (
	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/internal/rbac"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description"`
	TeamID      uint   `json:"team_id" binding:"required"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type ProjectMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"` // manager, member, viewer
}

// loadProjectContext fetches a project with its owning team and both
// membership lists, the inputs to effective-role resolution.
func (s *ProjectService) loadProjectContext(projectID uint) (*models.Project, *models.Team, []models.TeamMember, []models.ProjectMember, error) {
	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, nil, nil, nil, response.NewNotFound("project not found")
	}

	var team models.Team
	if err := s.db.First(&team, project.TeamID).Error; err != nil {
		return nil, nil, nil, nil, response.NewNotFound("owning team not found")
	}

	var teamMembers []models.TeamMember
	if err := s.db.Where("team_id = ?", team.ID).Find(&teamMembers).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	var projectMembers []models.ProjectMember
	if err := s.db.Where("project_id = ?", projectID).Find(&projectMembers).Error; err != nil {
		return nil, nil, nil, nil, err
	}
	return &project, &team, teamMembers, projectMembers, nil
}

// EffectiveRole resolves the actor's effective role within the project,
// including privilege inherited from the owning team.
func (s *ProjectService) EffectiveRole(actor *models.User, projectID uint) (rbac.Role, error) {
	if rbac.IsGlobalAdmin(actor) {
		return rbac.Admin, nil
	}
	_, team, teamMembers, projectMembers, err := s.loadProjectContext(projectID)
	if err != nil {
		return rbac.None, err
	}
	return rbac.ProjectRole(team, teamMembers, projectMembers, actor.ID), nil
}

// Create creates a project under a team. Requires manager or above on
// the owning team.
func (s *ProjectService) Create(actor *models.User, req *CreateProjectRequest) (*models.Project, error) {
	var team models.Team
	if err := s.db.First(&team, req.TeamID).Error; err != nil {
		return nil, response.NewNotFound("team not found")
	}
	var teamMembers []models.TeamMember
	if err := s.db.Where("team_id = ?", team.ID).Find(&teamMembers).Error; err != nil {
		return nil, err
	}

	role := rbac.TeamRole(&team, teamMembers, actor.ID)
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return nil, response.NewAuthorization()
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
		Status:      models.ProjectStatusActive,
		CreatedBy:   actor.ID,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects visible to the actor, paginated.
func (s *ProjectService) List(actor *models.User, teamID uint, page, limit int) ([]models.Project, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Project{})
	if teamID != 0 {
		query = query.Where("team_id = ?", teamID)
	}
	if !rbac.IsGlobalAdmin(actor) {
		query = query.Where(
			"id IN (?) OR team_id IN (?)",
			s.db.Model(&models.ProjectMember{}).Select("project_id").Where("user_id = ?", actor.ID),
			s.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", actor.ID),
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.Project
	if err := query.Preload("Members.User").
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Get returns a project visible to the actor.
func (s *ProjectService) Get(actor *models.User, projectID uint) (*models.Project, error) {
	role, err := s.EffectiveRole(actor, projectID)
	if err != nil {
		return nil, err
	}
	if role == rbac.None {
		return nil, response.NewAuthorization()
	}

	var project models.Project
	if err := s.db.Preload("Team").Preload("Members.User").First(&project, projectID).Error; err != nil {
		return nil, response.NewNotFound("project not found")
	}
	return &project, nil
}

// Update modifies a project. Requires manager or above.
func (s *ProjectService) Update(actor *models.User, projectID uint, req *UpdateProjectRequest) (*models.Project, error) {
	role, err := s.EffectiveRole(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(rbac.Manager) {
		return nil, response.NewAuthorization()
	}

	if req.Status != "" &&
		req.Status != models.ProjectStatusActive &&
		req.Status != models.ProjectStatusArchived &&
		req.Status != models.ProjectStatusCompleted {
		return nil, response.NewValidation("invalid project status")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes a project and its contained rows. Requires manager or
// above, never a plain member.
func (s *ProjectService) Delete(actor *models.User, projectID uint) error {
	role, err := s.EffectiveRole(actor, projectID)
	if err != nil {
		return err
	}
	if !role.AtLeast(rbac.Manager) {
		return response.NewAuthorization()
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Subtask{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, projectID).Error
	})
}

// AddMember adds a user to the project. The user must already belong to
// the owning team; the check runs at add time.
func (s *ProjectService) AddMember(actor *models.User, projectID uint, req *ProjectMemberRequest) (*models.ProjectMember, error) {
	project, team, teamMembers, projectMembers, err := s.loadProjectContext(projectID)
	if err != nil {
		return nil, err
	}

	role := rbac.ProjectRole(team, teamMembers, projectMembers, actor.ID)
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return nil, response.NewAuthorization()
	}

	if req.Role != models.ProjectRoleManager && req.Role != models.ProjectRoleMember && req.Role != models.ProjectRoleViewer {
		return nil, response.NewValidation("invalid role, must be 'manager', 'member', or 'viewer'")
	}

	inTeam := team.OwnerID == req.UserID
	for _, m := range teamMembers {
		if m.UserID == req.UserID {
			inTeam = true
			break
		}
	}
	if !inTeam {
		return nil, response.NewValidation("user must be a member of the owning team")
	}

	for _, m := range projectMembers {
		if m.UserID == req.UserID {
			return nil, response.NewConflict("user is already a member of this project")
		}
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    req.UserID,
		Role:      req.Role,
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// UpdateMemberRole changes a project member's role.
func (s *ProjectService) UpdateMemberRole(actor *models.User, projectID, userID uint, newRole string) (*models.ProjectMember, error) {
	role, err := s.EffectiveRole(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(rbac.Manager) {
		return nil, response.NewAuthorization()
	}

	if newRole != models.ProjectRoleManager && newRole != models.ProjectRoleMember && newRole != models.ProjectRoleViewer {
		return nil, response.NewValidation("invalid role, must be 'manager', 'member', or 'viewer'")
	}

	var member models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error; err != nil {
		return nil, response.NewNotFound("member not found")
	}

	if err := s.db.Model(&member).UpdateColumn("role", newRole).Error; err != nil {
		return nil, err
	}
	member.Role = newRole

	s.db.Preload("User").First(&member, member.ID)
	return &member, nil
}

// RemoveMember removes a user from the project and clears their task
// assignments within it.
func (s *ProjectService) RemoveMember(actor *models.User, projectID, userID uint) error {
	role, err := s.EffectiveRole(actor, projectID)
	if err != nil {
		return err
	}
	if !role.AtLeast(rbac.Manager) {
		return response.NewAuthorization()
	}

	var member models.ProjectMember
	if err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error; err != nil {
		return response.NewNotFound("member not found")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("project_id = ?", projectID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("user_id = ? AND task_id IN ?", userID, taskIDs).
				Delete(&models.TaskAssignee{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&member).Error
	})
}

// IsMember reports whether the user has any role on the project. Used by
// the realtime layer to authorize room joins.
func (s *ProjectService) IsMember(userID, projectID uint) bool {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return false
	}
	if rbac.IsGlobalAdmin(&user) {
		return true
	}
	role, err := s.EffectiveRole(&user, projectID)
	if err != nil {
		return false
	}
	return role != rbac.None
}
