package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db             *gorm.DB
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: services.NewProjectService(db)}
}

// Create creates a project under a team.
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// List returns projects visible to the caller, optionally filtered by team.
// GET /api/projects?team_id=
func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	page, limit := pagination(c)

	var teamID uint
	if raw := c.Query("team_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid team_id")
			return
		}
		teamID = uint(parsed)
	}

	projects, total, err := h.projectService.List(actor, teamID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessPage(c, projects, response.NewPageMeta(page, limit, total))
}

// Get returns one project.
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Update edits project fields.
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete removes a project and everything under it.
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "project deleted"})
}

// AddMember adds a team member to the project.
// POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProjectMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.projectService.AddMember(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateMemberRole changes a member's project role.
// PUT /api/projects/:id/members/:userID
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}
	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.projectService.UpdateMemberRole(actor, projectID, userID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// RemoveMember removes a user from the project and clears their task
// assignments in it.
// DELETE /api/projects/:id/members/:userID
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(actor, projectID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}
