package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db          *gorm.DB
	teamService *services.TeamService
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db, teamService: services.NewTeamService(db)}
}

// Create creates a team owned by the caller.
// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.Create(actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// List returns the caller's teams.
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	page, limit := pagination(c)

	teams, total, err := h.teamService.List(actor, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessPage(c, teams, response.NewPageMeta(page, limit, total))
}

// Get returns one team.
// GET /api/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	team, err := h.teamService.Get(actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, team)
}

// Update edits team fields.
// PUT /api/teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.Update(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, team)
}

// Delete removes a team, rejected while it still owns projects.
// DELETE /api/teams/:id
func (h *TeamHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.teamService.Delete(actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "team deleted"})
}

// AddMember adds a user to the team.
// POST /api/teams/:id/members
func (h *TeamHandler) AddMember(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.teamService.AddMember(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

type updateMemberRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateMemberRole changes a member's team role.
// PUT /api/teams/:id/members/:userID
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
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

	member, err := h.teamService.UpdateMemberRole(actor, teamID, userID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// RemoveMember removes a user from the team, cascading their project
// memberships and task assignments under it.
// DELETE /api/teams/:id/members/:userID
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	teamID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(actor, teamID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}
