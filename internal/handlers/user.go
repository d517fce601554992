package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/middleware"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
	hub         *realtime.Hub
}

func NewUserHandler(db *gorm.DB, hub *realtime.Hub) *UserHandler {
	return &UserHandler{
		userService: services.NewUserService(db, hub),
		hub:         hub,
	}
}

// List returns all users, used by member pickers.
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	users, total, err := h.userService.List(page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessPage(c, users, response.NewPageMeta(page, limit, total))
}

// Get returns a single user.
// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile updates the caller's own profile.
// PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetRole changes a user's global role (admin only).
// PUT /api/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.SetRole(id, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Deactivate disables an account and severs its realtime connections
// (admin only).
// POST /api/users/:id/deactivate
func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Deactivate(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user deactivated"})
}

// Activate re-enables a disabled account (admin only).
// POST /api/users/:id/activate
func (h *UserHandler) Activate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Activate(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user activated"})
}

// Online lists currently online users from the connection registry.
// GET /api/users/online
func (h *UserHandler) Online(c *gin.Context) {
	registry := h.hub.Registry()
	response.Success(c, gin.H{
		"count":    registry.CountOnline(),
		"user_ids": registry.ListOnline(),
	})
}
