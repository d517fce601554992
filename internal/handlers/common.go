package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/middleware"
	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

// currentUser loads the authenticated user behind the request. A false
// return means the response has already been written.
func currentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		response.Unauthorized(c, "account no longer exists")
		return nil, false
	}
	if !user.IsActive {
		response.Unauthorized(c, "account is disabled")
		return nil, false
	}
	return &user, true
}

// paramID parses a uint path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pagination reads page/limit query parameters with defaults.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
