package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/middleware"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	digestService       *services.DigestService
}

func NewNotificationHandler(db *gorm.DB, digest *services.DigestService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: services.NewNotificationService(db),
		digestService:       digest,
	}
}

// List returns the caller's notifications, newest first.
// GET /api/notifications?unread=true
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := pagination(c)
	unreadOnly := c.Query("unread") == "true"

	notifications, total, err := h.notificationService.List(userID, unreadOnly, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessPage(c, notifications, response.NewPageMeta(page, limit, total))
}

// UnreadCount returns how many notifications the caller has not read.
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// MarkRead marks one notification as read.
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "marked read"})
}

// MarkUnread marks one notification as unread.
// PUT /api/notifications/:id/unread
func (h *NotificationHandler) MarkUnread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkUnread(middleware.GetUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "marked unread"})
}

// MarkAllRead marks every unread notification of the caller as read.
// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

// RunDigest triggers a digest pass outside the schedule. Admin only.
// POST /api/admin/digest/run
func (h *NotificationHandler) RunDigest(c *gin.Context) {
	stats := h.digestService.Run()
	response.Success(c, stats)
}
