package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db             *gorm.DB
	commentService *services.CommentService
}

func NewCommentHandler(db *gorm.DB, hub *realtime.Hub) *CommentHandler {
	return &CommentHandler{db: db, commentService: services.NewCommentService(db, hub)}
}

// Create posts a comment or a reply on a task.
// POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(actor, taskID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// List returns a task's active comments.
// GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.List(actor, taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Update edits a comment, author only.
// PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.commentService.Update(actor, id, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

// Delete soft-deletes a comment and its replies.
// DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "comment deleted"})
}
