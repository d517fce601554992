package services

import (
	"time"

	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/internal/rbac"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/pkg/logger"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

// Realtime comment event names.
const (
	EventCommentCreated = "comment:created"
	EventCommentUpdated = "comment:updated"
	EventCommentDeleted = "comment:deleted"
)

type CommentService struct {
	db            *gorm.DB
	projects      *ProjectService
	notifications *NotificationService
	hub           *realtime.Hub
}

func NewCommentService(db *gorm.DB, hub *realtime.Hub) *CommentService {
	return &CommentService{
		db:            db,
		projects:      NewProjectService(db),
		notifications: NewNotificationService(db),
		hub:           hub,
	}
}

type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// resolveProject maps a comment's task to its owning project. A failed
// resolution returns 0; the caller logs and skips the broadcast without
// touching the committed mutation.
func (s *CommentService) resolveProject(taskID uint) uint {
	var task models.Task
	if err := s.db.Select("id", "project_id").First(&task, taskID).Error; err != nil {
		logger.Error().Err(err).Uint("task_id", taskID).Msg("resolve project for broadcast")
		return 0
	}
	return task.ProjectID
}

func (s *CommentService) publish(projectID uint, name string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if projectID == 0 {
		logger.Warn().Str("event", name).Msg("broadcast skipped, project resolution failed")
		return
	}
	s.hub.Publish(projectID, realtime.Event{Name: name, Payload: payload})
}

// Create adds a comment (or a reply) on a task. Any project member may
// comment; viewers may not.
func (s *CommentService) Create(actor *models.User, taskID uint, req *CreateCommentRequest) (*models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(rbac.Member) {
		return nil, response.NewAuthorization()
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *req.ParentID).Error; err != nil {
			return nil, response.NewNotFound("parent comment not found")
		}
		if parent.TaskID != taskID {
			return nil, response.NewValidation("parent comment belongs to a different task")
		}
		if parent.ParentID != nil {
			return nil, response.NewValidation("replies cannot be nested further")
		}
		if !parent.Lifecycle.Active() {
			return nil, response.NewValidation("cannot reply to a deleted comment")
		}
	}

	comment := models.Comment{
		TaskID:   taskID,
		AuthorID: actor.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, err
	}

	s.notifyParticipants(actor, &task, &comment)

	s.publish(s.resolveProject(taskID), EventCommentCreated, comment)
	return &comment, nil
}

// notifyParticipants tells the task creator and assignees about a new
// comment, excluding the author.
func (s *CommentService) notifyParticipants(actor *models.User, task *models.Task, comment *models.Comment) {
	recipients := map[uint]bool{task.CreatorID: true}

	var assignees []models.TaskAssignee
	if err := s.db.Where("task_id = ?", task.ID).Find(&assignees).Error; err == nil {
		for _, a := range assignees {
			recipients[a.UserID] = true
		}
	}
	delete(recipients, actor.ID)

	for userID := range recipients {
		s.notifications.Notify(&models.Notification{
			RecipientID: userID,
			SenderID:    &actor.ID,
			Type:        models.NotificationComment,
			Title:       "New comment on " + task.Title,
			Body:        comment.Content,
			TaskID:      &task.ID,
			ProjectID:   &task.ProjectID,
			CommentID:   &comment.ID,
		})
	}
}

// List returns the active comments of a task with their replies.
func (s *CommentService) List(actor *models.User, taskID uint) ([]models.Comment, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if role == rbac.None {
		return nil, response.NewAuthorization()
	}

	var comments []models.Comment
	if err := s.db.Where("task_id = ? AND soft_deleted = ?", taskID, false).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Update edits a comment's content. Only the author may edit; there is
// no admin override on edits.
func (s *CommentService) Update(actor *models.User, commentID uint, content string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return nil, response.NewNotFound("comment not found")
	}
	if !comment.Lifecycle.Active() {
		return nil, response.NewNotFound("comment not found")
	}

	if !rbac.IsOwner(actor.ID, comment.AuthorID)() {
		return nil, response.NewAuthorization()
	}

	if err := s.db.Model(&comment).UpdateColumn("content", content).Error; err != nil {
		return nil, err
	}
	comment.Content = content

	s.publish(s.resolveProject(comment.TaskID), EventCommentUpdated, comment)
	return &comment, nil
}

// Delete soft-deletes a comment. Only the author may delete, with a
// global-admin override. The soft delete cascades to replies.
func (s *CommentService) Delete(actor *models.User, commentID uint) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		return response.NewNotFound("comment not found")
	}
	if !comment.Lifecycle.Active() {
		return response.NewNotFound("comment not found")
	}

	if !rbac.Or(
		rbac.IsOwner(actor.ID, comment.AuthorID),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)() {
		return response.NewAuthorization()
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		deleted := map[string]interface{}{"soft_deleted": true, "deleted_time": now}
		if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).Updates(deleted).Error; err != nil {
			return err
		}
		// Replies die with the comment.
		return tx.Model(&models.Comment{}).Where("parent_id = ?", commentID).Updates(deleted).Error
	})
	if err != nil {
		return err
	}

	s.publish(s.resolveProject(comment.TaskID), EventCommentDeleted, map[string]uint{"comment_id": commentID})
	return nil
}
