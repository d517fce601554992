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

// Realtime task event names.
const (
	EventTaskCreated  = "task:created"
	EventTaskUpdated  = "task:updated"
	EventTaskDeleted  = "task:deleted"
	EventTaskAssigned = "task:assigned"
)

type TaskService struct {
	db            *gorm.DB
	projects      *ProjectService
	notifications *NotificationService
	hub           *realtime.Hub
}

func NewTaskService(db *gorm.DB, hub *realtime.Hub) *TaskService {
	return &TaskService{
		db:            db,
		projects:      NewProjectService(db),
		notifications: NewNotificationService(db),
		hub:           hub,
	}
}

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=300"`
	Description string     `json:"description"`
	ProjectID   uint       `json:"project_id" binding:"required"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeIDs []uint     `json:"assignee_ids"`
}

// UpdateTaskRequest uses pointer fields so the guard can distinguish
// absent fields from zero values.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Progress    *int       `json:"progress"`
	DueDate     *time.Time `json:"due_date"`
}

// Fields lists the names of fields present in the payload.
func (r *UpdateTaskRequest) Fields() []string {
	var fields []string
	if r.Title != nil {
		fields = append(fields, "title")
	}
	if r.Description != nil {
		fields = append(fields, "description")
	}
	if r.Status != nil {
		fields = append(fields, "status")
	}
	if r.Priority != nil {
		fields = append(fields, "priority")
	}
	if r.Progress != nil {
		fields = append(fields, "progress")
	}
	if r.DueDate != nil {
		fields = append(fields, "due_date")
	}
	return fields
}

func validTaskStatus(s string) bool {
	switch s {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted,
		models.TaskStatusCancelled, models.TaskStatusBlocked:
		return true
	}
	return false
}

// publish emits a room event for the task's project. Broadcast is a
// post-commit side effect: resolution or delivery problems are logged
// and swallowed, the committed mutation stands.
func (s *TaskService) publish(projectID uint, name string, payload interface{}) {
	if s.hub == nil {
		return
	}
	if projectID == 0 {
		logger.Warn().Str("event", name).Msg("broadcast skipped, project resolution failed")
		return
	}
	s.hub.Publish(projectID, realtime.Event{Name: name, Payload: payload})
}

// isAssignee reports whether the user is assigned to the task.
func (s *TaskService) isAssignee(taskID, userID uint) bool {
	var count int64
	s.db.Model(&models.TaskAssignee{}).Where("task_id = ? AND user_id = ?", taskID, userID).Count(&count)
	return count > 0
}

// Create creates a task. Requires manager or above on the project.
func (s *TaskService) Create(actor *models.User, req *CreateTaskRequest) (*models.Task, error) {
	role, err := s.projects.EffectiveRole(actor, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !role.AtLeast(rbac.Manager) {
		return nil, response.NewAuthorization()
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		CreatorID:   actor.ID,
		Status:      models.TaskStatusTodo,
		Priority:    priority,
		DueDate:     req.DueDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		for _, userID := range req.AssigneeIDs {
			assignee := models.TaskAssignee{TaskID: task.ID, UserID: userID}
			if err := tx.Create(&assignee).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, userID := range req.AssigneeIDs {
		if userID == actor.ID {
			continue
		}
		s.notifications.Notify(&models.Notification{
			RecipientID: userID,
			SenderID:    &actor.ID,
			Type:        models.NotificationAssignment,
			Title:       "You were assigned a task",
			Body:        task.Title,
			TaskID:      &task.ID,
			ProjectID:   &task.ProjectID,
		})
	}

	s.publish(task.ProjectID, EventTaskCreated, task)
	return &task, nil
}

// List returns tasks of a project visible to the actor, paginated.
func (s *TaskService) List(actor *models.User, projectID uint, status string, page, limit int) ([]models.Task, int64, error) {
	role, err := s.projects.EffectiveRole(actor, projectID)
	if err != nil {
		return nil, 0, err
	}
	if role == rbac.None {
		return nil, 0, response.NewAuthorization()
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Task{}).Where("project_id = ?", projectID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	if err := query.Preload("Assignees.User").Preload("Subtasks").
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Get returns a single task visible to the actor.
func (s *TaskService) Get(actor *models.User, taskID uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.Preload("Assignees.User").Preload("Subtasks").First(&task, taskID).Error; err != nil {
		return nil, response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return nil, err
	}
	if role == rbac.None {
		return nil, response.NewAuthorization()
	}
	return &task, nil
}

// Update applies a task update under the guard rules: the creator or a
// manager may change anything; a member-role assignee may change only
// status and progress, and a payload containing any other field fails
// in full with nothing applied.
func (s *TaskService) Update(actor *models.User, taskID uint, req *UpdateTaskRequest) (*models.Task, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return nil, err
	}

	fullAccess := rbac.Or(
		rbac.IsOwner(actor.ID, task.CreatorID),
		rbac.HasRole(role, rbac.Manager),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)()

	if !fullAccess {
		if !role.AtLeast(rbac.Member) || !s.isAssignee(taskID, actor.ID) {
			return nil, response.NewAuthorization()
		}
		// Member-role assignee: allow-listed fields only, all or nothing.
		if !rbac.AssigneeFieldsAllowed(req.Fields()) {
			return nil, response.NewAuthorization()
		}
	}

	if req.Status != nil && !validTaskStatus(*req.Status) {
		return nil, response.NewValidation("invalid task status")
	}
	if req.Progress != nil && (*req.Progress < 0 || *req.Progress > 100) {
		return nil, response.NewValidation("progress must be between 0 and 100")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Progress != nil {
		updates["progress"] = *req.Progress
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		// Completion stamps the timestamp; reverting clears it.
		if *req.Status == models.TaskStatusCompleted && task.Status != models.TaskStatusCompleted {
			updates["completed_at"] = time.Now()
		} else if *req.Status != models.TaskStatusCompleted && task.Status == models.TaskStatusCompleted {
			updates["completed_at"] = nil
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(&task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Preload("Assignees.User").Preload("Subtasks").First(&task, taskID).Error; err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status == models.TaskStatusCompleted {
		s.notifyCompletion(actor, &task)
	}

	s.publish(task.ProjectID, EventTaskUpdated, task)
	return &task, nil
}

func (s *TaskService) notifyCompletion(actor *models.User, task *models.Task) {
	if task.CreatorID != actor.ID {
		s.notifications.Notify(&models.Notification{
			RecipientID: task.CreatorID,
			SenderID:    &actor.ID,
			Type:        models.NotificationCompletion,
			Title:       "Task completed",
			Body:        task.Title,
			TaskID:      &task.ID,
			ProjectID:   &task.ProjectID,
		})
	}
}

// Delete removes a task. Strictly manager or above.
func (s *TaskService) Delete(actor *models.User, taskID uint) error {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return err
	}
	if !rbac.Or(rbac.HasRole(role, rbac.Manager), rbac.AdminOverride(rbac.IsGlobalAdmin(actor)))() {
		return response.NewAuthorization()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Subtask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
	if err != nil {
		return err
	}

	s.publish(task.ProjectID, EventTaskDeleted, map[string]uint{"task_id": taskID})
	return nil
}

// Assign adds a user to the task's assignee set and notifies them.
func (s *TaskService) Assign(actor *models.User, taskID, userID uint) error {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return err
	}
	if !rbac.Or(
		rbac.IsOwner(actor.ID, task.CreatorID),
		rbac.HasRole(role, rbac.Manager),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)() {
		return response.NewAuthorization()
	}

	if !s.projects.IsMember(userID, task.ProjectID) {
		return response.NewValidation("assignee must be a member of the project")
	}
	if s.isAssignee(taskID, userID) {
		return response.NewConflict("user is already assigned to this task")
	}

	assignee := models.TaskAssignee{TaskID: taskID, UserID: userID}
	if err := s.db.Create(&assignee).Error; err != nil {
		return err
	}

	if userID != actor.ID {
		s.notifications.Notify(&models.Notification{
			RecipientID: userID,
			SenderID:    &actor.ID,
			Type:        models.NotificationAssignment,
			Title:       "You were assigned a task",
			Body:        task.Title,
			TaskID:      &task.ID,
			ProjectID:   &task.ProjectID,
		})
	}

	s.publish(task.ProjectID, EventTaskAssigned, map[string]uint{"task_id": taskID, "user_id": userID})
	return nil
}

// Unassign removes a user from the task's assignee set.
func (s *TaskService) Unassign(actor *models.User, taskID, userID uint) error {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return err
	}
	if !rbac.Or(
		rbac.IsOwner(actor.ID, task.CreatorID),
		rbac.HasRole(role, rbac.Manager),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)() {
		return response.NewAuthorization()
	}

	result := s.db.Where("task_id = ? AND user_id = ?", taskID, userID).Delete(&models.TaskAssignee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("assignee not found")
	}

	s.publish(task.ProjectID, EventTaskUpdated, map[string]uint{"task_id": taskID})
	return nil
}

// AddSubtask appends a subtask. Same access rules as a task update.
func (s *TaskService) AddSubtask(actor *models.User, taskID uint, title string) (*models.Subtask, error) {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return nil, response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return nil, err
	}
	allowed := rbac.Or(
		rbac.IsOwner(actor.ID, task.CreatorID),
		rbac.HasRole(role, rbac.Manager),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)() || (role.AtLeast(rbac.Member) && s.isAssignee(taskID, actor.ID))
	if !allowed {
		return nil, response.NewAuthorization()
	}

	subtask := models.Subtask{TaskID: taskID, Title: title}
	if err := s.db.Create(&subtask).Error; err != nil {
		return nil, err
	}

	s.publish(task.ProjectID, EventTaskUpdated, map[string]uint{"task_id": taskID})
	return &subtask, nil
}

// ToggleSubtask flips a subtask's done flag.
func (s *TaskService) ToggleSubtask(actor *models.User, taskID, subtaskID uint, done bool) error {
	var task models.Task
	if err := s.db.First(&task, taskID).Error; err != nil {
		return response.NewNotFound("task not found")
	}

	role, err := s.projects.EffectiveRole(actor, task.ProjectID)
	if err != nil {
		return err
	}
	allowed := rbac.Or(
		rbac.IsOwner(actor.ID, task.CreatorID),
		rbac.HasRole(role, rbac.Manager),
		rbac.AdminOverride(rbac.IsGlobalAdmin(actor)),
	)() || (role.AtLeast(rbac.Member) && s.isAssignee(taskID, actor.ID))
	if !allowed {
		return response.NewAuthorization()
	}

	result := s.db.Model(&models.Subtask{}).
		Where("id = ? AND task_id = ?", subtaskID, taskID).
		UpdateColumn("done", done)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("subtask not found")
	}

	s.publish(task.ProjectID, EventTaskUpdated, map[string]uint{"task_id": taskID})
	return nil
}
