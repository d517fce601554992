package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService *services.TaskService
}

func NewTaskHandler(db *gorm.DB, hub *realtime.Hub) *TaskHandler {
	return &TaskHandler{db: db, taskService: services.NewTaskService(db, hub)}
}

// Create creates a task in a project.
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Create(actor, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List returns a project's tasks.
// GET /api/tasks?project_id=&status=
func (h *TaskHandler) List(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	page, limit := pagination(c)

	raw := c.Query("project_id")
	if raw == "" {
		response.BadRequest(c, "project_id is required")
		return
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project_id")
		return
	}

	tasks, total, err := h.taskService.List(actor, uint(parsed), c.Query("status"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessPage(c, tasks, response.NewPageMeta(page, limit, total))
}

// Get returns one task with assignees and subtasks.
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// Update edits task fields. Assignees without a managing role may only
// change status and progress.
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(actor, id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// Delete removes a task and its subtasks, assignments and comments.
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "task deleted"})
}

type assignRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Assign adds an assignee to the task.
// POST /api/tasks/:id/assignees
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.Assign(actor, id, req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "assignee added"})
}

// Unassign removes an assignee from the task.
// DELETE /api/tasks/:id/assignees/:userID
func (h *TaskHandler) Unassign(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}

	if err := h.taskService.Unassign(actor, id, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "assignee removed"})
}

type subtaskRequest struct {
	Title string `json:"title" binding:"required"`
}

// AddSubtask appends a checklist item to the task.
// POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubtask(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req subtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	subtask, err := h.taskService.AddSubtask(actor, id, req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subtask)
}

type toggleSubtaskRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// ToggleSubtask marks a checklist item done or not done.
// PUT /api/tasks/:id/subtasks/:subtaskID
func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	actor, ok := currentUser(c, h.db)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	subtaskID, ok := paramID(c, "subtaskID")
	if !ok {
		return
	}
	var req toggleSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.taskService.ToggleSubtask(actor, id, subtaskID, *req.Done); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "subtask updated"})
}
