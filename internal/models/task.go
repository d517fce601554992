package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
	TaskStatusBlocked    = "blocked"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task is a unit of assignable work with status and optional subtasks.
// CompletedAt is stamped when status moves to completed and cleared on revert.
type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:300;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Project     *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	CreatorID   uint           `gorm:"not null" json:"creator_id"`
	Status      string         `gorm:"size:50;default:todo" json:"status"`
	Priority    string         `gorm:"size:50;default:medium" json:"priority"`
	Progress    int            `gorm:"default:0" json:"progress"` // 0..100
	DueDate     *time.Time     `json:"due_date"`
	CompletedAt *time.Time     `json:"completed_at"`
	Assignees   []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees,omitempty"`
	Subtasks    []Subtask      `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "tasks" }

// TaskAssignee links a user to a task they are assigned to.
type TaskAssignee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"uniqueIndex:idx_task_user;not null" json:"task_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_task_user;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (TaskAssignee) TableName() string { return "task_assignees" }

// Subtask is contained in its parent task and dies with it.
type Subtask struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	Title     string    `gorm:"size:300;not null" json:"title"`
	Done      bool      `gorm:"default:false" json:"done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subtask) TableName() string { return "subtasks" }
