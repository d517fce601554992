package models

import (
	"time"
)

// Comment belongs to a task. A comment with a non-nil ParentID is a reply;
// soft-deleting a comment cascades to its replies. Only the author may
// mutate a comment (global admins may delete).
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"index;not null" json:"task_id"`
	Task      *Task     `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	AuthorID  uint      `gorm:"not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Lifecycle Lifecycle `gorm:"embedded" json:"lifecycle"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Comment) TableName() string { return "comments" }
