package models

import (
	"time"
)

// Notification types, used for digest grouping.
const (
	NotificationAssignment = "assignment"
	NotificationCompletion = "completion"
	NotificationComment    = "comment"
	NotificationDueSoon    = "due_soon"
	NotificationInvite     = "invite"
	NotificationMention    = "mention"
	NotificationOther      = "other"
)

// Notification is delivered to a single recipient. The read transition is
// monotonic unless explicitly reverted by the recipient.
type Notification struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecipientID uint       `gorm:"index;not null" json:"recipient_id"`
	SenderID    *uint      `json:"sender_id,omitempty"`
	Sender      *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string     `gorm:"size:50;default:other" json:"type"`
	Title       string     `gorm:"size:300;not null" json:"title"`
	Body        string     `gorm:"size:2000" json:"body"`
	TaskID      *uint      `json:"task_id,omitempty"`
	ProjectID   *uint      `json:"project_id,omitempty"`
	CommentID   *uint      `json:"comment_id,omitempty"`
	IsRead      bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Notification) TableName() string { return "notifications" }
