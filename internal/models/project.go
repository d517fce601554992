package models

import (
	"time"

	"gorm.io/gorm"
)

// Project roles.
const (
	ProjectRoleManager = "manager"
	ProjectRoleMember  = "member"
	ProjectRoleViewer  = "viewer"
)

// Project statuses.
const (
	ProjectStatusActive    = "active"
	ProjectStatusArchived  = "archived"
	ProjectStatusCompleted = "completed"
)

// Project is a unit of work grouping tasks, owned by one team.
type Project struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description string          `gorm:"size:2000" json:"description"`
	TeamID      uint            `gorm:"index;not null" json:"team_id"`
	Team        *Team           `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Status      string          `gorm:"size:50;default:active" json:"status"`
	CreatedBy   uint            `json:"created_by"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// ProjectMember represents a user's membership and role within a project.
// Every project member must already be a member of the owning team.
type ProjectMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProjectID uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"project_id"`
	UserID    uint           `gorm:"uniqueIndex:idx_project_user;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string         `gorm:"size:50;default:viewer" json:"role"` // manager, member, viewer
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ProjectMember) TableName() string { return "project_members" }
