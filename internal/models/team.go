package models

import (
	"time"

	"gorm.io/gorm"
)

// Team roles. The team owner always carries the admin role.
const (
	TeamRoleAdmin   = "admin"
	TeamRoleManager = "manager"
	TeamRoleMember  = "member"
)

// Team is the top-level grouping of projects and users.
type Team struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"size:1000" json:"description"`
	OwnerID     uint           `gorm:"not null" json:"owner_id"`
	Owner       *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members     []TeamMember   `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Team) TableName() string { return "teams" }

// TeamMember represents a user's membership and role within a team.
type TeamMember struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TeamID    uint           `gorm:"uniqueIndex:idx_team_user;not null" json:"team_id"`
	UserID    uint           `gorm:"uniqueIndex:idx_team_user;not null" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string         `gorm:"size:50;default:member" json:"role"` // admin, manager, member
	JoinedAt  time.Time      `json:"joined_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TeamMember) TableName() string { return "team_members" }
