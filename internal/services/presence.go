package services

import (
	"github.com/teamflow/teamflow/internal/models"
	"gorm.io/gorm"
)

// UserPresence persists the online flag flipped by the realtime hub on
// first-connection and last-disconnect transitions.
type UserPresence struct {
	db *gorm.DB
}

func NewUserPresence(db *gorm.DB) *UserPresence {
	return &UserPresence{db: db}
}

func (p *UserPresence) SetOnline(userID uint, online bool) error {
	return p.db.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("is_online", online).Error
}
