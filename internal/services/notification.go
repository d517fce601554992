package services

import (
	"time"

	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/pkg/logger"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify creates a notification for a recipient. Failures are logged
// and swallowed: notifications are a side effect of an already
// committed mutation and must never fail the caller.
func (s *NotificationService) Notify(n *models.Notification) {
	if n.RecipientID == 0 {
		return
	}
	if err := s.db.Create(n).Error; err != nil {
		logger.Error().Err(err).Uint("recipient_id", n.RecipientID).Str("type", n.Type).Msg("create notification")
	}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(userID uint, unreadOnly bool, page, limit int) ([]models.Notification, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Notification
	if err := query.Preload("Sender").
		Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the recipient's notifications read. The read
// transition is monotonic; MarkUnread is the explicit revert.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	return s.setRead(userID, notificationID, true)
}

// MarkUnread reverts the read flag at the recipient's explicit request.
func (s *NotificationService) MarkUnread(userID, notificationID uint) error {
	return s.setRead(userID, notificationID, false)
}

func (s *NotificationService) setRead(userID, notificationID uint, read bool) error {
	var n models.Notification
	if err := s.db.Where("id = ? AND recipient_id = ?", notificationID, userID).First(&n).Error; err != nil {
		return response.NewNotFound("notification not found")
	}

	updates := map[string]interface{}{"is_read": read}
	if read {
		updates["read_at"] = time.Now()
	} else {
		updates["read_at"] = nil
	}
	return s.db.Model(&n).Updates(updates).Error
}

// MarkAllRead marks every unread notification of the recipient read.
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	return result.RowsAffected, result.Error
}
