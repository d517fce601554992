package services

import (
	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/pkg/response"
	"gorm.io/gorm"
)

type UserService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewUserService(db *gorm.DB, hub *realtime.Hub) *UserService {
	return &UserService{db: db, hub: hub}
}

type UpdateProfileRequest struct {
	Nickname      *string `json:"nickname"`
	Avatar        *string `json:"avatar"`
	DigestEnabled *bool   `json:"digest_enabled"`
}

// List returns all users, paginated.
func (s *UserService) List(page, limit int) ([]models.User, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := s.db.Offset((page - 1) * limit).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Get returns one user by id.
func (s *UserService) Get(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, response.NewNotFound("user not found")
	}
	return &user, nil
}

// UpdateProfile lets a user change their own profile fields.
func (s *UserService) UpdateProfile(userID uint, req *UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, response.NewNotFound("user not found")
	}

	updates := map[string]interface{}{}
	if req.Nickname != nil {
		updates["nickname"] = *req.Nickname
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.DigestEnabled != nil {
		updates["digest_enabled"] = *req.DigestEnabled
	}
	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetRole changes a user's global role. Admin only (enforced by route).
func (s *UserService) SetRole(userID uint, role string) (*models.User, error) {
	if role != models.GlobalRoleAdmin && role != models.GlobalRoleManager && role != models.GlobalRoleMember {
		return nil, response.NewValidation("invalid role, must be 'admin', 'manager', or 'member'")
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, response.NewNotFound("user not found")
	}

	if err := s.db.Model(&user).UpdateColumn("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	return &user, nil
}

// Deactivate disables an account and severs its live connections.
func (s *UserService) Deactivate(userID uint) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return response.NewNotFound("user not found")
	}

	if err := s.db.Model(&user).UpdateColumn("is_active", false).Error; err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.ForceDisconnect(userID)
	}
	return nil
}

// Activate re-enables a disabled account.
func (s *UserService) Activate(userID uint) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("is_active", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("user not found")
	}
	return nil
}
