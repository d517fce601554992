package models

import "time"

// Lifecycle is the shared soft-delete state for entities that are hidden
// rather than removed (comments and their replies).
type Lifecycle struct {
	SoftDeleted bool       `gorm:"default:false" json:"deleted"`
	DeletedTime *time.Time `json:"deleted_time,omitempty"`
}

// Active reports whether the entity is still visible.
func (l Lifecycle) Active() bool { return !l.SoftDeleted }

// MarkDeleted transitions the entity to the soft-deleted state.
func (l *Lifecycle) MarkDeleted(now time.Time) {
	l.SoftDeleted = true
	l.DeletedTime = &now
}
