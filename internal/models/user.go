// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a catalog user. Users are created lazily the first time an
// authenticated identity is seen; AuthID is the stable subject issued by the
// external identity provider.
type User struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	AuthID      string         `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Username    string         `gorm:"size:30;not null;uniqueIndex" json:"username"`
	DisplayName string         `gorm:"size:100" json:"display_name"`
	Email       string         `gorm:"size:255" json:"email,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Documents   []Document     `gorm:"foreignKey:OwnerID" json:"documents,omitempty"`
}

// BeforeCreate assigns an opaque ID when none was provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
