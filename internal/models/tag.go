package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag represents a normalized, catalog-wide label. Creation is attributed to
// the first user who used the name, but any user may assign the tag afterward.
type Tag struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Color     string    `gorm:"size:7" json:"color,omitempty"`
	CreatorID *string   `gorm:"type:uuid;index" json:"creator_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// UsageCount is not persisted; computed at query time
	UsageCount int64 `gorm:"->" json:"usage_count"`
}

// BeforeCreate assigns an opaque ID when none was provided.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
