package models

import "time"

// DocumentStar records that a user currently stars a document. The row's
// existence is the source of truth; Document.Stars is a derived cache.
type DocumentStar struct {
	DocumentID string    `gorm:"type:uuid;primaryKey" json:"document_id"`
	UserID     string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for GORM.
func (DocumentStar) TableName() string {
	return "document_stars"
}

// StarStats summarizes star state for one document in a list view.
type StarStats struct {
	Count     int64 `json:"count"`
	IsStarred bool  `json:"is_starred"`
}
