package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document represents a published configuration document in the catalog.
// Views, Downloads and Stars are denormalized counters; Stars must always
// equal the number of DocumentStar rows for the document.
type Document struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner       User   `gorm:"foreignKey:OwnerID" json:"owner"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"size:500" json:"description"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Public      bool   `gorm:"not null;default:false;index" json:"public"`
	Views       int64  `gorm:"not null;default:0" json:"views"`
	Downloads   int64  `gorm:"not null;default:0" json:"downloads"`
	Stars       int64  `gorm:"not null;default:0" json:"stars"`
	Tags        []Tag  `gorm:"many2many:document_tags" json:"tags"`
	// Starred indicates whether the requesting user starred this document (computed)
	Starred   bool           `gorm:"->" json:"starred"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an opaque ID when none was provided.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DocumentTag is the join row between a document and a tag. The full set for
// a document is replaced atomically on every write.
type DocumentTag struct {
	DocumentID string    `gorm:"type:uuid;primaryKey" json:"document_id"`
	TagID      string    `gorm:"type:uuid;primaryKey" json:"tag_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (DocumentTag) TableName() string {
	return "document_tags"
}
