// Package seed provides helpers to create test and demo data for the
// catalog database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"vellum/internal/models"
	"vellum/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rnd *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:  db,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	name := gofakeit.Name()
	user := &models.User{
		AuthID:      "seed|" + gofakeit.UUID(),
		Username:    validation.NormalizeUsername(gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999))),
		DisplayName: name,
		Email:       gofakeit.Email(),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateTag persists a tag with a normalized name, tolerating duplicates by
// returning the existing row.
func (f *Factory) CreateTag(name string, creator *models.User) (*models.Tag, error) {
	normalized := validation.NormalizeTagName(name)
	if err := validation.ValidateTagName(normalized); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		Name:  normalized,
		Color: gofakeit.HexColor(),
	}
	if creator != nil {
		tag.CreatorID = &creator.ID
	}

	err := f.db.Where(models.Tag{Name: normalized}).FirstOrCreate(tag).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", normalized, err)
	}
	return tag, nil
}

// BuildDocument constructs a document without persisting it.
func (f *Factory) BuildDocument(owner *models.User, overrides ...func(*models.Document)) *models.Document {
	doc := &models.Document{
		OwnerID:     owner.ID,
		Title:       strings.TrimSuffix(gofakeit.Sentence(4), "."),
		Description: gofakeit.Sentence(10),
		Content:     gofakeit.Paragraph(3, 5, 12, "\n\n"),
		Public:      f.rnd.Intn(100) < 80,
	}

	// realistic created_at spread over the last 90 days
	daysBack := f.rnd.Intn(90)
	hoursBack := f.rnd.Intn(24)
	doc.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(doc)
	}
	return doc
}

// CreateDocument persists a document and attaches the given tags.
func (f *Factory) CreateDocument(owner *models.User, tags []*models.Tag, overrides ...func(*models.Document)) (*models.Document, error) {
	doc := f.BuildDocument(owner, overrides...)
	if err := f.db.Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	for _, tag := range tags {
		link := &models.DocumentTag{DocumentID: doc.ID, TagID: tag.ID}
		if err := f.db.Create(link).Error; err != nil {
			return nil, fmt.Errorf("failed to tag document: %w", err)
		}
	}
	return doc, nil
}

// CreateStar records a star and bumps the document's counter. Repeated calls
// for the same pair are no-ops.
func (f *Factory) CreateStar(doc *models.Document, user *models.User) error {
	star := &models.DocumentStar{DocumentID: doc.ID, UserID: user.ID}
	res := f.db.Where(models.DocumentStar{DocumentID: doc.ID, UserID: user.ID}).
		FirstOrCreate(star)
	if res.Error != nil {
		return fmt.Errorf("failed to create star: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return f.db.Model(&models.Document{}).Where("id = ?", doc.ID).
		UpdateColumn("stars", gorm.Expr("stars + 1")).Error
}
