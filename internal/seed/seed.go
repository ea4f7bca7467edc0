// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"vellum/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	NumDocuments int
	ShouldClean  bool
}

var tagPool = []string{
	"golang", "postgres", "redis", "docker", "kubernetes", "linux", "networking",
	"security", "testing", "observability", "api-design", "sql", "performance",
	"architecture", "devops", "cli", "tutorial", "reference", "notes", "draft",
	"recipes", "travel", "finance", "research", "meeting-notes",
}

// Seeder populates the catalog with realistic demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	rnd     *rand.Rand
}

// NewSeeder creates a Seeder bound to the given database.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:      db,
		factory: NewFactory(db),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all seeded data. Join tables go first so foreign keys
// never dangle mid-wipe.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{"document_stars", "document_tags", "documents", "tags", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers creates n users and returns them.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	log.Printf("Seeding %d users...", n)
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedTags creates the tag pool, each attributed to a random user.
func (s *Seeder) SeedTags(users []*models.User) ([]*models.Tag, error) {
	log.Printf("Seeding %d tags...", len(tagPool))
	tags := make([]*models.Tag, 0, len(tagPool))
	for _, name := range tagPool {
		creator := users[s.rnd.Intn(len(users))]
		tag, err := s.factory.CreateTag(name, creator)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// SeedDocuments creates n documents spread across the users, each carrying
// up to five tags from the pool.
func (s *Seeder) SeedDocuments(users []*models.User, tags []*models.Tag, n int) ([]*models.Document, error) {
	log.Printf("Seeding %d documents...", n)
	docs := make([]*models.Document, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.rnd.Intn(len(users))]
		docTags := s.pickTags(tags, s.rnd.Intn(6))
		doc, err := s.factory.CreateDocument(owner, docTags)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SeedStars stars a random subset of documents for each user so the popular
// listings have signal.
func (s *Seeder) SeedStars(users []*models.User, docs []*models.Document) error {
	log.Println("Seeding stars...")
	for _, user := range users {
		count := s.rnd.Intn(len(docs)/2 + 1)
		for i := 0; i < count; i++ {
			doc := docs[s.rnd.Intn(len(docs))]
			if doc.OwnerID == user.ID {
				continue
			}
			if err := s.factory.CreateStar(doc, user); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run executes the full seeding pipeline.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return err
	}
	tags, err := s.SeedTags(users)
	if err != nil {
		return err
	}
	docs, err := s.SeedDocuments(users, tags, opts.NumDocuments)
	if err != nil {
		return err
	}
	return s.SeedStars(users, docs)
}

func (s *Seeder) pickTags(tags []*models.Tag, n int) []*models.Tag {
	if n > len(tags) {
		n = len(tags)
	}
	picked := make([]*models.Tag, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		tag := tags[s.rnd.Intn(len(tags))]
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		picked = append(picked, tag)
	}
	return picked
}
