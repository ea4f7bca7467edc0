package repository

import (
	"context"
	"errors"

	"vellum/internal/cache"
	"vellum/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	GetByID(ctx context.Context, id string) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]*models.Tag, error)
	Popular(ctx context.Context, limit int) ([]*models.Tag, error)
	UsageCount(ctx context.Context, id string) (int64, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Tag")
		}
		return nil, models.NewBackendError(err)
	}
	return &tag, nil
}

func (r *tagRepository) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewBackendError(err)
	}
	return &tag, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("Tag already exists")
		}
		return models.NewBackendError(err)
	}
	cache.InvalidatePopularTags(ctx)
	return nil
}

func (r *tagRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&models.Tag{}, "id = ?", id).Error; err != nil {
		return models.NewBackendError(err)
	}
	cache.InvalidatePopularTags(ctx)
	return nil
}

func (r *tagRepository) Search(ctx context.Context, query string, limit int) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.applyUsageCount(r.db.WithContext(ctx)).
		Where("name LIKE ?", "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, models.NewBackendError(err)
	}
	return tags, nil
}

// popularCacheCap bounds the cached popularity list; requests are sliced from it.
const popularCacheCap = 100

// Popular returns tags ordered by descending usage, name ascending on ties.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]*models.Tag, error) {
	if limit <= 0 || limit > popularCacheCap {
		limit = popularCacheCap
	}
	var tags []*models.Tag
	err := cache.Aside(ctx, cache.PopularTagsKey, &tags, cache.PopularTagsTTL, func() error {
		return r.applyUsageCount(r.db.WithContext(ctx)).
			Order("usage_count DESC, name ASC").
			Limit(popularCacheCap).
			Find(&tags).Error
	})
	if err != nil {
		return nil, models.NewBackendError(err)
	}
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags, nil
}

func (r *tagRepository) UsageCount(ctx context.Context, id string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentTag{}).
		Where("tag_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, models.NewBackendError(err)
	}
	return count, nil
}

// applyUsageCount adds a subquery to fetch the association count in a single query.
func (r *tagRepository) applyUsageCount(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Tag{}).Select(
		"tags.*, (SELECT COUNT(*) FROM document_tags WHERE document_tags.tag_id = tags.id) as usage_count",
	)
}
