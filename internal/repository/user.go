package repository

import (
	"context"
	"errors"

	"vellum/internal/cache"
	"vellum/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAuthID(ctx context.Context, authID string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	DeleteAccount(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User")
			}
			return models.NewBackendError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByAuthID(ctx context.Context, authID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewBackendError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewBackendError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewBackendError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewBackendError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// DeleteAccount removes a user and everything they own: their stars (with the
// affected star counters corrected), their documents with associations and
// star rows, and their unreferenced created tags. Referenced tags survive
// with the creator attribution cleared.
func (r *userRepository) DeleteAccount(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Stars placed by this user on other documents.
		var starredDocIDs []string
		if err := tx.Model(&models.DocumentStar{}).
			Where("user_id = ?", id).
			Pluck("document_id", &starredDocIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.DocumentStar{}).Error; err != nil {
			return err
		}
		if len(starredDocIDs) > 0 {
			if err := tx.Model(&models.Document{}).
				Where("id IN ?", starredDocIDs).
				UpdateColumn("stars", gorm.Expr("stars - 1")).Error; err != nil {
				return err
			}
		}

		// Owned documents and their dependent rows.
		var ownedDocIDs []string
		if err := tx.Model(&models.Document{}).
			Where("owner_id = ?", id).
			Pluck("id", &ownedDocIDs).Error; err != nil {
			return err
		}
		if len(ownedDocIDs) > 0 {
			if err := tx.Where("document_id IN ?", ownedDocIDs).Delete(&models.DocumentTag{}).Error; err != nil {
				return err
			}
			if err := tx.Where("document_id IN ?", ownedDocIDs).Delete(&models.DocumentStar{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id = ?", id).Delete(&models.Document{}).Error; err != nil {
				return err
			}
		}

		// Created tags: drop unreferenced ones, orphan the rest.
		if err := tx.Where("creator_id = ? AND NOT EXISTS (SELECT 1 FROM document_tags WHERE document_tags.tag_id = tags.id)", id).
			Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Tag{}).
			Where("creator_id = ?", id).
			Update("creator_id", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		return models.NewBackendError(err)
	}

	cache.InvalidateUser(ctx, id)
	return nil
}
