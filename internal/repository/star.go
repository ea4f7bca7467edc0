package repository

import (
	"context"

	"vellum/internal/cache"
	"vellum/internal/models"

	"gorm.io/gorm"
)

// StarRepository defines persistence operations for document stars. The
// document_stars rows are the source of truth; documents.stars is a derived
// counter maintained with atomic SQL expressions inside the same transaction.
type StarRepository interface {
	Toggle(ctx context.Context, docID, userID string) (starred bool, count int64, err error)
	IsStarred(ctx context.Context, docID, userID string) (bool, error)
	Count(ctx context.Context, docID string) (int64, error)
	StarredBy(ctx context.Context, docID string) ([]*models.User, error)
	BatchStats(ctx context.Context, docIDs []string, userID string) (map[string]models.StarStats, error)
}

type starRepository struct {
	db *gorm.DB
}

// NewStarRepository returns a new StarRepository implementation.
func NewStarRepository(db *gorm.DB) StarRepository {
	return &starRepository{db: db}
}

// Toggle atomically flips a user's star on a document. The existence check,
// the row mutation, and the counter expression run in one transaction so
// concurrent toggles by different users cannot corrupt the counter. The
// returned count is a fresh read of the fact table, never a local accumulator.
func (r *starRepository) Toggle(ctx context.Context, docID, userID string) (bool, int64, error) {
	var starred bool
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.DocumentStar{}).
			Where("document_id = ? AND user_id = ?", docID, userID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			res := tx.Where("document_id = ? AND user_id = ?", docID, userID).
				Delete(&models.DocumentStar{})
			if res.Error != nil {
				return res.Error
			}
			// Decrement only when this transaction removed the row; a
			// concurrent toggle may have deleted it first.
			if res.RowsAffected > 0 {
				if err := tx.Model(&models.Document{}).
					Where("id = ?", docID).
					UpdateColumn("stars", gorm.Expr("stars - 1")).Error; err != nil {
					return err
				}
			}
			starred = false
		} else {
			star := &models.DocumentStar{DocumentID: docID, UserID: userID}
			if err := tx.Create(star).Error; err != nil {
				// A concurrent toggle inserted the same pair first; treat the
				// star as already present and leave the counter untouched.
				if !isUniqueViolation(err) {
					return err
				}
			} else {
				if err := tx.Model(&models.Document{}).
					Where("id = ?", docID).
					UpdateColumn("stars", gorm.Expr("stars + 1")).Error; err != nil {
					return err
				}
			}
			starred = true
		}

		return tx.Model(&models.DocumentStar{}).
			Where("document_id = ?", docID).
			Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewBackendError(err)
	}

	cache.InvalidateDocument(ctx, docID)
	return starred, count, nil
}

func (r *starRepository) IsStarred(ctx context.Context, docID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentStar{}).
		Where("document_id = ? AND user_id = ?", docID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewBackendError(err)
	}
	return count > 0, nil
}

func (r *starRepository) Count(ctx context.Context, docID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentStar{}).
		Where("document_id = ?", docID).
		Count(&count).Error; err != nil {
		return 0, models.NewBackendError(err)
	}
	return count, nil
}

func (r *starRepository) StarredBy(ctx context.Context, docID string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN document_stars ON document_stars.user_id = users.id").
		Where("document_stars.document_id = ?", docID).
		Order("document_stars.created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewBackendError(err)
	}
	return users, nil
}

// BatchStats returns the star count plus the viewer's starred flag for each
// document, for list views. userID may be empty for anonymous viewers.
func (r *starRepository) BatchStats(ctx context.Context, docIDs []string, userID string) (map[string]models.StarStats, error) {
	stats := make(map[string]models.StarStats, len(docIDs))
	if len(docIDs) == 0 {
		return stats, nil
	}
	for _, id := range docIDs {
		stats[id] = models.StarStats{}
	}

	type countRow struct {
		DocumentID string
		Count      int64
	}
	var counts []countRow
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentStar{}).
		Select("document_id, COUNT(*) as count").
		Where("document_id IN ?", docIDs).
		Group("document_id").
		Find(&counts).Error; err != nil {
		return nil, models.NewBackendError(err)
	}
	for _, row := range counts {
		stats[row.DocumentID] = models.StarStats{Count: row.Count}
	}

	if userID != "" {
		var starredIDs []string
		if err := r.db.WithContext(ctx).
			Model(&models.DocumentStar{}).
			Where("user_id = ? AND document_id IN ?", userID, docIDs).
			Pluck("document_id", &starredIDs).Error; err != nil {
			return nil, models.NewBackendError(err)
		}
		for _, id := range starredIDs {
			s := stats[id]
			s.IsStarred = true
			stats[id] = s
		}
	}

	return stats, nil
}
