package service

import (
	"context"
	"log/slog"

	"vellum/internal/middleware"
	"vellum/internal/models"
	"vellum/internal/repository"
	"vellum/internal/validation"
)

// TagService is the tag registry: find-or-create semantics over normalized,
// catalog-wide unique tag names.
type TagService struct {
	tagRepo repository.TagRepository
}

// NewTagService returns a new TagService.
func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// FindOrCreate returns the tag with the normalized form of name, creating it
// attributed to creatorID when absent. Creator attribution is informational;
// the tag is usable by anyone afterward.
func (s *TagService) FindOrCreate(ctx context.Context, name, creatorID string) (*models.Tag, error) {
	norm := validation.NormalizeTagName(name)
	if err := validation.ValidateTagName(norm); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	tag, err := s.tagRepo.GetByName(ctx, norm)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	tag = &models.Tag{Name: norm}
	if creatorID != "" {
		tag.CreatorID = &creatorID
	}
	if err := s.tagRepo.Create(ctx, tag); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			// Concurrent find-or-create won the insert; use its row.
			if raced, rerr := s.tagRepo.GetByName(ctx, norm); rerr == nil && raced != nil {
				return raced, nil
			}
		}
		return nil, err
	}
	return tag, nil
}

// BulkFindOrCreate applies FindOrCreate to each name after order-preserving
// deduplication of the normalized forms. Individual failures are logged and
// skipped so one bad name cannot abort the batch; callers that need the
// per-name outcome should call FindOrCreate directly.
func (s *TagService) BulkFindOrCreate(ctx context.Context, names []string, creatorID string) []*models.Tag {
	seen := make(map[string]struct{}, len(names))
	tags := make([]*models.Tag, 0, len(names))

	for _, name := range names {
		norm := validation.NormalizeTagName(name)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}

		tag, err := s.FindOrCreate(ctx, name, creatorID)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "skipping tag in bulk find-or-create",
				slog.String("tag", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// Delete removes a tag. Only the creator may delete it, and never while any
// document still references it.
func (s *TagService) Delete(ctx context.Context, tagID, requesterID string) error {
	tag, err := s.tagRepo.GetByID(ctx, tagID)
	if err != nil {
		return err
	}

	if tag.CreatorID == nil || *tag.CreatorID != requesterID {
		return models.NewPermissionDeniedError("Only the tag creator can delete it")
	}

	usage, err := s.tagRepo.UsageCount(ctx, tagID)
	if err != nil {
		return err
	}
	if usage > 0 {
		return models.NewConflictError("Tag is still referenced by documents")
	}

	return s.tagRepo.Delete(ctx, tagID)
}

// Search returns tags whose name contains the normalized query.
func (s *TagService) Search(ctx context.Context, query string, limit int) ([]*models.Tag, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.tagRepo.Search(ctx, validation.NormalizeTagName(query), limit)
}

// Popular returns tags by descending usage count, ties broken by name.
func (s *TagService) Popular(ctx context.Context, limit int) ([]*models.Tag, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.tagRepo.Popular(ctx, limit)
}
