package service

import (
	"context"

	"vellum/internal/models"
	"vellum/internal/observability"
	"vellum/internal/repository"
)

// StarService is the star ledger: per-user star facts plus the derived
// per-document counter.
type StarService struct {
	starRepo repository.StarRepository
	docRepo  repository.DocumentRepository
}

// NewStarService returns a new StarService.
func NewStarService(starRepo repository.StarRepository, docRepo repository.DocumentRepository) *StarService {
	return &StarService{starRepo: starRepo, docRepo: docRepo}
}

// Toggle flips the user's star on a document they can see. The returned
// count is the authoritative post-operation value.
func (s *StarService) Toggle(ctx context.Context, docID, userID string) (bool, int64, error) {
	// Visibility gate: a private document from a non-owner reads as missing.
	if _, err := s.docRepo.GetByID(ctx, docID, userID); err != nil {
		return false, 0, err
	}

	starred, count, err := s.starRepo.Toggle(ctx, docID, userID)
	if err != nil {
		return false, 0, err
	}

	if starred {
		observability.StarToggles.WithLabelValues("starred").Inc()
	} else {
		observability.StarToggles.WithLabelValues("unstarred").Inc()
	}
	return starred, count, nil
}

// IsStarred reports whether the user currently stars the document.
func (s *StarService) IsStarred(ctx context.Context, docID, userID string) (bool, error) {
	return s.starRepo.IsStarred(ctx, docID, userID)
}

// Count returns the number of star rows for the document.
func (s *StarService) Count(ctx context.Context, docID string) (int64, error) {
	return s.starRepo.Count(ctx, docID)
}

// StarredBy lists the users currently starring a visible document.
func (s *StarService) StarredBy(ctx context.Context, docID, viewerID string) ([]*models.User, error) {
	if _, err := s.docRepo.GetByID(ctx, docID, viewerID); err != nil {
		return nil, err
	}
	return s.starRepo.StarredBy(ctx, docID)
}

// BatchStats returns star count and viewer-starred flags for list views.
func (s *StarService) BatchStats(ctx context.Context, docIDs []string, viewerID string) (map[string]models.StarStats, error) {
	return s.starRepo.BatchStats(ctx, docIDs, viewerID)
}
