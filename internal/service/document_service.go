package service

import (
	"context"

	"vellum/internal/models"
	"vellum/internal/repository"
)

// DocumentService is the document store: CRUD with ownership enforcement and
// the tag re-sync algorithm.
type DocumentService struct {
	docRepo repository.DocumentRepository
	tags    *TagService
}

// NewDocumentService returns a new DocumentService.
func NewDocumentService(docRepo repository.DocumentRepository, tags *TagService) *DocumentService {
	return &DocumentService{docRepo: docRepo, tags: tags}
}

// DocumentInput carries the mutable document fields for create and update.
// Validation of sizes and limits happens in the catalog service before these
// inputs reach the store.
type DocumentInput struct {
	Title       string
	Description string
	Content     string
	Public      bool
	TagNames    []string
}

// Create inserts a document with zeroed counters and re-syncs its tag set.
func (s *DocumentService) Create(ctx context.Context, ownerID string, in DocumentInput) (*models.Document, error) {
	doc := &models.Document{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Public:      in.Public,
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.resyncTags(ctx, doc.ID, ownerID, in.TagNames); err != nil {
		return nil, err
	}

	return s.docRepo.GetByID(ctx, doc.ID, ownerID)
}

// Update rewrites the mutable columns and replaces the entire tag set. Every
// update carries the full replacement tag-name list, never a diff.
func (s *DocumentService) Update(ctx context.Context, id, requesterID string, in DocumentInput) (*models.Document, error) {
	doc, err := s.getOwned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	doc.Title = in.Title
	doc.Description = in.Description
	doc.Content = in.Content
	doc.Public = in.Public
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	if err := s.resyncTags(ctx, doc.ID, requesterID, in.TagNames); err != nil {
		return nil, err
	}

	return s.docRepo.GetByID(ctx, doc.ID, requesterID)
}

// resyncTags resolves the (deduplicated, order-preserving) tag names through
// the registry and atomically replaces the document's association set.
func (s *DocumentService) resyncTags(ctx context.Context, docID, userID string, tagNames []string) error {
	tags := s.tags.BulkFindOrCreate(ctx, tagNames, userID)
	tagIDs := make([]string, 0, len(tags))
	for _, t := range tags {
		tagIDs = append(tagIDs, t.ID)
	}
	return s.docRepo.ReplaceTags(ctx, docID, tagIDs)
}

// Get returns the document when the viewer may see it. Missing documents and
// private documents from non-owners are indistinguishable.
func (s *DocumentService) Get(ctx context.Context, id, viewerID string) (*models.Document, error) {
	return s.docRepo.GetByID(ctx, id, viewerID)
}

// Delete removes an owned document and cascades associations and stars.
func (s *DocumentService) Delete(ctx context.Context, id, requesterID string) error {
	if _, err := s.getOwned(ctx, id, requesterID); err != nil {
		return err
	}
	return s.docRepo.Delete(ctx, id)
}

// ToggleVisibility flips the public flag and returns the new value.
func (s *DocumentService) ToggleVisibility(ctx context.Context, id, requesterID string) (bool, error) {
	doc, err := s.getOwned(ctx, id, requesterID)
	if err != nil {
		return false, err
	}
	doc.Public = !doc.Public
	if err := s.docRepo.Update(ctx, doc); err != nil {
		return false, err
	}
	return doc.Public, nil
}

// ListByOwner returns all documents, public and private, owned by the user.
// Intended for the owner's own management view only.
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return s.docRepo.ListByOwner(ctx, ownerID)
}

// RecordView bumps the view counter; never blocks or fails the read.
func (s *DocumentService) RecordView(ctx context.Context, id string) {
	s.docRepo.IncrementViews(ctx, id)
}

// RecordDownload bumps the download counter; same policy as RecordView.
func (s *DocumentService) RecordDownload(ctx context.Context, id string) {
	s.docRepo.IncrementDownloads(ctx, id)
}

// getOwned fetches the document and enforces ownership for mutations. The
// visibility-scoped fetch already hides other users' private documents; a
// public document from a non-owner is an explicit permission failure.
func (s *DocumentService) getOwned(ctx context.Context, id, requesterID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != requesterID {
		return nil, models.NewPermissionDeniedError("Only the document owner can modify it")
	}
	return doc, nil
}
