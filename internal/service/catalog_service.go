package service

import (
	"context"

	"vellum/internal/events"
	"vellum/internal/models"
	"vellum/internal/repository"
	"vellum/internal/validation"
)

// Request-level limits enforced before any delegation.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxContentBytes   = 1_000_000
	MaxTagsPerDoc     = 10
)

// CatalogService is the root of the catalog core and the only component
// exposed to callers. It performs request-level validation, resolves
// identities, and delegates to the document store, tag registry, star
// ledger, and search service.
type CatalogService struct {
	identity *IdentityService
	docs     *DocumentService
	tags     *TagService
	stars    *StarService
	search   *SearchService
	userRepo repository.UserRepository
	events   *events.Publisher
}

// NewCatalogService composes the catalog core.
func NewCatalogService(
	identity *IdentityService,
	docs *DocumentService,
	tags *TagService,
	stars *StarService,
	search *SearchService,
	userRepo repository.UserRepository,
	publisher *events.Publisher,
) *CatalogService {
	return &CatalogService{
		identity: identity,
		docs:     docs,
		tags:     tags,
		stars:    stars,
		search:   search,
		userRepo: userRepo,
		events:   publisher,
	}
}

// ResolveIdentity maps an authenticated identity to a catalog user.
func (s *CatalogService) ResolveIdentity(ctx context.Context, ident AuthIdentity) (*models.User, error) {
	return s.identity.Resolve(ctx, ident)
}

// GetUser returns a user by id.
func (s *CatalogService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// DeleteAccount removes the requesting user and cascades to owned
// documents, created tags, and placed stars.
func (s *CatalogService) DeleteAccount(ctx context.Context, requesterID string) error {
	if requesterID == "" {
		return models.NewUnauthenticatedError()
	}
	return s.userRepo.DeleteAccount(ctx, requesterID)
}

// CreateDocument validates the request and publishes a new document.
func (s *CatalogService) CreateDocument(ctx context.Context, requesterID string, in DocumentInput) (*models.Document, error) {
	if requesterID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if err := validateDocumentInput(&in); err != nil {
		return nil, err
	}

	doc, err := s.docs.Create(ctx, requesterID, in)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.DocumentCreated, map[string]any{
		"document_id": doc.ID,
		"owner_id":    doc.OwnerID,
		"public":      doc.Public,
	})
	return doc, nil
}

// UpdateDocument validates the request and rewrites an owned document,
// replacing its entire tag set.
func (s *CatalogService) UpdateDocument(ctx context.Context, id, requesterID string, in DocumentInput) (*models.Document, error) {
	if requesterID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if err := validateDocumentInput(&in); err != nil {
		return nil, err
	}

	doc, err := s.docs.Update(ctx, id, requesterID, in)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.DocumentUpdated, map[string]any{
		"document_id": doc.ID,
		"owner_id":    doc.OwnerID,
	})
	return doc, nil
}

// GetDocument returns a visible document and records the view.
func (s *CatalogService) GetDocument(ctx context.Context, id, viewerID string) (*models.Document, error) {
	doc, err := s.docs.Get(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	s.docs.RecordView(ctx, id)
	return doc, nil
}

// DownloadDocument returns a visible document's content and records the download.
func (s *CatalogService) DownloadDocument(ctx context.Context, id, viewerID string) (*models.Document, error) {
	doc, err := s.docs.Get(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	s.docs.RecordDownload(ctx, id)
	return doc, nil
}

// DeleteDocument removes an owned document.
func (s *CatalogService) DeleteDocument(ctx context.Context, id, requesterID string) error {
	if requesterID == "" {
		return models.NewUnauthenticatedError()
	}
	if err := s.docs.Delete(ctx, id, requesterID); err != nil {
		return err
	}
	s.events.Publish(ctx, events.DocumentDeleted, map[string]any{
		"document_id": id,
		"owner_id":    requesterID,
	})
	return nil
}

// ToggleVisibility flips an owned document between public and private.
func (s *CatalogService) ToggleVisibility(ctx context.Context, id, requesterID string) (bool, error) {
	if requesterID == "" {
		return false, models.NewUnauthenticatedError()
	}
	return s.docs.ToggleVisibility(ctx, id, requesterID)
}

// ListOwnDocuments returns the requester's documents, public and private.
func (s *CatalogService) ListOwnDocuments(ctx context.Context, requesterID string) ([]*models.Document, error) {
	if requesterID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	return s.docs.ListByOwner(ctx, requesterID)
}

// ToggleStar flips the requester's star on a document.
func (s *CatalogService) ToggleStar(ctx context.Context, docID, requesterID string) (bool, int64, error) {
	if requesterID == "" {
		return false, 0, models.NewUnauthenticatedError()
	}
	starred, count, err := s.stars.Toggle(ctx, docID, requesterID)
	if err != nil {
		return false, 0, err
	}
	s.events.Publish(ctx, events.DocumentStarred, map[string]any{
		"document_id": docID,
		"user_id":     requesterID,
		"starred":     starred,
		"star_count":  count,
	})
	return starred, count, nil
}

// Stargazers lists users starring a visible document.
func (s *CatalogService) Stargazers(ctx context.Context, docID, viewerID string) ([]*models.User, error) {
	return s.stars.StarredBy(ctx, docID, viewerID)
}

// StarStats returns batch star counts and viewer flags for list views.
func (s *CatalogService) StarStats(ctx context.Context, docIDs []string, viewerID string) (map[string]models.StarStats, error) {
	return s.stars.BatchStats(ctx, docIDs, viewerID)
}

// Search runs a sanitized catalog search.
func (s *CatalogService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	return s.search.Search(ctx, params)
}

// SearchTags returns tags matching a query.
func (s *CatalogService) SearchTags(ctx context.Context, query string, limit int) ([]*models.Tag, error) {
	return s.tags.Search(ctx, query, limit)
}

// PopularTags returns the most used tags.
func (s *CatalogService) PopularTags(ctx context.Context, limit int) ([]*models.Tag, error) {
	return s.tags.Popular(ctx, limit)
}

// DeleteTag removes an unreferenced tag the requester created.
func (s *CatalogService) DeleteTag(ctx context.Context, tagID, requesterID string) error {
	if requesterID == "" {
		return models.NewUnauthenticatedError()
	}
	return s.tags.Delete(ctx, tagID, requesterID)
}

// validateDocumentInput enforces the request-level field limits and trims
// the tag list to the per-document maximum after deduplication.
func validateDocumentInput(in *DocumentInput) error {
	if in.Title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(in.Title) > MaxTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	if in.Content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(in.Content) > MaxContentBytes {
		return models.NewValidationError("Content too long (max 1000000 bytes)")
	}
	if len(in.Description) > MaxDescriptionLen {
		return models.NewValidationError("Description too long (max 500 characters)")
	}

	seen := make(map[string]struct{}, len(in.TagNames))
	deduped := make([]string, 0, len(in.TagNames))
	for _, name := range in.TagNames {
		norm := validation.NormalizeTagName(name)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		deduped = append(deduped, name)
	}
	if len(deduped) > MaxTagsPerDoc {
		return models.NewValidationError("Too many tags (max 10 per document)")
	}
	in.TagNames = deduped

	return nil
}
