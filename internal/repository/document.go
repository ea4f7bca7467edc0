package repository

import (
	"context"
	"errors"
	"log/slog"

	"vellum/internal/cache"
	"vellum/internal/middleware"
	"vellum/internal/models"
	"vellum/internal/observability"

	"gorm.io/gorm"
)

// DocumentFilter carries an already-sanitized search query. The service layer
// owns clamping and allow-listing; the repository only translates to SQL.
type DocumentFilter struct {
	Query    string
	TagNames []string
	OwnerID  string // non-empty scopes to one owner, including private documents
	ViewerID string // used for the computed starred flag
	Sort     string
	Limit    int
	Offset   int
}

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id, viewerID string) (*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)
	ReplaceTags(ctx context.Context, docID string, tagIDs []string) error
	Search(ctx context.Context, filter DocumentFilter) ([]*models.Document, int64, error)
	IncrementViews(ctx context.Context, id string)
	IncrementDownloads(ctx context.Context, id string)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	defer observability.TrackQuery("create", "documents")()
	// Tags are attached by ReplaceTags; keep GORM from upserting them here.
	if err := r.db.WithContext(ctx).Omit("Tags").Create(doc).Error; err != nil {
		return models.NewBackendError(err)
	}
	observability.DocumentsCreated.Inc()
	return nil
}

// GetByID returns the document when it is public, or when the viewer owns it.
// A private document seen by a non-owner yields the same NotFound as a
// missing id so private documents cannot be enumerated.
func (r *documentRepository) GetByID(ctx context.Context, id, viewerID string) (*models.Document, error) {
	defer observability.TrackQuery("read", "documents")()
	var doc models.Document

	fetch := func() error {
		err := r.applyStarred(r.db.WithContext(ctx), viewerID).
			Preload("Owner").
			Preload("Tags").
			Where("documents.id = ? AND (documents.public = ? OR documents.owner_id = ?)", id, true, viewerID).
			First(&doc).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Document")
			}
			return models.NewBackendError(err)
		}
		return nil
	}

	var err error
	if viewerID == "" {
		err = cache.Aside(ctx, cache.DocumentKey(id), &doc, cache.DocumentTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	defer observability.TrackQuery("update", "documents")()
	if err := r.db.WithContext(ctx).Omit("Tags").Save(doc).Error; err != nil {
		return models.NewBackendError(err)
	}
	cache.InvalidateDocument(ctx, doc.ID)
	return nil
}

// Delete removes the document together with its tag associations and star
// rows, all-or-nothing.
func (r *documentRepository) Delete(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "documents")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.DocumentStar{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", id).Error
	})
	if err != nil {
		return models.NewBackendError(err)
	}
	cache.InvalidateDocument(ctx, id)
	cache.InvalidatePopularTags(ctx)
	return nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	var docs []*models.Document
	err := r.applyStarred(r.db.WithContext(ctx), ownerID).
		Preload("Tags").
		Where("documents.owner_id = ?", ownerID).
		Order("documents.created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, models.NewBackendError(err)
	}
	return docs, nil
}

// ReplaceTags swaps the document's entire association set in one transaction:
// delete everything, then insert the given tag ids in order. A mid-failure
// rolls back so the document never loses tags it should have.
func (r *documentRepository) ReplaceTags(ctx context.Context, docID string, tagIDs []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", docID).Delete(&models.DocumentTag{}).Error; err != nil {
			return err
		}
		for _, tagID := range tagIDs {
			assoc := &models.DocumentTag{DocumentID: docID, TagID: tagID}
			if err := tx.Create(assoc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewBackendError(err)
	}
	cache.InvalidateDocument(ctx, docID)
	cache.InvalidatePopularTags(ctx)
	return nil
}

// Search runs the sanitized filter and returns one page plus the total match count.
func (r *documentRepository) Search(ctx context.Context, filter DocumentFilter) ([]*models.Document, int64, error) {
	defer observability.TrackQuery("search", "documents")()

	base := r.db.WithContext(ctx).Model(&models.Document{})
	base = r.applyFilter(base, filter)

	var total int64
	if err := base.Session(&gorm.Session{}).Distinct("documents.id").Count(&total).Error; err != nil {
		return nil, 0, models.NewBackendError(err)
	}

	var docs []*models.Document
	q := r.applyStarred(base.Session(&gorm.Session{}), filter.ViewerID).
		Preload("Owner").
		Preload("Tags")
	err := r.applySort(q, filter.Sort).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&docs).Error
	if err != nil {
		return nil, 0, models.NewBackendError(err)
	}
	return docs, total, nil
}

// applyFilter translates the filter into WHERE clauses. Visibility: owner
// scope sees all own documents, everyone else sees public only.
func (r *documentRepository) applyFilter(db *gorm.DB, filter DocumentFilter) *gorm.DB {
	if filter.OwnerID != "" {
		db = db.Where("documents.owner_id = ?", filter.OwnerID)
	} else {
		db = db.Where("documents.public = ?", true)
	}

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		db = db.Where("documents.title ILIKE ? OR documents.description ILIKE ? OR documents.content ILIKE ?", like, like, like)
	}

	if len(filter.TagNames) > 0 {
		// A document matches when it carries every requested tag.
		db = db.Where(
			"documents.id IN (SELECT document_tags.document_id FROM document_tags JOIN tags ON tags.id = document_tags.tag_id WHERE tags.name IN ? GROUP BY document_tags.document_id HAVING COUNT(DISTINCT tags.name) = ?)",
			filter.TagNames, len(filter.TagNames),
		)
	}

	return db
}

// applySort appends the ORDER BY clause for the requested sort key. The
// service layer restricts keys to the allow-list; anything else falls back
// to newest-first.
func (r *documentRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "stars":
		return db.Order("documents.stars DESC, documents.created_at DESC")
	case "views":
		return db.Order("documents.views DESC, documents.created_at DESC")
	case "downloads":
		return db.Order("documents.downloads DESC, documents.created_at DESC")
	default: // "created_at" and anything unrecognized
		return db.Order("documents.created_at DESC")
	}
}

// applyStarred adds a subquery computing the viewer's starred flag in a single query.
func (r *documentRepository) applyStarred(db *gorm.DB, viewerID string) *gorm.DB {
	if viewerID != "" {
		return db.Select(
			"documents.*, EXISTS(SELECT 1 FROM document_stars WHERE document_stars.document_id = documents.id AND document_stars.user_id = ?) as starred",
			viewerID,
		)
	}
	return db.Select("documents.*, false as starred")
}

// IncrementViews bumps the view counter without blocking or failing the read
// it accompanies. Failures are logged and dropped.
func (r *documentRepository) IncrementViews(ctx context.Context, id string) {
	r.bumpCounter(ctx, id, "views")
}

// IncrementDownloads bumps the download counter; same fire-and-forget policy
// as IncrementViews.
func (r *documentRepository) IncrementDownloads(ctx context.Context, id string) {
	r.bumpCounter(ctx, id, "downloads")
}

func (r *documentRepository) bumpCounter(ctx context.Context, id, column string) {
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		observability.CounterBumpFailures.WithLabelValues(column).Inc()
		middleware.Logger.WarnContext(ctx, "counter bump failed",
			slog.String("document_id", id),
			slog.String("counter", column),
			slog.String("error", err.Error()),
		)
	}
	// No cache invalidation: the cached counters are advisory, and evicting
	// the entry on every read would defeat the anonymous document cache.
}
