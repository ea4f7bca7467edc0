package service

import (
	"context"
	"testing"

	"vellum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentService(docRepo *docRepoStub, tagRepo *tagRepoStub) *DocumentService {
	return NewDocumentService(docRepo, NewTagService(tagRepo))
}

func TestCreateDocumentResyncsTags(t *testing.T) {
	docRepo := noopDocRepo()
	docRepo.createFn = func(_ context.Context, doc *models.Document) error {
		doc.ID = "d1"
		return nil
	}
	var replaced []string
	docRepo.replaceTagsFn = func(_ context.Context, docID string, tagIDs []string) error {
		assert.Equal(t, "d1", docID)
		replaced = tagIDs
		return nil
	}
	docRepo.getByIDFn = func(_ context.Context, id, viewerID string) (*models.Document, error) {
		return &models.Document{ID: id, OwnerID: viewerID, Title: "Notes"}, nil
	}

	tagRepo := noopTagRepo()
	tagRepo.createFn = func(_ context.Context, tag *models.Tag) error {
		tag.ID = "id-" + tag.Name
		return nil
	}

	svc := newDocumentService(docRepo, tagRepo)
	doc, err := svc.Create(context.Background(), "u1", DocumentInput{
		Title:    "Notes",
		Content:  "body",
		TagNames: []string{"a1", "A1", "b2 "},
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ID)
	// Duplicate normalized forms collapse; order of first appearance wins.
	assert.Equal(t, []string{"id-a1", "id-b2"}, replaced)
}

func TestUpdateDocumentReplacesTagSet(t *testing.T) {
	docRepo := noopDocRepo()
	docRepo.getByIDFn = func(_ context.Context, id, _ string) (*models.Document, error) {
		return &models.Document{ID: id, OwnerID: "u1", Title: "Old", Content: "old"}, nil
	}
	var updated *models.Document
	docRepo.updateFn = func(_ context.Context, doc *models.Document) error {
		updated = doc
		return nil
	}
	var replaced []string
	docRepo.replaceTagsFn = func(_ context.Context, _ string, tagIDs []string) error {
		replaced = tagIDs
		return nil
	}

	tagRepo := noopTagRepo()
	tagRepo.createFn = func(_ context.Context, tag *models.Tag) error {
		tag.ID = "id-" + tag.Name
		return nil
	}

	svc := newDocumentService(docRepo, tagRepo)
	_, err := svc.Update(context.Background(), "d1", "u1", DocumentInput{
		Title:    "New",
		Content:  "new",
		Public:   true,
		TagNames: []string{"fresh"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "New", updated.Title)
	assert.True(t, updated.Public)
	assert.Equal(t, []string{"id-fresh"}, replaced)
}

func TestUpdateDocumentWithEmptyTagListClearsTags(t *testing.T) {
	docRepo := noopDocRepo()
	docRepo.getByIDFn = func(_ context.Context, id, _ string) (*models.Document, error) {
		return &models.Document{ID: id, OwnerID: "u1"}, nil
	}
	cleared := false
	docRepo.replaceTagsFn = func(_ context.Context, _ string, tagIDs []string) error {
		cleared = true
		assert.Empty(t, tagIDs)
		return nil
	}

	svc := newDocumentService(docRepo, noopTagRepo())
	_, err := svc.Update(context.Background(), "d1", "u1", DocumentInput{Title: "T", Content: "c"})
	require.NoError(t, err)
	assert.True(t, cleared)
}

func TestUpdateDocumentRequiresOwnership(t *testing.T) {
	docRepo := noopDocRepo()
	docRepo.getByIDFn = func(_ context.Context, id, _ string) (*models.Document, error) {
		return &models.Document{ID: id, OwnerID: "owner", Public: true}, nil
	}

	svc := newDocumentService(docRepo, noopTagRepo())
	_, err := svc.Update(context.Background(), "d1", "intruder", DocumentInput{Title: "T", Content: "c"})
	assertAppError(t, err, models.CodePermissionDenied)
}

func TestDeleteDocumentRequiresOwnership(t *testing.T) {
	docRepo := noopDocRepo()
	docRepo.getByIDFn = func(_ context.Context, id, _ string) (*models.Document, error) {
		return &models.Document{ID: id, OwnerID: "owner", Public: true}, nil
	}
	docRepo.deleteFn = func(_ context.Context, _ string) error {
		t.Fatal("should not delete another user's document")
		return nil
	}

	svc := newDocumentService(docRepo, noopTagRepo())
	err := svc.Delete(context.Background(), "d1", "intruder")
	assertAppError(t, err, models.CodePermissionDenied)
}

func TestHiddenDocumentReadsAsMissing(t *testing.T) {
	docRepo := noopDocRepo()
	// The visibility-scoped fetch reports a private document from a
	// non-owner exactly like a missing one.
	docRepo.getByIDFn = func(_ context.Context, _, _ string) (*models.Document, error) {
		return nil, models.NewNotFoundError("Document")
	}

	svc := newDocumentService(docRepo, noopTagRepo())

	_, err := svc.Get(context.Background(), "d1", "viewer")
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.Update(context.Background(), "d1", "viewer", DocumentInput{Title: "T", Content: "c"})
	assertAppError(t, err, models.CodeNotFound)

	err = svc.Delete(context.Background(), "d1", "viewer")
	assertAppError(t, err, models.CodeNotFound)
}

func TestToggleVisibilityFlipsFlag(t *testing.T) {
	doc := &models.Document{ID: "d1", OwnerID: "u1", Public: false}
	docRepo := noopDocRepo()
	docRepo.getByIDFn = func(_ context.Context, _, _ string) (*models.Document, error) {
		return doc, nil
	}

	svc := newDocumentService(docRepo, noopTagRepo())

	public, err := svc.ToggleVisibility(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.True(t, public)

	public, err = svc.ToggleVisibility(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.False(t, public)
}
