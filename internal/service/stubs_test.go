package service

import (
	"context"
	"errors"
	"testing"

	"vellum/internal/models"
	"vellum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, string) (*models.User, error)
	getByAuthIDFn   func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteAccountFn func(context.Context, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByAuthID(ctx context.Context, authID string) (*models.User, error) {
	return s.getByAuthIDFn(ctx, authID)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) DeleteAccount(ctx context.Context, id string) error {
	return s.deleteAccountFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, _ string) (*models.User, error) { return &models.User{}, nil },
		getByAuthIDFn:   func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteAccountFn: func(_ context.Context, _ string) error { return nil },
	}
}

// docRepoStub is a stub for repository.DocumentRepository.
type docRepoStub struct {
	createFn             func(context.Context, *models.Document) error
	getByIDFn            func(context.Context, string, string) (*models.Document, error)
	updateFn             func(context.Context, *models.Document) error
	deleteFn             func(context.Context, string) error
	listByOwnerFn        func(context.Context, string) ([]*models.Document, error)
	replaceTagsFn        func(context.Context, string, []string) error
	searchFn             func(context.Context, repository.DocumentFilter) ([]*models.Document, int64, error)
	incrementViewsFn     func(context.Context, string)
	incrementDownloadsFn func(context.Context, string)
}

func (s *docRepoStub) Create(ctx context.Context, doc *models.Document) error {
	return s.createFn(ctx, doc)
}
func (s *docRepoStub) GetByID(ctx context.Context, id, viewerID string) (*models.Document, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *docRepoStub) Update(ctx context.Context, doc *models.Document) error {
	return s.updateFn(ctx, doc)
}
func (s *docRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *docRepoStub) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return s.listByOwnerFn(ctx, ownerID)
}
func (s *docRepoStub) ReplaceTags(ctx context.Context, docID string, tagIDs []string) error {
	return s.replaceTagsFn(ctx, docID, tagIDs)
}
func (s *docRepoStub) Search(ctx context.Context, filter repository.DocumentFilter) ([]*models.Document, int64, error) {
	return s.searchFn(ctx, filter)
}
func (s *docRepoStub) IncrementViews(ctx context.Context, id string) {
	if s.incrementViewsFn != nil {
		s.incrementViewsFn(ctx, id)
	}
}
func (s *docRepoStub) IncrementDownloads(ctx context.Context, id string) {
	if s.incrementDownloadsFn != nil {
		s.incrementDownloadsFn(ctx, id)
	}
}

func noopDocRepo() *docRepoStub {
	return &docRepoStub{
		createFn:      func(_ context.Context, _ *models.Document) error { return nil },
		getByIDFn:     func(_ context.Context, _, _ string) (*models.Document, error) { return &models.Document{}, nil },
		updateFn:      func(_ context.Context, _ *models.Document) error { return nil },
		deleteFn:      func(_ context.Context, _ string) error { return nil },
		listByOwnerFn: func(_ context.Context, _ string) ([]*models.Document, error) { return nil, nil },
		replaceTagsFn: func(_ context.Context, _ string, _ []string) error { return nil },
		searchFn: func(_ context.Context, _ repository.DocumentFilter) ([]*models.Document, int64, error) {
			return nil, 0, nil
		},
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	getByIDFn    func(context.Context, string) (*models.Tag, error)
	getByNameFn  func(context.Context, string) (*models.Tag, error)
	createFn     func(context.Context, *models.Tag) error
	deleteFn     func(context.Context, string) error
	searchFn     func(context.Context, string, int) ([]*models.Tag, error)
	popularFn    func(context.Context, int) ([]*models.Tag, error)
	usageCountFn func(context.Context, string) (int64, error)
}

func (s *tagRepoStub) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	return s.getByIDFn(ctx, id)
}
func (s *tagRepoStub) GetByName(ctx context.Context, name string) (*models.Tag, error) {
	return s.getByNameFn(ctx, name)
}
func (s *tagRepoStub) Create(ctx context.Context, tag *models.Tag) error {
	return s.createFn(ctx, tag)
}
func (s *tagRepoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s *tagRepoStub) Search(ctx context.Context, query string, limit int) ([]*models.Tag, error) {
	return s.searchFn(ctx, query, limit)
}
func (s *tagRepoStub) Popular(ctx context.Context, limit int) ([]*models.Tag, error) {
	return s.popularFn(ctx, limit)
}
func (s *tagRepoStub) UsageCount(ctx context.Context, id string) (int64, error) {
	return s.usageCountFn(ctx, id)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		getByIDFn:    func(_ context.Context, _ string) (*models.Tag, error) { return &models.Tag{}, nil },
		getByNameFn:  func(_ context.Context, _ string) (*models.Tag, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.Tag) error { return nil },
		deleteFn:     func(_ context.Context, _ string) error { return nil },
		searchFn:     func(_ context.Context, _ string, _ int) ([]*models.Tag, error) { return nil, nil },
		popularFn:    func(_ context.Context, _ int) ([]*models.Tag, error) { return nil, nil },
		usageCountFn: func(_ context.Context, _ string) (int64, error) { return 0, nil },
	}
}

// starRepoStub is a stub for repository.StarRepository.
type starRepoStub struct {
	toggleFn     func(context.Context, string, string) (bool, int64, error)
	isStarredFn  func(context.Context, string, string) (bool, error)
	countFn      func(context.Context, string) (int64, error)
	starredByFn  func(context.Context, string) ([]*models.User, error)
	batchStatsFn func(context.Context, []string, string) (map[string]models.StarStats, error)
}

func (s *starRepoStub) Toggle(ctx context.Context, docID, userID string) (bool, int64, error) {
	return s.toggleFn(ctx, docID, userID)
}
func (s *starRepoStub) IsStarred(ctx context.Context, docID, userID string) (bool, error) {
	return s.isStarredFn(ctx, docID, userID)
}
func (s *starRepoStub) Count(ctx context.Context, docID string) (int64, error) {
	return s.countFn(ctx, docID)
}
func (s *starRepoStub) StarredBy(ctx context.Context, docID string) ([]*models.User, error) {
	return s.starredByFn(ctx, docID)
}
func (s *starRepoStub) BatchStats(ctx context.Context, docIDs []string, userID string) (map[string]models.StarStats, error) {
	return s.batchStatsFn(ctx, docIDs, userID)
}

func noopStarRepo() *starRepoStub {
	return &starRepoStub{
		toggleFn:    func(_ context.Context, _, _ string) (bool, int64, error) { return false, 0, nil },
		isStarredFn: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		countFn:     func(_ context.Context, _ string) (int64, error) { return 0, nil },
		starredByFn: func(_ context.Context, _ string) ([]*models.User, error) { return nil, nil },
		batchStatsFn: func(_ context.Context, _ []string, _ string) (map[string]models.StarStats, error) {
			return map[string]models.StarStats{}, nil
		},
	}
}

// assertAppError asserts that err carries the given application error code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
