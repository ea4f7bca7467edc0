package repository

import (
	"context"
	"regexp"
	"testing"

	"vellum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTagRepository_GetByName(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("t1", "golang")
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tags" WHERE name = $1 ORDER BY "tags"."id" LIMIT $2`)).
			WithArgs("golang", 1).
			WillReturnRows(rows)

		tag, err := repo.GetByName(ctx, "golang")
		require.NoError(t, err)
		require.NotNil(t, tag)
		assert.Equal(t, "golang", tag.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing name yields no tag and no error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tags" WHERE name = $1`)).
			WithArgs("nope", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tag, err := repo.GetByName(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, tag)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTagRepository_Create_Conflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tags"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Tag{Name: "golang"})
	assertAppErrorCode(t, err, models.CodeConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_Search(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "usage_count"}).
		AddRow("t1", "golang", 7).
		AddRow("t2", "golang-tools", 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT tags.*, (SELECT COUNT(*) FROM document_tags WHERE document_tags.tag_id = tags.id) as usage_count FROM "tags" WHERE name LIKE $1 ORDER BY name ASC LIMIT $2`)).
		WithArgs("%golang%", 10).
		WillReturnRows(rows)

	tags, err := repo.Search(context.Background(), "golang", 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "golang", tags[0].Name)
	assert.EqualValues(t, 7, tags[0].UsageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_Popular(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "usage_count"}).
		AddRow("t1", "golang", 9).
		AddRow("t2", "sql", 9).
		AddRow("t3", "redis", 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT tags.*, (SELECT COUNT(*) FROM document_tags WHERE document_tags.tag_id = tags.id) as usage_count FROM "tags" ORDER BY usage_count DESC, name ASC LIMIT $1`)).
		WithArgs(popularCacheCap).
		WillReturnRows(rows)

	tags, err := repo.Popular(context.Background(), 2)
	require.NoError(t, err)
	// The query fetches the cacheable window; the result slices to the limit.
	require.Len(t, tags, 2)
	assert.Equal(t, "golang", tags[0].Name)
	assert.Equal(t, "sql", tags[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagRepository_UsageCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTagRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_tags" WHERE tag_id = $1`)).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UsageCount(context.Background(), "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
