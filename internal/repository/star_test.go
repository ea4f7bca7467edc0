package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarRepository_Toggle_Star(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "document_stars"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "documents" SET "stars"=stars + 1 WHERE id = $1 AND "documents"."deleted_at" IS NULL`)).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	starred, count, err := repo.Toggle(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.True(t, starred)
	assert.EqualValues(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarRepository_Toggle_Unstar(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "documents" SET "stars"=stars - 1 WHERE id = $1 AND "documents"."deleted_at" IS NULL`)).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	starred, count, err := repo.Toggle(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.False(t, starred)
	assert.EqualValues(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarRepository_Toggle_ConcurrentUnstarSkipsDecrement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStarRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// A concurrent toggle already removed the row: zero rows affected, so no
	// counter decrement follows.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1`)).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectCommit()

	starred, _, err := repo.Toggle(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.False(t, starred)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarRepository_IsStarred(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStarRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "document_stars" WHERE document_id = $1 AND user_id = $2`)).
		WithArgs("d1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	starred, err := repo.IsStarred(context.Background(), "d1", "u1")
	require.NoError(t, err)
	assert.True(t, starred)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarRepository_BatchStats(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStarRepository(db)

	countRows := sqlmock.NewRows([]string{"document_id", "count"}).
		AddRow("d1", 3)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document_id, COUNT(*) as count FROM "document_stars" WHERE document_id IN ($1,$2) GROUP BY "document_id"`)).
		WithArgs("d1", "d2").
		WillReturnRows(countRows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "document_id" FROM "document_stars" WHERE user_id = $1 AND document_id IN ($2,$3)`)).
		WithArgs("u1", "d1", "d2").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow("d1"))

	stats, err := repo.BatchStats(context.Background(), []string{"d1", "d2"}, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats["d1"].Count)
	assert.True(t, stats["d1"].IsStarred)
	// Documents without star rows still appear, zeroed.
	assert.EqualValues(t, 0, stats["d2"].Count)
	assert.False(t, stats["d2"].IsStarred)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStarRepository_BatchStats_EmptyInput(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewStarRepository(db)

	stats, err := repo.BatchStats(context.Background(), nil, "u1")
	require.NoError(t, err)
	assert.Empty(t, stats)
}
