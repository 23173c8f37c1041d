package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTokenRepositoryStoreReplacesPriorToken(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(sqlmock.AnyArg(), "user-1", "hash-abc", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Store(context.Background(), "user-1", "hash-abc", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryStoreRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Store(context.Background(), "user-1", "hash-abc", time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryVerify(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM refresh_tokens WHERE user_id = $1 AND token_hash = $2 AND expires_at > NOW()")).
		WithArgs("user-1", "hash-abc").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	live, err := repo.Verify(context.Background(), "user-1", "hash-abc")
	require.NoError(t, err)
	assert.True(t, live)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM refresh_tokens")).
		WithArgs("user-1", "hash-gone").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	live, err = repo.Verify(context.Background(), "user-1", "hash-gone")
	require.NoError(t, err)
	assert.False(t, live)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryRemoveIsIdempotent(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE token_hash = $1")).
		WithArgs("hash-unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), "hash-unknown"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryPurgeExpired(t *testing.T) {
	db, mock, cleanup := newTokenRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE expires_at <= NOW()")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
