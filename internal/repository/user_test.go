package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"updoot/internal/models"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs("ben@ben.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).
				AddRow(1, "ben", "ben@ben.com"))

		user, err := repo.GetByEmail(ctx, "ben@ben.com")
		assert.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "ben", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing returns nil without error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs("ghost@ben.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.GetByEmail(ctx, "ghost@ben.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("ben", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "ben"))

	user, err := repo.GetByUsername(ctx, "ben")
	assert.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, uint(1), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Batch query", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id IN ($1,$2,$3)`)).
			WithArgs(1, 2, 3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
				AddRow(1, "a").
				AddRow(3, "c"))

		users, err := repo.GetByIDs(ctx, []uint{1, 2, 3})
		assert.NoError(t, err)
		assert.Len(t, users, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty input issues no query", func(t *testing.T) {
		users, err := repo.GetByIDs(ctx, nil)
		assert.NoError(t, err)
		assert.Nil(t, users)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_CreateConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(ctx, &models.User{Username: "ben", Email: "ben@ben.com", Password: "hash"})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
