package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "email", "password_hash", "first_name", "last_name", "phone_number", "dob", "image",
	"gender", "marital_status", "is_admin", "is_superuser", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow("u-1", "a@x.com", "$2a$hash", "Ada", "L", nil, nil, "", "Woman", "Single", false, false, now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(email,.*RETURNING\s+id,\s*created_at,\s*updated_at$`).
		WithArgs("a@x.com", "$2a$hash", "Ada", "", "", sqlmock.AnyArg(), "", "", "", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))

	u := &models.User{Email: "a@x.com", PasswordHash: "$2a$hash", IsAdmin: true}
	u.FirstName = "Ada"

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DuplicatePhone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.NotErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@x.com", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow("u-1", "a@x.com", "h", "Ada", "L", "+100", dob, "img", "Woman", "Married", true, true, now, now)

	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`).
		WithArgs("A@X.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "A@X.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "+100", got.PhoneNumber)
	require.NotNil(t, got.DateOfBirth)
	assert.True(t, dob.Equal(*got.DateOfBirth))
	assert.Equal(t, models.GenderWoman, got.Gender)
	assert.Equal(t, models.MaritalMarried, got.MaritalStatus)
	assert.True(t, got.IsAdmin)
	assert.True(t, got.IsSuperuser)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_NullableColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("u-1").
		WillReturnRows(userRow(time.Now()))

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.PhoneNumber)
	assert.Nil(t, got.DateOfBirth)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+first_name\s*=\s*\$2.*RETURNING`).
		WithArgs("u-1", "Ada", "L", "", sqlmock.AnyArg(), "", "Woman", "Single").
		WillReturnRows(userRow(time.Now()))

	got, err := repo.UpdateProfile(context.Background(), "u-1", models.Profile{
		FirstName: "Ada", LastName: "L", Gender: models.GenderWoman, MaritalStatus: models.MaritalSingle,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateProfile(context.Background(), "u-404", models.Profile{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateProfile_DuplicatePhone(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_number_key"})

	_, err := repo.UpdateProfile(context.Background(), "u-1", models.Profile{PhoneNumber: "+1"})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2`).
		WithArgs("u-1", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE\s+users`).
		WithArgs("u-404", "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "new-hash"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "u-404", "new-hash"), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE FROM users WHERE id = \$1$`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE FROM users`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE FROM users`).
		WithArgs("u-2").
		WillReturnError(errors.New("conn reset"))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), common.ErrorNotFound)

	err := repo.Delete(context.Background(), "u-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: conn reset")
}
