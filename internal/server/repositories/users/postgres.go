package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/dbx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
)

const (
	emailConstraint = "users_email_key"
	phoneConstraint = "users_phone_number_key"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone_number, dob, image,
		 gender, marital_status, is_admin, is_superuser, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in the generated id and timestamps.
// A clash on the email index yields common.ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, first_name, last_name, phone_number, dob, image,
		 gender, marital_status, is_admin, is_superuser)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.PhoneNumber,
		nullTime(user.DateOfBirth), user.Image, string(user.Gender), string(user.MaritalStatus),
		user.IsAdmin, user.IsSuperuser,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, emailConstraint) {
			return nil, common.ErrDuplicateEmail
		}
		if dbx.IsUniqueViolation(err, phoneConstraint) {
			return nil, fmt.Errorf("%w: phone number already in use", common.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE lower(email) = lower($1)`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	query :=
		`UPDATE users SET first_name = $2, last_name = $3, phone_number = NULLIF($4, ''), dob = $5,
		 image = $6, gender = $7, marital_status = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	user, err := r.scanOne(r.db.QueryRowContext(ctx, query,
		id, p.FirstName, p.LastName, p.PhoneNumber, nullTime(p.DateOfBirth), p.Image,
		string(p.Gender), string(p.MaritalStatus)))
	if err != nil && dbx.IsUniqueViolation(err, phoneConstraint) {
		return nil, fmt.Errorf("%w: phone number already in use", common.ErrInvalidArgument)
	}
	return user, err
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the user; known domains, IPs and verified emails go with
// it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var (
		phone         sql.NullString
		dob           sql.NullTime
		gender        string
		maritalStatus string
	)

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&phone, &dob, &user.Image, &gender, &maritalStatus, &user.IsAdmin, &user.IsSuperuser,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.PhoneNumber = phone.String
	if dob.Valid {
		t := dob.Time
		user.DateOfBirth = &t
	}
	user.Gender = models.Gender(gender)
	user.MaritalStatus = models.MaritalStatus(maritalStatus)

	return user, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
