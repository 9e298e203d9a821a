// Package verifiedemails records completed email ownership challenges.
package verifiedemails

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/dbx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Add records email as verified for the user. A repeated call is a no-op
// and reports false.
func (r *PostgresRepository) Add(ctx context.Context, userID, email string) (bool, error) {
	query :=
		`INSERT INTO verified_emails (user_id, email)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, email) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, email)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ExistsForUser(ctx context.Context, userID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM verified_emails WHERE user_id = $1)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.VerifiedEmail, error) {
	query :=
		`SELECT id, user_id, email, verified_at FROM verified_emails
		 WHERE user_id = $1
		 ORDER BY verified_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.VerifiedEmail
	for rows.Next() {
		var v models.VerifiedEmail
		if err := rows.Scan(&v.ID, &v.UserID, &v.Email, &v.VerifiedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
