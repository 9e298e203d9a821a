// Package domains stores the client applications each user is known to.
package domains

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

func (r *PostgresRepository) Add(ctx context.Context, userID, domain string) (bool, error) {
	query :=
		`INSERT INTO known_domains (user_id, domain)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, domain) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, domain)
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

func (r *PostgresRepository) Exists(ctx context.Context, userID, domain string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM known_domains WHERE user_id = $1 AND domain = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, domain).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.KnownDomain, error) {
	query :=
		`SELECT id, user_id, domain, created_at FROM known_domains
		 WHERE user_id = $1
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.KnownDomain
	for rows.Next() {
		var d models.KnownDomain
		if err := rows.Scan(&d.ID, &d.UserID, &d.Domain, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
