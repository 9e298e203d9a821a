// Package ips stores the network origins each user is trusted from.
package ips

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

func (r *PostgresRepository) Add(ctx context.Context, userID, ip string) (bool, error) {
	query :=
		`INSERT INTO known_ips (user_id, ip)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, ip) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, ip)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

func (r *PostgresRepository) Exists(ctx context.Context, userID, ip string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM known_ips WHERE user_id = $1 AND ip = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, ip).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.KnownIP, error) {
	query :=
		`SELECT id, user_id, ip, created_at FROM known_ips
		 WHERE user_id = $1
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.KnownIP
	for rows.Next() {
		var ip models.KnownIP
		if err := rows.Scan(&ip.ID, &ip.UserID, &ip.IP, &ip.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, ip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, ip string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM known_ips WHERE user_id = $1 AND ip = $2`, userID, ip)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}
