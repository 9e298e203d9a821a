// Package repomanager binds the trust repositories to a DBTX handle and owns
// the goose migrations for the PostgreSQL schema.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/trustkeeper/internal/dbx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/domains"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/ips"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/verifiedemails"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to
// either the pool or a transaction.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Domains(db dbx.DBTX) domains.Repository {
	return domains.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) IPs(db dbx.DBTX) ips.Repository {
	return ips.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) VerifiedEmails(db dbx.DBTX) verifiedemails.Repository {
	return verifiedemails.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// OpenDB opens a pgx-backed *sql.DB and checks connectivity.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
