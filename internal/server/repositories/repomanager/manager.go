package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/trustkeeper/internal/dbx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/domains"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/ips"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/verifiedemails"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Domains(db dbx.DBTX) domains.Repository
	IPs(db dbx.DBTX) ips.Repository
	VerifiedEmails(db dbx.DBTX) verifiedemails.Repository
}
