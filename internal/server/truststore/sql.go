package truststore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"github.com/dmitrijs2005/trustkeeper/internal/dbx"
	"github.com/dmitrijs2005/trustkeeper/internal/netx"
	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trustkeeper/internal/server/trust"
)

// SQLStore implements Store on top of the Postgres repositories.
type SQLStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSQLStore(db *sql.DB, m repomanager.RepositoryManager) *SQLStore {
	return &SQLStore{db: db, repomanager: m}
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, netx.NormalizeEmail(email))
	return u, translate(err)
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	return u, translate(err)
}

func (s *SQLStore) HasDomain(ctx context.Context, userID, domain string) (bool, error) {
	ok, err := s.repomanager.Domains(s.db).Exists(ctx, userID, netx.NormalizeDomain(domain))
	return ok, translate(err)
}

func (s *SQLStore) HasIP(ctx context.Context, userID, ip string) (bool, error) {
	ok, err := s.repomanager.IPs(s.db).Exists(ctx, userID, normalizeIP(ip))
	return ok, translate(err)
}

func (s *SQLStore) HasVerifiedEmail(ctx context.Context, userID string) (bool, error) {
	ok, err := s.repomanager.VerifiedEmails(s.db).ExistsForUser(ctx, userID)
	return ok, translate(err)
}

func (s *SQLStore) AddDomain(ctx context.Context, userID, domain string) (bool, error) {
	added, err := s.repomanager.Domains(s.db).Add(ctx, userID, netx.NormalizeDomain(domain))
	return added, translate(err)
}

func (s *SQLStore) AddIP(ctx context.Context, userID, ip string) (bool, error) {
	added, err := s.repomanager.IPs(s.db).Add(ctx, userID, normalizeIP(ip))
	return added, translate(err)
}

func (s *SQLStore) RemoveIP(ctx context.Context, userID, ip string) (bool, error) {
	removed, err := s.repomanager.IPs(s.db).Delete(ctx, userID, normalizeIP(ip))
	return removed, translate(err)
}

func (s *SQLStore) AddVerifiedEmail(ctx context.Context, userID, email string) error {
	_, err := s.repomanager.VerifiedEmails(s.db).Add(ctx, userID, netx.NormalizeEmail(email))
	return translate(err)
}

func (s *SQLStore) CreateUser(ctx context.Context, user *models.User, domain, ip string) (*models.User, error) {
	user.Email = netx.NormalizeEmail(user.Email)

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		if _, err := s.repomanager.Domains(tx).Add(ctx, created.ID, netx.NormalizeDomain(domain)); err != nil {
			return err
		}
		if _, err := s.repomanager.IPs(tx).Add(ctx, created.ID, normalizeIP(ip)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	return created, nil
}

func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	return translate(s.repomanager.Users(s.db).Delete(ctx, id))
}

func (s *SQLStore) UpdateProfile(ctx context.Context, userID string, profile models.Profile) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, profile)
	return u, translate(err)
}

func (s *SQLStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return translate(s.repomanager.Users(s.db).UpdatePassword(ctx, userID, passwordHash))
}

// LoadFacts reads the three trust tables in one read-only transaction so
// the facts form a consistent snapshot.
func (s *SQLStore) LoadFacts(ctx context.Context, userID string) (trust.Facts, error) {
	facts := trust.Facts{UserID: userID}

	err := dbx.WithReadTx(ctx, s.db,
		func(ctx context.Context, tx dbx.DBTX) error {
			ds, err := s.repomanager.Domains(tx).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			for _, d := range ds {
				facts.Domains = append(facts.Domains, d.Domain)
			}

			ips, err := s.repomanager.IPs(tx).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			for _, ip := range ips {
				facts.IPs = append(facts.IPs, ip.IP)
			}

			ves, err := s.repomanager.VerifiedEmails(tx).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			for _, v := range ves {
				facts.VerifiedEmails = append(facts.VerifiedEmails, v.Email)
			}
			return nil
		})
	if err != nil {
		return trust.Facts{}, translate(err)
	}

	return facts, nil
}

// translate maps repository errors onto the store's error kinds.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound), dbx.IsInvalidTextRepresentation(err):
		// a malformed id cannot name an existing user
		return common.ErrUserNotFound
	case errors.Is(err, common.ErrDuplicateEmail), errors.Is(err, common.ErrInvalidArgument):
		return err
	default:
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
}

func normalizeIP(ip string) string {
	n, _ := netx.NormalizeIP(ip)
	return n
}
