// Package truststore is the durable record of users and the domains, IPs
// and email addresses they are trusted from.
//
// Every implementation enforces uniqueness atomically: a unique email per
// user, a unique (user, domain) pair and a unique (user, ip) pair hold under
// concurrent callers without any application-side check-then-insert.
// Lookups of a missing user return common.ErrUserNotFound. Failures of the
// underlying storage are reported as common.ErrStorageUnavailable.
package truststore

import (
	"context"

	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
	"github.com/dmitrijs2005/trustkeeper/internal/server/trust"
)

type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)

	HasDomain(ctx context.Context, userID, domain string) (bool, error)
	HasIP(ctx context.Context, userID, ip string) (bool, error)
	HasVerifiedEmail(ctx context.Context, userID string) (bool, error)

	// AddDomain and AddIP report whether a new association was created.
	AddDomain(ctx context.Context, userID, domain string) (bool, error)
	AddIP(ctx context.Context, userID, ip string) (bool, error)
	RemoveIP(ctx context.Context, userID, ip string) (bool, error)
	AddVerifiedEmail(ctx context.Context, userID, email string) error

	// CreateUser stores user together with its first domain and IP as one
	// unit. It fails with common.ErrDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, user *models.User, domain, ip string) (*models.User, error)
	// DeleteUser removes the user and every trust record it owns.
	DeleteUser(ctx context.Context, id string) error

	UpdateProfile(ctx context.Context, userID string, profile models.Profile) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// LoadFacts returns everything the trust evaluator needs about a user.
	LoadFacts(ctx context.Context, userID string) (trust.Facts, error)
}
