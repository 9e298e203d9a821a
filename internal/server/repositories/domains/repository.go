package domains

import (
	"context"

	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
)

type Repository interface {
	// Add links domain to the user. It reports false when the pair
	// already existed.
	Add(ctx context.Context, userID, domain string) (bool, error)
	Exists(ctx context.Context, userID, domain string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.KnownDomain, error)
}
