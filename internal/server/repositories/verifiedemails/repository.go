package verifiedemails

import (
	"context"

	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, userID, email string) (bool, error)
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.VerifiedEmail, error)
}
