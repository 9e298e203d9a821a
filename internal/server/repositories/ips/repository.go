package ips

import (
	"context"

	"github.com/dmitrijs2005/trustkeeper/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, userID, ip string) (bool, error)
	Exists(ctx context.Context, userID, ip string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.KnownIP, error)
	Delete(ctx context.Context, userID, ip string) (bool, error)
}
