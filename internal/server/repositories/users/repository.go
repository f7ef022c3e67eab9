// Package users reads the user directory owned by the registration service.
package users

import (
	"context"

	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
