// Package users persists registered accounts. Each SQL dialect gets its own
// Repository implementation over a dbx.DBTX.
package users

import (
	"context"

	"github.com/dmitrijs2005/postbox/internal/server/models"
)

type Repository interface {
	// Create inserts user unless the username is taken, in which case it
	// returns common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, login string) (bool, error)
}
