// Package users is the credential store: durable user records keyed by a
// unique email. Adapters translate their engine's unique-constraint failure
// into common.ErrDuplicateKey so callers never see vendor error codes.
package users

import (
	"context"

	"github.com/dmitrijs2005/bookmarker/internal/server/models"
)

type Repository interface {
	// Create inserts user. A taken email yields common.ErrDuplicateKey.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByEmail yields common.ErrorNotFound when no row matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID yields common.ErrorNotFound when no row matches.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
