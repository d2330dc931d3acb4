package ports

import (
	"context"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// UserRepository persists application users.
type UserRepository interface {
	FindByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	FindByExternalID(ctx context.Context, id domain.ExternalID) (*domain.User, error)
	// FindByExternalIDs returns the users that exist among ids, in no
	// particular order. Missing ids are simply absent from the result.
	FindByExternalIDs(ctx context.Context, ids []domain.ExternalID) ([]*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Ensure inserts u when no user with u.ExternalID exists and returns the
	// stored record. Existing profile fields are never overwritten.
	Ensure(ctx context.Context, u *domain.User) (*domain.User, error)
	// UpdateProfile applies patch to the user with the given external id.
	// A username collision returns a *domain.ConflictError and writes nothing.
	UpdateProfile(ctx context.Context, id domain.ExternalID, patch domain.ProfilePatch, markOnboarded bool) (*domain.User, error)
}

// AccountRepository persists credentials of the built-in identity provider.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}
