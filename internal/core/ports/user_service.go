package ports

import (
	"context"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type UserService interface {
	// EnsureUser creates the user record on the first authenticated request.
	EnsureUser(ctx context.Context, actor domain.Actor) (*domain.User, error)
	GetMe(ctx context.Context, actor domain.Actor) (*domain.User, error)
	// GetUser accepts either id flavor.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error)
	CompleteOnboarding(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error)
}

// AccountService is the built-in identity provider used when no external
// provider is configured.
type AccountService interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, *domain.Account, error)
}
