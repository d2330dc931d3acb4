package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// IdentityService translates internal user ids to the provider-issued
// external ids that conversations and messages are keyed on.
type IdentityService struct {
	users  ports.UserRepository
	prefix string
}

func NewIdentityService(users ports.UserRepository, externalIDPrefix string) *IdentityService {
	if externalIDPrefix == "" {
		externalIDPrefix = domain.DefaultExternalIDPrefix
	}
	return &IdentityService{users: users, prefix: externalIDPrefix}
}

// ResolveToExternalID returns candidate unchanged when it already has the
// external shape. Otherwise candidate must be the storage id of a known
// user; an unknown id is reported as domain.ErrUserNotFound.
func (s *IdentityService) ResolveToExternalID(ctx context.Context, candidate string) (domain.ExternalID, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", domain.Invalid("user_id", "is required")
	}
	if domain.HasExternalShape(candidate, s.prefix) {
		return domain.ExternalID(candidate), nil
	}

	u, err := s.users.FindByID(ctx, domain.UserID(candidate))
	if err != nil {
		return "", fmt.Errorf("resolve identity %q: %w", candidate, err)
	}
	return u.ExternalID, nil
}
