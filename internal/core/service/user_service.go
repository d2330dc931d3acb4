package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

type UserService struct {
	users    ports.UserRepository
	resolver ports.IdentityResolver
	log      zerolog.Logger
	now      func() time.Time
}

func NewUserService(users ports.UserRepository, resolver ports.IdentityResolver, log zerolog.Logger) *UserService {
	return &UserService{
		users:    users,
		resolver: resolver,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureUser creates the actor's user record on first sight. It is safe to
// call on every request.
func (s *UserService) EnsureUser(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	now := s.now()
	u, err := s.users.Ensure(ctx, &domain.User{
		ExternalID:  actor.ExternalID,
		DisplayName: displayName(actor),
		Email:       strings.ToLower(strings.TrimSpace(actor.Email)),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return u, nil
}

func displayName(actor domain.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(actor.Email, "@"); ok && local != "" {
		return local
	}
	return actor.ExternalID.String()
}

func (s *UserService) GetMe(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.users.FindByExternalID(ctx, actor.ExternalID)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ext, err := s.resolver.ResolveToExternalID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.users.FindByExternalID(ctx, ext)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, domain.NormalizeUsername(username))
}

// UsernameAvailable reports whether nobody holds username yet.
func (s *UserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return false, err
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check username: %w", err)
	default:
		return false, nil
	}
}

// UpdateProfile applies a profile edit. A username held by someone else is
// rejected before the write; the unique index catches the race.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error) {
	return s.update(ctx, actor, patch, false)
}

// CompleteOnboarding applies the onboarding form and marks the user as
// onboarded. A username is required by the end of onboarding.
func (s *UserService) CompleteOnboarding(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if patch.Username == nil {
		current, err := s.users.FindByExternalID(ctx, actor.ExternalID)
		if err != nil {
			return nil, err
		}
		if current.Username == "" {
			return nil, domain.Invalid("username", "is required to finish onboarding")
		}
	}
	return s.update(ctx, actor, patch, true)
}

func (s *UserService) update(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch, markOnboarded bool) (*domain.User, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Empty() && !markOnboarded {
		return s.users.FindByExternalID(ctx, actor.ExternalID)
	}

	if patch.Username != nil {
		holder, err := s.users.FindByUsername(ctx, *patch.Username)
		switch {
		case err == nil && holder.ExternalID != actor.ExternalID:
			return nil, &domain.ConflictError{Field: "username", Value: *patch.Username}
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}

	u, err := s.users.UpdateProfile(ctx, actor.ExternalID, patch, markOnboarded)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user", actor.ExternalID.String()).
		Bool("onboarding", markOnboarded).
		Msg("profile updated")
	return u, nil
}
