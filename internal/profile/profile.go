// Package profile serves public user profiles straight from the identity provider.
package profile

import (
	"context"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// Service looks up profiles
type Service struct {
	provider identity.Provider
}

func NewService(provider identity.Provider) *Service {
	return &Service{provider: provider}
}

// GetByUsername returns the client-safe profile for username
func (s *Service) GetByUsername(ctx context.Context, username string) (*identity.ClientUser, error) {
	ctx, span := telemetry.StartSpan(ctx, "profile.get_by_username")
	defer span.End()

	users, err := s.provider.GetUsersByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up user", err)
	}
	if len(users) == 0 {
		return nil, apperr.Internal("User not found")
	}
	u := identity.FilterForClient(users[0])
	return &u, nil
}
