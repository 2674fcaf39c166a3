// Package usersync mirrors identity-provider accounts into the local users table.
package usersync

import (
	"context"

	"go.uber.org/zap"

	"github.com/emojiblog/emojiblog/internal/apperr"
	"github.com/emojiblog/emojiblog/internal/db"
	"github.com/emojiblog/emojiblog/internal/identity"
	"github.com/emojiblog/emojiblog/internal/models"
	"github.com/emojiblog/emojiblog/pkg/logging"
	"github.com/emojiblog/emojiblog/pkg/telemetry"
)

// Service syncs local user rows
type Service struct {
	users    *db.UserRepository
	provider identity.Provider
	logger   *zap.Logger
}

func NewService(repo *db.Repository, provider identity.Provider) *Service {
	return &Service{
		users:    db.NewUserRepository(repo),
		provider: provider,
		logger:   logging.WithComponent("usersync"),
	}
}

// Sync creates or refreshes the caller's local row from the provider.
// requestedID, when set, must be the caller.
func (s *Service) Sync(ctx context.Context, callerID, requestedID string) (*models.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "usersync.sync")
	defer span.End()

	if callerID == "" {
		return nil, apperr.Unauthorized()
	}
	if requestedID != "" && requestedID != callerID {
		return nil, apperr.New(apperr.KindUnauthorized, "cannot sync another user")
	}

	account, err := s.provider.GetUser(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load user from identity provider", err)
	}
	if account == nil {
		return nil, apperr.Internal("User not found")
	}

	email := account.PrimaryEmail()
	if email == "" {
		return nil, apperr.Internal("User must have an email address")
	}

	if err := s.users.Upsert(ctx, &models.User{
		ID:        callerID,
		Email:     email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	}); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to save user", err)
	}

	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load user", err)
	}
	if user == nil {
		return nil, apperr.Internal("User not found after sync")
	}

	s.logger.Debug("User synced", zap.String("user_id", callerID))
	return user, nil
}
