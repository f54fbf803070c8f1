package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/paysim/gateway/internal/events"
	"github.com/paysim/gateway/internal/logging"
	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/repo"
)

var (
	ErrSelfStatusChange = errors.New("cannot change the status of your own account")
	ErrAdminTarget      = errors.New("cannot change the status of an admin account")
)

type UserService struct {
	Store  *repo.Repo
	Events *events.Producer
}

func (s *UserService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	u, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// SetActive bans or unbans a user. Two guards apply: an admin may not toggle
// their own account, and admin accounts cannot be toggled at all.
func (s *UserService) SetActive(ctx context.Context, actorID, targetID uuid.UUID, active bool) (*models.PublicUser, error) {
	if actorID == targetID {
		return nil, ErrSelfStatusChange
	}
	target, err := s.Store.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == models.RoleAdmin {
		return nil, ErrAdminTarget
	}

	updated, err := s.Store.UpdateActive(ctx, targetID, active)
	if err != nil {
		return nil, err
	}
	pub := updated.Public()
	s.Events.Publish(ctx, events.TypeUserStatusChanged, targetID.String(), pub)
	logging.FromContext(ctx).Info("user status changed",
		"actor_id", actorID, "target_id", targetID, "is_active", active)
	return &pub, nil
}
