package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
)

var usersAuthzObject = authz.ObjectName("core", "users")

type UserService struct {
	repo user.Repository
}

func NewUserService(repo user.Repository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetAll(ctx context.Context) ([]user.User, error) {
	if err := authorizeCore(ctx, usersAuthzObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	if err := authorizeCore(ctx, usersAuthzObject, "view"); err != nil {
		return user.User{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// GetByEmail performs no authorization check: it backs the trusted-header
// user resolution middleware, which runs before any user is on the context.
func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Create(ctx context.Context, entity user.User) (user.User, error) {
	if err := authorizeCore(ctx, usersAuthzObject, "create"); err != nil {
		return user.User{}, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		return s.repo.Create(txCtx, entity)
	})
}
