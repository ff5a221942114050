package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/pkg/authz"
)

var identitiesAuthzObject = authz.ObjectName("hris", "identities")

// IdentityService exposes the reconciled identity store for reading. All
// writes go through the sync orchestrator or conflict resolution.
type IdentityService struct {
	repo identity.Repository
}

func NewIdentityService(repo identity.Repository) *IdentityService {
	return &IdentityService{repo: repo}
}

func (s *IdentityService) Count(ctx context.Context) (int64, error) {
	if err := authorizeHRIS(ctx, identitiesAuthzObject, "list"); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx)
}

func (s *IdentityService) GetPaginated(ctx context.Context, params *identity.FindParams) ([]*identity.Identity, error) {
	if err := authorizeHRIS(ctx, identitiesAuthzObject, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *IdentityService) GetByID(ctx context.Context, id uuid.UUID) (*identity.Identity, error) {
	if err := authorizeHRIS(ctx, identitiesAuthzObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *IdentityService) GetByExternalID(ctx context.Context, externalID string) (*identity.Identity, error) {
	if err := authorizeHRIS(ctx, identitiesAuthzObject, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByExternalID(ctx, externalID)
}
