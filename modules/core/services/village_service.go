package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/eventbus"
)

var villagesAuthzObject = authz.ObjectName("core", "villages")

func authorizeVillages(ctx context.Context, action string) error {
	return authorizeCore(ctx, villagesAuthzObject, action)
}

type VillageService struct {
	repo      village.Repository
	publisher eventbus.EventBus
}

func NewVillageService(repo village.Repository, publisher eventbus.EventBus) *VillageService {
	return &VillageService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *VillageService) Count(ctx context.Context) (int64, error) {
	if err := authorizeVillages(ctx, "list"); err != nil {
		return 0, err
	}
	return s.repo.Count(ctx)
}

func (s *VillageService) GetAll(ctx context.Context) ([]*village.Village, error) {
	if err := authorizeVillages(ctx, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetAll(ctx)
}

func (s *VillageService) GetPaginated(ctx context.Context, params *village.FindParams) ([]*village.Village, error) {
	if err := authorizeVillages(ctx, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *VillageService) GetByID(ctx context.Context, id uuid.UUID) (*village.Village, error) {
	if err := authorizeVillages(ctx, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *VillageService) GetByCode(ctx context.Context, code string) (*village.Village, error) {
	if err := authorizeVillages(ctx, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByCode(ctx, code)
}

// CodeIndex returns a code-to-id map of active villages, used as the
// reference set the sync matcher validates incoming village codes against.
func (s *VillageService) CodeIndex(ctx context.Context) (map[string]uuid.UUID, error) {
	villages, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]uuid.UUID, len(villages))
	for _, v := range villages {
		if v.IsActive() {
			index[v.Code()] = v.ID()
		}
	}
	return index, nil
}

func (s *VillageService) Create(ctx context.Context, entity *village.Village) (*village.Village, error) {
	if err := authorizeVillages(ctx, "create"); err != nil {
		return nil, err
	}

	created, err := composables.InTxResult(ctx, func(txCtx context.Context) (*village.Village, error) {
		return s.repo.Create(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(village.NewCreatedEvent(created))
	return created, nil
}

func (s *VillageService) Update(ctx context.Context, entity *village.Village) (*village.Village, error) {
	if err := authorizeVillages(ctx, "update"); err != nil {
		return nil, err
	}

	updated, err := composables.InTxResult(ctx, func(txCtx context.Context) (*village.Village, error) {
		return s.repo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(village.NewUpdatedEvent(updated))
	return updated, nil
}
