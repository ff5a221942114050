package services

import (
	"context"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
)

// syncStore is the write surface one sync run mutates the world through.
// Routing every run write through it lets dry-run substitute a no-op
// implementation while the matching and counting logic stays identical.
type syncStore interface {
	CreateIdentity(ctx context.Context, entity *identity.Identity) (*identity.Identity, error)
	UpdateIdentity(ctx context.Context, entity *identity.Identity) (*identity.Identity, error)
	CreateConflict(ctx context.Context, entity *conflict.Conflict) (*conflict.Conflict, error)
}

type pgSyncStore struct {
	identities identity.Repository
	conflicts  conflict.Repository
}

func (s *pgSyncStore) CreateIdentity(ctx context.Context, entity *identity.Identity) (*identity.Identity, error) {
	return s.identities.Create(ctx, entity)
}

func (s *pgSyncStore) UpdateIdentity(ctx context.Context, entity *identity.Identity) (*identity.Identity, error) {
	return s.identities.Update(ctx, entity)
}

func (s *pgSyncStore) CreateConflict(ctx context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	return s.conflicts.Create(ctx, entity)
}

// dryRunStore accepts every write and persists nothing. Returned entities
// feed the in-memory snapshot so later records in the batch still observe
// the would-be state.
type dryRunStore struct{}

func (dryRunStore) CreateIdentity(_ context.Context, entity *identity.Identity) (*identity.Identity, error) {
	return entity, nil
}

func (dryRunStore) UpdateIdentity(_ context.Context, entity *identity.Identity) (*identity.Identity, error) {
	return entity, nil
}

func (dryRunStore) CreateConflict(_ context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	return entity, nil
}
