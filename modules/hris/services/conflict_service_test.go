package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	coreservices "github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/clock"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/eventbus"
)

type conflictFixture struct {
	ctx        context.Context
	service    *ConflictService
	identities *memIdentityRepo
	conflicts  *memConflictRepo
	villageV1  *village.Village
	clock      *clock.Fixed
}

func newConflictFixture(t *testing.T) *conflictFixture {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	publisher := eventbus.NewEventPublisher(log)

	villages := &memVillageRepo{}
	v1, err := village.New("V1", "Village V1", "North District")
	require.NoError(t, err)
	_, err = villages.Create(context.Background(), v1)
	require.NoError(t, err)

	identities := newMemIdentityRepo()
	conflicts := &memConflictRepo{}
	fixed := &clock.Fixed{Instant: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}

	service := NewConflictService(
		conflicts,
		identities,
		coreservices.NewVillageService(villages, publisher),
		publisher,
		fixed,
	)
	return &conflictFixture{
		ctx:        composables.WithSystemActor(context.Background()),
		service:    service,
		identities: identities,
		conflicts:  conflicts,
		villageV1:  v1,
		clock:      fixed,
	}
}

func conflictRecord() directory.ExternalRecord {
	return directory.ExternalRecord{
		ExternalID:    "EMP-2001",
		Email:         "nadia.kimani@example.org",
		DisplayName:   "Nadia Kimani",
		Department:    "Community Health",
		VillageCode:   "V1",
		Role:          "coordinator",
		Status:        directory.StatusActive,
		EffectiveFrom: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

func (f *conflictFixture) seedSystemIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	vid := f.villageV1.ID()
	entity := identity.New(
		"", // created locally, not yet linked
		"nadia.kimani@example.org",
		"N. Kimani",
		"Operations",
		"staff",
		&vid,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	)
	_, err := f.identities.Create(context.Background(), entity)
	require.NoError(t, err)
	return entity
}

func (f *conflictFixture) seedConflict(t *testing.T, kind conflict.Kind, candidate *identity.Identity) *conflict.Conflict {
	t.Helper()
	c := conflict.New(uuid.New(), kind, conflictRecord(), candidateSnapshot(candidate))
	_, err := f.conflicts.Create(context.Background(), c)
	require.NoError(t, err)
	return c
}

func TestConflictService_KeepSystem_LeavesIdentityUntouched(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDuplicateEmail, target)

	resolved, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionKeepSystem,
		Notes:      "local record is authoritative",
	})
	require.NoError(t, err)
	assert.Equal(t, conflict.StatusResolved, resolved.Status())

	unchanged, err := f.identities.GetByID(context.Background(), target.ID())
	require.NoError(t, err)
	assert.Equal(t, "N. Kimani", unchanged.DisplayName())
	assert.False(t, unchanged.IsLinked())
}

func TestConflictService_UseHRIS_LinksAndOverwrites(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDuplicateEmail, target)

	_, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionUseHRIS,
	})
	require.NoError(t, err)

	updated, err := f.identities.GetByID(context.Background(), target.ID())
	require.NoError(t, err)
	assert.Equal(t, "EMP-2001", updated.ExternalID())
	assert.Equal(t, "Nadia Kimani", updated.DisplayName())
	assert.Equal(t, "Community Health", updated.Department())
	assert.Equal(t, "coordinator", updated.Role())
	require.NotNil(t, updated.VillageID())
	assert.Equal(t, f.villageV1.ID(), *updated.VillageID())
}

func TestConflictService_Merge_AppliesPerFieldDirective(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDataMismatch, target)

	_, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionMerge,
		Merge: &conflict.MergeDirective{
			Email:       conflict.SourceSystem,
			DisplayName: conflict.SourceHRIS,
			Village:     conflict.SourceSystem,
			Role:        conflict.SourceHRIS,
			Department:  conflict.SourceSystem,
		},
	})
	require.NoError(t, err)

	merged, err := f.identities.GetByID(context.Background(), target.ID())
	require.NoError(t, err)
	assert.Equal(t, "Nadia Kimani", merged.DisplayName())
	assert.Equal(t, "coordinator", merged.Role())
	assert.Equal(t, "Operations", merged.Department(), "system-sourced field must survive the merge")
}

func TestConflictService_CreateNew_CoexistsWithCandidate(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDuplicateEmail, target)

	_, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionCreateNew,
		Notes:      "distinct person, shared family mailbox",
	})
	require.NoError(t, err)

	count, err := f.identities.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	created, err := f.identities.GetByExternalID(context.Background(), "EMP-2001")
	require.NoError(t, err)
	assert.NotEqual(t, target.ID(), created.ID())
	require.NotNil(t, created.VillageID())
}

func TestConflictService_SecondResolution_Rejected(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDuplicateEmail, target)

	first, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionKeepSystem,
	})
	require.NoError(t, err)

	_, err = f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionUseHRIS,
	})
	require.ErrorIs(t, err, conflict.ErrAlreadyResolved)

	// The losing attempt must not have mutated the identity either.
	unchanged, err := f.identities.GetByID(context.Background(), target.ID())
	require.NoError(t, err)
	assert.False(t, unchanged.IsLinked())
	assert.Equal(t, conflict.ResolutionKeepSystem, first.Resolution())
}

func TestConflictService_UnknownConflict(t *testing.T) {
	f := newConflictFixture(t)

	_, err := f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: uuid.New(),
		Choice:     conflict.ResolutionKeepSystem,
	})
	require.ErrorIs(t, err, conflict.ErrNotFound)
}

func TestConflictService_VillageNotFound_UseHRISCreatesWithoutVillage(t *testing.T) {
	f := newConflictFixture(t)
	record := conflictRecord()
	record.VillageCode = "V-GONE"
	c := conflict.New(uuid.New(), conflict.KindVillageNotFound, record, nil)
	_, err := f.conflicts.Create(context.Background(), c)
	require.NoError(t, err)

	_, err = f.service.ApplyResolution(f.ctx, ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionUseHRIS,
	})
	require.NoError(t, err)

	created, err := f.identities.GetByExternalID(context.Background(), "EMP-2001")
	require.NoError(t, err)
	assert.Nil(t, created.VillageID())
}

func TestConflictService_AnonymousCallerDenied(t *testing.T) {
	f := newConflictFixture(t)
	target := f.seedSystemIdentity(t)
	c := f.seedConflict(t, conflict.KindDuplicateEmail, target)

	_, err := f.service.ApplyResolution(context.Background(), ResolutionCommand{
		ConflictID: c.ID(),
		Choice:     conflict.ResolutionUseHRIS,
	})
	require.Error(t, err)
	assert.True(t, authz.IsForbidden(err))
	assert.Equal(t, conflict.StatusPending, c.Status())
}
