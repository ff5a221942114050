package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	coreservices "github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/itf"
)

func TestPgIdentityRepository_CRUD(t *testing.T) {
	f := setupTest(t)
	repo := persistence.NewIdentityRepository()

	villageService := itf.GetService[coreservices.VillageService](f)
	v, err := village.New("V1", "Riverside", "North District")
	require.NoError(t, err)
	v, err = villageService.Create(f.Ctx, v)
	require.NoError(t, err)

	vid := v.ID()
	created, err := repo.Create(f.Ctx, identity.New(
		"EMP-3001",
		"ayo.balogun@example.org",
		"Ayo Balogun",
		"Field Operations",
		"staff",
		&vid,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version())
	require.Len(t, created.History(), 1)

	t.Run("GetByExternalID", func(t *testing.T) {
		found, err := repo.GetByExternalID(f.Ctx, "EMP-3001")
		require.NoError(t, err)
		assert.Equal(t, created.ID(), found.ID())
		require.NotNil(t, found.VillageID())
		assert.Equal(t, vid, *found.VillageID())
	})

	t.Run("GetByEmailIsCaseInsensitive", func(t *testing.T) {
		found, err := repo.GetByEmail(f.Ctx, "AYO.BALOGUN@example.org")
		require.NoError(t, err)
		assert.Equal(t, created.ID(), found.ID())
	})

	t.Run("UpdateBumpsVersion", func(t *testing.T) {
		loaded, err := repo.GetByID(f.Ctx, created.ID())
		require.NoError(t, err)
		loaded.SetDisplayName("Ayodeji Balogun")

		updated, err := repo.Update(f.Ctx, loaded)
		require.NoError(t, err)
		assert.Equal(t, loaded.Version()+1, updated.Version())
		assert.Equal(t, "Ayodeji Balogun", updated.DisplayName())
	})

	t.Run("StaleVersionRejected", func(t *testing.T) {
		first, err := repo.GetByID(f.Ctx, created.ID())
		require.NoError(t, err)
		second, err := repo.GetByID(f.Ctx, created.ID())
		require.NoError(t, err)

		first.SetRole("coordinator")
		_, err = repo.Update(f.Ctx, first)
		require.NoError(t, err)

		second.SetRole("manager")
		_, err = repo.Update(f.Ctx, second)
		require.ErrorIs(t, err, identity.ErrStaleVersion)
	})

	t.Run("TransferPersistsHistory", func(t *testing.T) {
		v2, err := village.New("V2", "Hillside", "South District")
		require.NoError(t, err)
		v2, err = villageService.Create(f.Ctx, v2)
		require.NoError(t, err)

		loaded, err := repo.GetByID(f.Ctx, created.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.TransferVillage(v2.ID(), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))

		updated, err := repo.Update(f.Ctx, loaded)
		require.NoError(t, err)
		require.Len(t, updated.History(), 2)

		reloaded, err := repo.GetByID(f.Ctx, created.ID())
		require.NoError(t, err)
		require.Len(t, reloaded.History(), 2)
		open := reloaded.OpenAssignment()
		require.NotNil(t, open)
		assert.Equal(t, v2.ID(), open.VillageID)
		assert.NotNil(t, reloaded.History()[0].To)
	})

	t.Run("UpdateMissingRowReportsNotFound", func(t *testing.T) {
		ghost := identity.New(
			"EMP-9404",
			"never.persisted@example.org",
			"Never Persisted",
			"",
			"staff",
			nil,
			time.Now(),
		)
		_, err := repo.Update(f.Ctx, ghost)
		require.ErrorIs(t, err, identity.ErrNotFound)
	})

	t.Run("DuplicateExternalIDRejected", func(t *testing.T) {
		_, err := repo.Create(f.Ctx, identity.New(
			"EMP-3001",
			"other.person@example.org",
			"Other Person",
			"",
			"staff",
			nil,
			time.Now(),
		))
		require.ErrorIs(t, err, persistence.ErrExternalIDTaken)
	})

	t.Run("UnlinkedIdentitiesMayCoexist", func(t *testing.T) {
		for _, email := range []string{"first.local@example.org", "second.local@example.org"} {
			_, err := repo.Create(f.Ctx, identity.New("", email, "Local Only", "", "staff", nil, time.Now()))
			require.NoError(t, err)
		}
		count, err := repo.Count(f.Ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, int64(3))
	})
}

// The sync loop wraps each record's apply in its own transaction. A failure
// after the history rewrite has to roll the delete-and-insert back, or the
// assignment history would be destroyed.
func TestPgIdentityRepository_FailedApplyRollsBackHistoryRewrite(t *testing.T) {
	f := setupTest(t)
	repo := persistence.NewIdentityRepository()

	// Run on the bare pool, outside the harness transaction, so commits and
	// rollbacks are real.
	ctx := composables.WithSystemActor(composables.WithPool(context.Background(), f.Pool))

	villageService := itf.GetService[coreservices.VillageService](f)
	v1, err := village.New("V1", "Riverside", "North District")
	require.NoError(t, err)
	v1, err = villageService.Create(ctx, v1)
	require.NoError(t, err)
	v2, err := village.New("V2", "Hillside", "South District")
	require.NoError(t, err)
	v2, err = villageService.Create(ctx, v2)
	require.NoError(t, err)

	vid := v1.ID()
	created, err := repo.Create(ctx, identity.New(
		"EMP-3100",
		"kwame.mensah@example.org",
		"Kwame Mensah",
		"Field Operations",
		"staff",
		&vid,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	))
	require.NoError(t, err)
	require.Len(t, created.History(), 1)

	loaded, err := repo.GetByID(ctx, created.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.TransferVillage(v2.ID(), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	boom := errors.New("record apply failed after the write")
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if _, err := repo.Update(txCtx, loaded); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	reloaded, err := repo.GetByID(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, created.Version(), reloaded.Version())
	require.Len(t, reloaded.History(), 1)
	open := reloaded.OpenAssignment()
	require.NotNil(t, open)
	assert.Equal(t, v1.ID(), open.VillageID)
}
