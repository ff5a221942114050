package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	coreservices "github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	hrisdirectory "github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/directory"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/clock"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/eventbus"
)

// ---- in-memory repositories ----

type memRunRepo struct {
	mu   sync.Mutex
	runs []*syncrun.SyncRun
}

func (r *memRunRepo) Claim(_ context.Context, run *syncrun.SyncRun) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.runs {
		if existing.Status() == syncrun.StatusInProgress {
			return nil, syncrun.ErrAlreadyRunning
		}
	}
	r.runs = append(r.runs, run)
	return run, nil
}

func (r *memRunRepo) GetByID(_ context.Context, id uuid.UUID) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.ID() == id {
			return run, nil
		}
	}
	return nil, syncrun.ErrNotFound
}

func (r *memRunRepo) GetActive(_ context.Context) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		if run.Status() == syncrun.StatusInProgress {
			return run, nil
		}
	}
	return nil, syncrun.ErrNotFound
}

func (r *memRunRepo) GetLatest(_ context.Context) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil, syncrun.ErrNotFound
	}
	return r.runs[len(r.runs)-1], nil
}

func (r *memRunRepo) GetPaginated(_ context.Context, _ *syncrun.FindParams) ([]*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*syncrun.SyncRun, len(r.runs))
	copy(out, r.runs)
	return out, nil
}

func (r *memRunRepo) Count(_ context.Context, _ *syncrun.FindParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.runs)), nil
}

func (r *memRunRepo) LastCompletedStart(_ context.Context) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best time.Time
	found := false
	for _, run := range r.runs {
		if run.Status() == syncrun.StatusCompleted && !run.DryRun() && run.StartedAt().After(best) {
			best = run.StartedAt()
			found = true
		}
	}
	return best, found, nil
}

func (r *memRunRepo) Update(_ context.Context, run *syncrun.SyncRun) (*syncrun.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.runs {
		if existing.ID() == run.ID() {
			r.runs[i] = run
			return run, nil
		}
	}
	return nil, syncrun.ErrNotFound
}

type memIdentityRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*identity.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{items: map[uuid.UUID]*identity.Identity{}}
}

func (r *memIdentityRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *memIdentityRepo) GetAll(_ context.Context) ([]*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*identity.Identity, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email() < out[j].Email() })
	return out, nil
}

func (r *memIdentityRepo) GetPaginated(_ context.Context, _ *identity.FindParams) ([]*identity.Identity, error) {
	return r.GetAll(context.Background())
}

func (r *memIdentityRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		return item, nil
	}
	return nil, identity.ErrNotFound
}

func (r *memIdentityRepo) GetByExternalID(_ context.Context, externalID string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ExternalID() == externalID {
			return item, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r *memIdentityRepo) GetByEmail(_ context.Context, email string) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.Email() == email {
			return item, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r *memIdentityRepo) Create(_ context.Context, entity *identity.Identity) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[entity.ID()] = entity
	return entity, nil
}

func (r *memIdentityRepo) Update(_ context.Context, entity *identity.Identity) (*identity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[entity.ID()]; !ok {
		return nil, identity.ErrNotFound
	}
	r.items[entity.ID()] = entity
	return entity, nil
}

type memConflictRepo struct {
	mu    sync.Mutex
	items []*conflict.Conflict
}

func (r *memConflictRepo) Count(_ context.Context, _ *conflict.FindParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *memConflictRepo) GetPaginated(_ context.Context, _ *conflict.FindParams) ([]*conflict.Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*conflict.Conflict, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *memConflictRepo) GetByID(_ context.Context, id uuid.UUID) (*conflict.Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, conflict.ErrNotFound
}

func (r *memConflictRepo) Create(_ context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, entity)
	return entity, nil
}

func (r *memConflictRepo) Update(_ context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, item := range r.items {
		if item.ID() == entity.ID() {
			r.items[i] = entity
			return entity, nil
		}
	}
	return nil, conflict.ErrNotFound
}

type memVillageRepo struct {
	mu    sync.Mutex
	items []*village.Village
}

func (r *memVillageRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *memVillageRepo) GetAll(_ context.Context) ([]*village.Village, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*village.Village, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *memVillageRepo) GetPaginated(_ context.Context, _ *village.FindParams) ([]*village.Village, error) {
	return r.GetAll(context.Background())
}

func (r *memVillageRepo) GetByID(_ context.Context, id uuid.UUID) (*village.Village, error) {
	for _, item := range r.items {
		if item.ID() == id {
			return item, nil
		}
	}
	return nil, village.ErrNotFound
}

func (r *memVillageRepo) GetByCode(_ context.Context, code string) (*village.Village, error) {
	for _, item := range r.items {
		if item.Code() == code {
			return item, nil
		}
	}
	return nil, village.ErrNotFound
}

func (r *memVillageRepo) Create(_ context.Context, v *village.Village) (*village.Village, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, v)
	return v, nil
}

func (r *memVillageRepo) Update(_ context.Context, v *village.Village) (*village.Village, error) {
	return v, nil
}

// ---- fixture ----

type syncFixture struct {
	// ctx carries the system-actor marker the guards require of internal
	// callers.
	ctx        context.Context
	service    *SyncService
	runs       *memRunRepo
	identities *memIdentityRepo
	conflicts  *memConflictRepo
	client     *directory.MockClient
	clock      *clock.Fixed
}

func newSyncFixture(t *testing.T, records []hrisdirectory.ExternalRecord) *syncFixture {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	publisher := eventbus.NewEventPublisher(log)

	villages := &memVillageRepo{}
	for _, code := range []string{"V1", "V2"} {
		v, err := village.New(code, "Village "+code, "North District")
		require.NoError(t, err)
		_, err = villages.Create(context.Background(), v)
		require.NoError(t, err)
	}

	runs := &memRunRepo{}
	identities := newMemIdentityRepo()
	conflicts := &memConflictRepo{}
	client := directory.NewMockClient(records)
	fixed := &clock.Fixed{Instant: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}

	service := NewSyncService(
		runs,
		identities,
		conflicts,
		coreservices.NewVillageService(villages, publisher),
		client,
		publisher,
		fixed,
		log,
	)
	return &syncFixture{
		ctx:        composables.WithSystemActor(context.Background()),
		service:    service,
		runs:       runs,
		identities: identities,
		conflicts:  conflicts,
		client:     client,
		clock:      fixed,
	}
}

func seed() []hrisdirectory.ExternalRecord {
	return directory.SeedRecords()
}

// ---- tests ----

func TestSyncService_FullRun_CreatesIdentities(t *testing.T) {
	f := newSyncFixture(t, seed())

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	assert.Equal(t, syncrun.StatusCompleted, run.Status())
	stats := run.Stats()
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 0, stats.ConflictsDetected)
	require.NotNil(t, run.FinishedAt())

	stored, err := f.identities.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 3)

	linked, err := f.identities.GetByExternalID(context.Background(), "EMP-1001")
	require.NoError(t, err)
	assert.Equal(t, "amina.yusuf@example.org", linked.Email())
	require.NotNil(t, linked.VillageID())
	require.NotNil(t, linked.OpenAssignment())
}

func TestSyncService_SecondFullRun_IsIdempotent(t *testing.T) {
	f := newSyncFixture(t, seed())

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 3, stats.Updated)
	assert.Equal(t, 0, stats.ConflictsDetected)
	assert.Equal(t, 0, stats.ConflictsAutoResolved)
	assert.Empty(t, f.conflicts.items)

	stored, err := f.identities.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestSyncService_RejectsConcurrentRun(t *testing.T) {
	f := newSyncFixture(t, seed())

	_, err := f.runs.Claim(context.Background(),
		syncrun.New(syncrun.ModeFull, false, "system", nil, f.clock.Now()))
	require.NoError(t, err)

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.ErrorIs(t, err, syncrun.ErrAlreadyRunning)
	assert.Nil(t, run)

	// The blocked attempt must not leave a row behind.
	count, err := f.runs.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSyncService_DryRun_CountsWithoutWriting(t *testing.T) {
	f := newSyncFixture(t, seed())

	dry, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull, DryRun: true})
	require.NoError(t, err)
	assert.True(t, dry.DryRun())

	stored, err := f.identities.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "dry run must not persist identities")
	assert.Empty(t, f.conflicts.items, "dry run must not persist conflicts")

	real, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	assert.Equal(t, real.Stats(), dry.Stats(), "dry run counts must match the real run")
}

func TestSyncService_FetchFailure_FinalizesRunAsFailed(t *testing.T) {
	f := newSyncFixture(t, seed())
	f.client.FailWith(errors.New("directory unreachable"))

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.Error(t, err)
	require.NotNil(t, run)

	assert.Equal(t, syncrun.StatusFailed, run.Status())
	require.NotNil(t, run.FinishedAt())
	assert.Contains(t, run.ErrorDetail(), "directory unreachable")

	// The slot is free again once the failure is recorded.
	f.client.FailWith(nil)
	retry, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, syncrun.StatusCompleted, retry.Status())
}

func TestSyncService_EmailChange_AutoResolvesWhenEmailFree(t *testing.T) {
	records := seed()
	f := newSyncFixture(t, records)

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	records[0].Email = "amina.yusuf@new-domain.org"
	f.client.SetRecords(records)

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.ConflictsAutoResolved)
	assert.Equal(t, 0, stats.ConflictsDetected)

	updated, err := f.identities.GetByExternalID(context.Background(), "EMP-1001")
	require.NoError(t, err)
	assert.Equal(t, "amina.yusuf@new-domain.org", updated.Email())

	require.Len(t, f.conflicts.items, 1)
	resolved := f.conflicts.items[0]
	assert.Equal(t, conflict.KindEmailChange, resolved.Kind())
	assert.Equal(t, conflict.StatusResolved, resolved.Status())
	assert.Equal(t, conflict.ResolutionUseHRIS, resolved.Resolution())
	assert.Equal(t, "system", resolved.ResolvedBy())
}

func TestSyncService_FreedEmail_ClaimableLaterInSameBatch(t *testing.T) {
	records := seed()
	f := newSyncFixture(t, records)

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	// EMP-1001 moves to a new address; a new hire takes the address it
	// vacated, later in the same batch.
	freed := records[0].Email
	records[0].Email = "amina.yusuf@new-domain.org"
	newcomer := hrisdirectory.ExternalRecord{
		ExternalID:    "EMP-2000",
		Email:         freed,
		DisplayName:   "Tendai Moyo",
		Department:    "Field Operations",
		VillageCode:   "V1",
		Role:          "staff",
		Status:        hrisdirectory.StatusActive,
		EffectiveFrom: f.clock.Instant.AddDate(0, -1, 0),
		UpdatedAt:     f.clock.Instant,
	}
	f.client.SetRecords(append(records, newcomer))

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.ConflictsAutoResolved)
	assert.Equal(t, 0, stats.ConflictsDetected)

	moved, err := f.identities.GetByExternalID(context.Background(), "EMP-1001")
	require.NoError(t, err)
	assert.Equal(t, "amina.yusuf@new-domain.org", moved.Email())

	arrived, err := f.identities.GetByExternalID(context.Background(), "EMP-2000")
	require.NoError(t, err)
	assert.Equal(t, freed, arrived.Email())
}

func TestSyncService_AnonymousCallerDenied(t *testing.T) {
	f := newSyncFixture(t, seed())

	_, err := f.service.RunSync(context.Background(), SyncCommand{Mode: syncrun.ModeFull})
	require.Error(t, err)
	assert.True(t, authz.IsForbidden(err))

	count, err := f.runs.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = f.service.Status(context.Background())
	assert.True(t, authz.IsForbidden(err))
}

func TestSyncService_EmailChange_StaysPendingWhenEmailTaken(t *testing.T) {
	records := seed()
	f := newSyncFixture(t, records)

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	// EMP-1001 now claims EMP-1002's email.
	records[0].Email = records[1].Email
	f.client.SetRecords(records[:1])

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.ConflictsDetected)
	assert.Equal(t, 0, stats.ConflictsAutoResolved)

	require.Len(t, f.conflicts.items, 1)
	pending := f.conflicts.items[0]
	assert.Equal(t, conflict.StatusPending, pending.Status())

	// The identity keeps its previous email until somebody resolves.
	unchanged, err := f.identities.GetByExternalID(context.Background(), "EMP-1001")
	require.NoError(t, err)
	assert.Equal(t, "amina.yusuf@example.org", unchanged.Email())
}

func TestSyncService_DuplicateEmail_StaysPending(t *testing.T) {
	records := seed()
	f := newSyncFixture(t, records[:1])

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	// A different employee arrives with the same email.
	intruder := records[0]
	intruder.ExternalID = "EMP-9999"
	intruder.DisplayName = "Somebody Else"
	f.client.SetRecords([]hrisdirectory.ExternalRecord{intruder})

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.ConflictsDetected)
	assert.Equal(t, 0, stats.Created)

	require.Len(t, f.conflicts.items, 1)
	assert.Equal(t, conflict.KindDuplicateEmail, f.conflicts.items[0].Kind())
	assert.Equal(t, conflict.StatusPending, f.conflicts.items[0].Status())
}

func TestSyncService_UnknownVillage_AutoResolvesWithoutAssignment(t *testing.T) {
	records := seed()[:1]
	records[0].VillageCode = "V-UNKNOWN"
	f := newSyncFixture(t, records)

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.ConflictsAutoResolved)

	created, err := f.identities.GetByExternalID(context.Background(), "EMP-1001")
	require.NoError(t, err)
	assert.Nil(t, created.VillageID())

	require.Len(t, f.conflicts.items, 1)
	resolved := f.conflicts.items[0]
	assert.Equal(t, conflict.KindVillageNotFound, resolved.Kind())
	assert.Equal(t, conflict.StatusResolved, resolved.Status())
	assert.Contains(t, resolved.Notes(), "V-UNKNOWN")
}

func TestSyncService_MalformedRecord_CountedFailedRunCompletes(t *testing.T) {
	records := seed()
	records[1].Email = "not-an-email"
	f := newSyncFixture(t, records)

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, syncrun.StatusCompleted, run.Status())
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 1, stats.Failed)
}

func TestSyncService_Incremental_UsesSinceBoundary(t *testing.T) {
	records := seed()
	f := newSyncFixture(t, records)

	// Boundary right after the oldest record's UpdatedAt excludes it.
	since := records[2].UpdatedAt.Add(time.Second)
	run, err := f.service.RunSync(f.ctx, SyncCommand{
		Mode:  syncrun.ModeIncremental,
		Since: &since,
	})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Created)
}

func TestSyncService_Incremental_NoPriorRun_FetchesEverything(t *testing.T) {
	f := newSyncFixture(t, seed())

	run, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeIncremental})
	require.NoError(t, err)

	assert.Nil(t, run.Since())
	assert.Equal(t, 3, run.Stats().Processed)
}

func TestSyncService_ManualRun_FetchesSelectedRecords(t *testing.T) {
	f := newSyncFixture(t, seed())

	run, err := f.service.RunSync(f.ctx, SyncCommand{
		Mode:        syncrun.ModeManual,
		ExternalIDs: []string{"EMP-1002"},
	})
	require.NoError(t, err)

	stats := run.Stats()
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Created)

	_, err = f.identities.GetByExternalID(context.Background(), "EMP-1001")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestSyncService_ManualRun_UnknownRecordFailsRun(t *testing.T) {
	f := newSyncFixture(t, seed())

	run, err := f.service.RunSync(f.ctx, SyncCommand{
		Mode:        syncrun.ModeManual,
		ExternalIDs: []string{"EMP-0000"},
	})
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, syncrun.StatusFailed, run.Status())
}

func TestSyncService_Status(t *testing.T) {
	f := newSyncFixture(t, seed())

	status, err := f.service.Status(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, status.Active)
	assert.Nil(t, status.Latest)

	_, err = f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.ModeFull})
	require.NoError(t, err)

	status, err = f.service.Status(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, status.Active)
	require.NotNil(t, status.Latest)
	assert.Equal(t, syncrun.StatusCompleted, status.Latest.Status())
}

func TestSyncService_InvalidMode(t *testing.T) {
	f := newSyncFixture(t, seed())

	_, err := f.service.RunSync(f.ctx, SyncCommand{Mode: syncrun.Mode("weekly")})
	require.Error(t, err)
}
