package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	coreservices "github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/domain/matching"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/clock"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/constants"
	"github.com/villagepulse/villagepulse/pkg/eventbus"
)

var syncAuthzObject = authz.ObjectName("hris", "sync")

// SyncCommand describes one requested sync run.
type SyncCommand struct {
	Mode   syncrun.Mode
	DryRun bool
	// Since overrides the incremental boundary; nil derives it from the last
	// completed run.
	Since *time.Time
	// ExternalIDs selects the records for a manual run.
	ExternalIDs []string
}

// SyncStatus is the answer to "is a sync running, and how did the last one
// go".
type SyncStatus struct {
	Active *syncrun.SyncRun
	Latest *syncrun.SyncRun
}

// SyncService drives one end-to-end reconciliation run: fetch, match, apply,
// count. Records are processed strictly sequentially within a run; the
// repository claim keeps runs mutually exclusive across processes.
type SyncService struct {
	runs       syncrun.Repository
	identities identity.Repository
	conflicts  conflict.Repository
	villages   *coreservices.VillageService
	client     directory.Client
	publisher  eventbus.EventBus
	clock      clock.Clock
	log        *logrus.Logger
}

func NewSyncService(
	runs syncrun.Repository,
	identities identity.Repository,
	conflicts conflict.Repository,
	villages *coreservices.VillageService,
	client directory.Client,
	publisher eventbus.EventBus,
	clk clock.Clock,
	log *logrus.Logger,
) *SyncService {
	return &SyncService{
		runs:       runs,
		identities: identities,
		conflicts:  conflicts,
		villages:   villages,
		client:     client,
		publisher:  publisher,
		clock:      clk,
		log:        log,
	}
}

// RunSync executes one sync run synchronously and returns the finalized run.
// When another run is already in progress it fails with
// syncrun.ErrAlreadyRunning without creating anything.
func (s *SyncService) RunSync(ctx context.Context, cmd SyncCommand) (*syncrun.SyncRun, error) {
	if err := authorizeHRIS(ctx, syncAuthzObject, "trigger"); err != nil {
		return nil, err
	}
	if !cmd.Mode.IsValid() {
		return nil, errors.Errorf("invalid sync mode %q", cmd.Mode)
	}

	actor := constants.SyncActorSystem
	if u, err := composables.UseUser(ctx); err == nil && !u.IsZero() {
		actor = u.Email()
	}

	since, err := s.resolveSince(ctx, cmd)
	if err != nil {
		return nil, err
	}

	run, err := s.runs.Claim(ctx, syncrun.New(cmd.Mode, cmd.DryRun, actor, since, s.clock.Now()))
	if err != nil {
		return nil, err
	}
	syncActiveGauge.Set(1)
	defer syncActiveGauge.Set(0)
	s.publisher.Publish(syncrun.NewStartedEvent(run))

	finalized, err := s.execute(ctx, run, cmd)
	if finalized != nil {
		syncRunsTotal.WithLabelValues(string(finalized.Mode()), string(finalized.Status())).Inc()
		if finishedAt := finalized.FinishedAt(); finishedAt != nil {
			syncRunDuration.Observe(finishedAt.Sub(finalized.StartedAt()).Seconds())
		}
		s.publisher.Publish(syncrun.NewFinishedEvent(finalized))
	}
	return finalized, err
}

// execute runs the fetch-match-apply loop against the claimed run. Whatever
// happens, the run row ends up finalized: completed, or failed with the
// error recorded, even on panic.
func (s *SyncService) execute(ctx context.Context, run *syncrun.SyncRun, cmd SyncCommand) (finalized *syncrun.SyncRun, runErr error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			finalized, runErr = s.finalizeFailure(ctx, run, errors.Errorf("panic during sync run: %v", recovered))
		}
	}()

	records, err := s.fetch(ctx, run, cmd)
	if err != nil {
		return s.finalizeFailure(ctx, run, err)
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return s.finalizeFailure(ctx, run, err)
	}

	var store syncStore = &pgSyncStore{identities: s.identities, conflicts: s.conflicts}
	if run.DryRun() {
		store = dryRunStore{}
	}

	for _, record := range records {
		// One transaction per record: a multi-statement apply (version
		// bump, history rewrite, conflict insert) lands atomically or not
		// at all.
		err := composables.InTx(ctx, func(txCtx context.Context) error {
			return s.processRecord(txCtx, run, store, snap, record)
		})
		if err != nil {
			run.RecordFailed()
			syncRecordsTotal.WithLabelValues("failed").Inc()
			s.log.WithError(err).WithFields(logrus.Fields{
				"run_id":      run.ID(),
				"external_id": record.ExternalID,
			}).Warn("failed to process directory record")
		}
		run.RecordProcessed()
	}

	if err := run.Complete(s.clock.Now()); err != nil {
		return nil, err
	}
	return s.runs.Update(ctx, run)
}

func (s *SyncService) fetch(ctx context.Context, run *syncrun.SyncRun, cmd SyncCommand) ([]directory.ExternalRecord, error) {
	switch run.Mode() {
	case syncrun.ModeFull:
		return s.client.FetchAll(ctx, nil)
	case syncrun.ModeIncremental:
		if run.Since() == nil {
			// No completed run to derive the boundary from: degrade to a
			// full fetch rather than silently skipping records.
			return s.client.FetchAll(ctx, nil)
		}
		return s.client.FetchSince(ctx, *run.Since())
	case syncrun.ModeManual:
		records := make([]directory.ExternalRecord, 0, len(cmd.ExternalIDs))
		for _, externalID := range cmd.ExternalIDs {
			record, err := s.client.FetchOne(ctx, externalID)
			if err != nil {
				return nil, errors.Wrapf(err, "fetch %s", externalID)
			}
			records = append(records, *record)
		}
		return records, nil
	}
	return nil, errors.Errorf("invalid sync mode %q", run.Mode())
}

// resolveSince derives the incremental boundary from the last successfully
// completed run. Failed runs never contribute a boundary.
func (s *SyncService) resolveSince(ctx context.Context, cmd SyncCommand) (*time.Time, error) {
	if cmd.Mode != syncrun.ModeIncremental {
		return nil, nil
	}
	if cmd.Since != nil {
		return cmd.Since, nil
	}
	boundary, ok, err := s.runs.LastCompletedStart(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &boundary, nil
}

func (s *SyncService) loadSnapshot(ctx context.Context) (*matching.Snapshot, error) {
	identities, err := s.identities.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load identities")
	}
	villageIndex, err := s.villages.CodeIndex(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load village index")
	}
	return matching.NewSnapshot(identities, villageIndex), nil
}

func (s *SyncService) processRecord(
	ctx context.Context,
	run *syncrun.SyncRun,
	store syncStore,
	snap *matching.Snapshot,
	record directory.ExternalRecord,
) error {
	outcome, err := matching.Match(record, snap)
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case matching.OutcomeCreate:
		return s.applyCreate(ctx, run, store, snap, record)
	case matching.OutcomeUpdate:
		return s.applyUpdate(ctx, run, store, snap, record, outcome.Target)
	case matching.OutcomeConflict:
		return s.applyConflict(ctx, run, store, snap, record, outcome)
	}
	return errors.Errorf("unexpected match outcome %q", outcome.Kind)
}

func (s *SyncService) applyCreate(
	ctx context.Context,
	run *syncrun.SyncRun,
	store syncStore,
	snap *matching.Snapshot,
	record directory.ExternalRecord,
) error {
	var villageID *uuid.UUID
	if record.HasVillage() {
		// The matcher validated the code against the snapshot already.
		if id, ok := snap.VillageID(record.VillageCode); ok {
			villageID = &id
		}
	}

	entity := newIdentityFromRecord(record, villageID, s.clock.Now())
	created, err := store.CreateIdentity(ctx, entity)
	if err != nil {
		return err
	}
	snap.Put(created)
	run.RecordCreated()
	syncRecordsTotal.WithLabelValues("created").Inc()
	if !run.DryRun() {
		s.publisher.Publish(identity.NewCreatedEvent(created))
	}
	return nil
}

func (s *SyncService) applyUpdate(
	ctx context.Context,
	run *syncrun.SyncRun,
	store syncStore,
	snap *matching.Snapshot,
	record directory.ExternalRecord,
	target *identity.Identity,
) error {
	if !target.IsLinked() {
		if err := target.Link(record.ExternalID); err != nil {
			return err
		}
	}
	target.SetDisplayName(record.DisplayName)
	target.SetDepartment(record.Department)
	target.SetRole(record.Role)

	transferred := false
	if record.HasVillage() {
		if villageID, ok := snap.VillageID(record.VillageCode); ok {
			current := target.VillageID()
			if current == nil || *current != villageID {
				if err := target.TransferVillage(villageID, transferDate(record, s.clock.Now())); err != nil {
					return err
				}
				transferred = true
			}
		}
	}

	updated, err := store.UpdateIdentity(ctx, target)
	if err != nil {
		return err
	}
	snap.Put(updated)
	run.RecordUpdated()
	syncRecordsTotal.WithLabelValues("updated").Inc()
	if !run.DryRun() {
		s.publisher.Publish(identity.NewUpdatedEvent(updated))
		if transferred {
			s.publisher.Publish(identity.NewTransferredEvent(updated))
		}
	}
	return nil
}

func (s *SyncService) applyConflict(
	ctx context.Context,
	run *syncrun.SyncRun,
	store syncStore,
	snap *matching.Snapshot,
	record directory.ExternalRecord,
	outcome matching.Outcome,
) error {
	entity := conflict.New(run.ID(), outcome.ConflictKind, record, candidateSnapshot(outcome.Candidate))

	resolved, err := s.tryAutoResolve(ctx, run, store, snap, record, entity, outcome.Candidate)
	if err != nil {
		return err
	}

	persisted, err := store.CreateConflict(ctx, entity)
	if err != nil {
		return err
	}

	if resolved {
		run.ConflictAutoSolved()
		syncRecordsTotal.WithLabelValues("conflict_auto_resolved").Inc()
		conflictsPendingResolved.WithLabelValues(string(persisted.Resolution()), "true").Inc()
		if !run.DryRun() {
			s.publisher.Publish(conflict.NewResolvedEvent(persisted))
		}
		return nil
	}

	run.ConflictDetected()
	syncRecordsTotal.WithLabelValues("conflict_detected").Inc()
	if !run.DryRun() {
		s.publisher.Publish(conflict.NewDetectedEvent(persisted))
	}
	return nil
}

// tryAutoResolve applies policy-safe resolutions without human input. Only
// email_change (when the new email is free) and village_not_found qualify;
// everything else stays pending. Returns whether the conflict was resolved;
// on true the conflict entity has been marked resolved and the identity
// mutation already applied through the store.
func (s *SyncService) tryAutoResolve(
	ctx context.Context,
	run *syncrun.SyncRun,
	store syncStore,
	snap *matching.Snapshot,
	record directory.ExternalRecord,
	entity *conflict.Conflict,
	candidate *identity.Identity,
) (bool, error) {
	switch entity.Kind() {
	case conflict.KindEmailChange:
		if snap.ByEmail(record.NormalizedEmail()) != nil {
			// Somebody else already holds the new email; needs a human.
			return false, nil
		}
		candidate.SetEmail(record.Email)
		candidate.SetDisplayName(record.DisplayName)
		candidate.SetDepartment(record.Department)
		candidate.SetRole(record.Role)
		if record.HasVillage() {
			if villageID, ok := snap.VillageID(record.VillageCode); ok {
				if err := candidate.TransferVillage(villageID, transferDate(record, s.clock.Now())); err != nil {
					return false, err
				}
			}
		}
		updated, err := store.UpdateIdentity(ctx, candidate)
		if err != nil {
			return false, err
		}
		snap.Put(updated)
		notes := fmt.Sprintf("auto-resolved: adopted new email %s, no other identity held it", record.NormalizedEmail())
		return true, entity.Resolve(conflict.ResolutionUseHRIS, nil, constants.SyncActorSystem, notes, s.clock.Now())

	case conflict.KindVillageNotFound:
		notes := fmt.Sprintf("auto-resolved: record arrived with unknown village %q, assignment left unset", record.VillageCode)
		if candidate == nil {
			created, err := store.CreateIdentity(ctx, newIdentityFromRecord(record, nil, s.clock.Now()))
			if err != nil {
				return false, err
			}
			snap.Put(created)
			run.RecordCreated()
			syncRecordsTotal.WithLabelValues("created").Inc()
		} else {
			candidate.SetDisplayName(record.DisplayName)
			candidate.SetDepartment(record.Department)
			candidate.SetRole(record.Role)
			updated, err := store.UpdateIdentity(ctx, candidate)
			if err != nil {
				return false, err
			}
			snap.Put(updated)
			run.RecordUpdated()
			syncRecordsTotal.WithLabelValues("updated").Inc()
		}
		return true, entity.Resolve(conflict.ResolutionUseHRIS, nil, constants.SyncActorSystem, notes, s.clock.Now())
	}

	return false, nil
}

// finalizeFailure stamps the run failed before the error propagates. The run
// row must never stay in_progress.
func (s *SyncService) finalizeFailure(ctx context.Context, run *syncrun.SyncRun, cause error) (*syncrun.SyncRun, error) {
	if err := run.Fail(s.clock.Now(), cause); err != nil {
		return nil, errors.Wrap(cause, "additionally failed to finalize run")
	}
	finalized, updateErr := s.runs.Update(ctx, run)
	if updateErr != nil {
		s.log.WithError(updateErr).WithField("run_id", run.ID()).
			Error("failed to persist failed sync run")
		return run, cause
	}
	return finalized, cause
}

// Status reports whether a run is active and the most recent run summary.
func (s *SyncService) Status(ctx context.Context) (*SyncStatus, error) {
	if err := authorizeHRIS(ctx, syncAuthzObject, "view"); err != nil {
		return nil, err
	}

	status := &SyncStatus{}
	active, err := s.runs.GetActive(ctx)
	if err != nil && !errors.Is(err, syncrun.ErrNotFound) {
		return nil, err
	}
	status.Active = active

	latest, err := s.runs.GetLatest(ctx)
	if err != nil && !errors.Is(err, syncrun.ErrNotFound) {
		return nil, err
	}
	status.Latest = latest
	return status, nil
}

func (s *SyncService) GetRun(ctx context.Context, id uuid.UUID) (*syncrun.SyncRun, error) {
	if err := authorizeHRIS(ctx, syncAuthzObject, "view"); err != nil {
		return nil, err
	}
	return s.runs.GetByID(ctx, id)
}

func (s *SyncService) GetRuns(ctx context.Context, params *syncrun.FindParams) ([]*syncrun.SyncRun, int64, error) {
	if err := authorizeHRIS(ctx, syncAuthzObject, "view"); err != nil {
		return nil, 0, err
	}
	runs, err := s.runs.GetPaginated(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.runs.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// TestDirectory verifies directory reachability and credentials.
func (s *SyncService) TestDirectory(ctx context.Context) error {
	if err := authorizeHRIS(ctx, syncAuthzObject, "view"); err != nil {
		return err
	}
	return s.client.TestConnection(ctx)
}

// PreviewRecord fetches one directory record without applying it, for
// operator inspection.
func (s *SyncService) PreviewRecord(ctx context.Context, externalID string) (*directory.ExternalRecord, error) {
	if err := authorizeHRIS(ctx, syncAuthzObject, "view"); err != nil {
		return nil, err
	}
	return s.client.FetchOne(ctx, externalID)
}

func candidateSnapshot(candidate *identity.Identity) *conflict.CandidateSnapshot {
	if candidate == nil {
		return nil
	}
	return &conflict.CandidateSnapshot{
		ID:         candidate.ID(),
		ExternalID: candidate.ExternalID(),
		Email:      candidate.Email(),
		VillageID:  candidate.VillageID(),
		Role:       candidate.Role(),
	}
}
