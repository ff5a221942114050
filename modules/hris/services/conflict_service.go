package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	coreservices "github.com/villagepulse/villagepulse/modules/core/services"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/pkg/authz"
	"github.com/villagepulse/villagepulse/pkg/clock"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/constants"
	"github.com/villagepulse/villagepulse/pkg/eventbus"
)

var conflictsAuthzObject = authz.ObjectName("hris", "conflicts")

// ResolutionCommand is a human-submitted decision for one pending conflict.
type ResolutionCommand struct {
	ConflictID uuid.UUID
	Choice     conflict.Resolution
	Merge      *conflict.MergeDirective
	Notes      string
}

type ConflictService struct {
	conflicts  conflict.Repository
	identities identity.Repository
	villages   *coreservices.VillageService
	publisher  eventbus.EventBus
	clock      clock.Clock
}

func NewConflictService(
	conflicts conflict.Repository,
	identities identity.Repository,
	villages *coreservices.VillageService,
	publisher eventbus.EventBus,
	clk clock.Clock,
) *ConflictService {
	return &ConflictService{
		conflicts:  conflicts,
		identities: identities,
		villages:   villages,
		publisher:  publisher,
		clock:      clk,
	}
}

func (s *ConflictService) Count(ctx context.Context, params *conflict.FindParams) (int64, error) {
	if err := authorizeHRIS(ctx, conflictsAuthzObject, "list"); err != nil {
		return 0, err
	}
	return s.conflicts.Count(ctx, params)
}

func (s *ConflictService) GetPaginated(ctx context.Context, params *conflict.FindParams) ([]*conflict.Conflict, error) {
	if err := authorizeHRIS(ctx, conflictsAuthzObject, "list"); err != nil {
		return nil, err
	}
	return s.conflicts.GetPaginated(ctx, params)
}

func (s *ConflictService) GetByID(ctx context.Context, id uuid.UUID) (*conflict.Conflict, error) {
	if err := authorizeHRIS(ctx, conflictsAuthzObject, "view"); err != nil {
		return nil, err
	}
	return s.conflicts.GetByID(ctx, id)
}

// ApplyResolution applies a human decision to a pending conflict. The
// conflict state change and any identity mutation commit in one transaction;
// a conflict that is already resolved fails up front and mutates nothing.
func (s *ConflictService) ApplyResolution(ctx context.Context, cmd ResolutionCommand) (*conflict.Conflict, error) {
	if err := authorizeHRIS(ctx, conflictsAuthzObject, "resolve"); err != nil {
		return nil, err
	}

	actor := constants.SyncActorSystem
	if u, err := composables.UseUser(ctx); err == nil && !u.IsZero() {
		actor = u.Email()
	}

	resolved, err := composables.InTxResult(ctx, func(txCtx context.Context) (*conflict.Conflict, error) {
		c, err := s.conflicts.GetByID(txCtx, cmd.ConflictID)
		if err != nil {
			return nil, err
		}
		if err := c.Resolve(cmd.Choice, cmd.Merge, actor, cmd.Notes, s.clock.Now()); err != nil {
			return nil, err
		}
		if err := s.applyChoice(txCtx, c); err != nil {
			return nil, err
		}
		return s.conflicts.Update(txCtx, c)
	})
	if err != nil {
		return nil, err
	}

	conflictsPendingResolved.WithLabelValues(string(resolved.Resolution()), "false").Inc()
	s.publisher.Publish(conflict.NewResolvedEvent(resolved))
	return resolved, nil
}

// applyChoice performs the identity mutation the resolution implies. The
// conflict aggregate has already validated the choice.
func (s *ConflictService) applyChoice(ctx context.Context, c *conflict.Conflict) error {
	switch c.Resolution() {
	case conflict.ResolutionKeepSystem:
		return nil
	case conflict.ResolutionUseHRIS:
		return s.applyUseHRIS(ctx, c)
	case conflict.ResolutionMerge:
		return s.applyMerge(ctx, c)
	case conflict.ResolutionCreateNew:
		return s.applyCreateNew(ctx, c)
	}
	return errors.Wrapf(conflict.ErrInvalidResolution, "unhandled resolution %q", c.Resolution())
}

func (s *ConflictService) applyUseHRIS(ctx context.Context, c *conflict.Conflict) error {
	record := c.Record()

	if c.Candidate() == nil {
		// village_not_found on a brand-new record: create the identity,
		// leaving the unknown village unset.
		_, err := s.identities.Create(ctx, newIdentityFromRecord(record, nil, s.clock.Now()))
		return err
	}

	target, err := s.identities.GetByID(ctx, c.Candidate().ID)
	if err != nil {
		return err
	}
	if !target.IsLinked() {
		if err := target.Link(record.ExternalID); err != nil {
			return err
		}
	}
	target.SetEmail(record.Email)
	target.SetDisplayName(record.DisplayName)
	target.SetDepartment(record.Department)
	target.SetRole(record.Role)
	if err := s.applyVillage(ctx, target, record); err != nil {
		return err
	}

	_, err = s.identities.Update(ctx, target)
	return err
}

func (s *ConflictService) applyMerge(ctx context.Context, c *conflict.Conflict) error {
	if c.Candidate() == nil {
		return errors.Wrap(conflict.ErrInvalidResolution, "merge requires a candidate identity")
	}
	target, err := s.identities.GetByID(ctx, c.Candidate().ID)
	if err != nil {
		return err
	}

	record := c.Record()
	directive := c.Merge()
	if directive.Email == conflict.SourceHRIS {
		target.SetEmail(record.Email)
	}
	if directive.DisplayName == conflict.SourceHRIS {
		target.SetDisplayName(record.DisplayName)
	}
	if directive.Department == conflict.SourceHRIS {
		target.SetDepartment(record.Department)
	}
	if directive.Role == conflict.SourceHRIS {
		target.SetRole(record.Role)
	}
	if directive.Village == conflict.SourceHRIS {
		if err := s.applyVillage(ctx, target, record); err != nil {
			return err
		}
	}

	_, err = s.identities.Update(ctx, target)
	return err
}

func (s *ConflictService) applyCreateNew(ctx context.Context, c *conflict.Conflict) error {
	record := c.Record()
	entity := newIdentityFromRecord(record, nil, s.clock.Now())
	if err := s.setVillageFromRecord(ctx, entity, record); err != nil {
		return err
	}
	_, err := s.identities.Create(ctx, entity)
	return err
}

// applyVillage moves the identity to the record's village, or clears the
// assignment when the record's village is unknown or unset.
func (s *ConflictService) applyVillage(ctx context.Context, target *identity.Identity, record directory.ExternalRecord) error {
	if !record.HasVillage() {
		return target.ClearVillage(transferDate(record, s.clock.Now()))
	}
	v, err := s.villages.GetByCode(ctx, record.VillageCode)
	if err != nil {
		return target.ClearVillage(transferDate(record, s.clock.Now()))
	}
	return target.TransferVillage(v.ID(), transferDate(record, s.clock.Now()))
}

func (s *ConflictService) setVillageFromRecord(ctx context.Context, entity *identity.Identity, record directory.ExternalRecord) error {
	if !record.HasVillage() {
		return nil
	}
	v, err := s.villages.GetByCode(ctx, record.VillageCode)
	if err != nil {
		return nil
	}
	return entity.TransferVillage(v.ID(), transferDate(record, s.clock.Now()))
}

func newIdentityFromRecord(record directory.ExternalRecord, villageID *uuid.UUID, now time.Time) *identity.Identity {
	return identity.New(
		record.ExternalID,
		record.Email,
		record.DisplayName,
		record.Department,
		record.Role,
		villageID,
		transferDate(record, now),
	)
}

// transferDate picks the assignment boundary: the record's transfer date when
// the source supplied one, otherwise its effective-start date, otherwise now.
func transferDate(record directory.ExternalRecord, now time.Time) time.Time {
	if record.TransferDate != nil {
		return *record.TransferDate
	}
	if !record.EffectiveFrom.IsZero() {
		return record.EffectiveFrom
	}
	return now
}
