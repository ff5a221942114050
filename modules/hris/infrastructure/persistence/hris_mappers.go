package persistence

import (
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence/models"
)

func ToDomainIdentity(dbRow *models.Identity, assignments []models.VillageAssignment) *identity.Identity {
	history := make([]identity.VillageAssignment, 0, len(assignments))
	for _, a := range assignments {
		history = append(history, identity.VillageAssignment{
			VillageID: a.VillageID,
			From:      a.ValidFrom,
			To:        a.ValidTo,
		})
	}
	externalID := ""
	if dbRow.ExternalID != nil {
		externalID = *dbRow.ExternalID
	}
	return identity.Hydrate(
		dbRow.ID,
		externalID,
		dbRow.Email,
		dbRow.DisplayName,
		dbRow.Department,
		dbRow.Role,
		dbRow.VillageID,
		history,
		dbRow.Version,
		dbRow.CreatedAt,
		dbRow.UpdatedAt,
	)
}

func ToDBIdentity(entity *identity.Identity) *models.Identity {
	var externalID *string
	if entity.ExternalID() != "" {
		v := entity.ExternalID()
		externalID = &v
	}
	return &models.Identity{
		ID:          entity.ID(),
		ExternalID:  externalID,
		Email:       entity.Email(),
		DisplayName: entity.DisplayName(),
		Department:  entity.Department(),
		Role:        entity.Role(),
		VillageID:   entity.VillageID(),
		Version:     entity.Version(),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
}

func ToDomainSyncRun(dbRow *models.SyncRun) *syncrun.SyncRun {
	return syncrun.Hydrate(
		dbRow.ID,
		syncrun.Mode(dbRow.Mode),
		syncrun.Status(dbRow.Status),
		dbRow.DryRun,
		dbRow.Actor,
		syncrun.Stats{
			Processed:             dbRow.RecordsProcessed,
			Created:               dbRow.RecordsCreated,
			Updated:               dbRow.RecordsUpdated,
			Failed:                dbRow.RecordsFailed,
			ConflictsDetected:     dbRow.ConflictsDetected,
			ConflictsAutoResolved: dbRow.ConflictsAutoResolved,
		},
		dbRow.Since,
		dbRow.StartedAt,
		dbRow.FinishedAt,
		dbRow.ErrorDetail,
	)
}

func ToDBSyncRun(entity *syncrun.SyncRun) *models.SyncRun {
	stats := entity.Stats()
	return &models.SyncRun{
		ID:                    entity.ID(),
		Mode:                  string(entity.Mode()),
		Status:                string(entity.Status()),
		DryRun:                entity.DryRun(),
		Actor:                 entity.Actor(),
		RecordsProcessed:      stats.Processed,
		RecordsCreated:        stats.Created,
		RecordsUpdated:        stats.Updated,
		RecordsFailed:         stats.Failed,
		ConflictsDetected:     stats.ConflictsDetected,
		ConflictsAutoResolved: stats.ConflictsAutoResolved,
		Since:                 entity.Since(),
		StartedAt:             entity.StartedAt(),
		FinishedAt:            entity.FinishedAt(),
		ErrorDetail:           entity.ErrorDetail(),
	}
}

func ToDomainConflict(dbRow *models.Conflict) (*conflict.Conflict, error) {
	var record directory.ExternalRecord
	if err := json.Unmarshal(dbRow.Record, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal conflict record")
	}

	var candidate *conflict.CandidateSnapshot
	if len(dbRow.Candidate) > 0 {
		candidate = &conflict.CandidateSnapshot{}
		if err := json.Unmarshal(dbRow.Candidate, candidate); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal conflict candidate")
		}
	}

	var merge *conflict.MergeDirective
	if len(dbRow.MergeDirective) > 0 {
		merge = &conflict.MergeDirective{}
		if err := json.Unmarshal(dbRow.MergeDirective, merge); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal merge directive")
		}
	}

	return conflict.Hydrate(
		dbRow.ID,
		dbRow.RunID,
		conflict.Kind(dbRow.Kind),
		record,
		candidate,
		conflict.Status(dbRow.Status),
		conflict.Resolution(dbRow.Resolution),
		merge,
		dbRow.ResolvedBy,
		dbRow.ResolvedAt,
		dbRow.Notes,
		dbRow.CreatedAt,
	), nil
}

func ToDBConflict(entity *conflict.Conflict) (*models.Conflict, error) {
	record, err := json.Marshal(entity.Record())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal conflict record")
	}

	var candidate []byte
	if entity.Candidate() != nil {
		candidate, err = json.Marshal(entity.Candidate())
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal conflict candidate")
		}
	}

	var merge []byte
	if entity.Merge() != nil {
		merge, err = json.Marshal(entity.Merge())
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal merge directive")
		}
	}

	return &models.Conflict{
		ID:             entity.ID(),
		RunID:          entity.RunID(),
		Kind:           string(entity.Kind()),
		Record:         record,
		Candidate:      candidate,
		Status:         string(entity.Status()),
		Resolution:     string(entity.Resolution()),
		MergeDirective: merge,
		ResolvedBy:     entity.ResolvedBy(),
		ResolvedAt:     entity.ResolvedAt(),
		Notes:          entity.Notes(),
		CreatedAt:      entity.CreatedAt(),
	}, nil
}
