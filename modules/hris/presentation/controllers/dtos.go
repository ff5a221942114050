package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/services"
	"github.com/villagepulse/villagepulse/pkg/constants"
	"github.com/villagepulse/villagepulse/pkg/intl"
	"github.com/villagepulse/villagepulse/pkg/serrors"
)

type SyncTriggerDTO struct {
	Mode        string     `json:"mode" validate:"required,oneof=full incremental manual"`
	DryRun      bool       `json:"dry_run"`
	Since       *time.Time `json:"since"`
	ExternalIDs []string   `json:"external_ids" validate:"required_if=Mode manual,max=100,dive,max=64"`
}

type MergeDirectiveDTO struct {
	Email       string `json:"email" validate:"omitempty,oneof=system hris"`
	DisplayName string `json:"display_name" validate:"omitempty,oneof=system hris"`
	Village     string `json:"village" validate:"omitempty,oneof=system hris"`
	Role        string `json:"role" validate:"omitempty,oneof=system hris"`
	Department  string `json:"department" validate:"omitempty,oneof=system hris"`
}

type ResolveConflictDTO struct {
	Resolution string             `json:"resolution" validate:"required,oneof=keep_system use_hris merge create_new"`
	Merge      *MergeDirectiveDTO `json:"merge"`
	Notes      string             `json:"notes" validate:"max=2000"`
}

func syncFieldLocaleKey(field string) string {
	return "HRIS.Sync.Fields." + field
}

func conflictFieldLocaleKey(field string) string {
	return "HRIS.Conflicts.Fields." + field
}

func validateDTO(ctx context.Context, dto any, localeKey func(string) string) (map[string]string, bool) {
	err := constants.Validate.Struct(dto)
	if err == nil {
		return nil, true
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}, false
	}
	localizer, _ := intl.UseLocalizer(ctx)
	return serrors.LocalizeValidationErrors(serrors.ProcessValidatorErrors(errs, localeKey), localizer), false
}

func (d *SyncTriggerDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateDTO(ctx, d, syncFieldLocaleKey)
}

func (d *SyncTriggerDTO) ToCommand() services.SyncCommand {
	return services.SyncCommand{
		Mode:        syncrun.Mode(d.Mode),
		DryRun:      d.DryRun,
		Since:       d.Since,
		ExternalIDs: d.ExternalIDs,
	}
}

func (d *ResolveConflictDTO) Ok(ctx context.Context) (map[string]string, bool) {
	return validateDTO(ctx, d, conflictFieldLocaleKey)
}

func (d *MergeDirectiveDTO) toDirective() *conflict.MergeDirective {
	if d == nil {
		return nil
	}
	return &conflict.MergeDirective{
		Email:       conflict.FieldSource(d.Email),
		DisplayName: conflict.FieldSource(d.DisplayName),
		Village:     conflict.FieldSource(d.Village),
		Role:        conflict.FieldSource(d.Role),
		Department:  conflict.FieldSource(d.Department),
	}
}

type syncStatsResponse struct {
	Processed             int `json:"processed"`
	Created               int `json:"created"`
	Updated               int `json:"updated"`
	Failed                int `json:"failed"`
	ConflictsDetected     int `json:"conflicts_detected"`
	ConflictsAutoResolved int `json:"conflicts_auto_resolved"`
}

type syncRunResponse struct {
	ID          string            `json:"id"`
	Mode        string            `json:"mode"`
	Status      string            `json:"status"`
	DryRun      bool              `json:"dry_run"`
	Actor       string            `json:"actor"`
	Stats       syncStatsResponse `json:"stats"`
	Since       *time.Time        `json:"since,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	ErrorDetail string            `json:"error_detail,omitempty"`
}

func toSyncRunResponse(run *syncrun.SyncRun) syncRunResponse {
	stats := run.Stats()
	return syncRunResponse{
		ID:     run.ID().String(),
		Mode:   string(run.Mode()),
		Status: string(run.Status()),
		DryRun: run.DryRun(),
		Actor:  run.Actor(),
		Stats: syncStatsResponse{
			Processed:             stats.Processed,
			Created:               stats.Created,
			Updated:               stats.Updated,
			Failed:                stats.Failed,
			ConflictsDetected:     stats.ConflictsDetected,
			ConflictsAutoResolved: stats.ConflictsAutoResolved,
		},
		Since:       run.Since(),
		StartedAt:   run.StartedAt(),
		FinishedAt:  run.FinishedAt(),
		ErrorDetail: run.ErrorDetail(),
	}
}

type conflictResponse struct {
	ID         string                      `json:"id"`
	RunID      string                      `json:"run_id"`
	Kind       string                      `json:"kind"`
	Status     string                      `json:"status"`
	Record     directory.ExternalRecord    `json:"record"`
	Candidate  *conflict.CandidateSnapshot `json:"candidate,omitempty"`
	Resolution string                      `json:"resolution,omitempty"`
	Merge      *conflict.MergeDirective    `json:"merge,omitempty"`
	ResolvedBy string                      `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time                  `json:"resolved_at,omitempty"`
	Notes      string                      `json:"notes,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}

func toConflictResponse(c *conflict.Conflict) conflictResponse {
	return conflictResponse{
		ID:         c.ID().String(),
		RunID:      c.RunID().String(),
		Kind:       string(c.Kind()),
		Status:     string(c.Status()),
		Record:     c.Record(),
		Candidate:  c.Candidate(),
		Resolution: string(c.Resolution()),
		Merge:      c.Merge(),
		ResolvedBy: c.ResolvedBy(),
		ResolvedAt: c.ResolvedAt(),
		Notes:      c.Notes(),
		CreatedAt:  c.CreatedAt(),
	}
}

type assignmentResponse struct {
	VillageID string     `json:"village_id"`
	From      time.Time  `json:"from"`
	To        *time.Time `json:"to,omitempty"`
}

type identityResponse struct {
	ID          string               `json:"id"`
	ExternalID  string               `json:"external_id,omitempty"`
	Email       string               `json:"email"`
	DisplayName string               `json:"display_name"`
	Department  string               `json:"department,omitempty"`
	Role        string               `json:"role,omitempty"`
	VillageID   *string              `json:"village_id,omitempty"`
	History     []assignmentResponse `json:"history"`
	Version     int64                `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func toIdentityResponse(entity *identity.Identity) identityResponse {
	history := entity.History()
	assignments := make([]assignmentResponse, 0, len(history))
	for _, a := range history {
		assignments = append(assignments, assignmentResponse{
			VillageID: a.VillageID.String(),
			From:      a.From,
			To:        a.To,
		})
	}

	var villageID *string
	if id := entity.VillageID(); id != nil {
		s := id.String()
		villageID = &s
	}

	return identityResponse{
		ID:          entity.ID().String(),
		ExternalID:  entity.ExternalID(),
		Email:       entity.Email(),
		DisplayName: entity.DisplayName(),
		Department:  entity.Department(),
		Role:        entity.Role(),
		VillageID:   villageID,
		History:     assignments,
		Version:     entity.Version(),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
}
