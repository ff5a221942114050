package models

import (
	"time"

	"github.com/google/uuid"
)

type Identity struct {
	ID          uuid.UUID
	ExternalID  *string
	Email       string
	DisplayName string
	Department  string
	Role        string
	VillageID   *uuid.UUID
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type VillageAssignment struct {
	ID         int64
	IdentityID uuid.UUID
	VillageID  uuid.UUID
	ValidFrom  time.Time
	ValidTo    *time.Time
}

type SyncRun struct {
	ID                    uuid.UUID
	Mode                  string
	Status                string
	DryRun                bool
	Actor                 string
	RecordsProcessed      int
	RecordsCreated        int
	RecordsUpdated        int
	RecordsFailed         int
	ConflictsDetected     int
	ConflictsAutoResolved int
	Since                 *time.Time
	StartedAt             time.Time
	FinishedAt            *time.Time
	ErrorDetail           string
}

type Conflict struct {
	ID             uuid.UUID
	RunID          uuid.UUID
	Kind           string
	Record         []byte
	Candidate      []byte
	Status         string
	Resolution     string
	MergeDirective []byte
	ResolvedBy     string
	ResolvedAt     *time.Time
	Notes          string
	CreatedAt      time.Time
}
