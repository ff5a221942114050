package conflict

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
)

var (
	ErrNotFound = errors.New("conflict not found")

	// ErrAlreadyResolved guards resolution idempotency: a resolved conflict
	// is never re-applied.
	ErrAlreadyResolved = errors.New("conflict is already resolved")

	ErrInvalidResolution = errors.New("resolution is not valid for this conflict")
)

type Kind string

const (
	KindDuplicateEmail      Kind = "duplicate_email"
	KindDuplicateEmployeeID Kind = "duplicate_employee_id"
	KindEmailChange         Kind = "email_change"
	KindDataMismatch        Kind = "data_mismatch"
	KindVillageNotFound     Kind = "village_not_found"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindDuplicateEmail, KindDuplicateEmployeeID, KindEmailChange,
		KindDataMismatch, KindVillageNotFound:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

type Resolution string

const (
	ResolutionKeepSystem Resolution = "keep_system"
	ResolutionUseHRIS    Resolution = "use_hris"
	ResolutionMerge      Resolution = "merge"
	ResolutionCreateNew  Resolution = "create_new"
)

func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionKeepSystem, ResolutionUseHRIS, ResolutionMerge, ResolutionCreateNew:
		return true
	}
	return false
}

// FieldSource picks which side wins for one field in a merge resolution.
type FieldSource string

const (
	SourceSystem FieldSource = "system"
	SourceHRIS   FieldSource = "hris"
)

// MergeDirective is the structured per-field selection a merge resolution
// carries. Unset fields default to keeping the system value.
type MergeDirective struct {
	Email       FieldSource `json:"email,omitempty"`
	DisplayName FieldSource `json:"display_name,omitempty"`
	Village     FieldSource `json:"village,omitempty"`
	Role        FieldSource `json:"role,omitempty"`
	Department  FieldSource `json:"department,omitempty"`
}

func (d MergeDirective) Validate() error {
	for field, src := range map[string]FieldSource{
		"email":        d.Email,
		"display_name": d.DisplayName,
		"village":      d.Village,
		"role":         d.Role,
		"department":   d.Department,
	} {
		switch src {
		case "", SourceSystem, SourceHRIS:
		default:
			return errors.Wrapf(ErrInvalidResolution, "merge directive field %s has unknown source %q", field, src)
		}
	}
	return nil
}

// CandidateSnapshot captures the relevant fields of the local identity the
// matcher pointed at when the conflict was detected. A snapshot, not a live
// reference: the identity may change before an admin resolves the conflict.
type CandidateSnapshot struct {
	ID         uuid.UUID  `json:"id"`
	ExternalID string     `json:"external_id,omitempty"`
	Email      string     `json:"email"`
	VillageID  *uuid.UUID `json:"village_id,omitempty"`
	Role       string     `json:"role"`
}

// Conflict is a detected mismatch between an external record and the local
// identity store that could not be safely auto-applied. Mutated only by
// resolution; never deleted.
type Conflict struct {
	id         uuid.UUID
	runID      uuid.UUID
	kind       Kind
	record     directory.ExternalRecord
	candidate  *CandidateSnapshot
	status     Status
	resolution Resolution
	merge      *MergeDirective
	resolvedBy string
	resolvedAt *time.Time
	notes      string
	createdAt  time.Time
}

func New(runID uuid.UUID, kind Kind, record directory.ExternalRecord, candidate *CandidateSnapshot) *Conflict {
	return &Conflict{
		id:        uuid.New(),
		runID:     runID,
		kind:      kind,
		record:    record,
		candidate: candidate,
		status:    StatusPending,
		createdAt: time.Now(),
	}
}

func Hydrate(
	id uuid.UUID,
	runID uuid.UUID,
	kind Kind,
	record directory.ExternalRecord,
	candidate *CandidateSnapshot,
	status Status,
	resolution Resolution,
	merge *MergeDirective,
	resolvedBy string,
	resolvedAt *time.Time,
	notes string,
	createdAt time.Time,
) *Conflict {
	return &Conflict{
		id:         id,
		runID:      runID,
		kind:       kind,
		record:     record,
		candidate:  candidate,
		status:     status,
		resolution: resolution,
		merge:      merge,
		resolvedBy: resolvedBy,
		resolvedAt: resolvedAt,
		notes:      notes,
		createdAt:  createdAt,
	}
}

func (c *Conflict) ID() uuid.UUID                     { return c.id }
func (c *Conflict) RunID() uuid.UUID                  { return c.runID }
func (c *Conflict) Kind() Kind                        { return c.kind }
func (c *Conflict) Record() directory.ExternalRecord  { return c.record }
func (c *Conflict) Candidate() *CandidateSnapshot     { return c.candidate }
func (c *Conflict) Status() Status                    { return c.status }
func (c *Conflict) Resolution() Resolution            { return c.resolution }
func (c *Conflict) Merge() *MergeDirective            { return c.merge }
func (c *Conflict) ResolvedBy() string                { return c.resolvedBy }
func (c *Conflict) ResolvedAt() *time.Time            { return c.resolvedAt }
func (c *Conflict) Notes() string                     { return c.notes }
func (c *Conflict) CreatedAt() time.Time              { return c.createdAt }
func (c *Conflict) IsResolved() bool                  { return c.status == StatusResolved }

// Resolve marks the conflict resolved with the given choice. It only records
// the decision; applying the decision to the identity store is the caller's
// responsibility and must happen in the same transaction.
func (c *Conflict) Resolve(choice Resolution, merge *MergeDirective, actor, notes string, at time.Time) error {
	if c.status == StatusResolved {
		return errors.Wrapf(ErrAlreadyResolved, "conflict %s", c.id)
	}
	if !choice.IsValid() {
		return errors.Wrapf(ErrInvalidResolution, "unknown resolution %q", choice)
	}
	if choice == ResolutionMerge {
		if merge == nil {
			return errors.Wrap(ErrInvalidResolution, "merge resolution requires a merge directive")
		}
		if err := merge.Validate(); err != nil {
			return err
		}
	} else if merge != nil {
		return errors.Wrapf(ErrInvalidResolution, "resolution %q does not accept a merge directive", choice)
	}
	if choice == ResolutionUseHRIS && c.candidate == nil && c.kind != KindVillageNotFound {
		return errors.Wrap(ErrInvalidResolution, "use_hris requires a candidate identity")
	}

	c.status = StatusResolved
	c.resolution = choice
	c.merge = merge
	c.resolvedBy = actor
	t := at
	c.resolvedAt = &t
	c.notes = notes
	return nil
}
