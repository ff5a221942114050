package syncrun

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("sync run not found")

	// ErrAlreadyRunning is returned by the claim when another run holds the
	// in_progress slot. No new run row is created in that case.
	ErrAlreadyRunning = errors.New("a sync run is already in progress")

	ErrFinalized = errors.New("sync run is already finalized")
)

type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeManual      Mode = "manual"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeFull, ModeIncremental, ModeManual:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Stats are the run-level counters, accumulated as records are processed.
type Stats struct {
	Processed             int `json:"processed"`
	Created               int `json:"created"`
	Updated               int `json:"updated"`
	Failed                int `json:"failed"`
	ConflictsDetected     int `json:"conflicts_detected"`
	ConflictsAutoResolved int `json:"conflicts_auto_resolved"`
}

// SyncRun is one invocation of the sync orchestrator. It is created directly
// in in_progress by an atomic claim, accumulates statistics while records are
// processed, and is finalized exactly once as completed or failed.
type SyncRun struct {
	id          uuid.UUID
	mode        Mode
	status      Status
	dryRun      bool
	actor       string
	stats       Stats
	since       *time.Time
	startedAt   time.Time
	finishedAt  *time.Time
	errorDetail string
}

func New(mode Mode, dryRun bool, actor string, since *time.Time, startedAt time.Time) *SyncRun {
	return &SyncRun{
		id:        uuid.New(),
		mode:      mode,
		status:    StatusInProgress,
		dryRun:    dryRun,
		actor:     actor,
		since:     since,
		startedAt: startedAt,
	}
}

func Hydrate(
	id uuid.UUID,
	mode Mode,
	status Status,
	dryRun bool,
	actor string,
	stats Stats,
	since *time.Time,
	startedAt time.Time,
	finishedAt *time.Time,
	errorDetail string,
) *SyncRun {
	return &SyncRun{
		id:          id,
		mode:        mode,
		status:      status,
		dryRun:      dryRun,
		actor:       actor,
		stats:       stats,
		since:       since,
		startedAt:   startedAt,
		finishedAt:  finishedAt,
		errorDetail: errorDetail,
	}
}

func (r *SyncRun) ID() uuid.UUID          { return r.id }
func (r *SyncRun) Mode() Mode             { return r.mode }
func (r *SyncRun) Status() Status         { return r.status }
func (r *SyncRun) DryRun() bool           { return r.dryRun }
func (r *SyncRun) Actor() string          { return r.actor }
func (r *SyncRun) Stats() Stats           { return r.stats }
func (r *SyncRun) Since() *time.Time      { return r.since }
func (r *SyncRun) StartedAt() time.Time   { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *SyncRun) ErrorDetail() string    { return r.errorDetail }

func (r *SyncRun) IsFinalized() bool {
	return r.status == StatusCompleted || r.status == StatusFailed
}

func (r *SyncRun) RecordProcessed()    { r.stats.Processed++ }
func (r *SyncRun) RecordCreated()      { r.stats.Created++ }
func (r *SyncRun) RecordUpdated()      { r.stats.Updated++ }
func (r *SyncRun) RecordFailed()       { r.stats.Failed++ }
func (r *SyncRun) ConflictDetected()   { r.stats.ConflictsDetected++ }
func (r *SyncRun) ConflictAutoSolved() { r.stats.ConflictsAutoResolved++ }

// Complete finalizes the run as successful. Finalization is terminal.
func (r *SyncRun) Complete(at time.Time) error {
	if r.IsFinalized() {
		return errors.Wrapf(ErrFinalized, "run %s is %s", r.id, r.status)
	}
	r.status = StatusCompleted
	t := at
	r.finishedAt = &t
	return nil
}

// Fail finalizes the run with an error. The partial statistics accumulated
// before the failure stay on the run.
func (r *SyncRun) Fail(at time.Time, cause error) error {
	if r.IsFinalized() {
		return errors.Wrapf(ErrFinalized, "run %s is %s", r.id, r.status)
	}
	r.status = StatusFailed
	t := at
	r.finishedAt = &t
	if cause != nil {
		r.errorDetail = cause.Error()
	}
	return nil
}
