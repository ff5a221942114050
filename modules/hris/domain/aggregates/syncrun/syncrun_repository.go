package syncrun

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FindParams struct {
	Limit  int
	Offset int
	Status *Status
	Mode   *Mode
}

type Repository interface {
	// Claim atomically persists the run as the single in_progress run.
	// Returns ErrAlreadyRunning, without writing anything, when another run
	// currently holds the slot.
	Claim(ctx context.Context, run *SyncRun) (*SyncRun, error)

	GetByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)
	GetActive(ctx context.Context) (*SyncRun, error)
	GetLatest(ctx context.Context) (*SyncRun, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*SyncRun, error)
	Count(ctx context.Context, params *FindParams) (int64, error)

	// LastCompletedStart returns the start time of the most recent completed
	// non-dry run, used as the incremental "since" boundary. The bool is
	// false when no such run exists.
	LastCompletedStart(ctx context.Context) (time.Time, bool, error)

	Update(ctx context.Context, run *SyncRun) (*SyncRun, error)
}
