package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/syncrun"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence/models"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/repo"
)

const (
	syncRunFindQuery = `
        SELECT
            r.id,
            r.mode,
            r.status,
            r.dry_run,
            r.actor,
            r.records_processed,
            r.records_created,
            r.records_updated,
            r.records_failed,
            r.conflicts_detected,
            r.conflicts_auto_resolved,
            r.since,
            r.started_at,
            r.finished_at,
            r.error_detail
        FROM sync_runs r`

	syncRunCountQuery = `SELECT COUNT(r.id) FROM sync_runs r`

	// The guard and the insert are one statement: the row lands only if no
	// other run is in_progress at commit time. The partial unique index on
	// status backstops the race between two concurrent claims.
	syncRunClaimQuery = `
        INSERT INTO sync_runs (id, mode, status, dry_run, actor, since, started_at)
        SELECT $1, $2, $3, $4, $5, $6, $7
        WHERE NOT EXISTS (
            SELECT 1 FROM sync_runs WHERE status = 'in_progress'
        )`

	syncRunUpdateQuery = `
        UPDATE sync_runs
        SET status = $2,
            records_processed = $3,
            records_created = $4,
            records_updated = $5,
            records_failed = $6,
            conflicts_detected = $7,
            conflicts_auto_resolved = $8,
            finished_at = $9,
            error_detail = $10
        WHERE id = $1`

	syncRunLastCompletedQuery = `
        SELECT r.started_at
        FROM sync_runs r
        WHERE r.status = 'completed' AND NOT r.dry_run
        ORDER BY r.started_at DESC
        LIMIT 1`
)

type PgSyncRunRepository struct{}

func NewSyncRunRepository() syncrun.Repository {
	return &PgSyncRunRepository{}
}

func (g *PgSyncRunRepository) querySyncRuns(ctx context.Context, query string, args ...any) ([]*syncrun.SyncRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sync runs")
	}
	defer rows.Close()

	runs := make([]*syncrun.SyncRun, 0)
	for rows.Next() {
		var row models.SyncRun
		if err := rows.Scan(
			&row.ID,
			&row.Mode,
			&row.Status,
			&row.DryRun,
			&row.Actor,
			&row.RecordsProcessed,
			&row.RecordsCreated,
			&row.RecordsUpdated,
			&row.RecordsFailed,
			&row.ConflictsDetected,
			&row.ConflictsAutoResolved,
			&row.Since,
			&row.StartedAt,
			&row.FinishedAt,
			&row.ErrorDetail,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan sync run")
		}
		runs = append(runs, ToDomainSyncRun(&row))
	}
	return runs, rows.Err()
}

func (g *PgSyncRunRepository) Claim(ctx context.Context, run *syncrun.SyncRun) (*syncrun.SyncRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBSyncRun(run)
	tag, err := tx.Exec(
		ctx,
		syncRunClaimQuery,
		dbRow.ID,
		dbRow.Mode,
		dbRow.Status,
		dbRow.DryRun,
		dbRow.Actor,
		dbRow.Since,
		dbRow.StartedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, syncrun.ErrAlreadyRunning
		}
		return nil, errors.Wrap(err, "failed to claim sync run")
	}
	if tag.RowsAffected() == 0 {
		return nil, syncrun.ErrAlreadyRunning
	}
	return g.GetByID(ctx, dbRow.ID)
}

func (g *PgSyncRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*syncrun.SyncRun, error) {
	runs, err := g.querySyncRuns(ctx, syncRunFindQuery+" WHERE r.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.Wrapf(syncrun.ErrNotFound, "id %s", id)
	}
	return runs[0], nil
}

func (g *PgSyncRunRepository) GetActive(ctx context.Context) (*syncrun.SyncRun, error) {
	runs, err := g.querySyncRuns(ctx, syncRunFindQuery+" WHERE r.status = 'in_progress' LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.Wrap(syncrun.ErrNotFound, "no active run")
	}
	return runs[0], nil
}

func (g *PgSyncRunRepository) GetLatest(ctx context.Context) (*syncrun.SyncRun, error) {
	runs, err := g.querySyncRuns(ctx, syncRunFindQuery+" ORDER BY r.started_at DESC LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.Wrap(syncrun.ErrNotFound, "no runs recorded")
	}
	return runs[0], nil
}

func (g *PgSyncRunRepository) GetPaginated(ctx context.Context, params *syncrun.FindParams) ([]*syncrun.SyncRun, error) {
	where, args := buildSyncRunFilters(params)
	query := repo.Join(
		syncRunFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY r.started_at DESC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.querySyncRuns(ctx, query, args...)
}

func (g *PgSyncRunRepository) Count(ctx context.Context, params *syncrun.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := buildSyncRunFilters(params)
	query := repo.Join(syncRunCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count sync runs")
	}
	return count, nil
}

func (g *PgSyncRunRepository) LastCompletedStart(ctx context.Context) (time.Time, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "failed to get transaction")
	}

	var startedAt time.Time
	err = tx.QueryRow(ctx, syncRunLastCompletedQuery).Scan(&startedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "failed to query last completed run")
	}
	return startedAt, true, nil
}

func (g *PgSyncRunRepository) Update(ctx context.Context, run *syncrun.SyncRun) (*syncrun.SyncRun, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBSyncRun(run)
	tag, err := tx.Exec(
		ctx,
		syncRunUpdateQuery,
		dbRow.ID,
		dbRow.Status,
		dbRow.RecordsProcessed,
		dbRow.RecordsCreated,
		dbRow.RecordsUpdated,
		dbRow.RecordsFailed,
		dbRow.ConflictsDetected,
		dbRow.ConflictsAutoResolved,
		dbRow.FinishedAt,
		dbRow.ErrorDetail,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update sync run")
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.Wrapf(syncrun.ErrNotFound, "id %s", dbRow.ID)
	}
	return g.GetByID(ctx, dbRow.ID)
}

func buildSyncRunFilters(params *syncrun.FindParams) ([]string, []any) {
	var where []string
	var args []any
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if params.Mode != nil {
		args = append(args, string(*params.Mode))
		where = append(where, fmt.Sprintf("r.mode = $%d", len(args)))
	}
	return where, args
}
