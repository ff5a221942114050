package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence/models"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/repo"
)

const (
	conflictFindQuery = `
        SELECT
            c.id,
            c.run_id,
            c.kind,
            c.record,
            c.candidate,
            c.status,
            c.resolution,
            c.merge_directive,
            c.resolved_by,
            c.resolved_at,
            c.notes,
            c.created_at
        FROM conflicts c`

	conflictCountQuery = `SELECT COUNT(c.id) FROM conflicts c`

	conflictInsertQuery = `
        INSERT INTO conflicts (
            id, run_id, kind, record, candidate, status, resolution,
            merge_directive, resolved_by, resolved_at, notes, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	conflictUpdateQuery = `
        UPDATE conflicts
        SET status = $2,
            resolution = $3,
            merge_directive = $4,
            resolved_by = $5,
            resolved_at = $6,
            notes = $7
        WHERE id = $1`
)

type PgConflictRepository struct{}

func NewConflictRepository() conflict.Repository {
	return &PgConflictRepository{}
}

func (g *PgConflictRepository) queryConflicts(ctx context.Context, query string, args ...any) ([]*conflict.Conflict, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conflicts")
	}
	defer rows.Close()

	conflicts := make([]*conflict.Conflict, 0)
	for rows.Next() {
		var row models.Conflict
		if err := rows.Scan(
			&row.ID,
			&row.RunID,
			&row.Kind,
			&row.Record,
			&row.Candidate,
			&row.Status,
			&row.Resolution,
			&row.MergeDirective,
			&row.ResolvedBy,
			&row.ResolvedAt,
			&row.Notes,
			&row.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan conflict")
		}
		entity, err := ToDomainConflict(&row)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, entity)
	}
	return conflicts, rows.Err()
}

func (g *PgConflictRepository) Count(ctx context.Context, params *conflict.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := buildConflictFilters(params)
	query := repo.Join(conflictCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count conflicts")
	}
	return count, nil
}

func (g *PgConflictRepository) GetPaginated(ctx context.Context, params *conflict.FindParams) ([]*conflict.Conflict, error) {
	where, args := buildConflictFilters(params)
	query := repo.Join(
		conflictFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY c.created_at DESC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryConflicts(ctx, query, args...)
}

func (g *PgConflictRepository) GetByID(ctx context.Context, id uuid.UUID) (*conflict.Conflict, error) {
	conflicts, err := g.queryConflicts(ctx, conflictFindQuery+" WHERE c.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return nil, errors.Wrapf(conflict.ErrNotFound, "id %s", id)
	}
	return conflicts[0], nil
}

func (g *PgConflictRepository) Create(ctx context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow, err := ToDBConflict(entity)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(
		ctx,
		conflictInsertQuery,
		dbRow.ID,
		dbRow.RunID,
		dbRow.Kind,
		dbRow.Record,
		dbRow.Candidate,
		dbRow.Status,
		dbRow.Resolution,
		dbRow.MergeDirective,
		dbRow.ResolvedBy,
		dbRow.ResolvedAt,
		dbRow.Notes,
		dbRow.CreatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert conflict")
	}
	return g.GetByID(ctx, dbRow.ID)
}

func (g *PgConflictRepository) Update(ctx context.Context, entity *conflict.Conflict) (*conflict.Conflict, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow, err := ToDBConflict(entity)
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(
		ctx,
		conflictUpdateQuery,
		dbRow.ID,
		dbRow.Status,
		dbRow.Resolution,
		dbRow.MergeDirective,
		dbRow.ResolvedBy,
		dbRow.ResolvedAt,
		dbRow.Notes,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update conflict")
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.Wrapf(conflict.ErrNotFound, "id %s", dbRow.ID)
	}
	return g.GetByID(ctx, dbRow.ID)
}

func buildConflictFilters(params *conflict.FindParams) ([]string, []any) {
	var where []string
	var args []any
	if params.RunID != nil {
		args = append(args, *params.RunID)
		where = append(where, fmt.Sprintf("c.run_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)))
	}
	if params.Kind != nil {
		args = append(args, string(*params.Kind))
		where = append(where, fmt.Sprintf("c.kind = $%d", len(args)))
	}
	return where, args
}
