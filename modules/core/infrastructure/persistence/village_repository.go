package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/village"
	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence/models"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/repo"
)

var ErrVillageCodeTaken = errors.New("village code is already in use")

const (
	villageFindQuery = `
        SELECT
            v.id,
            v.code,
            v.name,
            v.district,
            v.active,
            v.created_at,
            v.updated_at
        FROM villages v`

	villageCountQuery = `SELECT COUNT(v.id) FROM villages v`

	villageInsertQuery = `
        INSERT INTO villages (id, code, name, district, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	villageUpdateQuery = `
        UPDATE villages
        SET name = $2, district = $3, active = $4, updated_at = $5
        WHERE id = $1`
)

type PgVillageRepository struct{}

func NewVillageRepository() village.Repository {
	return &PgVillageRepository{}
}

func (g *PgVillageRepository) queryVillages(ctx context.Context, query string, args ...any) ([]*village.Village, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query villages")
	}
	defer rows.Close()

	villages := make([]*village.Village, 0)
	for rows.Next() {
		var v models.Village
		if err := rows.Scan(
			&v.ID,
			&v.Code,
			&v.Name,
			&v.District,
			&v.Active,
			&v.CreatedAt,
			&v.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan village")
		}
		villages = append(villages, ToDomainVillage(&v))
	}
	return villages, rows.Err()
}

func (g *PgVillageRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, villageCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count villages")
	}
	return count, nil
}

func (g *PgVillageRepository) GetAll(ctx context.Context) ([]*village.Village, error) {
	return g.queryVillages(ctx, villageFindQuery+" ORDER BY v.code")
}

func (g *PgVillageRepository) GetPaginated(ctx context.Context, params *village.FindParams) ([]*village.Village, error) {
	var where []string
	var args []any

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf("(v.code ILIKE $%d OR v.name ILIKE $%d)", len(args), len(args)))
	}
	if params.ActiveOnly {
		where = append(where, "v.active")
	}

	query := repo.Join(
		villageFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY v.code",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryVillages(ctx, query, args...)
}

func (g *PgVillageRepository) GetByID(ctx context.Context, id uuid.UUID) (*village.Village, error) {
	villages, err := g.queryVillages(ctx, villageFindQuery+" WHERE v.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(villages) == 0 {
		return nil, errors.Wrapf(village.ErrNotFound, "id %s", id)
	}
	return villages[0], nil
}

func (g *PgVillageRepository) GetByCode(ctx context.Context, code string) (*village.Village, error) {
	villages, err := g.queryVillages(ctx, villageFindQuery+" WHERE v.code = $1", code)
	if err != nil {
		return nil, err
	}
	if len(villages) == 0 {
		return nil, errors.Wrapf(village.ErrNotFound, "code %s", code)
	}
	return villages[0], nil
}

func (g *PgVillageRepository) Create(ctx context.Context, entity *village.Village) (*village.Village, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBVillage(entity)
	if _, err := tx.Exec(
		ctx,
		villageInsertQuery,
		dbRow.ID,
		dbRow.Code,
		dbRow.Name,
		dbRow.District,
		dbRow.Active,
		dbRow.CreatedAt,
		dbRow.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errors.Wrapf(ErrVillageCodeTaken, "code %s", dbRow.Code)
		}
		return nil, errors.Wrap(err, "failed to insert village")
	}
	return g.GetByID(ctx, dbRow.ID)
}

func (g *PgVillageRepository) Update(ctx context.Context, entity *village.Village) (*village.Village, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBVillage(entity)
	tag, err := tx.Exec(
		ctx,
		villageUpdateQuery,
		dbRow.ID,
		dbRow.Name,
		dbRow.District,
		dbRow.Active,
		dbRow.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update village")
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.Wrapf(village.ErrNotFound, "id %s", dbRow.ID)
	}
	return g.GetByID(ctx, dbRow.ID)
}
