package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/infrastructure/persistence/models"
	"github.com/villagepulse/villagepulse/pkg/composables"
	"github.com/villagepulse/villagepulse/pkg/repo"
)

var ErrExternalIDTaken = errors.New("external id is already linked to another identity")

const (
	identityFindQuery = `
        SELECT
            i.id,
            i.external_id,
            i.email,
            i.display_name,
            i.department,
            i.role,
            i.village_id,
            i.version,
            i.created_at,
            i.updated_at
        FROM identities i`

	identityCountQuery = `SELECT COUNT(i.id) FROM identities i`

	identityInsertQuery = `
        INSERT INTO identities (
            id, external_id, email, display_name, department, role, village_id, version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	identityUpdateQuery = `
        UPDATE identities
        SET external_id = $3,
            email = $4,
            display_name = $5,
            department = $6,
            role = $7,
            village_id = $8,
            version = version + 1,
            updated_at = $9
        WHERE id = $1 AND version = $2`

	identityExistsQuery = `SELECT 1 FROM identities WHERE id = $1`

	assignmentsFindQuery = `
        SELECT
            a.id,
            a.identity_id,
            a.village_id,
            a.valid_from,
            a.valid_to
        FROM village_assignments a
        WHERE a.identity_id = ANY($1)
        ORDER BY a.identity_id, a.valid_from, a.id`

	assignmentDeleteQuery = `DELETE FROM village_assignments WHERE identity_id = $1`

	assignmentInsertQuery = `
        INSERT INTO village_assignments (identity_id, village_id, valid_from, valid_to)
        VALUES ($1, $2, $3, $4)`
)

type PgIdentityRepository struct{}

func NewIdentityRepository() identity.Repository {
	return &PgIdentityRepository{}
}

func (g *PgIdentityRepository) queryIdentities(ctx context.Context, query string, args ...any) ([]*identity.Identity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query identities")
	}
	defer rows.Close()

	dbRows := make([]*models.Identity, 0)
	for rows.Next() {
		var row models.Identity
		if err := rows.Scan(
			&row.ID,
			&row.ExternalID,
			&row.Email,
			&row.DisplayName,
			&row.Department,
			&row.Role,
			&row.VillageID,
			&row.Version,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan identity")
		}
		dbRows = append(dbRows, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	assignments, err := g.queryAssignments(ctx, dbRows)
	if err != nil {
		return nil, err
	}

	identities := make([]*identity.Identity, 0, len(dbRows))
	for _, row := range dbRows {
		identities = append(identities, ToDomainIdentity(row, assignments[row.ID]))
	}
	return identities, nil
}

func (g *PgIdentityRepository) queryAssignments(
	ctx context.Context,
	identities []*models.Identity,
) (map[uuid.UUID][]models.VillageAssignment, error) {
	if len(identities) == 0 {
		return nil, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	ids := make([]uuid.UUID, 0, len(identities))
	for _, row := range identities {
		ids = append(ids, row.ID)
	}

	rows, err := tx.Query(ctx, assignmentsFindQuery, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query village assignments")
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.VillageAssignment, len(ids))
	for rows.Next() {
		var a models.VillageAssignment
		if err := rows.Scan(&a.ID, &a.IdentityID, &a.VillageID, &a.ValidFrom, &a.ValidTo); err != nil {
			return nil, errors.Wrap(err, "failed to scan village assignment")
		}
		out[a.IdentityID] = append(out[a.IdentityID], a)
	}
	return out, rows.Err()
}

func (g *PgIdentityRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, identityCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count identities")
	}
	return count, nil
}

func (g *PgIdentityRepository) GetAll(ctx context.Context) ([]*identity.Identity, error) {
	return g.queryIdentities(ctx, identityFindQuery+" ORDER BY i.created_at")
}

func (g *PgIdentityRepository) GetPaginated(ctx context.Context, params *identity.FindParams) ([]*identity.Identity, error) {
	var where []string
	var args []any

	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		where = append(where, fmt.Sprintf(
			"(i.email ILIKE $%d OR i.display_name ILIKE $%d OR i.external_id ILIKE $%d)",
			len(args), len(args), len(args),
		))
	}
	if params.VillageID != nil {
		args = append(args, *params.VillageID)
		where = append(where, fmt.Sprintf("i.village_id = $%d", len(args)))
	}
	if params.LinkedOnly {
		where = append(where, "i.external_id IS NOT NULL")
	}

	query := repo.Join(
		identityFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY i.created_at",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	return g.queryIdentities(ctx, query, args...)
}

func (g *PgIdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (*identity.Identity, error) {
	identities, err := g.queryIdentities(ctx, identityFindQuery+" WHERE i.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, errors.Wrapf(identity.ErrNotFound, "id %s", id)
	}
	return identities[0], nil
}

func (g *PgIdentityRepository) GetByExternalID(ctx context.Context, externalID string) (*identity.Identity, error) {
	identities, err := g.queryIdentities(ctx, identityFindQuery+" WHERE i.external_id = $1", externalID)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, errors.Wrapf(identity.ErrNotFound, "external id %s", externalID)
	}
	return identities[0], nil
}

func (g *PgIdentityRepository) GetByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	identities, err := g.queryIdentities(ctx, identityFindQuery+" WHERE lower(i.email) = lower($1)", email)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		return nil, errors.Wrapf(identity.ErrNotFound, "email %s", email)
	}
	return identities[0], nil
}

func (g *PgIdentityRepository) Create(ctx context.Context, entity *identity.Identity) (*identity.Identity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBIdentity(entity)
	if _, err := tx.Exec(
		ctx,
		identityInsertQuery,
		dbRow.ID,
		dbRow.ExternalID,
		dbRow.Email,
		dbRow.DisplayName,
		dbRow.Department,
		dbRow.Role,
		dbRow.VillageID,
		dbRow.Version,
		dbRow.CreatedAt,
		dbRow.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, errors.Wrapf(ErrExternalIDTaken, "external id %v", entity.ExternalID())
		}
		return nil, errors.Wrap(err, "failed to insert identity")
	}

	if err := g.replaceAssignments(ctx, entity); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, dbRow.ID)
}

func (g *PgIdentityRepository) Update(ctx context.Context, entity *identity.Identity) (*identity.Identity, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRow := ToDBIdentity(entity)
	tag, err := tx.Exec(
		ctx,
		identityUpdateQuery,
		dbRow.ID,
		dbRow.Version,
		dbRow.ExternalID,
		dbRow.Email,
		dbRow.DisplayName,
		dbRow.Department,
		dbRow.Role,
		dbRow.VillageID,
		dbRow.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update identity")
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a version mismatch.
		var one int
		err := tx.QueryRow(ctx, identityExistsQuery, dbRow.ID).Scan(&one)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, errors.Wrapf(identity.ErrNotFound, "id %s", dbRow.ID)
		case err != nil:
			return nil, errors.Wrap(err, "failed to check identity row")
		}
		return nil, errors.Wrapf(identity.ErrStaleVersion, "id %s version %d", dbRow.ID, dbRow.Version)
	}

	if err := g.replaceAssignments(ctx, entity); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, dbRow.ID)
}

// replaceAssignments rewrites the identity's village history. The history is
// small (one row per transfer) and append-only at the domain level, so a
// delete-and-insert keeps the SQL simple while the partial unique index
// still enforces the single open entry.
func (g *PgIdentityRepository) replaceAssignments(ctx context.Context, entity *identity.Identity) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(ctx, assignmentDeleteQuery, entity.ID()); err != nil {
		return errors.Wrap(err, "failed to clear village assignments")
	}
	for _, a := range entity.History() {
		if _, err := tx.Exec(
			ctx,
			assignmentInsertQuery,
			entity.ID(),
			a.VillageID,
			a.From,
			a.To,
		); err != nil {
			return errors.Wrap(err, "failed to insert village assignment")
		}
	}
	return nil
}
