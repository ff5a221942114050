package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/villagepulse/villagepulse/modules/core/domain/entities/user"
	"github.com/villagepulse/villagepulse/modules/core/infrastructure/persistence/models"
	"github.com/villagepulse/villagepulse/pkg/composables"
)

var ErrUserEmailTaken = errors.New("user email is already in use")

const (
	userFindQuery = `
        SELECT
            u.id,
            u.email,
            u.display_name,
            u.role,
            u.ui_language,
            u.created_at
        FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userInsertQuery = `
        INSERT INTO users (id, email, display_name, role, ui_language)
        VALUES ($1, $2, $3, $4, $5)`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.DisplayName,
			&u.Role,
			&u.UILanguage,
			&u.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, ToDomainUser(&u))
	}
	return users, rows.Err()
}

func (g *PgUserRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, userCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (g *PgUserRepository) GetAll(ctx context.Context) ([]user.User, error) {
	return g.queryUsers(ctx, userFindQuery+" ORDER BY u.email")
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.id = $1", id)
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, errors.Wrapf(user.ErrNotFound, "id %s", id)
	}
	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.email = $1", email)
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, errors.Wrapf(user.ErrNotFound, "email %s", email)
	}
	return users[0], nil
}

func (g *PgUserRepository) Create(ctx context.Context, entity user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "failed to get transaction")
	}

	if _, err := tx.Exec(
		ctx,
		userInsertQuery,
		entity.ID(),
		entity.Email(),
		entity.DisplayName(),
		string(entity.Role()),
		string(entity.UILanguage()),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, errors.Wrapf(ErrUserEmailTaken, "email %s", entity.Email())
		}
		return user.User{}, errors.Wrap(err, "failed to insert user")
	}
	return g.GetByID(ctx, entity.ID())
}
