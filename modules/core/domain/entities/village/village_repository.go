package village

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Limit      int
	Offset     int
	Search     string
	ActiveOnly bool
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetAll(ctx context.Context) ([]*Village, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Village, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Village, error)
	GetByCode(ctx context.Context, code string) (*Village, error)
	Create(ctx context.Context, v *Village) (*Village, error)
	Update(ctx context.Context, v *Village) (*Village, error)
}
