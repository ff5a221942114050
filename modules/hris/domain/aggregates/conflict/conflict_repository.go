package conflict

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Limit  int
	Offset int
	RunID  *uuid.UUID
	Status *Status
	Kind   *Kind
}

type Repository interface {
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Conflict, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Conflict, error)
	Create(ctx context.Context, c *Conflict) (*Conflict, error)
	Update(ctx context.Context, c *Conflict) (*Conflict, error)
}
