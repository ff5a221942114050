package identity

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("identity not found")

	// ErrStaleVersion is returned when an update carries a version stamp that
	// no longer matches the stored row: somebody else wrote in between.
	ErrStaleVersion = errors.New("identity was modified concurrently")
)

type Field string

const (
	FieldEmail     Field = "email"
	FieldUpdatedAt Field = "updated_at"
	FieldCreatedAt Field = "created_at"
)

type SortBy struct {
	Fields    []Field
	Ascending bool
}

type FindParams struct {
	Limit      int
	Offset     int
	Search     string
	VillageID  *uuid.UUID
	LinkedOnly bool
	SortBy     SortBy
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetAll(ctx context.Context) ([]*Identity, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetByExternalID(ctx context.Context, externalID string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	Create(ctx context.Context, id *Identity) (*Identity, error)

	// Update persists the aggregate only if the stored version still equals
	// the version the aggregate was loaded with, otherwise ErrStaleVersion.
	Update(ctx context.Context, id *Identity) (*Identity, error)
}
