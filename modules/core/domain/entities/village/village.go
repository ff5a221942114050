package village

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("village not found")

// Village is an organizational unit employees are assigned to. The code is
// the stable key shared with the external HR directory.
type Village struct {
	id        uuid.UUID
	code      string
	name      string
	district  string
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

func New(code, name, district string) (*Village, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("village code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("village name is required")
	}
	now := time.Now()
	return &Village{
		id:        uuid.New(),
		code:      code,
		name:      name,
		district:  district,
		active:    true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func Hydrate(
	id uuid.UUID,
	code, name, district string,
	active bool,
	createdAt, updatedAt time.Time,
) *Village {
	return &Village{
		id:        id,
		code:      code,
		name:      name,
		district:  district,
		active:    active,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (v *Village) ID() uuid.UUID        { return v.id }
func (v *Village) Code() string         { return v.code }
func (v *Village) Name() string         { return v.name }
func (v *Village) District() string     { return v.district }
func (v *Village) IsActive() bool       { return v.active }
func (v *Village) CreatedAt() time.Time { return v.createdAt }
func (v *Village) UpdatedAt() time.Time { return v.updatedAt }

func (v *Village) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("village name is required")
	}
	v.name = name
	v.updatedAt = time.Now()
	return nil
}

func (v *Village) SetDistrict(district string) {
	v.district = district
	v.updatedAt = time.Now()
}

func (v *Village) Deactivate() {
	v.active = false
	v.updatedAt = time.Now()
}

func (v *Village) Activate() {
	v.active = true
	v.updatedAt = time.Now()
}
