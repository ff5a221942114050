package identity

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	// ErrOpenAssignmentExists guards the append-only village history: a new
	// entry may only be opened after the previous one has been closed.
	ErrOpenAssignmentExists = errors.New("identity already has an open village assignment")
)

// VillageAssignment is one entry in an identity's village history. A nil To
// marks the currently active assignment; at most one entry may be open.
type VillageAssignment struct {
	VillageID uuid.UUID
	From      time.Time
	To        *time.Time
}

func (a VillageAssignment) IsOpen() bool {
	return a.To == nil
}

// Identity is the durable, locally owned user record the sync engine
// reconciles toward. The local id is immutable once issued; the external id
// links the identity to the HR directory and may be unset for accounts
// created outside the sync path.
type Identity struct {
	id          uuid.UUID
	externalID  string
	email       string
	displayName string
	department  string
	role        string
	villageID   *uuid.UUID
	history     []VillageAssignment
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// New issues a fresh identity. A non-nil villageID opens the first history
// entry starting at `from`.
func New(
	externalID string,
	email string,
	displayName string,
	department string,
	role string,
	villageID *uuid.UUID,
	from time.Time,
) *Identity {
	now := time.Now()
	id := &Identity{
		id:          uuid.New(),
		externalID:  externalID,
		email:       normalizeEmail(email),
		displayName: displayName,
		department:  department,
		role:        role,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
	if villageID != nil {
		v := *villageID
		id.villageID = &v
		id.history = []VillageAssignment{{VillageID: v, From: from}}
	}
	return id
}

// Hydrate restores an identity from persistence without touching timestamps
// or the version stamp.
func Hydrate(
	id uuid.UUID,
	externalID string,
	email string,
	displayName string,
	department string,
	role string,
	villageID *uuid.UUID,
	history []VillageAssignment,
	version int64,
	createdAt, updatedAt time.Time,
) *Identity {
	return &Identity{
		id:          id,
		externalID:  externalID,
		email:       normalizeEmail(email),
		displayName: displayName,
		department:  department,
		role:        role,
		villageID:   villageID,
		history:     history,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (i *Identity) ID() uuid.UUID          { return i.id }
func (i *Identity) ExternalID() string     { return i.externalID }
func (i *Identity) Email() string          { return i.email }
func (i *Identity) DisplayName() string    { return i.displayName }
func (i *Identity) Department() string     { return i.department }
func (i *Identity) Role() string           { return i.role }
func (i *Identity) VillageID() *uuid.UUID  { return i.villageID }
func (i *Identity) Version() int64         { return i.version }
func (i *Identity) CreatedAt() time.Time   { return i.createdAt }
func (i *Identity) UpdatedAt() time.Time   { return i.updatedAt }
func (i *Identity) IsLinked() bool         { return i.externalID != "" }

// History returns the village assignments in chronological order. The slice
// is a copy; mutate the aggregate through its operations instead.
func (i *Identity) History() []VillageAssignment {
	out := make([]VillageAssignment, len(i.history))
	copy(out, i.history)
	return out
}

// OpenAssignment returns the currently open history entry, if any.
func (i *Identity) OpenAssignment() *VillageAssignment {
	for idx := range i.history {
		if i.history[idx].IsOpen() {
			a := i.history[idx]
			return &a
		}
	}
	return nil
}

// Link attaches the external directory id. Linking is one-way: an identity
// never changes to a different external id through this operation.
func (i *Identity) Link(externalID string) error {
	if i.externalID != "" && i.externalID != externalID {
		return errors.Errorf("identity %s is already linked to %s", i.id, i.externalID)
	}
	i.externalID = externalID
	i.touch()
	return nil
}

func (i *Identity) SetEmail(email string) {
	i.email = normalizeEmail(email)
	i.touch()
}

func (i *Identity) SetDisplayName(name string) {
	i.displayName = name
	i.touch()
}

func (i *Identity) SetDepartment(department string) {
	i.department = department
	i.touch()
}

func (i *Identity) SetRole(role string) {
	i.role = role
	i.touch()
}

// TransferVillage moves the identity to a new village at the given date:
// the open history entry is closed at `at` and a new open entry is appended.
// Transferring to the current village is a no-op.
func (i *Identity) TransferVillage(villageID uuid.UUID, at time.Time) error {
	if i.villageID != nil && *i.villageID == villageID {
		return nil
	}
	if err := i.closeOpenAssignment(at); err != nil {
		return err
	}
	v := villageID
	i.villageID = &v
	i.history = append(i.history, VillageAssignment{VillageID: v, From: at})
	i.touch()
	return nil
}

// ClearVillage removes the current assignment, closing the open history
// entry. Used when the directory reports a village this system does not know.
func (i *Identity) ClearVillage(at time.Time) error {
	if i.villageID == nil {
		return nil
	}
	if err := i.closeOpenAssignment(at); err != nil {
		return err
	}
	i.villageID = nil
	i.touch()
	return nil
}

func (i *Identity) closeOpenAssignment(at time.Time) error {
	open := -1
	for idx := range i.history {
		if i.history[idx].IsOpen() {
			if open >= 0 {
				return ErrOpenAssignmentExists
			}
			open = idx
		}
	}
	if open >= 0 {
		t := at
		i.history[open].To = &t
	}
	return nil
}

// touch updates the modification timestamp. The version stamp is advanced by
// the repository on a successful write, not here, so that an update can be
// checked against the version the aggregate was loaded with.
func (i *Identity) touch() {
	i.updatedAt = time.Now()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
