package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

type UILanguage string

const (
	UILanguageEN UILanguage = "en"
	UILanguageZH UILanguage = "zh"
)

// User is the authenticated product actor. The HRIS sync engine reconciles
// local identities, not users; users trigger runs and resolve conflicts.
type User struct {
	id          uuid.UUID
	email       string
	displayName string
	role        Role
	uiLanguage  UILanguage
	createdAt   time.Time
}

func New(email, displayName string, role Role) User {
	return User{
		id:          uuid.New(),
		email:       normalizeEmail(email),
		displayName: strings.TrimSpace(displayName),
		role:        role,
		uiLanguage:  UILanguageEN,
	}
}

func Hydrate(
	id uuid.UUID,
	email string,
	displayName string,
	role Role,
	uiLanguage UILanguage,
	createdAt time.Time,
) User {
	return User{
		id:          id,
		email:       normalizeEmail(email),
		displayName: strings.TrimSpace(displayName),
		role:        role,
		uiLanguage:  uiLanguage,
		createdAt:   createdAt,
	}
}

func (u User) ID() uuid.UUID          { return u.id }
func (u User) Email() string          { return u.email }
func (u User) DisplayName() string    { return u.displayName }
func (u User) Role() Role             { return u.role }
func (u User) UILanguage() UILanguage { return u.uiLanguage }
func (u User) CreatedAt() time.Time   { return u.createdAt }
func (u User) IsZero() bool           { return u.id == uuid.Nil }
func (u User) IsAdmin() bool          { return u.role == RoleAdmin }

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
