package models

import (
	"time"

	"github.com/google/uuid"
)

type Village struct {
	ID        uuid.UUID
	Code      string
	Name      string
	District  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	UILanguage  string
	CreatedAt   time.Time
}
