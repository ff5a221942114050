package directory

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Status is the lifecycle state of an employee in the external directory.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeparted Status = "departed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDeparted:
		return true
	}
	return false
}

// ExternalRecord is one employee snapshot pulled from the directory source.
// It is immutable once fetched: the sync run that pulled it owns it, and
// conflicts embed a copy rather than a live reference.
type ExternalRecord struct {
	ExternalID      string     `json:"external_id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Department      string     `json:"department"`
	VillageCode     string     `json:"village_code,omitempty"`
	Role            string     `json:"role"`
	Status          Status     `json:"status"`
	EffectiveFrom   time.Time  `json:"effective_from"`
	EffectiveTo     *time.Time `json:"effective_to,omitempty"`
	TransferDate    *time.Time `json:"transfer_date,omitempty"`
	PrevVillageCode string     `json:"prev_village_code,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate rejects records the matcher cannot reason about. A record that
// fails here counts as a per-record failure, not a conflict.
func (r ExternalRecord) Validate() error {
	if strings.TrimSpace(r.ExternalID) == "" {
		return errors.New("external record is missing an external id")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.Errorf("external record %s is missing an email", r.ExternalID)
	}
	if !strings.Contains(r.Email, "@") {
		return errors.Errorf("external record %s has a malformed email %q", r.ExternalID, r.Email)
	}
	if !r.Status.IsValid() {
		return errors.Errorf("external record %s has unknown status %q", r.ExternalID, r.Status)
	}
	return nil
}

// NormalizedEmail is the comparison form used for all matching decisions.
func (r ExternalRecord) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// HasVillage reports whether the source assigned the employee to a village.
func (r ExternalRecord) HasVillage() bool {
	return strings.TrimSpace(r.VillageCode) != ""
}
