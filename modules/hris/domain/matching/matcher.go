// Package matching holds the pure reconciliation decision logic: given one
// external record and a read-only view of the local identity store, decide
// whether the record denotes a new identity, an update to an existing one, or
// a conflicting state. No I/O happens here.
package matching

import (
	"github.com/go-faster/errors"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
)

type OutcomeKind string

const (
	OutcomeCreate   OutcomeKind = "create"
	OutcomeUpdate   OutcomeKind = "update"
	OutcomeConflict OutcomeKind = "conflict"
)

// Outcome is the matcher's decision for one record. Target is set for
// updates; Candidate is the best-guess identity for conflicts and may be nil
// (e.g. village_not_found on a brand-new record).
type Outcome struct {
	Kind         OutcomeKind
	Target       *identity.Identity
	ConflictKind conflict.Kind
	Candidate    *identity.Identity
}

// View is the read-only identity-store snapshot the matcher decides against.
type View interface {
	ByExternalID(externalID string) *identity.Identity
	ByEmail(email string) *identity.Identity
	VillageExists(code string) bool
}

// Match decides the outcome for one record. Deterministic and side-effect
// free: the same record and view always produce the same outcome. Business
// ambiguity is a conflict outcome, never an error; only malformed records
// error out.
func Match(record directory.ExternalRecord, view View) (Outcome, error) {
	if err := record.Validate(); err != nil {
		return Outcome{}, errors.Wrap(err, "match")
	}

	email := record.NormalizedEmail()

	// Primary key match always wins over the email fallback. An id match
	// with a differing email is reported as email_change, never merged
	// silently.
	if byID := view.ByExternalID(record.ExternalID); byID != nil {
		if byID.Email() == email {
			return withVillageCheck(record, view, Outcome{Kind: OutcomeUpdate, Target: byID}), nil
		}
		return Outcome{
			Kind:         OutcomeConflict,
			ConflictKind: conflict.KindEmailChange,
			Candidate:    byID,
		}, nil
	}

	if byEmail := view.ByEmail(email); byEmail != nil {
		if byEmail.ExternalID() == record.ExternalID {
			return withVillageCheck(record, view, Outcome{Kind: OutcomeUpdate, Target: byEmail}), nil
		}
		return Outcome{
			Kind:         OutcomeConflict,
			ConflictKind: conflict.KindDuplicateEmail,
			Candidate:    byEmail,
		}, nil
	}

	return withVillageCheck(record, view, Outcome{Kind: OutcomeCreate}), nil
}

// withVillageCheck downgrades a create/update to village_not_found when the
// record names a village this system does not know.
func withVillageCheck(record directory.ExternalRecord, view View, out Outcome) Outcome {
	if !record.HasVillage() || view.VillageExists(record.VillageCode) {
		return out
	}
	return Outcome{
		Kind:         OutcomeConflict,
		ConflictKind: conflict.KindVillageNotFound,
		Candidate:    out.Target,
	}
}
