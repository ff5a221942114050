package matching

import (
	"strings"

	"github.com/google/uuid"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
)

// Snapshot is an in-memory index of the identity store loaded once at the
// start of a sync run. The orchestrator keeps it current as the run creates
// and mutates identities, so later records in the same batch see the writes
// of earlier ones.
type Snapshot struct {
	byID          map[uuid.UUID]*identity.Identity
	byExternalID  map[string]*identity.Identity
	byEmail       map[string]*identity.Identity
	villageByCode map[string]uuid.UUID
	// indexed remembers the keys each identity is currently filed under.
	// Callers mutate identities in place, so the stale keys cannot be
	// recovered from the identity itself at re-Put time.
	indexed map[uuid.UUID]indexKeys
}

type indexKeys struct {
	email      string
	externalID string
}

func NewSnapshot(identities []*identity.Identity, villageByCode map[string]uuid.UUID) *Snapshot {
	s := &Snapshot{
		byID:          make(map[uuid.UUID]*identity.Identity, len(identities)),
		byExternalID:  make(map[string]*identity.Identity, len(identities)),
		byEmail:       make(map[string]*identity.Identity, len(identities)),
		villageByCode: villageByCode,
		indexed:       make(map[uuid.UUID]indexKeys, len(identities)),
	}
	for _, id := range identities {
		s.Put(id)
	}
	return s
}

func (s *Snapshot) ByExternalID(externalID string) *identity.Identity {
	if externalID == "" {
		return nil
	}
	return s.byExternalID[externalID]
}

func (s *Snapshot) ByEmail(email string) *identity.Identity {
	return s.byEmail[strings.ToLower(strings.TrimSpace(email))]
}

func (s *Snapshot) VillageExists(code string) bool {
	_, ok := s.villageByCode[code]
	return ok
}

// VillageID resolves a village code to its id. The bool is false for codes
// this system does not know.
func (s *Snapshot) VillageID(code string) (uuid.UUID, bool) {
	id, ok := s.villageByCode[code]
	return id, ok
}

// Put inserts or refreshes one identity in the index. Stale keys from the
// identity's previous Put are evicted first.
func (s *Snapshot) Put(id *identity.Identity) {
	if prev, ok := s.indexed[id.ID()]; ok {
		if prev.email != "" && prev.email != id.Email() {
			delete(s.byEmail, prev.email)
		}
		if prev.externalID != "" && prev.externalID != id.ExternalID() {
			delete(s.byExternalID, prev.externalID)
		}
	}
	s.byID[id.ID()] = id
	if id.ExternalID() != "" {
		s.byExternalID[id.ExternalID()] = id
	}
	if id.Email() != "" {
		s.byEmail[id.Email()] = id
	}
	s.indexed[id.ID()] = indexKeys{email: id.Email(), externalID: id.ExternalID()}
}
