package matching_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
	"github.com/villagepulse/villagepulse/modules/hris/domain/matching"
)

var villageV1 = uuid.New()

func record(externalID, email, villageCode string) directory.ExternalRecord {
	return directory.ExternalRecord{
		ExternalID:  externalID,
		Email:       email,
		DisplayName: "Test Person",
		Role:        "staff",
		Status:      directory.StatusActive,
		VillageCode: villageCode,
	}
}

func snapshot(identities ...*identity.Identity) *matching.Snapshot {
	return matching.NewSnapshot(identities, map[string]uuid.UUID{"V1": villageV1})
}

func existing(externalID, email string) *identity.Identity {
	return identity.New(externalID, email, "Existing Person", "", "staff", nil, time.Now())
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name         string
		record       directory.ExternalRecord
		view         *matching.Snapshot
		wantKind     matching.OutcomeKind
		wantConflict conflict.Kind
	}{
		{
			name:     "no existing identity creates",
			record:   record("E1", "a@x.com", "V1"),
			view:     snapshot(),
			wantKind: matching.OutcomeCreate,
		},
		{
			name:     "external id and email both match updates",
			record:   record("E1", "a@x.com", "V1"),
			view:     snapshot(existing("E1", "a@x.com")),
			wantKind: matching.OutcomeUpdate,
		},
		{
			name:         "external id match with differing email is email_change",
			record:       record("E1", "new@x.com", "V1"),
			view:         snapshot(existing("E1", "old@x.com")),
			wantKind:     matching.OutcomeConflict,
			wantConflict: conflict.KindEmailChange,
		},
		{
			name:         "email held by a different identity is duplicate_email",
			record:       record("E2", "a@x.com", "V1"),
			view:         snapshot(existing("E1", "a@x.com")),
			wantKind:     matching.OutcomeConflict,
			wantConflict: conflict.KindDuplicateEmail,
		},
		{
			name:         "email held by an unlinked identity is duplicate_email",
			record:       record("E2", "a@x.com", "V1"),
			view:         snapshot(existing("", "a@x.com")),
			wantKind:     matching.OutcomeConflict,
			wantConflict: conflict.KindDuplicateEmail,
		},
		{
			name:         "unknown village downgrades create to village_not_found",
			record:       record("E1", "a@x.com", "V99"),
			view:         snapshot(),
			wantKind:     matching.OutcomeConflict,
			wantConflict: conflict.KindVillageNotFound,
		},
		{
			name:         "unknown village downgrades update to village_not_found",
			record:       record("E1", "a@x.com", "V99"),
			view:         snapshot(existing("E1", "a@x.com")),
			wantKind:     matching.OutcomeConflict,
			wantConflict: conflict.KindVillageNotFound,
		},
		{
			name:     "record without village skips the village check",
			record:   record("E1", "a@x.com", ""),
			view:     snapshot(),
			wantKind: matching.OutcomeCreate,
		},
		{
			name:     "email comparison is case insensitive",
			record:   record("E1", "A@X.com", ""),
			view:     snapshot(existing("E1", "a@x.com")),
			wantKind: matching.OutcomeUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := matching.Match(tt.record, tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, out.Kind)
			if tt.wantKind == matching.OutcomeConflict {
				assert.Equal(t, tt.wantConflict, out.ConflictKind)
			}
			if out.Kind == matching.OutcomeUpdate {
				require.NotNil(t, out.Target)
			}
		})
	}
}

func TestMatch_PrimaryKeyPrecedence(t *testing.T) {
	// One identity holds the record's external id, a different identity
	// holds the record's email. The id match must win: the outcome is
	// email_change against the id-matched identity, never a create or a
	// duplicate_email against the other one.
	byID := existing("E1", "old@x.com")
	byEmail := existing("E2", "new@x.com")
	view := snapshot(byID, byEmail)

	out, err := matching.Match(record("E1", "new@x.com", ""), view)
	require.NoError(t, err)

	assert.Equal(t, matching.OutcomeConflict, out.Kind)
	assert.Equal(t, conflict.KindEmailChange, out.ConflictKind)
	require.NotNil(t, out.Candidate)
	assert.Equal(t, byID.ID(), out.Candidate.ID())
}

func TestMatch_Deterministic(t *testing.T) {
	view := snapshot(existing("E1", "a@x.com"), existing("E2", "b@x.com"))
	rec := record("E1", "b@x.com", "V1")

	first, err := matching.Match(rec, view)
	require.NoError(t, err)
	for range 10 {
		again, err := matching.Match(rec, view)
		require.NoError(t, err)
		assert.Equal(t, first.Kind, again.Kind)
		assert.Equal(t, first.ConflictKind, again.ConflictKind)
		assert.Equal(t, first.Candidate, again.Candidate)
	}
}

func TestMatch_MalformedRecord(t *testing.T) {
	tests := []struct {
		name   string
		record directory.ExternalRecord
	}{
		{"missing external id", record("", "a@x.com", "")},
		{"missing email", record("E1", "", "")},
		{"malformed email", record("E1", "not-an-email", "")},
		{"unknown status", directory.ExternalRecord{ExternalID: "E1", Email: "a@x.com", Status: "retired"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := matching.Match(tt.record, snapshot())
			require.Error(t, err)
		})
	}
}

func TestSnapshot_PutRefreshesIndexes(t *testing.T) {
	id := existing("E1", "old@x.com")
	view := snapshot(id)

	id.SetEmail("new@x.com")
	view.Put(id)

	assert.Nil(t, view.ByEmail("old@x.com"))
	require.NotNil(t, view.ByEmail("new@x.com"))
	assert.Equal(t, id.ID(), view.ByEmail("new@x.com").ID())
	assert.Equal(t, id.ID(), view.ByExternalID("E1").ID())
}
