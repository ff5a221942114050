package identity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/identity"
)

func openCount(id *identity.Identity) int {
	n := 0
	for _, a := range id.History() {
		if a.IsOpen() {
			n++
		}
	}
	return n
}

func TestNew_WithVillageOpensHistory(t *testing.T) {
	village := uuid.New()
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	id := identity.New("E1", "A@X.com", "Alice", "Field Ops", "staff", &village, from)

	require.NotNil(t, id.VillageID())
	assert.Equal(t, village, *id.VillageID())
	assert.Equal(t, "a@x.com", id.Email(), "email is normalized on construction")
	assert.Equal(t, int64(1), id.Version())

	history := id.History()
	require.Len(t, history, 1)
	assert.Equal(t, village, history[0].VillageID)
	assert.True(t, history[0].From.Equal(from))
	assert.True(t, history[0].IsOpen())
}

func TestNew_WithoutVillageHasNoHistory(t *testing.T) {
	id := identity.New("E1", "a@x.com", "Alice", "", "staff", nil, time.Now())

	assert.Nil(t, id.VillageID())
	assert.Empty(t, id.History())
	assert.Nil(t, id.OpenAssignment())
}

func TestTransferVillage_ClosesThenOpens(t *testing.T) {
	v1 := uuid.New()
	v2 := uuid.New()
	d0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	id := identity.New("E1", "a@x.com", "Alice", "", "staff", &v1, d0)
	require.NoError(t, id.TransferVillage(v2, d1))

	require.NotNil(t, id.VillageID())
	assert.Equal(t, v2, *id.VillageID())

	history := id.History()
	require.Len(t, history, 2)
	assert.Equal(t, v1, history[0].VillageID)
	require.NotNil(t, history[0].To)
	assert.True(t, history[0].To.Equal(d1))
	assert.Equal(t, v2, history[1].VillageID)
	assert.True(t, history[1].IsOpen())
}

func TestTransferVillage_SameVillageIsNoop(t *testing.T) {
	v1 := uuid.New()
	id := identity.New("E1", "a@x.com", "Alice", "", "staff", &v1, time.Now())

	require.NoError(t, id.TransferVillage(v1, time.Now()))
	assert.Len(t, id.History(), 1)
	assert.True(t, id.History()[0].IsOpen())
}

func TestHistory_AtMostOneOpenEntry(t *testing.T) {
	v1 := uuid.New()
	id := identity.New("E1", "a@x.com", "Alice", "", "staff", &v1, time.Now())

	for range 20 {
		require.NoError(t, id.TransferVillage(uuid.New(), time.Now()))
		assert.Equal(t, 1, openCount(id))
	}
	require.NoError(t, id.ClearVillage(time.Now()))
	assert.Equal(t, 0, openCount(id))

	require.NoError(t, id.TransferVillage(uuid.New(), time.Now()))
	assert.Equal(t, 1, openCount(id))
	assert.Len(t, id.History(), 22)
}

func TestClearVillage(t *testing.T) {
	v1 := uuid.New()
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	id := identity.New("E1", "a@x.com", "Alice", "", "staff", &v1, time.Now())

	require.NoError(t, id.ClearVillage(at))
	assert.Nil(t, id.VillageID())
	require.Len(t, id.History(), 1)
	require.NotNil(t, id.History()[0].To)
	assert.True(t, id.History()[0].To.Equal(at))

	// clearing again is a no-op
	require.NoError(t, id.ClearVillage(at.Add(time.Hour)))
	assert.Len(t, id.History(), 1)
}

func TestLink(t *testing.T) {
	id := identity.New("", "a@x.com", "Alice", "", "staff", nil, time.Now())
	assert.False(t, id.IsLinked())

	require.NoError(t, id.Link("E9"))
	assert.True(t, id.IsLinked())
	assert.Equal(t, "E9", id.ExternalID())

	// relinking to the same id is allowed, to a different one is not
	require.NoError(t, id.Link("E9"))
	assert.Error(t, id.Link("E10"))
	assert.Equal(t, "E9", id.ExternalID())
}

func TestHistory_ReturnsCopy(t *testing.T) {
	v1 := uuid.New()
	id := identity.New("E1", "a@x.com", "Alice", "", "staff", &v1, time.Now())

	history := id.History()
	history[0].VillageID = uuid.New()

	assert.Equal(t, v1, id.History()[0].VillageID)
}
