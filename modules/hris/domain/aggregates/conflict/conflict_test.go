package conflict_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagepulse/villagepulse/modules/hris/domain/aggregates/conflict"
	"github.com/villagepulse/villagepulse/modules/hris/domain/directory"
)

func sampleRecord() directory.ExternalRecord {
	return directory.ExternalRecord{
		ExternalID:  "E1",
		Email:       "new@x.com",
		DisplayName: "Alice",
		Role:        "staff",
		Status:      directory.StatusActive,
	}
}

func TestResolve(t *testing.T) {
	candidate := &conflict.CandidateSnapshot{ID: uuid.New(), Email: "old@x.com"}
	c := conflict.New(uuid.New(), conflict.KindEmailChange, sampleRecord(), candidate)
	require.Equal(t, conflict.StatusPending, c.Status())

	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Resolve(conflict.ResolutionUseHRIS, nil, "admin@x.com", "verified with HR", at))

	assert.True(t, c.IsResolved())
	assert.Equal(t, conflict.ResolutionUseHRIS, c.Resolution())
	assert.Equal(t, "admin@x.com", c.ResolvedBy())
	require.NotNil(t, c.ResolvedAt())
	assert.True(t, c.ResolvedAt().Equal(at))
	assert.Equal(t, "verified with HR", c.Notes())
}

func TestResolve_AlreadyResolved(t *testing.T) {
	c := conflict.New(uuid.New(), conflict.KindDuplicateEmail, sampleRecord(), nil)
	require.NoError(t, c.Resolve(conflict.ResolutionKeepSystem, nil, "admin@x.com", "", time.Now()))

	err := c.Resolve(conflict.ResolutionCreateNew, nil, "admin@x.com", "", time.Now())
	require.ErrorIs(t, err, conflict.ErrAlreadyResolved)
	assert.Equal(t, conflict.ResolutionKeepSystem, c.Resolution(), "first resolution stays in place")
}

func TestResolve_InvalidChoices(t *testing.T) {
	t.Run("unknown resolution", func(t *testing.T) {
		c := conflict.New(uuid.New(), conflict.KindDataMismatch, sampleRecord(), nil)
		err := c.Resolve("delete_everything", nil, "admin@x.com", "", time.Now())
		require.ErrorIs(t, err, conflict.ErrInvalidResolution)
		assert.False(t, c.IsResolved())
	})

	t.Run("merge without directive", func(t *testing.T) {
		c := conflict.New(uuid.New(), conflict.KindDataMismatch, sampleRecord(), nil)
		err := c.Resolve(conflict.ResolutionMerge, nil, "admin@x.com", "", time.Now())
		require.ErrorIs(t, err, conflict.ErrInvalidResolution)
	})

	t.Run("directive on non-merge resolution", func(t *testing.T) {
		c := conflict.New(uuid.New(), conflict.KindDataMismatch, sampleRecord(), nil)
		directive := &conflict.MergeDirective{Email: conflict.SourceHRIS}
		err := c.Resolve(conflict.ResolutionKeepSystem, directive, "admin@x.com", "", time.Now())
		require.ErrorIs(t, err, conflict.ErrInvalidResolution)
	})

	t.Run("use_hris without candidate", func(t *testing.T) {
		c := conflict.New(uuid.New(), conflict.KindDuplicateEmail, sampleRecord(), nil)
		err := c.Resolve(conflict.ResolutionUseHRIS, nil, "admin@x.com", "", time.Now())
		require.ErrorIs(t, err, conflict.ErrInvalidResolution)
	})
}

func TestResolve_MergeDirective(t *testing.T) {
	candidate := &conflict.CandidateSnapshot{ID: uuid.New(), Email: "old@x.com"}
	c := conflict.New(uuid.New(), conflict.KindDataMismatch, sampleRecord(), candidate)

	directive := &conflict.MergeDirective{
		Email:   conflict.SourceHRIS,
		Village: conflict.SourceSystem,
	}
	require.NoError(t, c.Resolve(conflict.ResolutionMerge, directive, "admin@x.com", "", time.Now()))
	require.NotNil(t, c.Merge())
	assert.Equal(t, conflict.SourceHRIS, c.Merge().Email)
}

func TestMergeDirective_Validate(t *testing.T) {
	valid := conflict.MergeDirective{Email: conflict.SourceHRIS, Role: conflict.SourceSystem}
	require.NoError(t, valid.Validate())

	invalid := conflict.MergeDirective{Email: "hr_wins"}
	require.ErrorIs(t, invalid.Validate(), conflict.ErrInvalidResolution)
}
