package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/couchcryptid/forecast-ingest/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	doc, err := domain.ParseDocument([]byte(hourlySample))
	require.NoError(t, err)

	rec, err := domain.NewRecord("0b6f5a9e-7c1d-4f3a-9c55-1d2e3f4a5b6c", doc)
	require.NoError(t, err)

	assert.Equal(t, "0b6f5a9e-7c1d-4f3a-9c55-1d2e3f4a5b6c", rec.ID)
	assertSameJSON(t, hourlySample, rec.Forecast)
}

func TestNewRecord_EmptyID(t *testing.T) {
	_, err := domain.NewRecord("", domain.Document{})
	require.Error(t, err)
}

func TestNewID_IsUniqueUUID(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)

	for range n {
		id := domain.NewID()

		parsed, err := uuid.Parse(id)
		require.NoError(t, err, id)
		require.Equal(t, uuid.Version(4), parsed.Version())

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestStageError_Is(t *testing.T) {
	cause := errors.New("connection refused")

	cases := []struct {
		stage    domain.Stage
		sentinel error
	}{
		{domain.StageFetch, domain.ErrFetch},
		{domain.StageDecode, domain.ErrDecode},
		{domain.StageStore, domain.ErrStore},
	}

	for _, tc := range cases {
		t.Run(string(tc.stage), func(t *testing.T) {
			err := fmt.Errorf("invocation: %w", &domain.StageError{Stage: tc.stage, Err: cause})

			assert.ErrorIs(t, err, tc.sentinel)
			assert.ErrorIs(t, err, cause)
			assert.Contains(t, err.Error(), "connection refused")

			stage, ok := domain.StageOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.stage, stage)
		})
	}

	err := &domain.StageError{Stage: domain.StageFetch, Err: cause}
	assert.NotErrorIs(t, err, domain.ErrStore)
}

func TestStageOf_PlainError(t *testing.T) {
	_, ok := domain.StageOf(errors.New("plain"))
	assert.False(t, ok)
}
