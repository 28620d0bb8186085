package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

func TestMemoryStoreListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Entry{Path: "old.idx", CreatedAt: base}))
	require.NoError(t, s.Record(ctx, Entry{Path: "new.idx", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Record(ctx, Entry{Path: "a.idx", CreatedAt: base}))

	paths, err := Paths(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.idx", "a.idx", "old.idx"}, paths)
}

func TestMemoryStoreRecordReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Record(ctx, Entry{Path: "x.idx", Documents: 1}))
	require.NoError(t, s.Record(ctx, Entry{Path: "x.idx", Documents: 3, Checksum: 0xCAFE}))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Documents)
	assert.Equal(t, uint32(0xCAFE), entries[0].Checksum)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecordRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.Record(ctx, Entry{})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	err = s.Record(ctx, Entry{Path: "x.idx", Words: -1})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
