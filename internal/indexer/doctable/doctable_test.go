package doctable

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

func TestRegisterIsIdempotent(t *testing.T) {
	dt := New(16)

	first, err := dt.Register("docs/a.txt")
	require.NoError(t, err)
	second, err := dt.Register("docs/a.txt")
	require.NoError(t, err)

	assert.Equal(t, DocumentID(1), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, dt.Count())
}

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	dt := New(4)
	for i := 1; i <= 50; i++ {
		id, err := dt.Register(fmt.Sprintf("file-%d.txt", i))
		require.NoError(t, err)
		assert.Equal(t, DocumentID(i), id)
	}
	assert.Equal(t, 50, dt.Count())
	assert.Equal(t, DocumentID(50), dt.MaxID())
}

func TestLookups(t *testing.T) {
	dt := New(0)
	id, err := dt.Register("x.txt")
	require.NoError(t, err)

	assert.Equal(t, id, dt.LookupByName("x.txt"))
	assert.Equal(t, DocumentID(0), dt.LookupByName("y.txt"))

	name, ok, err := dt.LookupByID(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x.txt", name)

	_, ok, err = dt.LookupByID(99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMapsAreInverses(t *testing.T) {
	dt := New(8)
	for i := 0; i < 100; i++ {
		_, err := dt.Register(fmt.Sprintf("dir/%03d.md", i))
		require.NoError(t, err)
	}
	dt.IDTable().Range(func(id DocumentID, name string) bool {
		assert.Equal(t, id, dt.LookupByName(name))
		return true
	})
}

func TestContractViolations(t *testing.T) {
	dt := New(8)

	_, err := dt.Register("")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	_, _, err = dt.LookupByID(0)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestDestroy(t *testing.T) {
	dt := New(8)
	_, err := dt.Register("a")
	require.NoError(t, err)
	dt.Destroy()
	assert.Equal(t, 0, dt.Count())
	assert.Equal(t, DocumentID(0), dt.LookupByName("a"))
}

func TestRestoreKeepsIDs(t *testing.T) {
	dt := New(0)
	require.NoError(t, dt.Restore(7, "seven.txt"))
	require.NoError(t, dt.Restore(3, "three.txt"))
	assert.Equal(t, DocumentID(7), dt.MaxID())
	assert.Equal(t, DocumentID(3), dt.LookupByName("three.txt"))

	assert.True(t, errors.Is(dt.Restore(7, "other.txt"), apperrors.ErrInvalidArgument))
	assert.True(t, errors.Is(dt.Restore(9, "seven.txt"), apperrors.ErrInvalidArgument))

	id, err := dt.Register("next.txt")
	require.NoError(t, err)
	assert.Equal(t, DocumentID(8), id)
}
