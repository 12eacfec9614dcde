package vm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegarsten/a64vm/cpu"
)

// storeUnderTest runs the same behavioral checks against any backend.
func storeUnderTest(t *testing.T, s cpu.Store) {
	t.Helper()

	require.NoError(t, s.Create("a.txt"))
	assert.True(t, s.Exists("a.txt"))
	assert.ErrorIs(t, s.Create("a.txt"), ErrFileExists)

	require.NoError(t, s.Write("a.txt", []byte("contents")))
	data, err := s.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), data)

	// Empty files read back empty, not as missing.
	require.NoError(t, s.Create("empty"))
	data, err = s.Read("empty")
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, s.Copy("a.txt", "b.txt"))
	assert.True(t, s.Exists("a.txt"))
	data, err = s.Read("b.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), data)

	require.NoError(t, s.Move("b.txt", "c.txt"))
	assert.False(t, s.Exists("b.txt"))
	assert.True(t, s.Exists("c.txt"))

	require.NoError(t, s.Delete("c.txt"))
	assert.False(t, s.Exists("c.txt"))

	_, err = s.Read("missing")
	assert.ErrorIs(t, err, ErrNoFile)
	assert.ErrorIs(t, s.Delete("missing"), ErrNoFile)
	assert.ErrorIs(t, s.Copy("missing", "x"), ErrNoFile)
	assert.ErrorIs(t, s.Move("missing", "x"), ErrNoFile)

	// Writing without a prior create is allowed.
	require.NoError(t, s.Write("direct", []byte{1, 2, 3}))
	assert.True(t, s.Exists("direct"))
}

func TestMemStore(t *testing.T) {
	storeUnderTest(t, NewMemStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.db")
	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	storeUnderTest(t, s)
}

func TestBoltStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "files.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Write("kept", []byte("across runs")))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	data, err := s.Read("kept")
	require.NoError(t, err)
	assert.Equal(t, []byte("across runs"), data)
}
