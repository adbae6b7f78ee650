package scope

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scope.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	defer store.Close()

	id, err := store.Get()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.Set("11111111-1111-1111-1111-111111111111"))
	require.NoError(t, store.Set("22222222-2222-2222-2222-222222222222"))

	id, err = store.Get()
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", id)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scope.db")

	store, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("11111111-1111-1111-1111-111111111111"))
	require.NoError(t, store.Close())

	reopened, err := OpenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	id, err := reopened.Get()
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", id)
}
