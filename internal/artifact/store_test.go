package artifact

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T) Store {
	t.Helper()
	return NewStoreWithBase(fmt.Sprintf("mem://artifacts/%s", t.Name()))
}

func TestPutGetRoundTrip(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "req-1", "json", []byte(`{"userId":"user-1"}`))
	require.NoError(t, err)
	assert.Contains(t, ref, "req-1.json")

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, `{"userId":"user-1"}`, string(data))
}

func TestExistsAndDelete(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "req-2", "csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)

	exists, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, ref))

	exists, err = store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetMissingArtifactFails(t *testing.T) {
	store := memStore(t)

	_, err := store.Get(context.Background(), "mem://artifacts/nowhere/missing.json")
	assert.Error(t, err)
}

func TestPutOverwritesExisting(t *testing.T) {
	store := memStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "req-3", "json", []byte("v1"))
	require.NoError(t, err)
	ref, err := store.Put(ctx, "req-3", "json", []byte("v2"))
	require.NoError(t, err)

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
