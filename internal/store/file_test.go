package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, KeyTheme)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	require.NoError(t, s.Set(ctx, KeyAPIKey, "abc"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
	v, err = reopened.Get(ctx, KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	_, err = s.Get(context.Background(), KeyHistory)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_NoDisk(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	v, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, Update(ctx, s, "list", func(cur string) (string, error) {
		assert.Equal(t, "", cur)
		return "a", nil
	}))
	require.NoError(t, Update(ctx, s, "list", func(cur string) (string, error) {
		return cur + "b", nil
	}))
	v, _ := s.Get(ctx, "list")
	assert.Equal(t, "ab", v)

	boom := errors.New("boom")
	err := Update(ctx, s, "list", func(string) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	v, _ = s.Get(ctx, "list")
	assert.Equal(t, "ab", v)
}

func TestUpdate_ConcurrentWritersKeepEveryChange(t *testing.T) {
	ctx := context.Background()
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, Update(ctx, s, "list", func(cur string) (string, error) {
				return cur + "x", nil
			}))
		}()
	}
	wg.Wait()

	v, err := s.Get(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 20), v)
}

// updaterOnly fails plain reads so only its atomic Update can succeed.
type updaterOnly struct {
	*FileStore
	updates int
}

func (u *updaterOnly) Get(context.Context, string) (string, error) {
	return "", errors.New("plain read not allowed")
}

func (u *updaterOnly) Update(ctx context.Context, key string, fn func(string) (string, error)) error {
	u.updates++
	return u.FileStore.Update(ctx, key, fn)
}

func TestUpdate_PrefersStoreUpdater(t *testing.T) {
	s := &updaterOnly{FileStore: NewMemoryStore()}
	require.NoError(t, Update(context.Background(), s, "k", func(cur string) (string, error) {
		return cur + "v", nil
	}))
	assert.Equal(t, 1, s.updates)
	v, err := s.FileStore.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
