package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Firestore emulator only.
func newEmulatorStores(t *testing.T, n int) []*FirestoreStore {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	collection := fmt.Sprintf("test-%d", time.Now().UnixNano())
	stores := make([]*FirestoreStore, n)
	for i := range stores {
		s, err := NewFirestoreStore(context.Background(), "demo-translator", collection)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		stores[i] = s
	}
	return stores
}

func TestFirestoreStore_RoundTrip(t *testing.T) {
	s := newEmulatorStores(t, 1)[0]
	ctx := context.Background()

	_, err := s.Get(ctx, KeyTheme)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Set(ctx, KeyTheme, "dark"))
	v, err := s.Get(ctx, KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestFirestoreStore_UpdateAcrossClients(t *testing.T) {
	stores := newEmulatorStores(t, 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(s *FirestoreStore) {
			defer wg.Done()
			assert.NoError(t, Update(ctx, s, KeyHistory, func(cur string) (string, error) {
				return cur + "x", nil
			}))
		}(stores[i%2])
	}
	wg.Wait()

	v, err := stores[0].Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 10), v, "no update is lost between instances")
}
