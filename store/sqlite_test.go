package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipes_backend/models"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, newTestSQLite(t))
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestSQLiteFindPreservesInsertOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	var want []string
	for i := range 3 {
		r, err := s.Recipes().Create(ctx, newRecipe(fmt.Sprintf("recipe-%d", i)))
		require.NoError(t, err)
		want = append(want, r.ID)
	}

	all, err := s.Recipes().Find(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, r := range all {
		assert.Equal(t, want[i], r.ID)
	}
}

func TestSQLiteConcurrentAppendsAreNotLost(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	user := &models.User{ID: uuid.New().String(), Username: "racer", PasswordHash: "hash"}
	require.NoError(t, s.Users().Create(ctx, user))
	recipe, err := s.Recipes().Create(ctx, newRecipe("Race"))
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().AppendSavedRecipe(ctx, user.ID, recipe.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, got.SavedRecipes, n)
}
