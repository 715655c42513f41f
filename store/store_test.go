package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipes_backend/models"
)

// runStoreTests exercises the behaviour every backend must share.
func runStoreTests(t *testing.T, s Store) {
	t.Run("recipe lifecycle", func(t *testing.T) { testRecipeLifecycle(t, s.Recipes()) })
	t.Run("find by ids", func(t *testing.T) { testFindByIDs(t, s.Recipes()) })
	t.Run("update merges", func(t *testing.T) { testUpdateMerges(t, s.Recipes()) })
	t.Run("missing recipe", func(t *testing.T) { testMissingRecipe(t, s.Recipes()) })
	t.Run("users", func(t *testing.T) { testUsers(t, s.Users()) })
	t.Run("append saved recipe", func(t *testing.T) { testAppendSavedRecipe(t, s) })
	t.Run("append deleted recipe", func(t *testing.T) { testAppendDeletedRecipe(t, s) })
}

func newRecipe(name string) *models.Recipe {
	return &models.Recipe{
		ID:           uuid.New().String(),
		Name:         name,
		Image:        name + ".png",
		Ingredients:  []string{"water", "salt"},
		Instructions: "boil",
		Extra:        map[string]any{"cookingTime": 20.0},
	}
}

func testRecipeLifecycle(t *testing.T, recipes RecipeStore) {
	ctx := context.Background()

	created, err := recipes.Create(ctx, newRecipe("Soup"))
	require.NoError(t, err)

	got, err := recipes.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Name)
	assert.Equal(t, "Soup.png", got.Image)
	assert.Equal(t, []string{"water", "salt"}, got.Ingredients)
	assert.Equal(t, "boil", got.Instructions)
	assert.EqualValues(t, 20, got.Extra["cookingTime"])

	all, err := recipes.Find(ctx)
	require.NoError(t, err)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, created.ID)

	deleted, err := recipes.FindByIDAndDelete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	assert.Equal(t, "Soup", deleted.Name)

	_, err = recipes.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testFindByIDs(t *testing.T, recipes RecipeStore) {
	ctx := context.Background()

	a, err := recipes.Create(ctx, newRecipe("A"))
	require.NoError(t, err)
	b, err := recipes.Create(ctx, newRecipe("B"))
	require.NoError(t, err)

	got, err := recipes.FindByIDs(ctx, []string{b.ID, uuid.New().String(), a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	empty, err := recipes.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testUpdateMerges(t *testing.T, recipes RecipeStore) {
	ctx := context.Background()

	created, err := recipes.Create(ctx, newRecipe("Soup"))
	require.NoError(t, err)

	patch, err := models.NewPatch(map[string]any{"name": "Stew", "_id": "other", "servings": 4.0})
	require.NoError(t, err)

	updated, err := recipes.FindByIDAndUpdate(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Stew", updated.Name)
	assert.Equal(t, "Soup.png", updated.Image)
	assert.Equal(t, []string{"water", "salt"}, updated.Ingredients)
	assert.EqualValues(t, 4, updated.Extra["servings"])
	assert.EqualValues(t, 20, updated.Extra["cookingTime"])

	got, err := recipes.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stew", got.Name)
	assert.Equal(t, "boil", got.Instructions)
}

func testMissingRecipe(t *testing.T, recipes RecipeStore) {
	ctx := context.Background()
	id := uuid.New().String()

	_, err := recipes.FindByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = recipes.FindByIDAndUpdate(ctx, id, models.Patch{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = recipes.FindByIDAndDelete(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testUsers(t *testing.T, users UserStore) {
	ctx := context.Background()
	name := "cook-" + uuid.New().String()

	user := &models.User{ID: uuid.New().String(), Username: name, PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, user))

	byID, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, name, byID.Username)
	assert.Equal(t, "hash", byID.PasswordHash)
	assert.Empty(t, byID.SavedRecipes)
	assert.NotNil(t, byID.SavedRecipes)

	byName, err := users.FindByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	err = users.Create(ctx, &models.User{ID: uuid.New().String(), Username: name, PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = users.FindByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindByUsername(ctx, "nobody-"+uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)
}

func testAppendSavedRecipe(t *testing.T, s Store) {
	ctx := context.Background()
	users := s.Users()

	recipe, err := s.Recipes().Create(ctx, newRecipe("Saved"))
	require.NoError(t, err)
	user := &models.User{ID: uuid.New().String(), Username: "saver-" + uuid.New().String(), PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, user))

	saved, err := users.AppendSavedRecipe(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{recipe.ID}, saved)

	saved, err = users.AppendSavedRecipe(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{recipe.ID, recipe.ID}, saved)

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{recipe.ID, recipe.ID}, got.SavedRecipes)

	_, err = users.AppendSavedRecipe(ctx, uuid.New().String(), recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testAppendDeletedRecipe(t *testing.T, s Store) {
	ctx := context.Background()

	recipe, err := s.Recipes().Create(ctx, newRecipe("Gone"))
	require.NoError(t, err)
	user := &models.User{ID: uuid.New().String(), Username: "saver-" + uuid.New().String(), PasswordHash: "hash"}
	require.NoError(t, s.Users().Create(ctx, user))

	_, err = s.Recipes().FindByIDAndDelete(ctx, recipe.ID)
	require.NoError(t, err)

	_, err = s.Users().AppendSavedRecipe(ctx, user.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Users().FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SavedRecipes)
}
