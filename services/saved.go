package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "recipes_backend/errors"
	"recipes_backend/metrics"
	"recipes_backend/models"
	"recipes_backend/store"
)

const (
	msgUserNotFound         = "User not found"
	msgUserOrRecipeNotFound = "User or Recipe not found"
)

// SavedRecipeService manages the ordered, duplicate-permitting list of recipe
// ids each user has saved.
type SavedRecipeService struct {
	users   store.UserStore
	recipes store.RecipeStore
	metrics *metrics.Metrics
}

// NewSavedRecipeService creates a new SavedRecipeService. m may be nil.
func NewSavedRecipeService(users store.UserStore, recipes store.RecipeStore, m *metrics.Metrics) *SavedRecipeService {
	return &SavedRecipeService{users: users, recipes: recipes, metrics: m}
}

// Save appends recipeID to the user's saved list and returns the whole list.
// Saving the same recipe twice stores it twice. A missing user and a missing
// recipe produce the same not-found error. The store repeats the recipe
// check inside the append, so a recipe deleted after the lookups is not saved.
func (s *SavedRecipeService) Save(ctx context.Context, userID, recipeID string) ([]string, error) {
	// A malformed id names no record, so it is reported like a missing one.
	if uuid.Validate(userID) != nil || uuid.Validate(recipeID) != nil {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, msgUserOrRecipeNotFound)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.users.FindByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		_, err := s.recipes.FindByID(gctx, recipeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, saveError(err, userID, recipeID)
	}

	saved, err := s.users.AppendSavedRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, saveError(err, userID, recipeID)
	}
	s.metrics.IncSave()
	return saved, nil
}

// ListIDs returns the user's saved list as stored, including ids of recipes
// that have since been deleted.
func (s *SavedRecipeService) ListIDs(ctx context.Context, userID string) ([]string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.SavedRecipes, nil
}

// ListRecipes resolves the user's saved list into recipes. Ids that no longer
// resolve are left out, and each recipe appears once.
func (s *SavedRecipeService) ListRecipes(ctx context.Context, userID string) ([]*models.Recipe, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.FindByIDs(ctx, user.SavedRecipes)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "resolve saved recipes", err, map[string]any{"userID": userID})
	}
	return recipes, nil
}

func (s *SavedRecipeService) findUser(ctx context.Context, userID string) (*models.User, error) {
	if err := checkID(userID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, msgUserNotFound, "get user", userID)
	}
	return user, nil
}

func saveError(err error, userID, recipeID string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.New(apperrors.ErrCodeNotFound, msgUserOrRecipeNotFound)
	}
	return apperrors.WrapWithContext(apperrors.ErrCodeInternal, "save recipe", err, map[string]any{
		"userID":   userID,
		"recipeID": recipeID,
	})
}
