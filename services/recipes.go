// Package services implements the recipe operations and the saved-recipe
// relation on top of the store interfaces. Every error returned is an
// *errors.StructuredError coded NOT_FOUND or INTERNAL.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "recipes_backend/errors"
	"recipes_backend/metrics"
	"recipes_backend/models"
	"recipes_backend/store"
)

const msgRecipeNotFound = "Recipe not found"

// RecipeService owns the recipe lifecycle.
type RecipeService struct {
	recipes store.RecipeStore
	metrics *metrics.Metrics
}

// NewRecipeService creates a new RecipeService. m may be nil.
func NewRecipeService(recipes store.RecipeStore, m *metrics.Metrics) *RecipeService {
	return &RecipeService{recipes: recipes, metrics: m}
}

// List returns every recipe in storage order.
func (s *RecipeService) List(ctx context.Context) ([]*models.Recipe, error) {
	recipes, err := s.recipes.Find(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "list recipes", err)
	}
	return recipes, nil
}

// Create stores r under a new id. Any id supplied by the caller is replaced.
func (s *RecipeService) Create(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	recipe := *r
	recipe.ID = uuid.New().String()

	created, err := s.recipes.Create(ctx, &recipe)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "create recipe", err)
	}
	s.metrics.IncRecipe("create")
	return created, nil
}

// Get returns the recipe with the given id.
func (s *RecipeService) Get(ctx context.Context, id string) (*models.Recipe, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	recipe, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgRecipeNotFound, "get recipe", id)
	}
	return recipe, nil
}

// Update merges fields over the recipe and returns the result. Id fields in
// the input are ignored.
func (s *RecipeService) Update(ctx context.Context, id string, fields map[string]any) (*models.Recipe, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	patch, err := models.NewPatch(fields)
	if err != nil {
		return nil, apperrors.WrapWithContext(apperrors.ErrCodeInternal, "malformed update", err, map[string]any{"id": id})
	}

	updated, err := s.recipes.FindByIDAndUpdate(ctx, id, patch)
	if err != nil {
		return nil, storeError(err, msgRecipeNotFound, "update recipe", id)
	}
	s.metrics.IncRecipe("update")
	return updated, nil
}

// Delete removes the recipe and returns it. Users' saved lists keep the id.
func (s *RecipeService) Delete(ctx context.Context, id string) (*models.Recipe, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	deleted, err := s.recipes.FindByIDAndDelete(ctx, id)
	if err != nil {
		return nil, storeError(err, msgRecipeNotFound, "delete recipe", id)
	}
	s.metrics.IncRecipe("delete")
	return deleted, nil
}

// checkID rejects ids that cannot have been generated by this service.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeInternal, "malformed id", err, map[string]any{"id": id})
	}
	return nil
}

func storeError(err error, notFound, op, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.New(apperrors.ErrCodeNotFound, notFound)
	}
	return apperrors.WrapWithContext(apperrors.ErrCodeInternal, fmt.Sprintf("%s %s", op, id), err, map[string]any{"id": id})
}
