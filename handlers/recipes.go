package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "recipes_backend/errors"
	"recipes_backend/models"
	"recipes_backend/services"
)

// RecipeHandler serves the recipe CRUD routes.
type RecipeHandler struct {
	recipes *services.RecipeService
	logger  *slog.Logger
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipes *services.RecipeService, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// GetRecipes returns every recipe.
// GET /recipes
func (h *RecipeHandler) GetRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipes.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recipes)
}

// CreateRecipe stores the posted recipe. Fields beyond the four known ones
// are stored as given.
// POST /recipes
// Response: {"createdRecipe": {...}}
func (h *RecipeHandler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var recipe models.Recipe
	if err := readJSON(r, &recipe); err != nil {
		respondError(w, r, h.logger, apperrors.Wrap(apperrors.ErrCodeInternal, "decode recipe", err))
		return
	}

	created, err := h.recipes.Create(r.Context(), &recipe)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("recipe created", "id", created.ID, "requestID", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusCreated, map[string]any{"createdRecipe": created.Summary()})
}

// GetRecipe returns one recipe in full.
// GET /recipes/{recipeId}
func (h *RecipeHandler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipes.Get(r.Context(), mux.Vars(r)["recipeId"])
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// UpdateRecipe merges the posted fields over the recipe.
// PUT /recipes/{recipeId}
// Response: {"updatedRecipe": {...}}
func (h *RecipeHandler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	fields := map[string]any{}
	if err := readJSON(r, &fields); err != nil {
		respondError(w, r, h.logger, apperrors.Wrap(apperrors.ErrCodeInternal, "decode update", err))
		return
	}

	updated, err := h.recipes.Update(r.Context(), mux.Vars(r)["recipeId"], fields)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updatedRecipe": updated.Summary()})
}

// DeleteRecipe removes the recipe and echoes what was removed.
// DELETE /recipes/{recipeId}
// Response: {"deletedRecipe": {...}}
func (h *RecipeHandler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.recipes.Delete(r.Context(), mux.Vars(r)["recipeId"])
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("recipe deleted", "id", deleted.ID, "requestID", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"deletedRecipe": deleted.Summary()})
}
