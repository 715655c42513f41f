package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "recipes_backend/errors"
	"recipes_backend/services"
)

// SavedRecipeHandler serves the saved-recipe routes.
type SavedRecipeHandler struct {
	saved  *services.SavedRecipeService
	logger *slog.Logger
}

// NewSavedRecipeHandler creates a new SavedRecipeHandler.
func NewSavedRecipeHandler(saved *services.SavedRecipeService, logger *slog.Logger) *SavedRecipeHandler {
	return &SavedRecipeHandler{saved: saved, logger: logger}
}

type saveRequest struct {
	UserID   string `json:"userID"`
	RecipeID string `json:"recipeID"`
}

// SaveRecipe appends a recipe to a user's saved list.
// PUT /recipes
// Request:  {"userID": "...", "recipeID": "..."}
// Response: {"savedRecipes": [...]}
func (h *SavedRecipeHandler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, h.logger, apperrors.Wrap(apperrors.ErrCodeInternal, "decode save request", err))
		return
	}

	saved, err := h.saved.Save(r.Context(), req.UserID, req.RecipeID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"savedRecipes": saved})
}

// GetSavedRecipeIDs returns the user's saved list as stored.
// GET /recipes/savedRecipes/ids/{userId}
func (h *SavedRecipeHandler) GetSavedRecipeIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.saved.ListIDs(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"savedRecipes": ids})
}

// GetSavedRecipes returns the recipes on the user's saved list that still exist.
// GET /recipes/savedRecipes/{userId}
func (h *SavedRecipeHandler) GetSavedRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.saved.ListRecipes(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"savedRecipes": recipes})
}
