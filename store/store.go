// Package store persists recipes and users. Two backends implement the same
// interfaces: Firestore for deployments and SQLite for local runs and tests.
package store

import (
	"context"
	"errors"

	"recipes_backend/models"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername is returned when creating a user whose name is taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// RecipeStore is the recipe collection.
type RecipeStore interface {
	// Create persists r under r.ID, which the caller generates.
	Create(ctx context.Context, r *models.Recipe) (*models.Recipe, error)
	FindByID(ctx context.Context, id string) (*models.Recipe, error)
	// Find returns every recipe in storage order.
	Find(ctx context.Context) ([]*models.Recipe, error)
	// FindByIDs returns the recipes whose id is in ids, each once, in the order
	// of first appearance in ids. Ids with no record are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error)
	// FindByIDAndUpdate merges patch over the stored record and returns the result.
	FindByIDAndUpdate(ctx context.Context, id string, patch models.Patch) (*models.Recipe, error)
	// FindByIDAndDelete removes the record and returns what was removed.
	FindByIDAndDelete(ctx context.Context, id string) (*models.Recipe, error)
}

// UserStore is the user collection.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// AppendSavedRecipe atomically appends recipeID to the user's saved list
	// and returns the updated list. It returns ErrNotFound when either the
	// user or the recipe does not exist at the time of the write.
	AppendSavedRecipe(ctx context.Context, userID, recipeID string) ([]string, error)
}

// Store bundles the collections behind one connection.
type Store interface {
	Recipes() RecipeStore
	Users() UserStore
	Close() error
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
