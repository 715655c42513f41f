package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipes_backend/models"
)

const (
	recipesCollection = "recipes"
	usersCollection   = "users"
)

// FirestoreStore keeps recipes and users in Firestore collections, keyed by
// document id. It honours FIRESTORE_EMULATOR_HOST through the client library.
type FirestoreStore struct {
	client  *firestore.Client
	recipes *firestoreRecipes
	users   *firestoreUsers
}

// NewFirestore connects to the project. An empty credentialsFile falls back
// to application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewFirestoreWithClient(client), nil
}

// NewFirestoreWithClient wraps an existing client.
func NewFirestoreWithClient(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client:  client,
		recipes: &firestoreRecipes{client: client},
		users:   &firestoreUsers{client: client},
	}
}

func (s *FirestoreStore) Recipes() RecipeStore { return s.recipes }
func (s *FirestoreStore) Users() UserStore     { return s.users }
func (s *FirestoreStore) Close() error         { return s.client.Close() }

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

type firestoreRecipes struct {
	client *firestore.Client
}

func (r *firestoreRecipes) ref(id string) *firestore.DocumentRef {
	return r.client.Collection(recipesCollection).Doc(id)
}

func (r *firestoreRecipes) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	doc := recipe.Document()
	if _, err := r.ref(recipe.ID).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return models.RecipeFromDocument(recipe.ID, doc)
}

func (r *firestoreRecipes) FindByID(ctx context.Context, id string) (*models.Recipe, error) {
	snap, err := r.ref(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return snapshotRecipe(snap)
}

func (r *firestoreRecipes) Find(ctx context.Context) ([]*models.Recipe, error) {
	iter := r.client.Collection(recipesCollection).Documents(ctx)
	defer iter.Stop()

	recipes := []*models.Recipe{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate recipes: %w", err)
		}
		recipe, err := snapshotRecipe(snap)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (r *firestoreRecipes) FindByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []*models.Recipe{}, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.ref(id)
	}
	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("get recipes: %w", err)
	}

	recipes := make([]*models.Recipe, 0, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		recipe, err := snapshotRecipe(snap)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (r *firestoreRecipes) FindByIDAndUpdate(ctx context.Context, id string, patch models.Patch) (*models.Recipe, error) {
	ref := r.ref(id)
	var updated *models.Recipe
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		doc := snap.Data()
		patch.Apply(doc)
		updated, err = models.RecipeFromDocument(id, doc)
		if err != nil {
			return err
		}
		return tx.Set(ref, updated.Document())
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return updated, nil
}

func (r *firestoreRecipes) FindByIDAndDelete(ctx context.Context, id string) (*models.Recipe, error) {
	ref := r.ref(id)
	var deleted *models.Recipe
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		deleted, err = snapshotRecipe(snap)
		if err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete recipe: %w", err)
	}
	return deleted, nil
}

func snapshotRecipe(snap *firestore.DocumentSnapshot) (*models.Recipe, error) {
	recipe, err := models.RecipeFromDocument(snap.Ref.ID, snap.Data())
	if err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", snap.Ref.ID, err)
	}
	return recipe, nil
}

type firestoreUsers struct {
	client *firestore.Client
}

func (u *firestoreUsers) ref(id string) *firestore.DocumentRef {
	return u.client.Collection(usersCollection).Doc(id)
}

func (u *firestoreUsers) Create(ctx context.Context, user *models.User) error {
	user.SavedRecipes = savedOrEmpty(user.SavedRecipes)
	query := u.client.Collection(usersCollection).Where("username", "==", user.Username).Limit(1)

	err := u.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(u.ref(user.ID), user)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (u *firestoreUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	snap, err := u.ref(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return snapshotUser(snap)
}

func (u *firestoreUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	iter := u.client.Collection(usersCollection).Where("username", "==", username).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	return snapshotUser(snap)
}

func (u *firestoreUsers) AppendSavedRecipe(ctx context.Context, userID, recipeID string) ([]string, error) {
	ref := u.ref(userID)
	var saved []string
	err := u.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		user, err := snapshotUser(snap)
		if err != nil {
			return err
		}
		if _, err := tx.Get(u.client.Collection(recipesCollection).Doc(recipeID)); err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		// ArrayUnion would drop duplicates, so the list is rewritten whole.
		saved = append(user.SavedRecipes, recipeID)
		return tx.Update(ref, []firestore.Update{{Path: "savedRecipes", Value: saved}})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("append saved recipe: %w", err)
	}
	return saved, nil
}

func snapshotUser(snap *firestore.DocumentSnapshot) (*models.User, error) {
	user := &models.User{}
	if err := snap.DataTo(user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	user.ID = snap.Ref.ID
	user.SavedRecipes = savedOrEmpty(user.SavedRecipes)
	return user, nil
}
