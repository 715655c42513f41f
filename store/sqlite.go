package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipes_backend/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps recipes as JSON documents in a SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	recipes *sqliteRecipes
	users   *sqliteUsers
}

// OpenSQLite opens the database at path, configures it and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// A single connection serializes writers, which makes the read-modify-write
	// transactions below atomic.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		recipes: &sqliteRecipes{db: db},
		users:   &sqliteUsers{db: db},
	}, nil
}

func (s *SQLiteStore) Recipes() RecipeStore { return s.recipes }
func (s *SQLiteStore) Users() UserStore     { return s.users }
func (s *SQLiteStore) Close() error         { return s.db.Close() }

type sqliteRecipes struct {
	db *sql.DB
}

func (r *sqliteRecipes) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	doc, err := json.Marshal(recipe.Document())
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO recipes (id, doc) VALUES (?, ?)`, recipe.ID, string(doc)); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	return decodeRecipe(recipe.ID, string(doc))
}

func (r *sqliteRecipes) FindByID(ctx context.Context, id string) (*models.Recipe, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM recipes WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query recipe by id: %w", err)
	}
	return decodeRecipe(id, doc)
}

func (r *sqliteRecipes) Find(ctx context.Context) ([]*models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM recipes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	return scanRecipes(rows)
}

func (r *sqliteRecipes) FindByIDs(ctx context.Context, ids []string) ([]*models.Recipe, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []*models.Recipe{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM recipes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes by ids: %w", err)
	}
	found, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Recipe, len(found))
	for _, recipe := range found {
		byID[recipe.ID] = recipe
	}
	out := make([]*models.Recipe, 0, len(found))
	for _, id := range ids {
		if recipe, ok := byID[id]; ok {
			out = append(out, recipe)
		}
	}
	return out, nil
}

func (r *sqliteRecipes) FindByIDAndUpdate(ctx context.Context, id string, patch models.Patch) (*models.Recipe, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT doc FROM recipes WHERE id = ?`, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query recipe by id: %w", err)
	}

	doc := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	patch.Apply(doc)

	updated, err := models.RecipeFromDocument(id, doc)
	if err != nil {
		return nil, fmt.Errorf("merge recipe %s: %w", id, err)
	}
	encoded, err := json.Marshal(updated.Document())
	if err != nil {
		return nil, fmt.Errorf("encode recipe: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE recipes SET doc = ? WHERE id = ?`, string(encoded), id); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return decodeRecipe(id, string(encoded))
}

func (r *sqliteRecipes) FindByIDAndDelete(ctx context.Context, id string) (*models.Recipe, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `DELETE FROM recipes WHERE id = ? RETURNING doc`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete recipe: %w", err)
	}
	return decodeRecipe(id, doc)
}

func scanRecipes(rows *sql.Rows) ([]*models.Recipe, error) {
	defer rows.Close()

	recipes := []*models.Recipe{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipe, err := decodeRecipe(id, doc)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

func decodeRecipe(id, raw string) (*models.Recipe, error) {
	doc := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	recipe, err := models.RecipeFromDocument(id, doc)
	if err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	return recipe, nil
}

type sqliteUsers struct {
	db *sql.DB
}

func (u *sqliteUsers) Create(ctx context.Context, user *models.User) error {
	saved, err := json.Marshal(savedOrEmpty(user.SavedRecipes))
	if err != nil {
		return fmt.Errorf("encode saved recipes: %w", err)
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, saved_recipes) VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, string(saved),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (u *sqliteUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	return u.findOne(ctx, `SELECT id, username, password_hash, saved_recipes FROM users WHERE id = ?`, id)
}

func (u *sqliteUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return u.findOne(ctx, `SELECT id, username, password_hash, saved_recipes FROM users WHERE username = ?`, username)
}

func (u *sqliteUsers) findOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var saved string
	err := u.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.PasswordHash, &saved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	if err := json.Unmarshal([]byte(saved), &user.SavedRecipes); err != nil {
		return nil, fmt.Errorf("decode saved recipes of %s: %w", user.ID, err)
	}
	user.SavedRecipes = savedOrEmpty(user.SavedRecipes)
	return user, nil
}

func (u *sqliteUsers) AppendSavedRecipe(ctx context.Context, userID, recipeID string) ([]string, error) {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	if err := tx.QueryRowContext(ctx, `SELECT saved_recipes FROM users WHERE id = ?`, userID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query saved recipes: %w", err)
	}
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM recipes WHERE id = ?`, recipeID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query recipe: %w", err)
	}

	var saved []string
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return nil, fmt.Errorf("decode saved recipes of %s: %w", userID, err)
	}
	saved = append(saved, recipeID)

	encoded, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("encode saved recipes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET saved_recipes = ? WHERE id = ?`, string(encoded), userID); err != nil {
		return nil, fmt.Errorf("update saved recipes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func savedOrEmpty(saved []string) []string {
	if saved == nil {
		return []string{}
	}
	return saved
}
