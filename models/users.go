package models

// User is an account. Only SavedRecipes is managed by the recipe routes;
// it holds recipe ids in the order they were saved, duplicates included.
type User struct {
	ID           string   `json:"_id" firestore:"-"`
	Username     string   `json:"username" firestore:"username"`
	PasswordHash string   `json:"-" firestore:"password"`
	SavedRecipes []string `json:"savedRecipes" firestore:"savedRecipes"`
}
