package models

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Document keys of the typed recipe fields.
const (
	FieldID           = "_id"
	FieldName         = "name"
	FieldImage        = "image"
	FieldIngredients  = "ingredients"
	FieldInstructions = "instructions"
)

// Recipe is a stored recipe document. Keys other than the four typed fields
// are kept in Extra and written back to storage untouched.
type Recipe struct {
	ID           string
	Name         string
	Image        string
	Ingredients  []string
	Instructions string
	Extra        map[string]any
}

// RecipeSummary is the confirmation shape returned by create, update and delete.
type RecipeSummary struct {
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	ID           string   `json:"_id"`
}

// Summary returns the confirmation shape of r.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		Name:         r.Name,
		Image:        r.Image,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		ID:           r.ID,
	}
}

// Document returns the storage form of r: extras plus typed fields, without the id.
func (r *Recipe) Document() map[string]any {
	doc := make(map[string]any, len(r.Extra)+4)
	maps.Copy(doc, r.Extra)
	doc[FieldName] = r.Name
	doc[FieldImage] = r.Image
	doc[FieldIngredients] = r.Ingredients
	if r.Ingredients == nil {
		doc[FieldIngredients] = []string{}
	}
	doc[FieldInstructions] = r.Instructions
	return doc
}

// RecipeFromDocument builds a Recipe from a stored document. Id keys inside
// the document are ignored; id is the storage key.
func RecipeFromDocument(id string, doc map[string]any) (*Recipe, error) {
	recipe := &Recipe{ID: id, Extra: map[string]any{}}
	for key, value := range doc {
		if err := recipe.set(key, value); err != nil {
			return nil, err
		}
	}

	// Ensure slices are not nil
	if recipe.Ingredients == nil {
		recipe.Ingredients = []string{}
	}
	return recipe, nil
}

func (r *Recipe) set(key string, value any) error {
	var err error
	switch key {
	case FieldID, "id":
	case FieldName:
		r.Name, err = stringField(key, value)
	case FieldImage:
		r.Image, err = stringField(key, value)
	case FieldInstructions:
		r.Instructions, err = stringField(key, value)
	case FieldIngredients:
		r.Ingredients, err = stringsField(key, value)
	default:
		r.Extra[key] = value
	}
	return err
}

// MarshalJSON renders the full recipe shape, extras included.
func (r Recipe) MarshalJSON() ([]byte, error) {
	out := r.Document()
	out[FieldID] = r.ID
	return json.Marshal(out)
}

// UnmarshalJSON accepts any object; unknown keys land in Extra.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	recipe, err := RecipeFromDocument("", fields)
	if err != nil {
		return err
	}
	if id, ok := fields[FieldID].(string); ok {
		recipe.ID = id
	}
	*r = *recipe
	return nil
}

// Patch is a set of fields to merge over an existing recipe.
type Patch map[string]any

// NewPatch validates the typed fields of an update body and drops id keys,
// which are immutable.
func NewPatch(fields map[string]any) (Patch, error) {
	patch := make(Patch, len(fields))
	for key, value := range fields {
		switch key {
		case FieldID, "id":
			continue
		case FieldName, FieldImage, FieldInstructions:
			s, err := stringField(key, value)
			if err != nil {
				return nil, err
			}
			patch[key] = s
		case FieldIngredients:
			list, err := stringsField(key, value)
			if err != nil {
				return nil, err
			}
			patch[key] = list
		default:
			patch[key] = value
		}
	}
	return patch, nil
}

// Apply merges the patch over doc in place.
func (p Patch) Apply(doc map[string]any) {
	maps.Copy(doc, p)
}

func stringField(key string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("field %q: expected string, got %T", key, value)
	}
}

func stringsField(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field %q[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q: expected list of strings, got %T", key, value)
	}
}
