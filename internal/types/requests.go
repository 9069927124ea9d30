package types

import (
	"bytes"
	"encoding/json"
)

// IngredientAmount is one ingredient line of a recipe write.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the body of recipe create (POST) and update (PATCH). Scalar
// fields are optional on update; tags and ingredients are always replaced.
type RecipeInput struct {
	Name        *string            `json:"name" validate:"omitempty,max=256"`
	Text        *string            `json:"text"`
	CookingTime *int               `json:"cooking_time"`
	Image       *string            `json:"image"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`

	// Nulls holds the keys sent as an explicit JSON null, which a nil
	// pointer alone cannot tell apart from an absent key.
	Nulls map[string]bool `json:"-"`
}

// nullableRecipeFields are the keys whose explicit null is rejected
var nullableRecipeFields = []string{"name", "text", "cooking_time", "image"}

// UnmarshalJSON decodes the body and records explicit nulls.
func (in *RecipeInput) UnmarshalJSON(data []byte) error {
	type plain RecipeInput
	if err := json.Unmarshal(data, (*plain)(in)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	in.Nulls = nil
	for _, key := range nullableRecipeFields {
		if v, ok := raw[key]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			if in.Nulls == nil {
				in.Nulls = make(map[string]bool)
			}
			in.Nulls[key] = true
		}
	}
	return nil
}

// IsNull reports whether field was sent as null.
func (in *RecipeInput) IsNull(field string) bool {
	return in.Nulls[field]
}

// RegisterRequest is the body of user registration
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username,notme"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the body of token login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SetPasswordRequest is the body of set_password
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// AvatarRequest is the body of the avatar upload
type AvatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

// RecipeFilter narrows the recipe list.
type RecipeFilter struct {
	Tags             []string
	AuthorID         uint
	IsFavorited      bool
	IsInShoppingCart bool
}

// Page selects a 1-based page of a list.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
