package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/types"
)

// EmptyShoppingList is the document produced for an empty cart.
const EmptyShoppingList = "Shopping list is empty."

// ShoppingListService aggregates the ingredients of a user's cart
type ShoppingListService struct {
	db *gorm.DB
}

// NewShoppingListService creates a new ShoppingListService instance
func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// Aggregate sums the amounts of every ingredient across the recipes in the
// user's cart, ordered by ingredient name.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uint) ([]types.ShoppingListLine, error) {
	var lines []types.ShoppingListLine
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, SUM(recipe_ingredients.amount) AS total_amount, ingredients.measurement_unit AS measurement_unit").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.id, ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Order("ingredients.measurement_unit ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return lines, nil
}

// Document renders the user's shopping list as plain text.
func (s *ShoppingListService) Document(ctx context.Context, userID uint) (string, error) {
	lines, err := s.Aggregate(ctx, userID)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(lines), nil
}

// RenderShoppingList formats one "name - total unit" line per ingredient.
func RenderShoppingList(lines []types.ShoppingListLine) string {
	if len(lines) == 0 {
		return EmptyShoppingList
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = fmt.Sprintf("%s - %d %s", l.Name, l.TotalAmount, l.MeasurementUnit)
	}
	return strings.Join(out, "\n")
}
