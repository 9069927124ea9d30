package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Presenter builds read shapes. Every method takes the viewer explicitly;
// per-viewer flags are computed from the relation tables on each call.
type Presenter struct {
	db        *gorm.DB
	relations *RelationService
}

// NewPresenter creates a new Presenter instance
func NewPresenter(db *gorm.DB, relations *RelationService) *Presenter {
	return &Presenter{db: db, relations: relations}
}

// IsFavorited reports whether viewer favorited the recipe. Always false for
// anonymous viewers.
func (p *Presenter) IsFavorited(ctx context.Context, viewer Viewer, recipeID uint) (bool, error) {
	return p.relations.Exists(ctx, RelationFavorite, viewer.ID, recipeID)
}

// IsInShoppingCart reports whether the recipe is in viewer's cart.
func (p *Presenter) IsInShoppingCart(ctx context.Context, viewer Viewer, recipeID uint) (bool, error) {
	return p.relations.Exists(ctx, RelationShoppingCart, viewer.ID, recipeID)
}

// IsSubscribed reports whether viewer follows author.
func (p *Presenter) IsSubscribed(ctx context.Context, viewer Viewer, authorID uint) (bool, error) {
	return p.relations.Exists(ctx, RelationFollow, viewer.ID, authorID)
}

// Recipe builds the read shape of one recipe.
func (p *Presenter) Recipe(ctx context.Context, viewer Viewer, recipe *models.Recipe) (types.RecipeResponse, error) {
	out, err := p.Recipes(ctx, viewer, []models.Recipe{*recipe})
	if err != nil {
		return types.RecipeResponse{}, err
	}
	return out[0], nil
}

// Recipes builds read shapes for a page of recipes with one relation query
// per flag.
func (p *Presenter) Recipes(ctx context.Context, viewer Viewer, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorited, err := p.relations.Targets(ctx, RelationFavorite, viewer.ID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := p.relations.Targets(ctx, RelationShoppingCart, viewer.ID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.relations.Targets(ctx, RelationFollow, viewer.ID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i, r := range recipes {
		tags := make([]types.TagResponse, len(r.Tags))
		for j, t := range r.Tags {
			tags[j] = TagResponse(t.Tag)
		}
		ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = types.RecipeIngredientResponse{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		out[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tags,
			Author:           userResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            r.Image,
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

// User builds the read shape of one user.
func (p *Presenter) User(ctx context.Context, viewer Viewer, user *models.User) (types.UserResponse, error) {
	subscribed, err := p.IsSubscribed(ctx, viewer, user.ID)
	if err != nil {
		return types.UserResponse{}, err
	}
	return userResponse(user, subscribed), nil
}

// Users builds read shapes for a page of users.
func (p *Presenter) Users(ctx context.Context, viewer Viewer, users []models.User) ([]types.UserResponse, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.relations.Targets(ctx, RelationFollow, viewer.ID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]types.UserResponse, len(users))
	for i := range users {
		out[i] = userResponse(&users[i], subscribed[users[i].ID])
	}
	return out, nil
}

// Subscriptions builds the read shape of followed authors, each with at most
// recipesLimit of their newest recipes (all when recipesLimit <= 0).
func (p *Presenter) Subscriptions(ctx context.Context, viewer Viewer, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	users, err := p.Users(ctx, viewer, authors)
	if err != nil {
		return nil, err
	}
	out := make([]types.SubscriptionResponse, len(authors))
	for i, author := range authors {
		recipes, count, err := p.authorRecipes(ctx, author.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		out[i] = types.SubscriptionResponse{UserResponse: users[i], Recipes: recipes, RecipesCount: count}
	}
	return out, nil
}

// Subscription builds the read shape of one followed author.
func (p *Presenter) Subscription(ctx context.Context, viewer Viewer, author *models.User, recipesLimit int) (types.SubscriptionResponse, error) {
	out, err := p.Subscriptions(ctx, viewer, []models.User{*author}, recipesLimit)
	if err != nil {
		return types.SubscriptionResponse{}, err
	}
	return out[0], nil
}

func (p *Presenter) authorRecipes(ctx context.Context, authorID uint, limit int) ([]types.RecipeMinified, int64, error) {
	db := p.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	q := db.Where("author_id = ?", authorID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load recipes: %w", err)
	}
	out := make([]types.RecipeMinified, len(recipes))
	for i := range recipes {
		out[i] = MinifyRecipe(&recipes[i])
	}
	return out, count, nil
}

// MinifyRecipe builds the short read shape.
func MinifyRecipe(r *models.Recipe) types.RecipeMinified {
	return types.RecipeMinified{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

// TagResponse builds the read shape of a tag.
func TagResponse(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

// IngredientResponse builds the read shape of a catalog ingredient.
func IngredientResponse(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func userResponse(u *models.User, subscribed bool) types.UserResponse {
	var avatar *string
	if u.Avatar != "" {
		a := u.Avatar
		avatar = &a
	}
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
		Avatar:       avatar,
	}
}
