package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *types.LoginRequest) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error
}

// IUserService defines the interface for user operations
type IUserService interface {
	List(ctx context.Context, page types.Page) ([]models.User, int64, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	SetAvatar(ctx context.Context, userID uint, req *types.AvatarRequest) (string, error)
	ClearAvatar(ctx context.Context, userID uint) error
	Subscriptions(ctx context.Context, userID uint, page types.Page) ([]models.User, int64, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Create(ctx context.Context, authorID uint, in *types.RecipeInput) (*models.Recipe, error)
	Update(ctx context.Context, recipeID uint, actor Viewer, in *types.RecipeInput) (*models.Recipe, error)
	Delete(ctx context.Context, recipeID uint, actor Viewer) error
	Get(ctx context.Context, recipeID uint) (*models.Recipe, error)
	List(ctx context.Context, viewer Viewer, filter types.RecipeFilter, page types.Page) ([]models.Recipe, int64, error)
	ShortLink(ctx context.Context, recipeID uint) (string, error)
	ResolveShortLink(ctx context.Context, code string) (uint, error)
}

// IRelationService defines the interface for favorites, cart entries and follows
type IRelationService interface {
	Add(ctx context.Context, kind RelationKind, userID, targetID uint) error
	Remove(ctx context.Context, kind RelationKind, userID, targetID uint) error
	Exists(ctx context.Context, kind RelationKind, userID, targetID uint) (bool, error)
	Targets(ctx context.Context, kind RelationKind, userID uint, targetIDs []uint) (map[uint]bool, error)
}

// ICatalogService defines the interface for tag and ingredient reads
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IShoppingListService defines the interface for the shopping list download
type IShoppingListService interface {
	Document(ctx context.Context, userID uint) (string, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IRelationService     = (*RelationService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
)
