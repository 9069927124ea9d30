package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListFilename is the attachment name of the downloaded list.
const ShoppingListFilename = "shopping_list.txt"

// RecipeHandler serves recipes, their relations and the shopping list
type RecipeHandler struct {
	authService     service.IAuthService
	recipes         service.IRecipeService
	relations       service.IRelationService
	shopping        service.IShoppingListService
	presenter       *service.Presenter
	creationLimiter *middleware.RateLimiter
	shortDomain     string
	pagination      config.PaginationConfig
	log             *logger.Logger
}

// RecipeHandlerConfig groups the dependencies of NewRecipeHandler
type RecipeHandlerConfig struct {
	Auth            service.IAuthService
	Recipes         service.IRecipeService
	Relations       service.IRelationService
	Shopping        service.IShoppingListService
	Presenter       *service.Presenter
	CreationLimiter *middleware.RateLimiter
	ShortDomain     string
	Pagination      config.PaginationConfig
	Log             *logger.Logger
}

func NewRecipeHandler(cfg RecipeHandlerConfig) *RecipeHandler {
	return &RecipeHandler{
		authService:     cfg.Auth,
		recipes:         cfg.Recipes,
		relations:       cfg.Relations,
		shopping:        cfg.Shopping,
		presenter:       cfg.Presenter,
		creationLimiter: cfg.CreationLimiter,
		shortDomain:     strings.TrimRight(cfg.ShortDomain, "/"),
		pagination:      cfg.Pagination,
		log:             cfg.Log,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.RequireAuth(h.authService, h.log)
	optional := middleware.OptionalAuth(h.authService, h.log)

	create := []gin.HandlerFunc{required}
	if h.creationLimiter != nil {
		create = append(create, h.creationLimiter.RateLimitMiddleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optional, h.ListRecipes)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", optional, h.GetRecipe)
		recipes.PATCH("/:id/", required, h.UpdateRecipe)
		recipes.DELETE("/:id/", required, h.DeleteRecipe)
		recipes.GET("/:id/get-link/", h.GetLink)
		recipes.POST("/:id/favorite/", required, h.addRelation(service.RelationFavorite))
		recipes.DELETE("/:id/favorite/", required, h.removeRelation(service.RelationFavorite))
		recipes.POST("/:id/shopping_cart/", required, h.addRelation(service.RelationShoppingCart))
		recipes.DELETE("/:id/shopping_cart/", required, h.removeRelation(service.RelationShoppingCart))
	}
}

// RegisterShortLinkRoutes mounts the short-link redirect at the site root.
func (h *RecipeHandler) RegisterShortLinkRoutes(router gin.IRoutes) {
	router.GET("/s/:short_link", h.FollowShortLink)
	router.GET("/s/:short_link/", h.FollowShortLink)
}

// ListRecipes handles GET /api/recipes/ with the filters tags (repeatable
// slug), author, is_favorited and is_in_shopping_cart.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentViewer(c)
	page := pageFromQuery(c, h.pagination)

	filter := types.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if raw := c.Query("author"); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"Enter a number."}})
			return
		}
		filter.AuthorID = uint(author)
	}

	recipes, total, err := h.recipes.List(ctx, viewer, filter, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out, err := h.presenter.Recipes(ctx, viewer, recipes)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, page, total, out))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.writeRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var in types.RecipeInput
	if !bindJSON(c, &in) {
		return
	}

	viewer := middleware.CurrentViewer(c)
	recipe, err := h.recipes.Create(c.Request.Context(), viewer.ID, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.writeRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in types.RecipeInput
	if !bindJSON(c, &in) {
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), id, middleware.CurrentViewer(c), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.writeRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), id, middleware.CurrentViewer(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetLink returns the absolute short link of a recipe.
func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	code, err := h.recipes.ShortLink(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, types.ShortLinkResponse{ShortLink: h.shortDomain + "/s/" + code})
}

// FollowShortLink redirects /s/{code} to the recipe page.
func (h *RecipeHandler) FollowShortLink(c *gin.Context) {
	id, err := h.recipes.ResolveShortLink(c.Request.Context(), c.Param("short_link"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+strconv.FormatUint(uint64(id), 10)+"/")
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	doc, err := h.shopping.Document(c.Request.Context(), middleware.CurrentViewer(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc))
}

func (h *RecipeHandler) addRelation(kind service.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if err := h.relations.Add(ctx, kind, middleware.CurrentViewer(c).ID, id); err != nil {
			respondError(c, h.log, err)
			return
		}
		recipe, err := h.recipes.Get(ctx, id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, service.MinifyRecipe(recipe))
	}
}

func (h *RecipeHandler) removeRelation(kind service.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.relations.Remove(c.Request.Context(), kind, middleware.CurrentViewer(c).ID, id); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// writeRecipe renders a loaded recipe for the current viewer.
func (h *RecipeHandler) writeRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	out, err := h.presenter.Recipe(c.Request.Context(), middleware.CurrentViewer(c), recipe)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, out)
}

// queryFlag treats "1" and "true" as set.
func queryFlag(c *gin.Context, name string) bool {
	v := strings.ToLower(c.Query(name))
	return v == "1" || v == "true"
}
