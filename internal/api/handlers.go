package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the collaborators of the HTTP handlers
type Dependencies struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Log    *logger.Logger

	Auth            service.IAuthService
	Users           service.IUserService
	Recipes         service.IRecipeService
	Relations       service.IRelationService
	Catalog         service.ICatalogService
	Shopping        service.IShoppingListService
	Presenter       *service.Presenter
	CreationLimiter *middleware.RateLimiter
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck(deps.DB, deps.Redis))

	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	userHandler := NewUserHandler(deps.Auth, deps.Users, deps.Relations, deps.Presenter, deps.Config.Pagination, deps.Log)
	catalogHandler := NewCatalogHandler(deps.Catalog, deps.Log)
	recipeHandler := NewRecipeHandler(RecipeHandlerConfig{
		Auth:            deps.Auth,
		Recipes:         deps.Recipes,
		Relations:       deps.Relations,
		Shopping:        deps.Shopping,
		Presenter:       deps.Presenter,
		CreationLimiter: deps.CreationLimiter,
		ShortDomain:     deps.Config.Recipes.ShortDomain,
		Pagination:      deps.Config.Pagination,
		Log:             deps.Log,
	})

	v1 := router.Group("/api")
	authHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1)
	catalogHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	recipeHandler.RegisterShortLinkRoutes(router)
}

// HealthCheck reports whether the database (and redis, when configured)
// answer.
func HealthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true
		if db != nil {
			if err := database.HealthCheck(ctx, db); err != nil {
				checks["database"] = err.Error()
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "checks": checks})
	}
}
