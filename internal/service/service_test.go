package service_test

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type testEnv struct {
	db        *gorm.DB
	images    *testhelpers.MemoryImages
	links     *service.ShortLinker
	recipes   *service.RecipeService
	relations *service.RelationService
	shopping  *service.ShoppingListService
	catalog   *service.CatalogService
	users     *service.UserService
	auth      *service.AuthService
	presenter *service.Presenter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	log := logger.Nop()
	images := testhelpers.NewMemoryImages()
	limits := config.Default().Recipes
	links := service.NewShortLinker(db, limits, log)
	relations := service.NewRelationService(db, log)

	return &testEnv{
		db:        db,
		images:    images,
		links:     links,
		recipes:   service.NewRecipeService(db, images, links, limits, log),
		relations: relations,
		shopping:  service.NewShoppingListService(db),
		catalog:   service.NewCatalogService(db),
		users:     service.NewUserService(db, images, log),
		auth:      service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryBlocklist(), log),
		presenter: service.NewPresenter(db, relations),
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
