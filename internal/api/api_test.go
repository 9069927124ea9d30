package api_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	t      *testing.T
	db     *gorm.DB
	images *testhelpers.MemoryImages
	auth   *service.AuthService
	router *gin.Engine
}

type envOption func(*api.Dependencies)

func withCreationLimit(limit int) envOption {
	return func(d *api.Dependencies) {
		d.CreationLimiter = middleware.NewRateLimiter(nil, middleware.RateLimitConfig{
			Window:    time.Hour,
			Limit:     limit,
			KeyPrefix: "test:recipe_creation",
		}, d.Log)
	}
}

func newAPIEnv(t *testing.T, opts ...envOption) *apiEnv {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	log := logger.Nop()
	cfg := config.Default()
	images := testhelpers.NewMemoryImages()
	links := service.NewShortLinker(db, cfg.Recipes, log)
	relations := service.NewRelationService(db, log)
	auth := service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryBlocklist(), log)

	deps := api.Dependencies{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Auth:      auth,
		Users:     service.NewUserService(db, images, log),
		Recipes:   service.NewRecipeService(db, images, links, cfg.Recipes, log),
		Relations: relations,
		Catalog:   service.NewCatalogService(db),
		Shopping:  service.NewShoppingListService(db),
		Presenter: service.NewPresenter(db, relations),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router := gin.New()
	api.RegisterRoutes(router, deps)
	return &apiEnv{t: t, db: db, images: images, auth: auth, router: router}
}

// token issues a token for user.
func (e *apiEnv) token(user *models.User) string {
	e.t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(e.t, err)
	return token
}

// do sends a request; token may be empty and body may be nil.
func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	buf := &bytes.Buffer{}
	if body != nil {
		buf = jsonBody(e.t, body)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type catalogFixture struct {
	author *models.User
	lunch  *models.Tag
	salt   *models.Ingredient
	flour  *models.Ingredient
}

func newCatalogFixture(t *testing.T, db *gorm.DB) catalogFixture {
	return catalogFixture{
		author: testhelpers.CreateUser(t, db, "chef"),
		lunch:  testhelpers.CreateTag(t, db, "lunch"),
		salt:   testhelpers.CreateIngredient(t, db, "Salt", "g"),
		flour:  testhelpers.CreateIngredient(t, db, "Flour", "g"),
	}
}

func (f catalogFixture) recipeBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"text":         "Mix and bake.",
		"cooking_time": 30,
		"image":        testhelpers.PNGDataURI,
		"tags":         []uint{f.lunch.ID},
		"ingredients": []map[string]interface{}{
			{"id": f.salt.ID, "amount": 5},
			{"id": f.flour.ID, "amount": 500},
		},
	}
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}
