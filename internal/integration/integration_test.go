// Package integration runs the HTTP API against PostgreSQL with the SQL
// migrations applied.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

const migrationsDir = "../../migrations"

type stack struct {
	db        *gorm.DB
	handler   http.Handler
	relations *service.RelationService
	links     *service.ShortLinker
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testhelpers.NewPostgresDB(t, migrationsDir)
	log := logger.Nop()
	cfg := config.Default()
	images := testhelpers.NewMemoryImages()
	links := service.NewShortLinker(db, cfg.Recipes, log)
	relations := service.NewRelationService(db, log)

	srv := server.New(api.Dependencies{
		Config:          cfg,
		DB:              db,
		Log:             log,
		Auth:            service.NewAuthService(db, "integration-secret", time.Hour, service.NewMemoryBlocklist(), log),
		Users:           service.NewUserService(db, images, log),
		Recipes:         service.NewRecipeService(db, images, links, cfg.Recipes, log),
		Relations:       relations,
		Catalog:         service.NewCatalogService(db),
		Shopping:        service.NewShoppingListService(db),
		Presenter:       service.NewPresenter(db, relations),
		CreationLimiter: middleware.NewRecipeCreationRateLimiter(nil, cfg.Recipes, log),
	})
	return &stack{db: db, handler: srv.Handler(), relations: relations, links: links}
}

func (s *stack) call(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *stack) registerAndLogin(t *testing.T, username string) (uint, string) {
	t.Helper()
	w := s.call(t, http.MethodPost, "/api/users/", "", map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "integration-pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user types.RegisteredUserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))

	w = s.call(t, http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    username + "@example.com",
		"password": "integration-pw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token types.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return user.ID, token.AuthToken
}

func TestRecipeFlow(t *testing.T) {
	s := newStack(t)
	_, cook := s.registerAndLogin(t, "cook")
	_, reader := s.registerAndLogin(t, "reader")
	tag := testhelpers.CreateTag(t, s.db, "breakfast")
	eggs := testhelpers.CreateIngredient(t, s.db, "Eggs", "pcs")
	milk := testhelpers.CreateIngredient(t, s.db, "Milk", "ml")

	body := map[string]interface{}{
		"name":         "Omelette",
		"text":         "Whisk and fry.",
		"cooking_time": 10,
		"image":        testhelpers.PNGDataURI,
		"tags":         []uint{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": eggs.ID, "amount": 3},
			{"id": milk.ID, "amount": 50},
		},
	}
	w := s.call(t, http.MethodPost, "/api/recipes/", cook, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var recipe types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipe))

	// duplicate ingredient leaves nothing behind
	body["name"] = "Broken"
	body["ingredients"] = []map[string]interface{}{{"id": eggs.ID, "amount": 1}, {"id": eggs.ID, "amount": 2}}
	w = s.call(t, http.MethodPost, "/api/recipes/", cook, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int64(1), testhelpers.CountRows(t, s.db, &models.Recipe{}))

	for _, rel := range []string{"favorite", "shopping_cart"} {
		w = s.call(t, http.MethodPost, fmt.Sprintf("/api/recipes/%d/%s/", recipe.ID, rel), reader, nil)
		require.Equal(t, http.StatusCreated, w.Code, rel)
	}

	w = s.call(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/", recipe.ID), reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seen types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seen))
	assert.True(t, seen.IsFavorited)
	assert.True(t, seen.IsInShoppingCart)

	w = s.call(t, http.MethodGet, "/api/recipes/download_shopping_cart/", reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Eggs - 3 pcs\nMilk - 50 ml", w.Body.String())

	w = s.call(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/get-link/", recipe.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link types.ShortLinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	code := link.ShortLink[len(config.Default().Recipes.ShortDomain+"/s/"):]

	w = s.call(t, http.MethodGet, "/s/"+code+"/", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/recipes/%d/", recipe.ID), w.Header().Get("Location"))

	w = s.call(t, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", recipe.ID), cook, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, testhelpers.CountRows(t, s.db, &models.Favorite{}))
	assert.Zero(t, testhelpers.CountRows(t, s.db, &models.ShoppingCartItem{}))
}

func TestConcurrentFavoriteIsUnique(t *testing.T) {
	s := newStack(t)
	author := testhelpers.CreateUser(t, s.db, "author")
	fan := testhelpers.CreateUser(t, s.db, "fan")
	tag := testhelpers.CreateTag(t, s.db, "lunch")
	recipe := testhelpers.CreateRecipe(t, s.db, author, "Soup", []*models.Tag{tag})

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		existed   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.relations.Add(context.Background(), service.RelationFavorite, fan.ID, recipe.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, service.ErrAlreadyExists):
				existed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, existed)
	assert.Equal(t, int64(1), testhelpers.CountRows(t, s.db, &models.Favorite{}))
}

func TestShortLinkCollisionRetryOnPostgres(t *testing.T) {
	s := newStack(t)
	author := testhelpers.CreateUser(t, s.db, "author")

	codes := []string{"aaa", "aaa", "bbb"}
	var mu sync.Mutex
	s.links.SetGenerator(func(int) string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[0]
		codes = codes[1:]
		return code
	})

	var created []string
	for i := 0; i < 2; i++ {
		recipe := &models.Recipe{AuthorID: author.ID, Name: fmt.Sprintf("r%d", i), Text: "t", CookingTime: 1, Image: "/media/x.png"}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.links.CreateWithShortLink(tx, recipe)
		})
		require.NoError(t, err)
		created = append(created, recipe.ShortLink)
	}
	assert.Equal(t, []string{"aaa", "bbb"}, created)
}
