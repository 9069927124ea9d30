package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCatalogHandlerErrors(t *testing.T) {
	catalog := new(mocks.MockCatalogService)
	catalog.On("ListTags", mock.Anything).Return(nil, errors.New("connection reset"))
	catalog.On("GetTag", mock.Anything, uint(3)).Return(nil, fmt.Errorf("tag: %w", service.ErrNotFound))
	catalog.On("GetIngredient", mock.Anything, uint(4)).
		Return(&models.Ingredient{ID: 4, Name: "Salt", MeasurementUnit: "g"}, nil)

	router := gin.New()
	api.NewCatalogHandler(catalog, logger.Nop()).RegisterRoutes(router.Group("/api"))

	w := serve(router, http.MethodGet, "/api/tags/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, w.Body.String())

	w = serve(router, http.MethodGet, "/api/tags/3/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())

	w = serve(router, http.MethodGet, "/api/ingredients/4/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4,"name":"Salt","measurement_unit":"g"}`, w.Body.String())

	catalog.AssertExpectations(t)
}

func newMockedRecipeRouter(auth *mocks.MockAuthService, recipes *mocks.MockRecipeService, shopping *mocks.MockShoppingListService) *gin.Engine {
	h := api.NewRecipeHandler(api.RecipeHandlerConfig{
		Auth:        auth,
		Recipes:     recipes,
		Shopping:    shopping,
		ShortDomain: "https://foodgram.example/",
		Pagination:  config.Default().Pagination,
		Log:         logger.Nop(),
	})
	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	h.RegisterShortLinkRoutes(router)
	return router
}

func TestRecipeHandlerShortLinks(t *testing.T) {
	auth := new(mocks.MockAuthService)
	recipes := new(mocks.MockRecipeService)
	recipes.On("ShortLink", mock.Anything, uint(5)).Return("abc", nil)
	recipes.On("ResolveShortLink", mock.Anything, "abc").Return(uint(5), nil)
	router := newMockedRecipeRouter(auth, recipes, new(mocks.MockShoppingListService))

	w := serve(router, http.MethodGet, "/api/recipes/5/get-link/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"short-link":"https://foodgram.example/s/abc"}`, w.Body.String())

	w = serve(router, http.MethodGet, "/s/abc/", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/recipes/5/", w.Header().Get("Location"))

	recipes.AssertExpectations(t)
}

func TestRecipeHandlerDownloadUsesViewer(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "tok").Return(&types.TokenClaims{UserID: 7, Username: "cook"}, nil)
	shopping := new(mocks.MockShoppingListService)
	shopping.On("Document", mock.Anything, uint(7)).Return("Salt - 15 g", nil)
	router := newMockedRecipeRouter(auth, new(mocks.MockRecipeService), shopping)

	w := serve(router, http.MethodGet, "/api/recipes/download_shopping_cart/", "tok")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Salt - 15 g", w.Body.String())
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, w.Header().Get("Content-Disposition"))

	shopping.AssertExpectations(t)
}

func TestRecipeHandlerDeleteMapsErrors(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", mock.Anything, "tok").Return(&types.TokenClaims{UserID: 7}, nil)
	recipes := new(mocks.MockRecipeService)
	viewer := service.Viewer{ID: 7}
	recipes.On("Delete", mock.Anything, uint(1), viewer).Return(service.ErrForbidden)
	recipes.On("Delete", mock.Anything, uint(2), viewer).Return(fmt.Errorf("recipe: %w", service.ErrNotFound))
	router := newMockedRecipeRouter(auth, recipes, new(mocks.MockShoppingListService))

	w := serve(router, http.MethodDelete, "/api/recipes/1/", "tok")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(router, http.MethodDelete, "/api/recipes/2/", "tok")
	assert.Equal(t, http.StatusNotFound, w.Code)

	recipes.AssertExpectations(t)
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	auth := new(mocks.MockAuthService)
	auth.On("Login", mock.Anything, mock.AnythingOfType("*types.LoginRequest")).Return("", service.ErrInvalidCredentials)

	router := gin.New()
	api.NewAuthHandler(auth, logger.Nop()).RegisterRoutes(router.Group("/api"))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token/login/",
		jsonBody(t, map[string]string{"email": "a@example.com", "password": "x"}))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.ErrInvalidCredentials.Error())
	auth.AssertExpectations(t)
}
