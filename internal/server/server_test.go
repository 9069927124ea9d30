package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	db := testhelpers.NewTestDB(t)
	log := logger.Nop()
	cfg := config.Default()
	images := testhelpers.NewMemoryImages()
	links := service.NewShortLinker(db, cfg.Recipes, log)
	relations := service.NewRelationService(db, log)

	return New(api.Dependencies{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Auth:      service.NewAuthService(db, "test-secret", time.Hour, service.NewMemoryBlocklist(), log),
		Users:     service.NewUserService(db, images, log),
		Recipes:   service.NewRecipeService(db, images, links, cfg.Recipes, log),
		Relations: relations,
		Catalog:   service.NewCatalogService(db),
		Shopping:  service.NewShoppingListService(db),
		Presenter: service.NewPresenter(db, relations),
	}, opts...)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// one request so the HTTP collectors have a sample
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tags/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "foodgram_http_requests_total")
}

func TestMediaRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "recipes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recipes", "a.txt"), []byte("pic"), 0o644))

	srv := newTestServer(t, WithMediaRoot("/media/", dir))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/recipes/a.txt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pic", strings.TrimSpace(w.Body.String()))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
