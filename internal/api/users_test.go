package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestRegisterLoginLogout(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodPost, "/api/users/", "", map[string]string{
		"email":      "cook@example.com",
		"username":   "cook",
		"first_name": "Jo",
		"last_name":  "Cook",
		"password":   "long-enough-pw",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[types.RegisteredUserResponse](t, w)
	assert.NotZero(t, registered.ID)
	assert.Equal(t, "cook", registered.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    "cook@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    "cook@example.com",
		"password": "long-enough-pw",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[types.TokenResponse](t, w).AuthToken
	require.NotEmpty(t, token)

	w = env.do(http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[types.UserResponse](t, w)
	assert.Equal(t, registered.ID, me.ID)
	assert.Nil(t, me.Avatar)

	w = env.do(http.MethodPost, "/api/auth/token/logout/", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newAPIEnv(t)
	testhelpers.CreateUser(t, env.db, "taken")

	w := env.do(http.MethodPost, "/api/users/", "", map[string]string{
		"email":      "taken@example.com",
		"username":   "me",
		"first_name": "A",
		"last_name":  "B",
		"password":   "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[map[string][]string](t, w)
	assert.NotEmpty(t, errs["username"])
	assert.NotEmpty(t, errs["password"])
}

func TestMeRequiresAuth(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserListAndProfile(t *testing.T) {
	env := newAPIEnv(t)
	alice := testhelpers.CreateUser(t, env.db, "alice")
	bob := testhelpers.CreateUser(t, env.db, "bob")

	w := env.do(http.MethodGet, "/api/users/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[types.PaginatedResponse[types.UserResponse]](t, w)
	assert.Equal(t, int64(2), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "alice", page.Results[0].Username)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/users/%d/", bob.ID), env.token(alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[types.UserResponse](t, w).IsSubscribed)

	w = env.do(http.MethodGet, "/api/users/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvatar(t *testing.T) {
	env := newAPIEnv(t)
	user := testhelpers.CreateUser(t, env.db, "alice")
	token := env.token(user)

	w := env.do(http.MethodPut, "/api/users/me/avatar/", token, map[string]string{"avatar": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/users/me/avatar/", token, map[string]string{"avatar": testhelpers.PNGDataURI})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	avatar := decode[types.AvatarResponse](t, w).Avatar
	assert.NotEmpty(t, avatar)

	w = env.do(http.MethodGet, "/api/users/me/", token, nil)
	me := decode[types.UserResponse](t, w)
	require.NotNil(t, me.Avatar)
	assert.Equal(t, avatar, *me.Avatar)

	w = env.do(http.MethodDelete, "/api/users/me/avatar/", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, env.images.Count())
}

func TestSetPassword(t *testing.T) {
	env := newAPIEnv(t)
	user := testhelpers.CreateUser(t, env.db, "alice")
	token := env.token(user)

	w := env.do(http.MethodPost, "/api/users/set_password/", token, map[string]string{
		"current_password": "not-it",
		"new_password":     "brand-new-pass",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/users/set_password/", token, map[string]string{
		"current_password": testhelpers.TestPassword,
		"new_password":     "brand-new-pass",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPost, "/api/auth/token/login/", "", map[string]string{
		"email":    user.Email,
		"password": "brand-new-pass",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubscriptions(t *testing.T) {
	env := newAPIEnv(t)
	reader := testhelpers.CreateUser(t, env.db, "reader")
	author := testhelpers.CreateUser(t, env.db, "author")
	tag := testhelpers.CreateTag(t, env.db, "lunch")
	for i := 0; i < 3; i++ {
		testhelpers.CreateRecipe(t, env.db, author, fmt.Sprintf("dish%d", i), []*models.Tag{tag})
	}
	token := env.token(reader)
	path := fmt.Sprintf("/api/users/%d/subscribe/", author.ID)

	w := env.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe/", reader.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, path+"?recipes_limit=2", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode[types.SubscriptionResponse](t, w)
	assert.True(t, sub.IsSubscribed)
	assert.Len(t, sub.Recipes, 2)
	assert.Equal(t, int64(3), sub.RecipesCount)

	w = env.do(http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/users/subscriptions/?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[types.PaginatedResponse[types.SubscriptionResponse]](t, w)
	require.Len(t, page.Results, 1)
	assert.Equal(t, author.ID, page.Results[0].ID)
	assert.Len(t, page.Results[0].Recipes, 1)

	w = env.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/users/999/subscribe/", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	lunch := testhelpers.CreateTag(t, env.db, "lunch")
	testhelpers.CreateIngredient(t, env.db, "Salt", "g")
	testhelpers.CreateIngredient(t, env.db, "Sugar", "g")
	testhelpers.CreateIngredient(t, env.db, "Flour", "g")

	w := env.do(http.MethodGet, "/api/tags/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]types.TagResponse](t, w), 1)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/tags/%d/", lunch.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lunch", decode[types.TagResponse](t, w).Slug)

	w = env.do(http.MethodGet, "/api/ingredients/?name=s", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode[[]types.IngredientResponse](t, w)
	require.Len(t, items, 2)

	w = env.do(http.MethodGet, "/api/ingredients/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
