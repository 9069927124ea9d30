package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

// sequence returns a generator that yields codes in order and then repeats
// the last one.
func sequence(codes ...string) service.CodeGenerator {
	i := 0
	return func(int) string {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

func TestRandomCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-zA-Z0-9]{3}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, service.RandomCode(3))
	}
	assert.Len(t, service.RandomCode(8), 8)
}

func TestShortLinksAreUnique(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		recipe, err := f.env.recipes.Create(ctx, f.author.ID, f.input())
		require.NoError(t, err)
		assert.False(t, seen[recipe.ShortLink], "short link %s reused", recipe.ShortLink)
		seen[recipe.ShortLink] = true
	}
}

func TestShortLinkCollisionRetries(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	f.env.links.SetGenerator(sequence("abc"))
	first, err := f.env.recipes.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)
	assert.Equal(t, "abc", first.ShortLink)

	f.env.links.SetGenerator(sequence("abc", "abc", "xyz"))
	second, err := f.env.recipes.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)
	assert.Equal(t, "xyz", second.ShortLink)
	assert.Len(t, second.Ingredients, 2)
	assert.Equal(t, int64(2), testhelpers.CountRows(t, f.env.db, &models.Recipe{}))
}

func TestShortLinkExhaustion(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	f.env.links.SetGenerator(sequence("abc"))
	_, err := f.env.recipes.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	_, err = f.env.recipes.Create(ctx, f.author.ID, f.input())
	assert.ErrorIs(t, err, service.ErrShortLinkExhausted)
	assert.Equal(t, int64(1), testhelpers.CountRows(t, f.env.db, &models.Recipe{}))
	assert.Equal(t, 1, f.env.images.Count())
}

func TestShortLinkResolveAndEnsure(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.env.recipes.Create(ctx, f.author.ID, f.input())
	require.NoError(t, err)

	code, err := f.env.recipes.ShortLink(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ShortLink, code)

	id, err := f.env.recipes.ResolveShortLink(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, id)

	_, err = f.env.recipes.ResolveShortLink(ctx, "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.env.recipes.ShortLink(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	// rows without a code get one assigned once
	require.NoError(t, f.env.db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Update("short_link", "").Error)
	f.env.links.SetGenerator(sequence("new"))
	code, err = f.env.recipes.ShortLink(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", code)

	f.env.links.SetGenerator(sequence("zzz"))
	code, err = f.env.recipes.ShortLink(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", code)
}
