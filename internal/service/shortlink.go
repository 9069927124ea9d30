package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

const shortLinkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeGenerator returns a random code of length n.
type CodeGenerator func(n int) string

// RandomCode draws n symbols from [a-zA-Z0-9].
func RandomCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = shortLinkAlphabet[rand.IntN(len(shortLinkAlphabet))]
	}
	return string(b)
}

// ShortLinker assigns and resolves recipe short links. A code is claimed by
// inserting it under the unique index; a duplicate key rolls back to a
// savepoint and a new code is drawn, at most maxAttempts times.
type ShortLinker struct {
	db          *gorm.DB
	length      int
	maxAttempts int
	generate    CodeGenerator
	log         *logger.Logger
}

// NewShortLinker creates a ShortLinker from the recipe settings
func NewShortLinker(db *gorm.DB, cfg config.RecipeConfig, log *logger.Logger) *ShortLinker {
	return &ShortLinker{
		db:          db,
		length:      cfg.ShortLinkLength,
		maxAttempts: cfg.ShortLinkMaxAttempts,
		generate:    RandomCode,
		log:         log.With("component", "short_link"),
	}
}

// SetGenerator replaces the random source.
func (l *ShortLinker) SetGenerator(gen CodeGenerator) {
	l.generate = gen
}

// CreateWithShortLink inserts recipe inside tx with a fresh code.
func (l *ShortLinker) CreateWithShortLink(tx *gorm.DB, recipe *models.Recipe) error {
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		recipe.ID = 0
		recipe.ShortLink = l.generate(l.length)

		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(recipe).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		metrics.ShortLinkCollisions.Inc()
		l.log.Warn("Short link collision", "code", recipe.ShortLink, "attempt", attempt)
	}

	return l.exhausted()
}

// EnsureShortLink returns the code of a recipe, assigning one if the row
// has none yet. An existing code is never replaced.
func (l *ShortLinker) EnsureShortLink(ctx context.Context, recipeID uint) (string, error) {
	db := l.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Select("id", "short_link").First(&recipe, recipeID).Error; err != nil {
		return "", notFound(err, "recipe")
	}
	if recipe.ShortLink != "" {
		return recipe.ShortLink, nil
	}

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		code := l.generate(l.length)
		var claimed int64
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Recipe{}).
				Where("id = ? AND short_link = ?", recipeID, "").
				Update("short_link", code)
			claimed = res.RowsAffected
			return res.Error
		})
		switch {
		case err == nil && claimed == 1:
			return code, nil
		case err == nil:
			// assigned concurrently
			if err := db.Select("short_link").First(&recipe, recipeID).Error; err != nil {
				return "", notFound(err, "recipe")
			}
			return recipe.ShortLink, nil
		case errors.Is(err, gorm.ErrDuplicatedKey):
			metrics.ShortLinkCollisions.Inc()
			l.log.Warn("Short link collision", "code", code, "attempt", attempt, "recipe_id", recipeID)
		default:
			return "", fmt.Errorf("failed to assign short link: %w", err)
		}
	}

	return "", l.exhausted()
}

// Resolve returns the id of the recipe owning code.
func (l *ShortLinker) Resolve(ctx context.Context, code string) (uint, error) {
	if code == "" {
		return 0, fmt.Errorf("short link: %w", ErrNotFound)
	}
	var recipe models.Recipe
	err := l.db.WithContext(ctx).Select("id").Where("short_link = ?", code).Take(&recipe).Error
	if err != nil {
		return 0, notFound(err, "short link")
	}
	return recipe.ID, nil
}

func (l *ShortLinker) exhausted() error {
	metrics.ShortLinkExhausted.Inc()
	l.log.Error("Short link keyspace exhausted", "length", l.length, "attempts", l.maxAttempts)
	return fmt.Errorf("%w after %d attempts with length %d", ErrShortLinkExhausted, l.maxAttempts, l.length)
}
