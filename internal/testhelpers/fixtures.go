package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// PNGDataURI is a valid 1x1 transparent PNG upload.
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TestPassword is the plain password of every user created by CreateUser.
const TestPassword = "s3cret-pass"

var (
	seq      atomic.Int64
	hashOnce sync.Once
	hash     []byte
)

func passwordHash(t *testing.T) string {
	hashOnce.Do(func() {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
	})
	return string(hash)
}

// CreateUser inserts a user with a unique username and TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: passwordHash(t),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateTag inserts a tag whose name and slug are both slug.
func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: slug, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

// CreateIngredient inserts a catalog ingredient.
func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ingredient
}

// Amount pairs an ingredient with a quantity for CreateRecipe.
type Amount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe with its join rows directly, bypassing
// validation. Every recipe gets a distinct short link.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, amounts ...Amount) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " text",
		CookingTime: 10,
		Image:       "/media/" + storage.RecipeImages + "/" + name + ".png",
		ShortLink:   fmt.Sprintf("t%d", seq.Add(1)),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Omit(clause.Associations).Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		for _, a := range amounts {
			row := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: a.Ingredient.ID, Amount: a.Amount}
			if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	return recipe
}

// MemoryImages is an in-memory storage.ImageStore that records what it saved
// and deleted.
type MemoryImages struct {
	mu      sync.Mutex
	Saved   map[string][]byte
	Deleted []string
	FailOn  string
}

// NewMemoryImages creates an empty MemoryImages.
func NewMemoryImages() *MemoryImages {
	return &MemoryImages{Saved: make(map[string][]byte)}
}

func (m *MemoryImages) Save(_ context.Context, prefix string, img *storage.Image) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn != "" && m.FailOn == prefix {
		return "", fmt.Errorf("save to %s failed", prefix)
	}
	url := "/media/" + storage.ObjectKey(prefix, img)
	m.Saved[url] = img.Data
	return url, nil
}

func (m *MemoryImages) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Saved, url)
	m.Deleted = append(m.Deleted, url)
	return nil
}

// Count returns the number of images currently stored.
func (m *MemoryImages) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}

// CountRows returns the number of rows of model.
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
