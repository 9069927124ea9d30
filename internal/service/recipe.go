package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// RecipeService writes and reads the recipe aggregate
type RecipeService struct {
	db     *gorm.DB
	images storage.ImageStore
	links  *ShortLinker
	limits config.RecipeConfig
	log    *logger.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images storage.ImageStore, links *ShortLinker, limits config.RecipeConfig, log *logger.Logger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		links:  links,
		limits: limits,
		log:    log.With("component", "recipes"),
	}
}

// Create validates in and writes the recipe, its short link, tags and
// ingredient quantities in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in *types.RecipeInput) (*models.Recipe, error) {
	img, err := s.validate(ctx, in, true)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.Save(ctx, storage.RecipeImages, img)
	if err != nil {
		return nil, fmt.Errorf("failed to store recipe image: %w", err)
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
		Image:       imageURL,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.links.CreateWithShortLink(tx, recipe); err != nil {
			return err
		}
		return replaceAssociations(tx, recipe.ID, in)
	})
	if err != nil {
		s.discardImage(ctx, imageURL)
		return nil, err
	}

	s.log.Info("Recipe created", "recipe_id", recipe.ID, "author_id", authorID, "short_link", recipe.ShortLink)
	return s.Get(ctx, recipe.ID)
}

// Update replaces the scalar fields present in in and the full tag and
// ingredient sets. Only the author or staff may update.
func (s *RecipeService) Update(ctx context.Context, recipeID uint, actor Viewer, in *types.RecipeInput) (*models.Recipe, error) {
	var current models.Recipe
	if err := s.db.WithContext(ctx).First(&current, recipeID).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	if err := s.authorize(ctx, actor, current.AuthorID); err != nil {
		return nil, err
	}

	img, err := s.validate(ctx, in, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		updates["text"] = *in.Text
	}
	if in.CookingTime != nil {
		updates["cooking_time"] = *in.CookingTime
	}

	var newImage string
	if img != nil {
		if newImage, err = s.images.Save(ctx, storage.RecipeImages, img); err != nil {
			return nil, fmt.Errorf("failed to store recipe image: %w", err)
		}
		updates["image"] = newImage
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: recipeID}).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		return replaceAssociations(tx, recipeID, in)
	})
	if err != nil {
		s.discardImage(ctx, newImage)
		return nil, err
	}
	if newImage != "" {
		s.discardImage(ctx, current.Image)
	}

	s.log.Info("Recipe updated", "recipe_id", recipeID, "actor_id", actor.ID)
	return s.Get(ctx, recipeID)
}

// Delete removes the recipe with its join rows and relations.
func (s *RecipeService) Delete(ctx context.Context, recipeID uint, actor Viewer) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		return notFound(err, "recipe")
	}
	if err := s.authorize(ctx, actor, recipe.AuthorID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{
			&models.Favorite{},
			&models.ShoppingCartItem{},
			&models.RecipeTag{},
			&models.RecipeIngredient{},
		} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, recipeID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	s.discardImage(ctx, recipe.Image)
	s.log.Info("Recipe deleted", "recipe_id", recipeID, "actor_id", actor.ID)
	return nil
}

// authorize checks that actor may change a recipe owned by ownerID. The staff
// flag is read from the users table, not from the token, so a demotion takes
// effect on the next request.
func (s *RecipeService) authorize(ctx context.Context, actor Viewer, ownerID uint) error {
	if actor.IsAnonymous() {
		return ErrForbidden
	}
	if actor.ID == ownerID {
		return nil
	}
	var staff []bool
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", actor.ID).Pluck("is_staff", &staff).Error; err != nil {
		return fmt.Errorf("failed to look up actor: %w", err)
	}
	current := Viewer{ID: actor.ID, IsStaff: len(staff) == 1 && staff[0]}
	if !current.CanModify(ownerID) {
		return ErrForbidden
	}
	return nil
}

// Get loads one recipe with its author, tags and ingredients.
func (s *RecipeService) Get(ctx context.Context, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadAggregate(s.db.WithContext(ctx)).First(&recipe, recipeID).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	return &recipe, nil
}

// List returns one page of recipes, newest first, and the total count.
func (s *RecipeService) List(ctx context.Context, viewer Viewer, filter types.RecipeFilter, page types.Page) ([]models.Recipe, int64, error) {
	if err := s.checkTagSlugs(ctx, filter.Tags); err != nil {
		return nil, 0, err
	}

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Recipe{})
		if len(filter.Tags) > 0 {
			q = q.Where("recipes.id IN (?)", s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.Tags))
		}
		if filter.AuthorID != 0 {
			q = q.Where("recipes.author_id = ?", filter.AuthorID)
		}
		// relation filters only apply to authenticated viewers
		if !viewer.IsAnonymous() {
			if filter.IsFavorited {
				q = q.Where("recipes.id IN (?)", s.db.Model(&models.Favorite{}).
					Select("recipe_id").Where("user_id = ?", viewer.ID))
			}
			if filter.IsInShoppingCart {
				q = q.Where("recipes.id IN (?)", s.db.Model(&models.ShoppingCartItem{}).
					Select("recipe_id").Where("user_id = ?", viewer.ID))
			}
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := preloadAggregate(query()).
		Order("recipes.created_at DESC").
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

// checkTagSlugs rejects a tags filter naming a slug that does not exist.
func (s *RecipeService) checkTagSlugs(ctx context.Context, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	var found []string
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("slug IN ?", slugs).Pluck("slug", &found).Error; err != nil {
		return fmt.Errorf("failed to look up tags: %w", err)
	}
	known := make(map[string]bool, len(found))
	for _, slug := range found {
		known[slug] = true
	}
	errs := validation.Errors{}
	for _, slug := range slugs {
		if !known[slug] {
			errs.Add("tags", "Select a valid choice. %s is not one of the available choices.", slug)
		}
	}
	return errs.Err()
}

// ShortLink returns the recipe's code.
func (s *RecipeService) ShortLink(ctx context.Context, recipeID uint) (string, error) {
	return s.links.EnsureShortLink(ctx, recipeID)
}

// ResolveShortLink returns the recipe id behind code.
func (s *RecipeService) ResolveShortLink(ctx context.Context, code string) (uint, error) {
	return s.links.Resolve(ctx, code)
}

func preloadAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_tags.tag_id") }).
		Preload("Tags.Tag").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// replaceAssociations deletes the recipe's join rows and bulk inserts the
// validated sets.
func replaceAssociations(tx *gorm.DB, recipeID uint, in *types.RecipeInput) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	tags := make([]models.RecipeTag, len(in.Tags))
	for i, id := range in.Tags {
		tags[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Omit(clause.Associations).Create(&tags).Error; err != nil {
		return fmt.Errorf("failed to write tags: %w", err)
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	rows := make([]models.RecipeIngredient, len(in.Ingredients))
	for i, item := range in.Ingredients {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write ingredients: %w", err)
	}
	return nil
}

// validate checks in before anything is written and returns the decoded
// image, if one was submitted.
func (s *RecipeService) validate(ctx context.Context, in *types.RecipeInput, creating bool) (*storage.Image, error) {
	errs := validation.Errors{}
	errs.Merge(validation.ValidateStruct(in))

	const notNull = "This field may not be null."

	blank := func(field string, v *string) {
		switch {
		case in.IsNull(field):
			errs.Add(field, notNull)
		case v == nil && creating:
			errs.Add(field, "This field is required.")
		case v != nil && strings.TrimSpace(*v) == "":
			errs.Add(field, "This field may not be blank.")
		}
	}
	blank("name", in.Name)
	blank("text", in.Text)

	if in.IsNull("cooking_time") {
		errs.Add("cooking_time", notNull)
	} else if in.CookingTime == nil {
		if creating {
			errs.Add("cooking_time", "This field is required.")
		}
	} else if t := *in.CookingTime; t < s.limits.MinCookingTime || t > s.limits.MaxCookingTime {
		errs.Add("cooking_time", "Cooking time must be between %d and %d.", s.limits.MinCookingTime, s.limits.MaxCookingTime)
	}

	var img *storage.Image
	switch {
	case in.IsNull("image"):
		errs.Add("image", notNull)
	case in.Image == nil && creating:
		errs.Add("image", "This field is required.")
	case in.Image != nil && strings.TrimSpace(*in.Image) == "":
		errs.Add("image", "This field may not be blank.")
	case in.Image != nil:
		decoded, err := storage.DecodeDataURI(*in.Image)
		if err != nil {
			errs.Add("image", "Upload a valid image.")
		}
		img = decoded
	}

	if err := s.validateTags(ctx, in.Tags, errs); err != nil {
		return nil, err
	}
	if err := s.validateIngredients(ctx, in.Ingredients, errs); err != nil {
		return nil, err
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *RecipeService) validateTags(ctx context.Context, ids []uint, errs validation.Errors) error {
	if len(ids) == 0 {
		errs.Add("tags", "At least one tag is required.")
		return nil
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			errs.Add("tags", "Tag %d is listed more than once.", id)
		}
		seen[id] = true
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up tags: %w", err)
	}
	for _, id := range missing(ids, found) {
		errs.Add("tags", "Tag %d does not exist.", id)
	}
	return nil
}

func (s *RecipeService) validateIngredients(ctx context.Context, items []types.IngredientAmount, errs validation.Errors) error {
	if len(items) == 0 {
		errs.Add("ingredients", "At least one ingredient is required.")
		return nil
	}
	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if seen[item.ID] {
			errs.Add("ingredients", "Ingredient %d is listed more than once.", item.ID)
		}
		seen[item.ID] = true
		ids = append(ids, item.ID)
		if item.Amount < s.limits.MinAmount || item.Amount > s.limits.MaxAmount {
			errs.Add("ingredients", "Amount of ingredient %d must be between %d and %d.", item.ID, s.limits.MinAmount, s.limits.MaxAmount)
		}
	}

	var found []uint
	if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up ingredients: %w", err)
	}
	for _, id := range missing(ids, found) {
		errs.Add("ingredients", "Ingredient %d does not exist.", id)
	}
	return nil
}

// missing returns the distinct ids of want that are not in have, in order.
func missing(want, have []uint) []uint {
	present := make(map[uint]bool, len(have))
	for _, id := range have {
		present[id] = true
	}
	var out []uint
	for _, id := range want {
		if !present[id] {
			out = append(out, id)
			present[id] = true
		}
	}
	return out
}

func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("Failed to delete image", "url", url, "error", err)
	}
}
