package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

// CatalogService serves tags and ingredients and loads them in bulk
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListTags returns every tag ordered by name
func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one tag
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err, "tag")
	}
	return &tag, nil
}

// ListIngredients returns ingredients ordered by name, optionally those whose
// name starts with prefix (case-insensitive).
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns one ingredient
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, notFound(err, "ingredient")
	}
	return &ingredient, nil
}

// UpsertIngredients inserts the ingredients that are not present yet. The
// (name, measurement_unit) pair is the identity. Returns the rows inserted.
func (s *CatalogService) UpsertIngredients(ctx context.Context, items []models.Ingredient) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).
		CreateInBatches(items, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to load ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpsertTags inserts tags keyed by slug, updating the name of existing ones.
func (s *CatalogService) UpsertTags(ctx context.Context, items []models.Tag) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&items)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to load tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ParseIngredientsCSV reads "name,measurement_unit" rows. A header row is
// skipped.
func ParseIngredientsCSV(r io.Reader) ([]models.Ingredient, error) {
	rows, err := readCSV(r, "name")
	if err != nil {
		return nil, err
	}
	out := make([]models.Ingredient, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			return nil, fmt.Errorf("ingredients row %d: expected name and measurement unit", i+1)
		}
		out = append(out, models.Ingredient{Name: row[0], MeasurementUnit: row[1]})
	}
	return out, nil
}

// ParseTagsCSV reads "name,slug" rows. A header row is skipped.
func ParseTagsCSV(r io.Reader) ([]models.Tag, error) {
	rows, err := readCSV(r, "name")
	if err != nil {
		return nil, err
	}
	out := make([]models.Tag, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			return nil, fmt.Errorf("tags row %d: expected name and slug", i+1)
		}
		out = append(out, models.Tag{Name: row[0], Slug: row[1]})
	}
	return out, nil
}

func readCSV(r io.Reader, header string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if len(rows) == 0 && len(row) > 0 && strings.EqualFold(row[0], header) {
			continue
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
