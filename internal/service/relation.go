package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// RelationKind enumerates the user relations.
type RelationKind int

const (
	RelationFavorite RelationKind = iota
	RelationShoppingCart
	RelationFollow
)

func (k RelationKind) String() string {
	switch k {
	case RelationFavorite:
		return "favorite"
	case RelationShoppingCart:
		return "shopping_cart"
	case RelationFollow:
		return "follow"
	default:
		return fmt.Sprintf("relation(%d)", int(k))
	}
}

// model returns an empty row of the relation table.
func (k RelationKind) model() interface{} {
	switch k {
	case RelationFavorite:
		return &models.Favorite{}
	case RelationShoppingCart:
		return &models.ShoppingCartItem{}
	default:
		return &models.Follow{}
	}
}

func (k RelationKind) row(userID, targetID uint) interface{} {
	switch k {
	case RelationFavorite:
		return &models.Favorite{UserID: userID, RecipeID: targetID}
	case RelationShoppingCart:
		return &models.ShoppingCartItem{UserID: userID, RecipeID: targetID}
	default:
		return &models.Follow{UserID: userID, AuthorID: targetID}
	}
}

func (k RelationKind) targetColumn() string {
	if k == RelationFollow {
		return "author_id"
	}
	return "recipe_id"
}

// target returns an empty row of the table the relation points at.
func (k RelationKind) target() interface{} {
	if k == RelationFollow {
		return &models.User{}
	}
	return &models.Recipe{}
}

// RelationService adds and removes favorites, cart entries and follows.
type RelationService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewRelationService creates a new RelationService instance
func NewRelationService(db *gorm.DB, log *logger.Logger) *RelationService {
	return &RelationService{db: db, log: log.With("component", "relations")}
}

// Add creates the relation (user, target). A second Add for the same pair
// returns ErrAlreadyExists; following oneself returns ErrSelfFollow.
func (s *RelationService) Add(ctx context.Context, kind RelationKind, userID, targetID uint) error {
	if kind == RelationFollow && userID == targetID {
		return ErrSelfFollow
	}
	if err := s.ensureTarget(ctx, kind, targetID); err != nil {
		return err
	}

	exists, err := s.Exists(ctx, kind, userID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: %w", kind, ErrAlreadyExists)
	}

	err = s.db.WithContext(ctx).Omit(clause.Associations).Create(kind.row(userID, targetID)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", kind, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", kind, err)
	}

	metrics.RelationChanges.WithLabelValues(kind.String(), "add").Inc()
	s.log.Debug("Relation added", "kind", kind.String(), "user_id", userID, "target_id", targetID)
	return nil
}

// Remove deletes exactly the relation (user, target), or returns
// ErrRelationNotFound when there is none.
func (s *RelationService) Remove(ctx context.Context, kind RelationKind, userID, targetID uint) error {
	if err := s.ensureTarget(ctx, kind, targetID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND "+kind.targetColumn()+" = ?", userID, targetID).
		Delete(kind.model())
	if res.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", kind, ErrRelationNotFound)
	}

	metrics.RelationChanges.WithLabelValues(kind.String(), "remove").Inc()
	s.log.Debug("Relation removed", "kind", kind.String(), "user_id", userID, "target_id", targetID)
	return nil
}

// Exists reports whether the relation (user, target) is present.
func (s *RelationService) Exists(ctx context.Context, kind RelationKind, userID, targetID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(kind.model()).
		Where("user_id = ? AND "+kind.targetColumn()+" = ?", userID, targetID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", kind, err)
	}
	return count > 0, nil
}

// Targets returns which of targetIDs the user has the relation with. An
// anonymous user (0) has none and no query is made.
func (s *RelationService) Targets(ctx context.Context, kind RelationKind, userID uint, targetIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(kind.model()).
		Where("user_id = ? AND "+kind.targetColumn()+" IN ?", userID, targetIDs).
		Pluck(kind.targetColumn(), &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s relations: %w", kind, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (s *RelationService) ensureTarget(ctx context.Context, kind RelationKind, targetID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(kind.target()).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to load %s target: %w", kind, err)
	}
	if count == 0 {
		if kind == RelationFollow {
			return fmt.Errorf("user: %w", ErrNotFound)
		}
		return fmt.Errorf("recipe: %w", ErrNotFound)
	}
	return nil
}
