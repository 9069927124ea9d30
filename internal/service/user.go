package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

// UserService reads users, manages avatars and lists subscriptions
type UserService struct {
	db     *gorm.DB
	images storage.ImageStore
	log    *logger.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, images storage.ImageStore, log *logger.Logger) *UserService {
	return &UserService{db: db, images: images, log: log.With("component", "users")}
}

// List returns one page of users ordered by username.
func (s *UserService) List(ctx context.Context, page types.Page) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	var users []models.User
	if err := db.Order("username").Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// SetAvatar stores a new avatar and returns its URL. The previous file is
// removed.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, req *types.AvatarRequest) (string, error) {
	if errs := validation.ValidateStruct(req); errs != nil {
		return "", errs
	}
	img, err := storage.DecodeDataURI(req.Avatar)
	if err != nil {
		errs := validation.Errors{}
		errs.Add("avatar", "Upload a valid image.")
		return "", errs
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	previous := user.Avatar
	url, err := s.images.Save(ctx, storage.Avatars, img)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		s.deleteImage(ctx, url)
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}
	s.deleteImage(ctx, previous)
	return url, nil
}

// ClearAvatar removes the avatar.
func (s *UserService) ClearAvatar(ctx context.Context, userID uint) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	// Update writes back into user
	previous := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	s.deleteImage(ctx, previous)
	return nil
}

// Subscriptions returns one page of the authors userID follows, ordered by
// username.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page types.Page) ([]models.User, int64, error) {
	query := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.User{}).
			Joins("JOIN follows ON follows.author_id = users.id").
			Where("follows.user_id = ?", userID)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	var authors []models.User
	if err := query().Order("users.username").Offset(page.Offset()).Limit(page.Size).Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return authors, total, nil
}

func (s *UserService) deleteImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("Failed to delete avatar", "url", url, "error", err)
	}
}
