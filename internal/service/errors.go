package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrAlreadyExists      = errors.New("relation already exists")
	ErrRelationNotFound   = errors.New("relation does not exist")
	ErrSelfFollow         = errors.New("you cannot subscribe to yourself")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrShortLinkExhausted = errors.New("no free short link available")
)

// notFound converts gorm.ErrRecordNotFound into ErrNotFound and wraps
// anything else with what.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
