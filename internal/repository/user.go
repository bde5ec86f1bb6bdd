package repository

import (
	"context" // Query context
	"strings" // Email normalisation

	"eshop/internal/domain" // Importing domain models

	"github.com/pkg/errors" // Error wrapping
	"gorm.io/gorm"          // GORM ORM library
)

// UserRepo persists accounts
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new account. A taken username or email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email) // Emails are case-insensitive
	var taken int64                          // Accounts sharing the username or email
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ? OR username = ?", user.Email, user.Username).
		Count(&taken).Error
	if err != nil {
		return errors.Wrap(err, "check existing user")
	}
	if taken > 0 {
		return errors.Wrap(domain.ErrConflict, "username or email already registered")
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) { // Lost a race with a concurrent signup
			return errors.Wrap(domain.ErrConflict, "username or email already registered")
		}
		return errors.Wrap(err, "create user")
	}
	return nil
}

// GetByEmail looks an account up by its case-insensitive email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// notFound maps gorm's missing-record error to domain.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(domain.ErrNotFound, "%s not found", what)
	}
	return errors.Wrapf(err, "load %s", what)
}
