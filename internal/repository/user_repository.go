package repository

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/iliyamo/class-booking/internal/model"
)

type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u with a normalized email and fills its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	err := r.DB.WithContext(ctx).Create(u).Error
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return errors.Wrap(err, "insert user")
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	return u, notFound(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return u, notFound(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpdatePasswordHash replaces the stored bcrypt hash of a user.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash).Error
	return errors.Wrap(err, "update password hash")
}
