package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/paysim/gateway/internal/hash"
	"github.com/paysim/gateway/internal/models"
)

// CreateUser hashes the plaintext and inserts a new identity. Emails are
// lowercased before insert, so the unique index rejects duplicates in any
// casing.
func (r *Repo) CreateUser(ctx context.Context, username, email, password, role string, cost int) (*models.User, error) {
	hashed, err := hash.Password(password, cost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:     strings.TrimSpace(username),
		Email:        normalizeEmail(email),
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
	}
	if err := r.DB.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail looks an identity up by (case-insensitive) email. Unless
// includeSecret is set, the password hash column is never read, so the
// returned value cannot carry it regardless of what happens downstream.
func (r *Repo) FindByEmail(ctx context.Context, email string, includeSecret bool) (*models.User, error) {
	q := r.DB.WithContext(ctx)
	if !includeSecret {
		q = q.Omit("password_hash")
	}
	var u models.User
	if err := q.Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Omit("password_hash").Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.DB.WithContext(ctx).Omit("password_hash").Order("created_at").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Save persists mutations to an existing identity. The password hash column
// is excluded so a stale in-memory value can never overwrite the stored one.
func (r *Repo) Save(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Model(u).Omit("password_hash").
		Select("username", "email", "role", "is_active").Updates(u).Error
}

// UpdateActive flips the active flag with a single UPDATE, so two concurrent
// toggles on the same identity serialize at the storage layer.
func (r *Repo) UpdateActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
