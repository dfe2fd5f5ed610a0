package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
)

// CreateUser inserts u; email and username must be unused.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", u.Email, u.Username).
		Count(&count).Error; err != nil {
		return wrap("create", "user", "", err)
	}
	if count > 0 {
		return wrap("create", "user", "", ErrDuplicate)
	}
	return wrap("create", "user", "", s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) UserByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, wrap("get", "user", id, err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	email = strings.TrimSpace(strings.ToLower(email))
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return u, wrap("get", "user", email, err)
}

// FindOrCreateClient returns the user owning email, creating a client
// account without a usable password when none exists yet.
func (s *Store) FindOrCreateClient(ctx context.Context, name, email string) (models.User, error) {
	u, err := s.UserByEmail(ctx, email)
	if err == nil {
		if !u.IsClient {
			u.IsClient = true
			if err := s.db.WithContext(ctx).Model(&u).Update("is_client", true).Error; err != nil {
				return u, wrap("update", "user", u.ID, err)
			}
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return u, err
	}
	u = models.User{
		Email:    strings.TrimSpace(strings.ToLower(email)),
		Username: clientUsername(email),
		Name:     strings.TrimSpace(name),
		IsClient: true,
		// no bcrypt hash matches the empty string, so sign-in stays closed
		PasswordHash: "!",
	}
	err = s.db.WithContext(ctx).Create(&u).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return s.UserByEmail(ctx, email)
	}
	return u, wrap("create", "user", "", err)
}

func clientUsername(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i] + "-" + models.NewID()[:8]
	}
	return "client-" + models.NewID()[:8]
}
