package storage

import (
	"context"
	"strings"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"gorm.io/gorm"
)

// CreateUser inserts a new account. Username and email are unique,
// a clash is reported as a conflict and nothing is written.
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	return s.transaction(ctx, "create user", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("username %q is already taken", user.Username)
		}

		if err := tx.Model(&model.User{}).Where("LOWER(email) = ?", strings.ToLower(user.Email)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("email is already registered")
		}

		if err := tx.Create(user).Error; err != nil {
			if isDuplicatedKey(err) {
				return apperr.Conflict("user with this username or email already exists")
			}
			return err
		}
		return nil
	})
}

// UserByID returns the user or a not found error.
func (s *Storage) UserByID(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, apperr.Store("get user", err)
	}
	return &user, nil
}

// UserByUsername returns the user or a not found error.
func (s *Storage) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("user %q not found", username)
		}
		return nil, apperr.Store("get user", err)
	}
	return &user, nil
}

// RecordLogin bumps the login counter and returns the fresh record.
func (s *Storage) RecordLogin(ctx context.Context, id model.UserID) (*model.User, error) {
	var user model.User
	err := s.transaction(ctx, "record login", func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
			"total_logins": gorm.Expr("total_logins + ?", 1),
			"last_login":   s.now(),
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("user %d not found", id)
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetRole changes the role of the user with the given username.
func (s *Storage) SetRole(ctx context.Context, username string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("unknown role %q", role)
	}
	var user model.User
	err := s.transaction(ctx, "set role", func(tx *gorm.DB) error {
		if err := tx.First(&user, "username = ?", username).Error; err != nil {
			if isRecordNotFound(err) {
				return apperr.NotFound("user %q not found", username)
			}
			return err
		}
		if err := tx.Model(&user).Update("role", role).Error; err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// activeUser loads the acting user inside a transaction.
// Unknown users are unauthenticated, banned users are forbidden to act.
func activeUser(tx *gorm.DB, id model.UserID) (*model.User, error) {
	var user model.User
	if err := tx.First(&user, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.Unauthenticated("unknown user")
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, apperr.Forbidden("user is banned")
	}
	return &user, nil
}
