package auth

import (
	"context"
	"errors"
	"time"

	"packly/internal/users"
	"packly/pkg/ability"

	"gorm.io/gorm"
)

// Repository is the user-record collaborator consumed by the auth flows and
// the session middleware.
type Repository interface {
	CreateUser(ctx context.Context, user *users.User) error
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID string, hashedPassword string) error
	SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error
	GetUserByResetHash(ctx context.Context, hash string) (*users.User, error)
	GetPermissionRows(ctx context.Context) ([]ability.PermissionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateUser(ctx context.Context, user *users.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Preload("Accounts").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, users.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Preload("Accounts").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, users.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdatePassword stores the new hash on the local account and bumps the
// user's password_changed_at, which retires every previously issued token.
func (r *repository) UpdatePassword(ctx context.Context, userID string, hashedPassword string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&users.Account{}).
			Where("user_id = ? AND auth_provider = ?", userID, users.AuthProviderLocal).
			Update("hashed_password", hashedPassword)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return users.ErrUserNotFound
		}

		now := time.Now().UTC()
		return tx.Model(&users.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"password_changed_at":       now,
				"password_reset_hash":       "",
				"password_reset_expires_at": nil,
			}).Error
	})
}

func (r *repository) SetResetToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_reset_hash":       hash,
			"password_reset_expires_at": expiresAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func (r *repository) GetUserByResetHash(ctx context.Context, hash string) (*users.User, error) {
	var user users.User
	err := r.db.WithContext(ctx).Preload("Accounts").
		Where("password_reset_hash = ?", hash).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, users.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetPermissionRows(ctx context.Context) ([]ability.PermissionRow, error) {
	var records []users.RolePermission
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	rows := make([]ability.PermissionRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, ability.PermissionRow{
			Role:    rec.Role,
			Action:  rec.Action,
			Subject: rec.Subject,
			Scope:   rec.Scope,
		})
	}
	return rows, nil
}
