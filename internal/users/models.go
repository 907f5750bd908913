package users

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"packly/pkg/ability"
)

// ErrUserNotFound is returned by user lookups when no record matches.
var ErrUserNotFound = errors.New("user not found")

// AuthProviderLocal is the password-based account provider. Social providers
// would add their own values; login only ever checks the local one.
const AuthProviderLocal = "LOCAL"

type User struct {
	ID        uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	FirstName string       `json:"first_name" gorm:"not null"`
	LastName  string       `json:"last_name" gorm:"not null"`
	Email     string       `json:"email" gorm:"uniqueIndex;not null"`
	Role      ability.Role `json:"role" gorm:"not null;default:'USER'"`
	IsActive  bool         `json:"is_active" gorm:"not null;default:true"`

	// PasswordChangedAt drives the token staleness check: any access token
	// issued before it is rejected without a revocation list.
	PasswordChangedAt *time.Time `json:"-"`

	// Only the SHA-256 hash of a reset token is ever stored.
	PasswordResetHash      string     `json:"-" gorm:"index"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	Accounts []Account `json:"-" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Account is one authentication method attached to a user. The local account
// carries the bcrypt password hash.
type Account struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	AuthProvider   string    `json:"auth_provider" gorm:"not null;default:'LOCAL'"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RolePermission is a stored role→permission row, the persisted counterpart
// of the static role map. Rows are read wholesale and turned into a rule set.
type RolePermission struct {
	ID      uint   `gorm:"primaryKey"`
	Role    string `gorm:"index;not null"`
	Action  string `gorm:"not null"`
	Subject string `gorm:"not null"`
	Scope   string `gorm:"not null;default:'own'"`
}

// LocalAccount returns the password-based account, if the user has one.
func (u *User) LocalAccount() *Account {
	for i := range u.Accounts {
		if u.Accounts[i].AuthProvider == AuthProviderLocal {
			return &u.Accounts[i]
		}
	}
	return nil
}
