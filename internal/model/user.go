package model

import (
	"database/sql"
	"strconv"
	"time"
)

type (
	UserID int64
	Role   string
)

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// DefaultAvatarURL is assigned to every new account.
const DefaultAvatarURL = "/avatars/default.jpg"

type User struct {
	ID UserID `gorm:"primaryKey" json:"id"` // Unique identifier for this user.

	// Account fields
	Username     string `gorm:"size:64;uniqueIndex;not null"  json:"username"`   // Login name.
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`      // Contact email.
	PasswordHash string `gorm:"size:255;not null"             json:"-"`          // bcrypt hash of the password.
	Role         Role   `gorm:"size:16;index;not null"        json:"role"`       // user, moderator or admin.
	Station      string `gorm:"size:255"                      json:"station"`    // Free-text profile field.
	AvatarURL    string `gorm:"size:255"                      json:"avatar_url"` // Profile picture.

	// Moderation fields, written only by the moderation engine
	IsBanned     bool         `gorm:"not null;default:false" json:"is_banned"`
	BanReason    string       `gorm:"size:255"               json:"ban_reason"`
	BannedAt     sql.NullTime `json:"banned_at"`
	WarningCount int          `gorm:"not null;default:0"     json:"warning_count"`

	// Login statistics
	TotalLogins int64        `gorm:"not null;default:0" json:"total_logins"`
	LastLogin   sql.NullTime `json:"last_login"`

	// Meta fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName - set the table name.
func (User) TableName() string {
	return "users"
}

// GetID - get the user ID.
func (obj *User) GetID() int64 {
	return int64(obj.ID)
}

// ToInt64 - get the user ID.
func (id UserID) ToInt64() int64 {
	return int64(id)
}

// ToString - get the user ID.
func (id UserID) ToString() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses a decimal user ID.
func ParseUserID(s string) (UserID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(id), nil
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// CanModerate reports whether the role may see all tickets and change their status.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}
