package model

import (
	"database/sql"
	"time"
)

// BannedUser is the audit record of a ban, written together with the
// users.is_banned flag.
type BannedUser struct {
	ID           UserID       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	BannedAt     time.Time    `gorm:"not null"                       json:"banned_at"`     // The time when the user was banned
	Reason       string       `gorm:"size:255;not null"              json:"reason"`        // Reason for the ban
	WarningCount int          `gorm:"not null"                       json:"warning_count"` // Warnings at the moment of the ban
	ReportID     ReportID     `json:"report_id"`                                           // Report which triggered the ban
	ExpiresAt    sql.NullTime `gorm:"null"                           json:"expires_at"`    // Expiry time of the ban, null if indefinite

	// Meta fields
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName - set the table name.
func (BannedUser) TableName() string {
	return "banned"
}

// GetID - get the user ID.
func (obj *BannedUser) GetID() int64 {
	return int64(obj.ID)
}
