package model

import (
	"strings"
	"time"
)

// CaptchaSession - an issued captcha challenge. A session may be consumed once.
type CaptchaSession struct {
	Token  string `gorm:"primaryKey;size:64" json:"session_token"` // Opaque session token.
	Digits string `gorm:"size:16;not null"   json:"-"`             // Expected answer.
	IsUsed bool   `gorm:"not null;default:false;index" json:"is_used"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"` // Time when the captcha expires.
}

// TableName - set the table name.
func (CaptchaSession) TableName() string {
	return "captcha_sessions"
}

// Expired - checks if the captcha has expired.
func (obj *CaptchaSession) Expired(now time.Time) bool {
	return !now.Before(obj.ExpiresAt)
}

// Matches - checks the answer, surrounding spaces are ignored.
func (obj *CaptchaSession) Matches(input string) bool {
	return obj.Digits != "" && strings.TrimSpace(input) == obj.Digits
}

// DigitsToString converts captcha digits (values 0..9) to their text form.
func DigitsToString(digits []byte) string {
	var sb strings.Builder
	for _, d := range digits {
		sb.WriteByte('0' + d)
	}
	return sb.String()
}

// StringToDigits is the inverse of DigitsToString. Non digit runes are skipped.
func StringToDigits(s string) []byte {
	digits := make([]byte, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, byte(r-'0'))
		}
	}
	return digits
}
