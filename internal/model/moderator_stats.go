package model

import (
	"database/sql"
	"time"
)

// ModeratorStats is the per-moderator rollup, updated when a moderator
// closes a ticket or receives a rating.
type ModeratorStats struct {
	ModeratorID        UserID       `gorm:"primaryKey;autoIncrement:false" json:"moderator_id"`
	TotalTicketsClosed int64        `gorm:"not null;default:0"             json:"total_tickets_closed"`
	AverageRating      float64      `gorm:"not null;default:0"             json:"average_rating"`
	TotalReviews       int64        `gorm:"not null;default:0"             json:"total_reviews"`
	ResponseTimeAvg    int64        `gorm:"not null;default:0"             json:"response_time_avg"` // Minutes.
	ResponseSamples    int64        `gorm:"not null;default:0"             json:"-"`                 // Closed tickets with a moderator reply.
	LastActive         sql.NullTime `json:"last_active"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName - set the table name.
func (ModeratorStats) TableName() string {
	return "moderator_stats"
}

// ModeratorRating is a user's rating of the moderator who closed their ticket.
type ModeratorRating struct {
	ID          int64    `gorm:"primaryKey"                json:"id"`
	TicketID    TicketID `gorm:"uniqueIndex;not null"      json:"ticket_id"`
	ModeratorID UserID   `gorm:"index;not null"            json:"moderator_id"`
	UserID      UserID   `gorm:"index;not null"            json:"user_id"`
	Rating      int      `gorm:"not null"                  json:"rating"` // 1..5
	Comment     string   `gorm:"type:text"                 json:"comment"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName - set the table name.
func (ModeratorRating) TableName() string {
	return "moderator_ratings"
}

// TopModerator is a row of the moderators leaderboard.
type TopModerator struct {
	ModeratorID        UserID
	Username           string
	Station            string
	TotalTicketsClosed int64
	AverageRating      float64
	TotalReviews       int64
}

// SystemStats are system wide ticket counters.
type SystemStats struct {
	TotalTickets        int64
	OpenTickets         int64
	ClosedToday         int64
	AverageResponseTime sql.NullFloat64
	AverageRating       sql.NullFloat64
}

// SystemOverview is the dashboard summary derived from SystemStats.
type SystemOverview struct {
	TotalTickets        int64
	OpenTickets         int64
	ClosedToday         int64
	AverageResponseTime int64   // Minutes.
	Satisfaction        float64 // 0..100
}
