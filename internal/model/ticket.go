package model

import (
	"database/sql"
	"strconv"
	"time"
)

type (
	TicketID       int64
	TicketStatus   string
	TicketPriority string
)

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// DefaultTicketCategory is used when a ticket is created without a category.
const DefaultTicketCategory = "general"

type Ticket struct {
	ID TicketID `gorm:"primaryKey" json:"id"`

	Title               string         `gorm:"size:255;not null"       json:"title"`
	Status              TicketStatus   `gorm:"size:16;index;not null"  json:"status"`
	Priority            TicketPriority `gorm:"size:16;not null"        json:"priority"`
	Category            string         `gorm:"size:64;not null"        json:"category"`
	UserID              UserID         `gorm:"index;not null"          json:"user_id"`               // Owner of the ticket.
	AssignedModeratorID *UserID        `gorm:"index"                   json:"assigned_moderator_id"` // Optional.

	// Relations
	Owner             *User `gorm:"foreignKey:UserID"              json:"-"`
	AssignedModerator *User `gorm:"foreignKey:AssignedModeratorID" json:"-"`

	// Meta fields
	CreatedAt time.Time    `gorm:"autoCreateTime"       json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime;index" json:"updated_at"` // Advances on status change or new message.
	ClosedAt  sql.NullTime `json:"closed_at"`
}

// TableName - set the table name.
func (Ticket) TableName() string {
	return "support_tickets"
}

// GetID - get the ticket ID.
func (obj *Ticket) GetID() int64 {
	return int64(obj.ID)
}

// ToInt64 - get the ticket ID.
func (id TicketID) ToInt64() int64 {
	return int64(id)
}

// ToString - get the ticket ID.
func (id TicketID) ToString() string {
	return strconv.FormatInt(int64(id), 10)
}

// Valid reports whether the status is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// Valid reports whether the priority is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	default:
		return false
	}
}

// TicketRow is a ticket with its owner and conversation summary, as listed
// to users and moderators.
type TicketRow struct {
	Ticket
	MessageCount  int64
	LastMessageAt sql.NullTime
}
