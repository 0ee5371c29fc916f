package model

import (
	"database/sql"
	"strconv"
	"time"
)

type (
	MessageID int64
)

// DefaultMessageType is used when a message is sent without a type.
const DefaultMessageType = "text"

type Message struct {
	ID            MessageID `gorm:"primaryKey"      json:"id"`             // Unique message identifier.
	TicketID      TicketID  `gorm:"index;not null"  json:"ticket_id"`      // Ticket the message belongs to.
	SenderID      UserID    `gorm:"index;not null"  json:"sender_id"`      // Author of the message.
	Content       string    `gorm:"type:text;not null" json:"content"`     // Message text.
	MessageType   string    `gorm:"size:32;not null" json:"message_type"`  // text, image, ...
	AttachmentURL string    `gorm:"size:512"        json:"attachment_url"` // Optional attachment.

	// Moderation fields, set by a report
	IsFlagged  bool   `gorm:"not null;default:false" json:"is_flagged"`
	FlagReason string `gorm:"size:255"               json:"flag_reason"`

	// Relations
	Sender *User `gorm:"foreignKey:SenderID" json:"-"` // Reference to the sender.

	// Meta fields
	CreatedAt time.Time    `gorm:"autoCreateTime;index" json:"created_at"` // Time when the message was sent.
	EditedAt  sql.NullTime `json:"edited_at"`                              // Time of last edit.
}

// TableName - set the table name.
func (Message) TableName() string {
	return "messages"
}

// GetID - get the message ID.
func (obj *Message) GetID() int64 {
	return int64(obj.ID)
}

// ToInt64 - get the message ID.
func (id MessageID) ToInt64() int64 {
	return int64(id)
}

// ToString - get the message ID.
func (id MessageID) ToString() string {
	return strconv.FormatInt(int64(id), 10)
}
