package model

import "time"

type (
	ReportID int64
)

// Report is an abuse report against a message. Immutable once created.
// A reporter may report a given message only once.
type Report struct {
	ID             ReportID  `gorm:"primaryKey"                                            json:"id"`
	MessageID      MessageID `gorm:"uniqueIndex:idx_report_message_reporter;not null"      json:"message_id"`
	ReporterID     UserID    `gorm:"uniqueIndex:idx_report_message_reporter;index;not null" json:"reporter_id"`
	ReportedUserID UserID    `gorm:"index;not null"                                        json:"reported_user_id"` // Sender of the message.
	Reason         string    `gorm:"size:100;not null"                                     json:"reason"`
	Description    string    `gorm:"type:text"                                             json:"description"`

	// Relations
	Message      *Message `gorm:"foreignKey:MessageID"      json:"-"`
	Reporter     *User    `gorm:"foreignKey:ReporterID"     json:"-"`
	ReportedUser *User    `gorm:"foreignKey:ReportedUserID" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName - set the table name.
func (Report) TableName() string {
	return "reports"
}

// GetID - get the report ID.
func (obj *Report) GetID() int64 {
	return int64(obj.ID)
}

// ReportOutcome is the result of filing a report.
type ReportOutcome struct {
	ReportID     ReportID
	ReportedUser UserID
	WarningCount int
	// Banned is true when this report pushed the user over the threshold.
	Banned bool
	// IsBanned is the ban state of the reported user after the report.
	IsBanned bool
}
