package api

import "time"

// PublicUser is the profile of another user as shown next to tickets and messages.
type PublicUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	Station   string `json:"station"`
	AvatarURL string `json:"avatar_url"`
}

// Profile is the caller's own account.
type Profile struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Station      string     `json:"station"`
	AvatarURL    string     `json:"avatar_url"`
	WarningCount int        `json:"warning_count"`
	IsBanned     bool       `json:"is_banned"`
	TotalLogins  int64      `json:"total_logins"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Ticket struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	Status              string      `json:"status"`
	Priority            string      `json:"priority"`
	Category            string      `json:"category"`
	UserID              int64       `json:"user_id"`
	AssignedModeratorID *int64      `json:"assigned_moderator_id"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	ClosedAt            *time.Time  `json:"closed_at"`
	User                *PublicUser `json:"user,omitempty"`
	AssignedModerator   *PublicUser `json:"assigned_moderator,omitempty"`
	MessageCount        int64       `json:"message_count"`
	LastMessageAt       *time.Time  `json:"last_message_at"`
}

type Message struct {
	ID            int64       `json:"id"`
	TicketID      int64       `json:"ticket_id"`
	SenderID      int64       `json:"sender_id"`
	Content       string      `json:"content"`
	MessageType   string      `json:"message_type"`
	AttachmentURL string      `json:"attachment_url"`
	IsFlagged     bool        `json:"is_flagged"`
	FlagReason    string      `json:"flag_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	EditedAt      *time.Time  `json:"edited_at"`
	Sender        *PublicUser `json:"sender,omitempty"`
}

type Report struct {
	ID             int64       `json:"id"`
	MessageID      int64       `json:"message_id"`
	ReporterID     int64       `json:"reporter_id"`
	ReportedUserID int64       `json:"reported_user_id"`
	Reason         string      `json:"reason"`
	Description    string      `json:"description"`
	CreatedAt      time.Time   `json:"created_at"`
	MessageContent string      `json:"message_content,omitempty"`
	Reporter       *PublicUser `json:"reporter,omitempty"`
	ReportedUser   *PublicUser `json:"reported_user,omitempty"`
}

// ReportResult is returned after filing a report. UserBanned is the ban
// state of the reported user, BanTriggered is true only for the report
// which caused the ban.
type ReportResult struct {
	ReportID       int64 `json:"report_id"`
	ReportedUserID int64 `json:"reported_user_id"`
	WarningCount   int   `json:"warning_count"`
	UserBanned     bool  `json:"user_banned"`
	BanTriggered   bool  `json:"ban_triggered"`
}

type ModeratorStats struct {
	ModeratorID        int64      `json:"moderator_id"`
	TotalTicketsClosed int64      `json:"total_tickets_closed"`
	AverageRating      float64    `json:"average_rating"`
	TotalReviews       int64      `json:"total_reviews"`
	ResponseTimeAvg    int64      `json:"response_time_avg"`
	LastActive         *time.Time `json:"last_active"`
}

type TopModerator struct {
	ModeratorID        int64   `json:"moderator_id"`
	Username           string  `json:"username"`
	Station            string  `json:"station"`
	TotalTicketsClosed int64   `json:"total_tickets_closed"`
	AverageRating      float64 `json:"average_rating"`
	TotalReviews       int64   `json:"total_reviews"`
}

type SystemStats struct {
	TotalTickets        int64   `json:"total_tickets"`
	OpenTickets         int64   `json:"open_tickets"`
	ClosedToday         int64   `json:"closed_today"`
	AverageResponseTime int64   `json:"average_response_time"`
	UserSatisfaction    float64 `json:"user_satisfaction"`
}

type Rating struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id"`
	ModeratorID int64     `json:"moderator_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
}

type Captcha struct {
	SessionToken string    `json:"session_token"`
	ImageURL     string    `json:"image_url,omitempty"`
	Length       int       `json:"length"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	ExpiresIn    int64     `json:"expires_in"` // Seconds.
	ExpiresAt    time.Time `json:"expires_at"`
}
