package converters

import (
	"database/sql"
	"time"

	"github.com/plugfox/helpdesk-server/api"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	"github.com/plugfox/helpdesk-server/internal/model"
)

// Convert a nullable database time to an optional JSON time.
func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// Convert database user to the public profile shown to others.
func PublicUserToAPI(u *model.User) *api.PublicUser {
	// Relation was not loaded
	if u == nil || u.ID == 0 {
		return nil
	}
	return &api.PublicUser{
		ID:        u.ID.ToInt64(),
		Username:  u.Username,
		Role:      string(u.Role),
		Station:   u.Station,
		AvatarURL: u.AvatarURL,
	}
}

// Convert database user to the caller's own profile.
func ProfileToAPI(u *model.User) *api.Profile {
	if u == nil {
		return nil
	}
	return &api.Profile{
		ID:           u.ID.ToInt64(),
		Username:     u.Username,
		Email:        u.Email,
		Role:         string(u.Role),
		Station:      u.Station,
		AvatarURL:    u.AvatarURL,
		WarningCount: u.WarningCount,
		IsBanned:     u.IsBanned,
		TotalLogins:  u.TotalLogins,
		LastLogin:    nullTime(u.LastLogin),
		CreatedAt:    u.CreatedAt.UTC(),
	}
}

// Convert database ticket to API ticket.
func TicketToAPI(t *model.Ticket) *api.Ticket {
	if t == nil {
		return nil
	}
	ticket := &api.Ticket{
		ID:                t.ID.ToInt64(),
		Title:             t.Title,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		Category:          t.Category,
		UserID:            t.UserID.ToInt64(),
		CreatedAt:         t.CreatedAt.UTC(),
		UpdatedAt:         t.UpdatedAt.UTC(),
		ClosedAt:          nullTime(t.ClosedAt),
		AssignedModerator: PublicUserToAPI(t.AssignedModerator),
	}
	if t.AssignedModeratorID != nil {
		id := t.AssignedModeratorID.ToInt64()
		ticket.AssignedModeratorID = &id
	}
	// The owner is shown with the contact email
	if owner := PublicUserToAPI(t.Owner); owner != nil {
		owner.Email = t.Owner.Email
		ticket.User = owner
	}
	return ticket
}

// Convert listed ticket rows to API tickets.
func TicketRowsToAPI(rows []model.TicketRow) []*api.Ticket {
	tickets := make([]*api.Ticket, 0, len(rows))
	for i := range rows {
		ticket := TicketToAPI(&rows[i].Ticket)
		ticket.MessageCount = rows[i].MessageCount
		ticket.LastMessageAt = nullTime(rows[i].LastMessageAt)
		tickets = append(tickets, ticket)
	}
	return tickets
}

// Convert database message to API message.
func MessageToAPI(m *model.Message) *api.Message {
	if m == nil {
		return nil
	}
	return &api.Message{
		ID:            m.ID.ToInt64(),
		TicketID:      m.TicketID.ToInt64(),
		SenderID:      m.SenderID.ToInt64(),
		Content:       m.Content,
		MessageType:   m.MessageType,
		AttachmentURL: m.AttachmentURL,
		IsFlagged:     m.IsFlagged,
		FlagReason:    m.FlagReason,
		CreatedAt:     m.CreatedAt.UTC(),
		EditedAt:      nullTime(m.EditedAt),
		Sender:        PublicUserToAPI(m.Sender),
	}
}

func MessagesToAPI(messages []model.Message) []*api.Message {
	out := make([]*api.Message, 0, len(messages))
	for i := range messages {
		out = append(out, MessageToAPI(&messages[i]))
	}
	return out
}

// Convert database report to API report.
func ReportToAPI(r *model.Report) *api.Report {
	if r == nil {
		return nil
	}
	report := &api.Report{
		ID:             int64(r.ID),
		MessageID:      r.MessageID.ToInt64(),
		ReporterID:     r.ReporterID.ToInt64(),
		ReportedUserID: r.ReportedUserID.ToInt64(),
		Reason:         r.Reason,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt.UTC(),
		Reporter:       PublicUserToAPI(r.Reporter),
		ReportedUser:   PublicUserToAPI(r.ReportedUser),
	}
	if r.Message != nil {
		report.MessageContent = r.Message.Content
	}
	return report
}

func ReportsToAPI(reports []model.Report) []*api.Report {
	out := make([]*api.Report, 0, len(reports))
	for i := range reports {
		out = append(out, ReportToAPI(&reports[i]))
	}
	return out
}

// Convert the outcome of a report to the API result.
func ReportOutcomeToAPI(o *model.ReportOutcome) *api.ReportResult {
	return &api.ReportResult{
		ReportID:       int64(o.ReportID),
		ReportedUserID: o.ReportedUser.ToInt64(),
		WarningCount:   o.WarningCount,
		UserBanned:     o.IsBanned,
		BanTriggered:   o.Banned,
	}
}

func ModeratorStatsToAPI(s *model.ModeratorStats) *api.ModeratorStats {
	return &api.ModeratorStats{
		ModeratorID:        s.ModeratorID.ToInt64(),
		TotalTicketsClosed: s.TotalTicketsClosed,
		AverageRating:      s.AverageRating,
		TotalReviews:       s.TotalReviews,
		ResponseTimeAvg:    s.ResponseTimeAvg,
		LastActive:         nullTime(s.LastActive),
	}
}

func TopModeratorsToAPI(top []model.TopModerator) []*api.TopModerator {
	out := make([]*api.TopModerator, 0, len(top))
	for _, m := range top {
		out = append(out, &api.TopModerator{
			ModeratorID:        m.ModeratorID.ToInt64(),
			Username:           m.Username,
			Station:            m.Station,
			TotalTicketsClosed: m.TotalTicketsClosed,
			AverageRating:      m.AverageRating,
			TotalReviews:       m.TotalReviews,
		})
	}
	return out
}

func SystemOverviewToAPI(s *model.SystemOverview) *api.SystemStats {
	return &api.SystemStats{
		TotalTickets:        s.TotalTickets,
		OpenTickets:         s.OpenTickets,
		ClosedToday:         s.ClosedToday,
		AverageResponseTime: s.AverageResponseTime,
		UserSatisfaction:    s.Satisfaction,
	}
}

func RatingToAPI(r *model.ModeratorRating) *api.Rating {
	return &api.Rating{
		ID:          r.ID,
		TicketID:    r.TicketID.ToInt64(),
		ModeratorID: r.ModeratorID.ToInt64(),
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// Convert an issued challenge to the API captcha. imageURL is empty when the
// client renders the challenge itself.
func ChallengeToAPI(c *captcha.Challenge, imageURL string, now time.Time) *api.Captcha {
	expiresIn := int64(c.ExpiresAt.Sub(now) / time.Second)
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &api.Captcha{
		SessionToken: c.Token,
		ImageURL:     imageURL,
		Length:       c.Length,
		Width:        c.Width,
		Height:       c.Height,
		ExpiresIn:    expiresIn,
		ExpiresAt:    c.ExpiresAt.UTC(),
	}
}
