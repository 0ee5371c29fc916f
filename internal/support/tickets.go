package support

import (
	"context"
	"strings"

	"github.com/plugfox/helpdesk-server/internal/auth"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
)

// NewTicket is the input of TicketStore.Create.
type NewTicket struct {
	Title    string
	Category string
	Priority model.TicketPriority
}

// StatusUpdate is the input of TicketStore.UpdateStatus.
type StatusUpdate struct {
	TicketID    model.TicketID
	Status      model.TicketStatus
	ModeratorID *model.UserID
}

// Rating is the input of TicketStore.Rate.
type Rating struct {
	TicketID model.TicketID
	Rating   int
	Comment  string
}

// TicketStore manages the ticket lifecycle and who may see which ticket.
type TicketStore struct {
	db      *storage.Storage
	stats   *StatsAggregator
	metrics metrics.MetricsLogger
}

// List returns every ticket to moderators and only their own tickets to
// users, most recently updated first.
func (s *TicketStore) List(ctx context.Context, caller *auth.Identity) ([]model.TicketRow, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	moderator, err := moderating(ctx, s.db, caller)
	if err != nil {
		return nil, err
	}
	filter := storage.TicketFilter{}
	if !moderator {
		filter.OwnerID = &caller.UserID
	}
	return s.db.ListTickets(ctx, filter)
}

// Create opens a ticket owned by the caller.
func (s *TicketStore) Create(ctx context.Context, caller *auth.Identity, in NewTicket) (*model.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	category := strings.TrimSpace(in.Category)
	switch {
	case title == "":
		return nil, apperr.Validation("title is required")
	case tooLong(title, 255):
		return nil, apperr.Validation("title is too long (max 255 characters)")
	case tooLong(category, 64):
		return nil, apperr.Validation("category is too long (max 64 characters)")
	}
	if category == "" {
		category = model.DefaultTicketCategory
	}
	priority := in.Priority
	if priority == "" {
		priority = model.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Validation("unknown priority %q", priority)
	}

	ticket := &model.Ticket{
		Title:    title,
		Category: category,
		Priority: priority,
		UserID:   caller.UserID,
	}
	if err := s.db.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.stats.Invalidate()
	s.metrics.LogUserEvent(metrics.EventTicketCreated, caller.UserID.ToInt64(), map[string]interface{}{
		"ticket_id": ticket.ID.ToInt64(),
		"priority":  string(ticket.Priority),
	})
	return ticket, nil
}

// UpdateStatus changes the status of a ticket. Only moderators may do it.
func (s *TicketStore) UpdateStatus(ctx context.Context, caller *auth.Identity, in StatusUpdate) (*model.Ticket, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	switch {
	case in.TicketID == 0 || in.Status == "":
		return nil, apperr.Validation("ticket_id and status are required")
	case !in.Status.Valid():
		return nil, apperr.Validation("unknown status %q", in.Status)
	case !caller.IsModerator():
		return nil, apperr.Forbidden("moderator role required")
	}

	ticket, err := s.db.UpdateTicketStatus(ctx, storage.StatusChange{
		TicketID:    in.TicketID,
		Status:      in.Status,
		ModeratorID: in.ModeratorID,
		ActorID:     caller.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.stats.Invalidate()
	s.metrics.LogUserEvent(metrics.EventTicketStatus, caller.UserID.ToInt64(), map[string]interface{}{
		"ticket_id": ticket.ID.ToInt64(),
		"status":    string(ticket.Status),
	})
	return ticket, nil
}

// Rate lets the owner of a closed ticket rate the moderator who handled it.
func (s *TicketStore) Rate(ctx context.Context, caller *auth.Identity, in Rating) (*model.ModeratorRating, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	switch {
	case in.TicketID == 0:
		return nil, apperr.Validation("ticket_id is required")
	case in.Rating < 1 || in.Rating > 5:
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	rating := &model.ModeratorRating{
		TicketID: in.TicketID,
		UserID:   caller.UserID,
		Rating:   in.Rating,
		Comment:  strings.TrimSpace(in.Comment),
	}
	if err := s.db.RateTicket(ctx, rating); err != nil {
		return nil, err
	}

	s.stats.Invalidate()
	s.metrics.LogUserEvent(metrics.EventTicketRated, rating.ModeratorID.ToInt64(), map[string]interface{}{
		"ticket_id": rating.TicketID.ToInt64(),
		"rating":    rating.Rating,
	})
	return rating, nil
}
