package storage

import (
	"context"
	"database/sql"
	"time"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketFilter narrows ListTickets. Zero values mean no restriction.
type TicketFilter struct {
	OwnerID *model.UserID
	Status  model.TicketStatus
	Limit   int
}

// StatusChange describes a moderator changing the status of a ticket.
type StatusChange struct {
	TicketID    model.TicketID
	Status      model.TicketStatus
	ModeratorID *model.UserID // optional new assignee
	ActorID     model.UserID
}

// CreateTicket inserts an open ticket owned by ticket.UserID.
// The owner must exist and must not be banned.
func (s *Storage) CreateTicket(ctx context.Context, ticket *model.Ticket) error {
	return s.transaction(ctx, "create ticket", func(tx *gorm.DB) error {
		owner, err := activeUser(tx, ticket.UserID)
		if err != nil {
			return err
		}
		now := s.now()
		ticket.Status = model.TicketStatusOpen
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
		if err := tx.Omit(clause.Associations).Create(ticket).Error; err != nil {
			return err
		}
		ticket.Owner = owner
		return nil
	})
}

// TicketByID returns the ticket with its owner.
func (s *Storage) TicketByID(ctx context.Context, id model.TicketID) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("AssignedModerator").
		First(&ticket, "id = ?", id).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("ticket %d not found", id)
		}
		return nil, apperr.Store("get ticket", err)
	}
	return &ticket, nil
}

type ticketSummary struct {
	TicketID      model.TicketID
	MessageCount  int64
	LastMessageID model.MessageID
}

// ListTickets returns tickets, most recently updated first, with their owner,
// message count and the time of their last message.
func (s *Storage) ListTickets(ctx context.Context, filter TicketFilter) ([]model.TicketRow, error) {
	db := s.db.WithContext(ctx)

	query := db.
		Preload("Owner").
		Preload("AssignedModerator").
		Order("updated_at DESC").
		Order("id DESC")
	if filter.OwnerID != nil {
		query = query.Where("user_id = ?", *filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var tickets []model.Ticket
	if err := query.Find(&tickets).Error; err != nil {
		return nil, apperr.Store("list tickets", err)
	}
	rows := make([]model.TicketRow, len(tickets))
	if len(tickets) == 0 {
		return rows, nil
	}

	ids := make([]model.TicketID, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
	}

	var summaries []ticketSummary
	err := db.Model(&model.Message{}).
		Select("ticket_id, COUNT(*) AS message_count, MAX(id) AS last_message_id").
		Where("ticket_id IN ?", ids).
		Group("ticket_id").
		Scan(&summaries).Error
	if err != nil {
		return nil, apperr.Store("summarize tickets", err)
	}

	lastIDs := make([]model.MessageID, 0, len(summaries))
	for _, summary := range summaries {
		lastIDs = append(lastIDs, summary.LastMessageID)
	}
	lastAt := make(map[model.MessageID]time.Time, len(lastIDs))
	if len(lastIDs) > 0 {
		var last []model.Message
		if err := db.Select("id", "ticket_id", "created_at").Where("id IN ?", lastIDs).Find(&last).Error; err != nil {
			return nil, apperr.Store("summarize tickets", err)
		}
		for _, msg := range last {
			lastAt[msg.ID] = msg.CreatedAt
		}
	}

	byTicket := make(map[model.TicketID]ticketSummary, len(summaries))
	for _, summary := range summaries {
		byTicket[summary.TicketID] = summary
	}
	for i := range tickets {
		rows[i].Ticket = tickets[i]
		summary, ok := byTicket[tickets[i].ID]
		if !ok {
			continue
		}
		rows[i].MessageCount = summary.MessageCount
		if at, ok := lastAt[summary.LastMessageID]; ok {
			rows[i].LastMessageAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return rows, nil
}

// UpdateTicketStatus sets the status of a ticket and optionally assigns it.
//
// Closing an open ticket stamps closed_at and credits the closing moderator
// (the new assignee, else the current one, else the actor). Closing a closed
// ticket again only refreshes the timestamps. Any other status clears closed_at.
func (s *Storage) UpdateTicketStatus(ctx context.Context, change StatusChange) (*model.Ticket, error) {
	if !change.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", change.Status)
	}

	var (
		ticket  model.Ticket
		updated *model.Ticket
	)
	err := s.transaction(ctx, "update ticket status", func(tx *gorm.DB) error {
		actor, err := activeUser(tx, change.ActorID)
		if err != nil {
			return err
		}
		if !actor.Role.CanModerate() {
			return apperr.Forbidden("only moderators may change ticket status")
		}

		if err := tx.First(&ticket, "id = ?", change.TicketID).Error; err != nil {
			if isRecordNotFound(err) {
				return apperr.NotFound("ticket %d not found", change.TicketID)
			}
			return err
		}

		now := s.now()
		updates := map[string]any{
			"status":     change.Status,
			"updated_at": now,
		}

		assignee := ticket.AssignedModeratorID
		if change.ModeratorID != nil {
			var moderator model.User
			if err := tx.First(&moderator, "id = ?", *change.ModeratorID).Error; err != nil {
				if isRecordNotFound(err) {
					return apperr.Validation("moderator %d does not exist", *change.ModeratorID)
				}
				return err
			}
			if !moderator.Role.CanModerate() {
				return apperr.Validation("user %d is not a moderator", *change.ModeratorID)
			}
			assignee = &moderator.ID
		}

		closing := change.Status == model.TicketStatusClosed && ticket.Status != model.TicketStatusClosed
		if closing && assignee == nil {
			assignee = &actor.ID
		}
		if assignee != nil {
			updates["assigned_moderator_id"] = *assignee
		}

		if change.Status == model.TicketStatusClosed {
			updates["closed_at"] = now
		} else {
			updates["closed_at"] = nil
		}

		if err := tx.Model(&model.Ticket{}).Where("id = ?", ticket.ID).Updates(updates).Error; err != nil {
			return err
		}

		if closing {
			if err := creditClose(tx, *assignee, &ticket, now); err != nil {
				return err
			}
		}

		updated = &model.Ticket{}
		return tx.Preload("Owner").Preload("AssignedModerator").First(updated, "id = ?", ticket.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RateTicket stores the owner's rating of the moderator who closed the ticket
// and folds it into the moderator's average. A ticket is rated at most once.
func (s *Storage) RateTicket(ctx context.Context, rating *model.ModeratorRating) error {
	if rating.Rating < 1 || rating.Rating > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}

	return s.transaction(ctx, "rate ticket", func(tx *gorm.DB) error {
		if _, err := activeUser(tx, rating.UserID); err != nil {
			return err
		}

		var ticket model.Ticket
		if err := tx.First(&ticket, "id = ?", rating.TicketID).Error; err != nil {
			if isRecordNotFound(err) {
				return apperr.NotFound("ticket %d not found", rating.TicketID)
			}
			return err
		}
		switch {
		case ticket.UserID != rating.UserID:
			return apperr.Forbidden("only the ticket owner may rate it")
		case ticket.Status != model.TicketStatusClosed:
			return apperr.Validation("only closed tickets can be rated")
		case ticket.AssignedModeratorID == nil:
			return apperr.Validation("ticket has no moderator to rate")
		}

		var count int64
		if err := tx.Model(&model.ModeratorRating{}).Where("ticket_id = ?", ticket.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("ticket %d is already rated", ticket.ID)
		}

		rating.ModeratorID = *ticket.AssignedModeratorID
		rating.CreatedAt = s.now()
		if err := tx.Create(rating).Error; err != nil {
			if isDuplicatedKey(err) {
				return apperr.Conflict("ticket %d is already rated", ticket.ID)
			}
			return err
		}

		stats, err := lockModeratorStats(tx, rating.ModeratorID)
		if err != nil {
			return err
		}
		total := stats.AverageRating*float64(stats.TotalReviews) + float64(rating.Rating)
		stats.TotalReviews++
		stats.AverageRating = total / float64(stats.TotalReviews)
		return tx.Save(stats).Error
	})
}

// creditClose counts a closed ticket for the moderator and folds the time to
// the first staff reply into the moderator's response time average.
func creditClose(tx *gorm.DB, moderatorID model.UserID, ticket *model.Ticket, now time.Time) error {
	stats, err := lockModeratorStats(tx, moderatorID)
	if err != nil {
		return err
	}
	stats.TotalTicketsClosed++
	stats.LastActive = sql.NullTime{Time: now, Valid: true}

	var reply model.Message
	err = tx.Where("ticket_id = ? AND sender_id <> ?", ticket.ID, ticket.UserID).
		Order("created_at ASC").
		Order("id ASC").
		Take(&reply).Error
	switch {
	case err == nil:
		minutes := int64(reply.CreatedAt.Sub(ticket.CreatedAt) / time.Minute)
		if minutes < 0 {
			minutes = 0
		}
		stats.ResponseTimeAvg = (stats.ResponseTimeAvg*stats.ResponseSamples + minutes) / (stats.ResponseSamples + 1)
		stats.ResponseSamples++
	case !isRecordNotFound(err):
		return err
	}

	return tx.Save(stats).Error
}

// lockModeratorStats returns the stats row of the moderator, created on first
// use, locked for update until the transaction ends.
func lockModeratorStats(tx *gorm.DB, moderatorID model.UserID) (*model.ModeratorStats, error) {
	seed := model.ModeratorStats{ModeratorID: moderatorID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var stats model.ModeratorStats
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stats, "moderator_id = ?", moderatorID).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
