package storage

import (
	"context"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketAccess decides whether user may act on ticket.
// It runs inside the transaction of the operation it guards.
type TicketAccess func(ticket *model.Ticket, user *model.User) error

// ListMessages returns the conversation of a ticket in send order, with senders.
func (s *Storage) ListMessages(ctx context.Context, ticketID model.TicketID) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, apperr.Store("list messages", err)
	}
	return messages, nil
}

// AppendMessage stores msg and advances the ticket's updated_at to the
// message time, both in one transaction. The sender must be an active user
// allowed by access, and the ticket must not be closed.
func (s *Storage) AppendMessage(ctx context.Context, msg *model.Message, access TicketAccess) error {
	return s.transaction(ctx, "append message", func(tx *gorm.DB) error {
		sender, err := activeUser(tx, msg.SenderID)
		if err != nil {
			return err
		}

		var ticket model.Ticket
		if err := tx.First(&ticket, "id = ?", msg.TicketID).Error; err != nil {
			if isRecordNotFound(err) {
				return apperr.NotFound("ticket %d not found", msg.TicketID)
			}
			return err
		}
		if access != nil {
			if err := access(&ticket, sender); err != nil {
				return err
			}
		}
		if ticket.Status == model.TicketStatusClosed {
			return apperr.Validation("ticket %d is closed", ticket.ID)
		}

		now := s.now()
		msg.CreatedAt = now
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Ticket{}).Where("id = ?", ticket.ID).Update("updated_at", now).Error; err != nil {
			return err
		}

		msg.Sender = sender
		return nil
	})
}

// MessageByID returns the message with its sender.
func (s *Storage) MessageByID(ctx context.Context, id model.MessageID) (*model.Message, error) {
	var msg model.Message
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("message %d not found", id)
		}
		return nil, apperr.Store("get message", err)
	}
	return &msg, nil
}
