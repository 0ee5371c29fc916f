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

// NewMessage is the input of MessageLog.Send.
type NewMessage struct {
	TicketID      model.TicketID
	Content       string
	MessageType   string
	AttachmentURL string
}

// MessageLog is the append-only conversation of each ticket.
type MessageLog struct {
	db        *storage.Storage
	maxLength int
	metrics   metrics.MetricsLogger
}

// List returns the conversation in the order it was written.
func (l *MessageLog) List(ctx context.Context, caller *auth.Identity, ticketID model.TicketID) ([]model.Message, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if ticketID == 0 {
		return nil, apperr.Validation("ticket_id is required")
	}

	ticket, err := l.db.TicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != caller.UserID {
		moderator, err := moderating(ctx, l.db, caller)
		if err != nil {
			return nil, err
		}
		if !moderator {
			return nil, apperr.Forbidden("no access to ticket %d", ticketID)
		}
	}
	return l.db.ListMessages(ctx, ticketID)
}

// Send appends a message to a ticket and marks the ticket as updated.
func (l *MessageLog) Send(ctx context.Context, caller *auth.Identity, in NewMessage) (*model.Message, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(in.Content)
	messageType := strings.TrimSpace(in.MessageType)
	switch {
	case in.TicketID == 0 || content == "":
		return nil, apperr.Validation("ticket_id and content are required")
	case tooLong(content, l.maxLength):
		return nil, apperr.Validation("message too long (max %d characters)", l.maxLength)
	case tooLong(messageType, 32):
		return nil, apperr.Validation("message type is too long")
	case tooLong(in.AttachmentURL, 512):
		return nil, apperr.Validation("attachment url is too long")
	}
	if messageType == "" {
		messageType = model.DefaultMessageType
	}

	msg := &model.Message{
		TicketID:      in.TicketID,
		SenderID:      caller.UserID,
		Content:       content,
		MessageType:   messageType,
		AttachmentURL: strings.TrimSpace(in.AttachmentURL),
	}
	if err := l.db.AppendMessage(ctx, msg, ticketAccess); err != nil {
		return nil, err
	}

	l.metrics.LogUserEvent(metrics.EventMessageSent, caller.UserID.ToInt64(), map[string]interface{}{
		"ticket_id": msg.TicketID.ToInt64(),
		"length":    len(msg.Content),
	})
	return msg, nil
}
