// Package support implements the helpdesk components: the user directory,
// tickets, the message log, moderation and statistics.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	config "github.com/plugfox/helpdesk-server/internal/config"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
)

// BanNotifier is told about automatic bans after they are committed.
type BanNotifier interface {
	UserBanned(ctx context.Context, user *model.User, warnings int) error
}

// Dependencies of the components. Metrics and Notifier are optional.
type Dependencies struct {
	Config   *config.Config
	Tokens   *auth.Provider
	Captcha  captcha.Verifier
	Metrics  metrics.MetricsLogger
	Notifier BanNotifier
	Logger   *slog.Logger
}

// Service bundles the components sharing one storage.
type Service struct {
	Users      *UserDirectory
	Tickets    *TicketStore
	Messages   *MessageLog
	Moderation *ModerationEngine
	Stats      *StatsAggregator
}

// New wires the components.
func New(db *storage.Storage, deps Dependencies) (*Service, error) {
	if deps.Config.Moderation.WarningThreshold < 1 {
		return nil, fmt.Errorf("moderation warning threshold must be at least 1, got %d", deps.Config.Moderation.WarningThreshold)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewMetricsFake()
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}

	stats, err := NewStatsAggregator(db, deps.Config.Stats)
	if err != nil {
		return nil, err
	}

	return &Service{
		Users: &UserDirectory{
			db:      db,
			tokens:  deps.Tokens,
			captcha: deps.Captcha,
			metrics: deps.Metrics,
			logger:  deps.Logger,
		},
		Tickets: &TicketStore{
			db:      db,
			stats:   stats,
			metrics: deps.Metrics,
		},
		Messages: &MessageLog{
			db:        db,
			maxLength: deps.Config.Moderation.MaxMessageLength,
			metrics:   deps.Metrics,
		},
		Moderation: &ModerationEngine{
			db: db,
			policy: storage.BanPolicy{
				Threshold: deps.Config.Moderation.WarningThreshold,
				Reason:    deps.Config.Moderation.BanReason,
			},
			metrics:       deps.Metrics,
			notifier:      deps.Notifier,
			notifyTimeout: notifyTimeout,
			logger:        deps.Logger,
		},
		Stats: stats,
	}, nil
}

// Close waits for pending ban notifications and releases the statistics cache.
func (s *Service) Close() {
	s.Moderation.Wait()
	s.Stats.Close()
}

type nopNotifier struct{}

func (nopNotifier) UserBanned(context.Context, *model.User, int) error { return nil }

func requireCaller(caller *auth.Identity) error {
	if caller == nil || caller.UserID == 0 {
		return apperr.Unauthenticated("authentication required")
	}
	return nil
}

// requireModerator checks both the token role and the stored one, so a
// demoted or banned moderator loses access before the token expires.
func requireModerator(ctx context.Context, db *storage.Storage, caller *auth.Identity) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	ok, err := moderating(ctx, db, caller)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("moderator role required")
	}
	return nil
}

// moderating reports whether the caller holds a moderating role in storage.
// Callers whose token carries no such role are not looked up.
func moderating(ctx context.Context, db *storage.Storage, caller *auth.Identity) (bool, error) {
	if !caller.IsModerator() {
		return false, nil
	}
	user, err := db.UserByID(ctx, caller.UserID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return false, apperr.Unauthenticated("unknown user")
	case err != nil:
		return false, err
	case user.IsBanned:
		return false, apperr.Forbidden("user is banned")
	}
	return user.Role.CanModerate(), nil
}

// ticketAccess lets owners and moderators act on a ticket.
func ticketAccess(ticket *model.Ticket, user *model.User) error {
	if ticket.UserID == user.ID || user.Role.CanModerate() {
		return nil
	}
	return apperr.Forbidden("no access to ticket %d", ticket.ID)
}

func tooLong(s string, limit int) bool {
	return limit > 0 && utf8.RuneCountInString(s) > limit
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
