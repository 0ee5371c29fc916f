package support

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/plugfox/helpdesk-server/internal/auth"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
)

const (
	// reportsPageSize caps ListReports.
	reportsPageSize = 200

	notifyTimeout = 10 * time.Second
)

// NewReport is the input of ModerationEngine.Report.
type NewReport struct {
	MessageID   model.MessageID
	Reason      string
	Description string
}

// ModerationEngine files abuse reports and bans users that collect too
// many warnings.
type ModerationEngine struct {
	db            *storage.Storage
	policy        storage.BanPolicy
	metrics       metrics.MetricsLogger
	notifier      BanNotifier
	notifyTimeout time.Duration
	logger        *slog.Logger

	pending sync.WaitGroup
}

// Report files an abuse report against a message. The sender is warned and
// banned once the warning count reaches the threshold. Ban notifications are
// sent in the background after the report is committed.
func (m *ModerationEngine) Report(ctx context.Context, caller *auth.Identity, in NewReport) (*model.ReportOutcome, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	switch {
	case in.MessageID == 0 || blank(in.Reason):
		return nil, apperr.Validation("message_id and reason are required")
	case tooLong(strings.TrimSpace(in.Reason), 100):
		return nil, apperr.Validation("reason is too long (max 100 characters)")
	}

	report := &model.Report{
		MessageID:   in.MessageID,
		ReporterID:  caller.UserID,
		Reason:      strings.TrimSpace(in.Reason),
		Description: strings.TrimSpace(in.Description),
	}
	outcome, err := m.db.FileReport(ctx, report, m.policy)
	if err != nil {
		return nil, err
	}

	m.metrics.LogUserEvent(metrics.EventReportFiled, outcome.ReportedUser.ToInt64(), map[string]interface{}{
		"report_id":     int64(outcome.ReportID),
		"warning_count": outcome.WarningCount,
	})
	if outcome.Banned {
		m.banned(ctx, outcome)
	}
	return outcome, nil
}

func (m *ModerationEngine) banned(ctx context.Context, outcome *model.ReportOutcome) {
	m.logger.InfoContext(ctx, "user banned",
		slog.Int64("user_id", outcome.ReportedUser.ToInt64()),
		slog.Int("warnings", outcome.WarningCount),
	)
	m.metrics.LogUserEvent(metrics.EventUserBanned, outcome.ReportedUser.ToInt64(), map[string]interface{}{
		"warning_count": outcome.WarningCount,
	})

	// The request may finish before the notifier does.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer cancel()
		m.notify(ctx, outcome)
	}()
}

func (m *ModerationEngine) notify(ctx context.Context, outcome *model.ReportOutcome) {
	user, err := m.db.UserByID(ctx, outcome.ReportedUser)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to load banned user", slog.String("error", err.Error()))
		return
	}
	if err := m.notifier.UserBanned(ctx, user, outcome.WarningCount); err != nil {
		m.logger.WarnContext(ctx, "failed to notify about ban",
			slog.Int64("user_id", user.ID.ToInt64()),
			slog.String("error", err.Error()),
		)
	}
}

// Wait blocks until pending ban notifications are done.
func (m *ModerationEngine) Wait() {
	m.pending.Wait()
}

// ListReports returns the latest reports, newest first.
func (m *ModerationEngine) ListReports(ctx context.Context, caller *auth.Identity) ([]model.Report, error) {
	if err := requireModerator(ctx, m.db, caller); err != nil {
		return nil, err
	}
	return m.db.ListReports(ctx, reportsPageSize)
}
