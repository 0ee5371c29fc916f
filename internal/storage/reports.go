package storage

import (
	"context"
	"database/sql"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BanPolicy is the automatic ban rule applied by FileReport.
type BanPolicy struct {
	Threshold int    // warnings at which the user is banned
	Reason    string // stored as ban_reason
}

// FileReport records an abuse report against a message and applies its
// consequences in one transaction: the message is flagged, the sender's
// warning counter is incremented in SQL and read back, and the sender is
// banned once the counter reaches the policy threshold.
func (s *Storage) FileReport(ctx context.Context, report *model.Report, policy BanPolicy) (*model.ReportOutcome, error) {
	outcome := &model.ReportOutcome{}
	err := s.transaction(ctx, "file report", func(tx *gorm.DB) error {
		if _, err := activeUser(tx, report.ReporterID); err != nil {
			return err
		}

		var msg model.Message
		if err := tx.First(&msg, "id = ?", report.MessageID).Error; err != nil {
			if isRecordNotFound(err) {
				return apperr.NotFound("message %d not found", report.MessageID)
			}
			return err
		}
		if msg.SenderID == report.ReporterID {
			return apperr.Validation("cannot report your own message")
		}

		var count int64
		if err := tx.Model(&model.Report{}).
			Where("message_id = ? AND reporter_id = ?", msg.ID, report.ReporterID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("message %d is already reported", msg.ID)
		}

		now := s.now()
		report.ReportedUserID = msg.SenderID
		report.CreatedAt = now
		if err := tx.Omit(clause.Associations).Create(report).Error; err != nil {
			if isDuplicatedKey(err) {
				return apperr.Conflict("message %d is already reported", msg.ID)
			}
			return err
		}

		if err := tx.Model(&model.Message{}).Where("id = ?", msg.ID).Updates(map[string]any{
			"is_flagged":  true,
			"flag_reason": report.Reason,
		}).Error; err != nil {
			return err
		}

		result := tx.Model(&model.User{}).
			Where("id = ?", msg.SenderID).
			UpdateColumn("warning_count", gorm.Expr("warning_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("user %d not found", msg.SenderID)
		}

		var reported model.User
		if err := tx.Select("id", "username", "warning_count", "is_banned").
			First(&reported, "id = ?", msg.SenderID).Error; err != nil {
			return err
		}

		outcome.ReportID = report.ID
		outcome.ReportedUser = reported.ID
		outcome.WarningCount = reported.WarningCount
		outcome.IsBanned = reported.IsBanned

		if reported.IsBanned || reported.WarningCount < policy.Threshold {
			return nil
		}

		if err := tx.Model(&model.User{}).Where("id = ?", reported.ID).Updates(map[string]any{
			"is_banned":  true,
			"ban_reason": policy.Reason,
			"banned_at":  now,
		}).Error; err != nil {
			return err
		}
		audit := model.BannedUser{
			ID:           reported.ID,
			BannedAt:     now,
			Reason:       policy.Reason,
			WarningCount: reported.WarningCount,
			ReportID:     report.ID,
			ExpiresAt:    sql.NullTime{},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&audit).Error; err != nil {
			return err
		}

		outcome.Banned = true
		outcome.IsBanned = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ListReports returns the newest reports first with the reporter, the
// reported user and the message.
func (s *Storage) ListReports(ctx context.Context, limit int) ([]model.Report, error) {
	reports := make([]model.Report, 0)
	query := s.db.WithContext(ctx).
		Preload("Message").
		Preload("Reporter").
		Preload("ReportedUser").
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&reports).Error; err != nil {
		return nil, apperr.Store("list reports", err)
	}
	return reports, nil
}

// BanRecord returns the audit record of the user's ban.
func (s *Storage) BanRecord(ctx context.Context, id model.UserID) (*model.BannedUser, error) {
	var banned model.BannedUser
	if err := s.db.WithContext(ctx).First(&banned, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("user %d is not banned", id)
		}
		return nil, apperr.Store("get ban record", err)
	}
	return &banned, nil
}
