package storage

import (
	"context"
	"time"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
	"gorm.io/gorm"
)

// CreateCaptchaSession stores a new challenge. Expired unused sessions are
// marked used in the same transaction.
func (s *Storage) CreateCaptchaSession(ctx context.Context, session *model.CaptchaSession) error {
	return s.transaction(ctx, "create captcha session", func(tx *gorm.DB) error {
		now := s.now()
		if err := tx.Model(&model.CaptchaSession{}).
			Where("is_used = ? AND expires_at <= ?", false, now).
			Update("is_used", true).Error; err != nil {
			return err
		}
		session.CreatedAt = now
		return tx.Create(session).Error
	})
}

// CaptchaSession returns the session with the given token.
func (s *Storage) CaptchaSession(ctx context.Context, token string) (*model.CaptchaSession, error) {
	var session model.CaptchaSession
	if err := s.db.WithContext(ctx).First(&session, "token = ?", token).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperr.NotFound("captcha session not found")
		}
		return nil, apperr.Store("get captcha session", err)
	}
	return &session, nil
}

// MarkCaptchaUsed flips is_used of an unused session. It reports false when
// the session was already used, so exactly one concurrent caller wins.
func (s *Storage) MarkCaptchaUsed(ctx context.Context, token string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&model.CaptchaSession{}).
		Where("token = ? AND is_used = ?", token, false).
		Update("is_used", true)
	if result.Error != nil {
		return false, apperr.Store("consume captcha session", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// PurgeCaptchaSessions deletes sessions that expired before the cutoff.
func (s *Storage) PurgeCaptchaSessions(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.CaptchaSession{})
	if result.Error != nil {
		return 0, apperr.Store("purge captcha sessions", result.Error)
	}
	return result.RowsAffected, nil
}
