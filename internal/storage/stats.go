package storage

import (
	"context"
	"time"

	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
)

// ModeratorStats returns the rollup of the moderator, or a zero record when
// the moderator has no activity yet.
func (s *Storage) ModeratorStats(ctx context.Context, id model.UserID) (*model.ModeratorStats, error) {
	stats := model.ModeratorStats{ModeratorID: id}
	err := s.db.WithContext(ctx).First(&stats, "moderator_id = ?", id).Error
	switch {
	case err == nil:
		return &stats, nil
	case isRecordNotFound(err):
		return &model.ModeratorStats{ModeratorID: id}, nil
	default:
		return nil, apperr.Store("get moderator stats", err)
	}
}

// TopModerators ranks moderators with at least one closed ticket by
// average rating, then by closed tickets.
func (s *Storage) TopModerators(ctx context.Context, limit int) ([]model.TopModerator, error) {
	top := make([]model.TopModerator, 0)
	err := s.db.WithContext(ctx).
		Table("moderator_stats AS ms").
		Select("ms.moderator_id, u.username, u.station, ms.total_tickets_closed, ms.average_rating, ms.total_reviews").
		Joins("JOIN users AS u ON u.id = ms.moderator_id").
		Where("u.role = ? AND ms.total_tickets_closed > 0", model.RoleModerator).
		Order("ms.average_rating DESC").
		Order("ms.total_tickets_closed DESC").
		Order("ms.moderator_id ASC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, apperr.Store("top moderators", err)
	}
	return top, nil
}

// SystemStats counts tickets and averages moderator response times and ratings.
// "Closed today" is the current UTC day of the storage clock.
func (s *Storage) SystemStats(ctx context.Context) (*model.SystemStats, error) {
	db := s.db.WithContext(ctx)
	var stats model.SystemStats

	if err := db.Model(&model.Ticket{}).Count(&stats.TotalTickets).Error; err != nil {
		return nil, apperr.Store("count tickets", err)
	}
	if err := db.Model(&model.Ticket{}).
		Where("status = ?", model.TicketStatusOpen).
		Count(&stats.OpenTickets).Error; err != nil {
		return nil, apperr.Store("count open tickets", err)
	}

	dayStart := s.now().Truncate(24 * time.Hour)
	if err := db.Model(&model.Ticket{}).
		Where("status = ? AND closed_at >= ? AND closed_at < ?", model.TicketStatusClosed, dayStart, dayStart.Add(24*time.Hour)).
		Count(&stats.ClosedToday).Error; err != nil {
		return nil, apperr.Store("count closed tickets", err)
	}

	if err := db.Model(&model.ModeratorStats{}).
		Select("AVG(response_time_avg)").
		Where("response_samples > 0").
		Row().Scan(&stats.AverageResponseTime); err != nil {
		return nil, apperr.Store("average response time", err)
	}
	if err := db.Model(&model.ModeratorRating{}).
		Select("AVG(rating)").
		Row().Scan(&stats.AverageRating); err != nil {
		return nil, apperr.Store("average rating", err)
	}

	return &stats, nil
}
