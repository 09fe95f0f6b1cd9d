package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maksim/feather/internal/domain/analytics/dao"
	"github.com/maksim/feather/internal/domain/analytics/entity"
)

// Service records publishing and response activity. Tracking failures
// are logged, never propagated: analytics must not fail the publish or
// reply path.
type Service struct {
	dao    *dao.SQLite
	logger *slog.Logger
}

// New creates a new analytics service
func New(d *dao.SQLite, logger *slog.Logger) *Service {
	return &Service{dao: d, logger: logger}
}

// TrackPost records a published post
func (s *Service) TrackPost(ctx context.Context, remoteID, content string, postType string) {
	err := s.dao.InsertPost(ctx, entity.PostMetric{
		RemoteID:  remoteID,
		Content:   content,
		PostType:  postType,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("tracking post failed", "remote_id", remoteID, "error", err)
	}
}

// TrackResponse records a sent response
func (s *Service) TrackResponse(ctx context.Context, replyID, sourceID, userID string, kind string) {
	err := s.dao.InsertResponse(ctx, entity.ResponseMetric{
		ReplyID:   replyID,
		SourceID:  sourceID,
		UserID:    userID,
		Kind:      kind,
		CreatedAt: time.Now(),
	})
	if err != nil {
		s.logger.Error("tracking response failed", "source_id", sourceID, "error", err)
	}
}

// Report aggregates activity over the trailing number of days
func (s *Service) Report(ctx context.Context, days int) (*entity.Report, error) {
	if days <= 0 {
		days = 7
	}

	daily, err := s.dao.DailyStats(ctx, days)
	if err != nil {
		return nil, err
	}

	report := &entity.Report{Days: days, Daily: daily}
	for _, d := range daily {
		report.TotalPosts += d.Posts
		report.TotalResponses += d.Responses
	}
	return report, nil
}
