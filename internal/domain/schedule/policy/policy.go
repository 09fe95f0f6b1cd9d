package policy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maksim/feather/internal/domain/schedule/entity"
	"github.com/maksim/feather/internal/domain/schedule/planner"
	"github.com/maksim/feather/internal/domain/schedule/service"
	"github.com/maksim/feather/internal/scheduler"
)

// ContentGenerator produces post content
// Interface is defined here (consumer) not in the upstream package (provider)
type ContentGenerator interface {
	GeneratePost(ctx context.Context, topic string) (string, error)
	GenerateThread(ctx context.Context, topic string, count int) ([]string, error)
}

// Publisher publishes text to the platform and returns the remote id
type Publisher interface {
	Publish(ctx context.Context, text string) (string, error)
}

// Tracker records published posts for analytics. Implementations must
// not fail the publish path; errors are the tracker's own concern.
type Tracker interface {
	TrackPost(ctx context.Context, remoteID, content string, postType string)
}

// Policy orchestrates autonomous posting: daily slot fires, custom
// scheduled posts, and thread expansion. Its Process method is one
// tick of the posting loop.
type Policy struct {
	svc       *service.Service
	generator ContentGenerator
	publisher Publisher
	tracker   Tracker
	clock     scheduler.Clock
	logger    *slog.Logger

	slots          []planner.Slot
	maxPostsPerDay int

	// last calendar day each slot fired, in-process only; the daily
	// cap derived from history bounds refires after a restart
	mu        sync.Mutex
	slotFired map[int]string
}

// New creates a new posting policy
func New(
	svc *service.Service,
	generator ContentGenerator,
	publisher Publisher,
	tracker Tracker,
	clock scheduler.Clock,
	logger *slog.Logger,
	slots []planner.Slot,
	maxPostsPerDay int,
) *Policy {
	return &Policy{
		svc:            svc,
		generator:      generator,
		publisher:      publisher,
		tracker:        tracker,
		clock:          clock,
		logger:         logger,
		slots:          slots,
		maxPostsPerDay: maxPostsPerDay,
		slotFired:      make(map[int]string),
	}
}

// ScheduleCustomPost appends a custom post to the pending schedule
func (p *Policy) ScheduleCustomPost(content string, scheduledAt time.Time) (*entity.ScheduledPost, error) {
	post, err := p.svc.AddPending(content, scheduledAt, p.clock.Now())
	if err != nil {
		return nil, err
	}

	p.logger.Info("custom post scheduled", "id", post.ID, "scheduled_at", post.ScheduledAt)
	return post, nil
}

// ScheduleThread generates a thread and schedules each segment with a
// fixed gap. Generation failure returns before any segment is stored.
func (p *Policy) ScheduleThread(ctx context.Context, topic string, length int, startAt *time.Time) ([]entity.ScheduledPost, error) {
	if length < 1 {
		return nil, entity.ErrInvalidThreadLength
	}

	segments, err := p.generator.GenerateThread(ctx, topic, length)
	if err != nil {
		return nil, err
	}

	start := p.clock.Now().Add(entity.DefaultThreadLead)
	if startAt != nil {
		start = *startAt
	}

	posts := make([]entity.ScheduledPost, 0, len(segments))
	for i, seg := range segments {
		post, err := p.svc.AddPending(seg, start.Add(time.Duration(i)*entity.ThreadGap), p.clock.Now())
		if err != nil {
			return posts, err
		}
		posts = append(posts, *post)
	}

	p.logger.Info("thread scheduled", "topic", topic, "segments", len(posts), "start", start)
	return posts, nil
}

// CancelScheduledPost removes the pending post at index
func (p *Policy) CancelScheduledPost(index int) (*entity.ScheduledPost, error) {
	post, err := p.svc.Cancel(index)
	if err != nil {
		return nil, err
	}

	p.logger.Info("scheduled post cancelled", "id", post.ID)
	return post, nil
}

// Pending returns the pending scheduled posts
func (p *Policy) Pending() []entity.ScheduledPost {
	return p.svc.Pending()
}

// History returns post history from the trailing number of days
func (p *Policy) History(days int) []entity.PostHistoryEntry {
	if days <= 0 {
		days = 7
	}
	return p.svc.History(days, p.clock.Now())
}

// Statistics summarizes scheduler state
func (p *Policy) Statistics() entity.Statistics {
	return p.svc.Statistics(p.clock.Now(), p.maxPostsPerDay)
}

// Process is one scheduler tick: fire due daily slots, then publish
// due custom posts
func (p *Policy) Process(ctx context.Context) error {
	now := p.clock.Now()
	p.processSlots(ctx, now)
	p.processCustomPosts(ctx, now)
	return nil
}

// processSlots fires each daily slot whose time has arrived and that
// has not fired today. The daily cap is re-checked before every
// publish so the slot path and the custom path cannot jointly exceed
// it within a tick.
func (p *Policy) processSlots(ctx context.Context, now time.Time) {
	day := now.Format("2006-01-02")

	for i, slot := range p.slots {
		if now.Before(slot.At(now)) || p.firedToday(i, day) {
			continue
		}

		if p.svc.TodayCount(now) >= p.maxPostsPerDay {
			p.logger.Info("daily post limit reached, skipping slot",
				"slot", i, "hour", slot.Hour, "minute", slot.Minute)
			p.markFired(i, day)
			continue
		}

		content, err := p.generator.GeneratePost(ctx, "")
		if err != nil {
			// Skip until the slot's next natural occurrence
			p.logger.Error("slot post generation failed", "slot", i, "error", err)
			p.markFired(i, day)
			continue
		}

		remoteID, err := p.publisher.Publish(ctx, content)
		if err != nil {
			p.logger.Error("slot post publish failed", "slot", i, "error", err)
			p.markFired(i, day)
			continue
		}

		if err := p.svc.RecordSlotPost(remoteID, content, p.clock.Now()); err != nil {
			p.logger.Error("recording slot post failed", "remote_id", remoteID, "error", err)
		}
		if p.tracker != nil {
			p.tracker.TrackPost(ctx, remoteID, content, string(entity.HistoryTypeScheduled))
		}

		p.markFired(i, day)
		p.logger.Info("slot post published", "slot", i, "remote_id", remoteID)
	}
}

// processCustomPosts publishes every due custom post. Publish failure
// is terminal for the post; it is not retried within the tick.
func (p *Policy) processCustomPosts(ctx context.Context, now time.Time) {
	for _, post := range p.svc.Due(now) {
		remoteID, err := p.publisher.Publish(ctx, post.Content)
		if err != nil {
			p.logger.Error("scheduled post publish failed", "id", post.ID, "error", err)
			if markErr := p.svc.MarkFailed(post.ID, err.Error()); markErr != nil {
				p.logger.Error("marking post failed", "id", post.ID, "error", markErr)
			}
			continue
		}

		if err := p.svc.MarkPublished(post.ID, remoteID, p.clock.Now()); err != nil {
			p.logger.Error("recording published post failed", "id", post.ID, "error", err)
			continue
		}
		if p.tracker != nil {
			p.tracker.TrackPost(ctx, remoteID, post.Content, string(entity.HistoryTypeScheduledCustom))
		}

		p.logger.Info("scheduled post published", "id", post.ID, "remote_id", remoteID)
	}
}

func (p *Policy) firedToday(slot int, day string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slotFired[slot] == day
}

func (p *Policy) markFired(slot int, day string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slotFired[slot] = day
}
