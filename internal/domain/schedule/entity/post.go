package entity

import "time"

// PostStatus represents the lifecycle state of a scheduled post
type PostStatus string

const (
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// HistoryType distinguishes how a published post was triggered
type HistoryType string

const (
	// HistoryTypeScheduled marks posts fired by a daily slot
	HistoryTypeScheduled HistoryType = "scheduled"
	// HistoryTypeScheduledCustom marks custom future-dated posts
	HistoryTypeScheduledCustom HistoryType = "scheduled_custom"
)

// ScheduledPost is a pending custom post owned by the post scheduler.
// A post is terminal once published (removed from the pending list) or
// failed (kept with an error reason, retried only by re-scheduling).
type ScheduledPost struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	ScheduledAt time.Time  `json:"scheduled_time"`
	CreatedAt   time.Time  `json:"created_at"`
	Status      PostStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// IsDue reports whether the post should be published at now
func (p *ScheduledPost) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled && !p.ScheduledAt.After(now)
}

// PostHistoryEntry is an append-only record of a published post
type PostHistoryEntry struct {
	RemoteID  string      `json:"remote_id"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Type      HistoryType `json:"type"`
	Status    PostStatus  `json:"status"`
}

// MaxHistoryEntries bounds the post history; the oldest entries are
// dropped first once the bound is exceeded.
const MaxHistoryEntries = 1000

// ThreadGap is the fixed delay between consecutive thread segments
const ThreadGap = 2 * time.Minute

// DefaultThreadLead is how far in the future a thread starts when no
// start time is given
const DefaultThreadLead = 5 * time.Minute

// Statistics summarizes the scheduler's persisted state
type Statistics struct {
	TotalPosts     int                 `json:"total_posts"`
	TodayPosts     int                 `json:"today_posts"`
	PendingPosts   int                 `json:"pending_posts"`
	PostTypes      map[HistoryType]int `json:"post_types"`
	MaxPostsPerDay int                 `json:"max_posts_per_day"`
}
