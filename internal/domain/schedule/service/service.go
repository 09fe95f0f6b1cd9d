package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maksim/feather/internal/domain/schedule/entity"
	"github.com/maksim/feather/internal/store"
)

// Store is the durable collection storage the service persists to
type Store interface {
	Load(key string, out any) error
	Save(key string, v any) error
}

// Service owns the pending scheduled posts and the bounded post
// history. It is the single writer for both collections; all state is
// mutated under one mutex and persisted after each mutation.
type Service struct {
	store Store

	mu      sync.Mutex
	pending []entity.ScheduledPost
	history []entity.PostHistoryEntry
}

// New loads the persisted collections and returns the service. A
// corrupted collection fails initialization.
func New(st Store) (*Service, error) {
	s := &Service{store: st}

	if err := st.Load(store.KeyScheduledPosts, &s.pending); err != nil {
		return nil, fmt.Errorf("loading post schedule: %w", err)
	}
	if err := st.Load(store.KeyPostHistory, &s.history); err != nil {
		return nil, fmt.Errorf("loading post history: %w", err)
	}

	return s, nil
}

// AddPending appends a new custom scheduled post and persists the list
func (s *Service) AddPending(content string, scheduledAt, now time.Time) (*entity.ScheduledPost, error) {
	if content == "" {
		return nil, entity.ErrEmptyContent
	}

	post := entity.ScheduledPost{
		ID:          uuid.New().String(),
		Content:     content,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		Status:      entity.PostStatusScheduled,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, post)
	if err := s.store.Save(store.KeyScheduledPosts, s.pending); err != nil {
		s.pending = s.pending[:len(s.pending)-1]
		return nil, fmt.Errorf("saving post schedule: %w", err)
	}

	return &post, nil
}

// Pending returns a copy of the pending scheduled posts in order
func (s *Service) Pending() []entity.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.ScheduledPost, len(s.pending))
	copy(out, s.pending)
	return out
}

// Cancel removes the pending post at index and persists the list.
// An out-of-range index is a validation failure, not a fault.
func (s *Service) Cancel(index int) (*entity.ScheduledPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.pending) {
		return nil, entity.ErrIndexOutOfRange
	}

	removed := s.pending[index]
	s.pending = append(s.pending[:index], s.pending[index+1:]...)

	if err := s.store.Save(store.KeyScheduledPosts, s.pending); err != nil {
		return nil, fmt.Errorf("saving post schedule: %w", err)
	}

	return &removed, nil
}

// Due returns copies of the pending posts whose scheduled time has
// arrived, in schedule order
func (s *Service) Due(now time.Time) []entity.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []entity.ScheduledPost
	for _, p := range s.pending {
		if p.IsDue(now) {
			due = append(due, p)
		}
	}
	return due
}

// MarkPublished removes the post from the pending list and records it
// in history as published
func (s *Service) MarkPublished(id, remoteID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.pending {
		if s.pending[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return entity.ErrPostNotFound
	}

	content := s.pending[idx].Content
	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)

	if err := s.store.Save(store.KeyScheduledPosts, s.pending); err != nil {
		return fmt.Errorf("saving post schedule: %w", err)
	}

	return s.appendHistoryLocked(entity.PostHistoryEntry{
		RemoteID:  remoteID,
		Content:   content,
		Timestamp: now,
		Type:      entity.HistoryTypeScheduledCustom,
		Status:    entity.PostStatusPublished,
	})
}

// MarkFailed flags the pending post as terminally failed with a reason
func (s *Service) MarkFailed(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending[i].Status = entity.PostStatusFailed
			s.pending[i].Error = reason
			if err := s.store.Save(store.KeyScheduledPosts, s.pending); err != nil {
				return fmt.Errorf("saving post schedule: %w", err)
			}
			return nil
		}
	}
	return entity.ErrPostNotFound
}

// RecordSlotPost records a slot-timer publication in history
func (s *Service) RecordSlotPost(remoteID, content string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendHistoryLocked(entity.PostHistoryEntry{
		RemoteID:  remoteID,
		Content:   content,
		Timestamp: now,
		Type:      entity.HistoryTypeScheduled,
		Status:    entity.PostStatusPublished,
	})
}

// TodayCount returns the number of posts published on now's calendar
// date. Derived from history, never stored.
func (s *Service) TodayCount(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	y, m, d := now.Date()
	count := 0
	for _, e := range s.history {
		if e.Status != entity.PostStatusPublished {
			continue
		}
		ey, em, ed := e.Timestamp.Date()
		if ey == y && em == m && ed == d {
			count++
		}
	}
	return count
}

// History returns history entries from the trailing number of days
func (s *Service) History(days int, now time.Time) []entity.PostHistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.AddDate(0, 0, -days)
	var out []entity.PostHistoryEntry
	for _, e := range s.history {
		if !e.Timestamp.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// Statistics summarizes pending and published posts
func (s *Service) Statistics(now time.Time, maxPostsPerDay int) entity.Statistics {
	today := s.TodayCount(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	types := make(map[entity.HistoryType]int)
	for _, e := range s.history {
		types[e.Type]++
	}

	return entity.Statistics{
		TotalPosts:     len(s.history),
		TodayPosts:     today,
		PendingPosts:   len(s.pending),
		PostTypes:      types,
		MaxPostsPerDay: maxPostsPerDay,
	}
}

// appendHistoryLocked appends an entry, applies the FIFO bound, and
// persists. Caller must hold s.mu.
func (s *Service) appendHistoryLocked(e entity.PostHistoryEntry) error {
	s.history = append(s.history, e)
	if len(s.history) > entity.MaxHistoryEntries {
		s.history = s.history[len(s.history)-entity.MaxHistoryEntries:]
	}

	if err := s.store.Save(store.KeyPostHistory, s.history); err != nil {
		return fmt.Errorf("saving post history: %w", err)
	}
	return nil
}
