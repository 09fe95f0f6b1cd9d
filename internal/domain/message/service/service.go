package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/maksim/feather/internal/domain/message/entity"
	"github.com/maksim/feather/internal/store"
)

// Store is the durable collection storage the service persists to
type Store interface {
	Load(key string, out any) error
	Save(key string, v any) error
}

// Service owns the processed-message id sets and the bounded response
// history, and decides whether an inbound message should be answered.
// It is the single writer for those collections.
type Service struct {
	store Store

	mu                sync.Mutex
	processedMentions map[string]struct{}
	processedDMs      map[string]struct{}
	history           []entity.ResponseHistoryEntry
}

// New loads the persisted collections and returns the service. A
// corrupted collection fails initialization.
func New(st Store) (*Service, error) {
	s := &Service{
		store:             st,
		processedMentions: make(map[string]struct{}),
		processedDMs:      make(map[string]struct{}),
	}

	var mentions, dms []string
	if err := st.Load(store.KeyProcessedMentions, &mentions); err != nil {
		return nil, fmt.Errorf("loading processed mentions: %w", err)
	}
	if err := st.Load(store.KeyProcessedDMs, &dms); err != nil {
		return nil, fmt.Errorf("loading processed dms: %w", err)
	}
	if err := st.Load(store.KeyResponseHistory, &s.history); err != nil {
		return nil, fmt.Errorf("loading response history: %w", err)
	}

	for _, id := range mentions {
		s.processedMentions[id] = struct{}{}
	}
	for _, id := range dms {
		s.processedDMs[id] = struct{}{}
	}

	return s, nil
}

// IsProcessed reports whether the message id was already handled
func (s *Service) IsProcessed(channel entity.Channel, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.setLocked(channel)
	if err != nil {
		return false
	}
	_, ok := set[id]
	return ok
}

// MarkProcessed records the message id as handled and persists the
// set. Inserting an id twice is a no-op.
func (s *Service) MarkProcessed(channel entity.Channel, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.setLocked(channel)
	if err != nil {
		return err
	}
	if _, ok := set[id]; ok {
		return nil
	}
	set[id] = struct{}{}

	ids := make([]string, 0, len(set))
	for v := range set {
		ids = append(ids, v)
	}

	key := store.KeyProcessedMentions
	if channel == entity.ChannelDMs {
		key = store.KeyProcessedDMs
	}
	if err := s.store.Save(key, ids); err != nil {
		return fmt.Errorf("saving processed ids: %w", err)
	}
	return nil
}

// ShouldRespond applies the throttle: spam is never answered, and a
// user gets at most the capped number of responses within the trailing
// window. The window is recomputed from history on every call, not
// kept as a counter.
func (s *Service) ShouldRespond(messageType entity.MessageType, userID string, now time.Time) bool {
	if messageType == entity.MessageTypeSpam {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-entity.ResponseWindow)
	recent := 0
	for _, e := range s.history {
		if e.UserID == userID && e.Timestamp.After(cutoff) {
			recent++
		}
	}
	return recent < entity.UserResponseCap
}

// AddResponse appends a sent response to history, applies the FIFO
// bound, and persists
func (s *Service) AddResponse(e entity.ResponseHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, e)
	if len(s.history) > entity.MaxHistoryEntries {
		s.history = s.history[len(s.history)-entity.MaxHistoryEntries:]
	}

	if err := s.store.Save(store.KeyResponseHistory, s.history); err != nil {
		return fmt.Errorf("saving response history: %w", err)
	}
	return nil
}

// Statistics summarizes response activity
func (s *Service) Statistics(now time.Time) entity.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := entity.Statistics{
		TotalResponses:    len(s.history),
		MessageTypes:      make(map[entity.MessageType]int),
		ResponseKinds:     make(map[entity.ResponseKind]int),
		ProcessedMentions: len(s.processedMentions),
		ProcessedDMs:      len(s.processedDMs),
	}

	cutoff := now.Add(-24 * time.Hour)
	for _, e := range s.history {
		if e.MessageType != "" {
			stats.MessageTypes[e.MessageType]++
		}
		stats.ResponseKinds[e.Kind]++
		if e.Timestamp.After(cutoff) {
			stats.Recent24h++
		}
	}

	return stats
}

func (s *Service) setLocked(channel entity.Channel) (map[string]struct{}, error) {
	switch channel {
	case entity.ChannelMentions:
		return s.processedMentions, nil
	case entity.ChannelDMs:
		return s.processedDMs, nil
	default:
		return nil, entity.ErrUnknownChannel
	}
}
