package policy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maksim/feather/internal/domain/schedule/entity"
	"github.com/maksim/feather/internal/domain/schedule/planner"
	"github.com/maksim/feather/internal/domain/schedule/service"
)

type memStore struct {
	data map[string][]byte
}

func (m *memStore) Load(key string, out any) error {
	b, ok := m.data[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(b, out)
}

func (m *memStore) Save(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakeGenerator struct {
	postErr   error
	threadErr error
	posts     int
}

func (g *fakeGenerator) GeneratePost(ctx context.Context, topic string) (string, error) {
	if g.postErr != nil {
		return "", g.postErr
	}
	g.posts++
	return "generated post " + strconv.Itoa(g.posts), nil
}

func (g *fakeGenerator) GenerateThread(ctx context.Context, topic string, count int) ([]string, error) {
	if g.threadErr != nil {
		return nil, g.threadErr
	}
	segments := make([]string, count)
	for i := range segments {
		segments[i] = "segment " + strconv.Itoa(i+1)
	}
	return segments, nil
}

type fakePublisher struct {
	err       error
	published []string
}

func (p *fakePublisher) Publish(ctx context.Context, text string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, text)
	return "tweet-" + strconv.Itoa(len(p.published)), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPolicy(t *testing.T, slots []planner.Slot, maxPerDay int) (*Policy, *service.Service, *fakeGenerator, *fakePublisher, *fakeClock) {
	t.Helper()

	svc, err := service.New(&memStore{data: make(map[string][]byte)})
	require.NoError(t, err)

	gen := &fakeGenerator{}
	pub := &fakePublisher{}
	clock := &fakeClock{now: time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)}

	p := New(svc, gen, pub, nil, clock, discardLogger(), slots, maxPerDay)
	return p, svc, gen, pub, clock
}

func TestSlotFiresOncePerDay(t *testing.T) {
	p, svc, _, pub, clock := newTestPolicy(t, []planner.Slot{{Hour: 9, Minute: 0}}, 5)
	ctx := context.Background()

	// Before the slot time nothing fires
	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)

	// Past the slot time it fires exactly once
	clock.set(time.Date(2026, 8, 26, 9, 0, 1, 0, time.UTC))
	require.NoError(t, p.Process(ctx))
	require.NoError(t, p.Process(ctx))
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, svc.TodayCount(clock.Now()))

	// The next day it fires again
	clock.set(time.Date(2026, 8, 27, 9, 0, 1, 0, time.UTC))
	require.NoError(t, p.Process(ctx))
	assert.Len(t, pub.published, 2)
}

func TestSlotSkippedAtDailyCap(t *testing.T) {
	p, svc, _, pub, clock := newTestPolicy(t, []planner.Slot{{Hour: 9, Minute: 0}}, 2)
	ctx := context.Background()

	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	clock.set(now)
	require.NoError(t, svc.RecordSlotPost("1", "earlier one", now.Add(-2*time.Hour)))
	require.NoError(t, svc.RecordSlotPost("2", "earlier two", now.Add(-time.Hour)))

	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)
}

func TestSlotGenerationFailureSkipsUntilNextDay(t *testing.T) {
	p, _, gen, pub, clock := newTestPolicy(t, []planner.Slot{{Hour: 9, Minute: 0}}, 5)
	ctx := context.Background()

	clock.set(time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC))
	gen.postErr = errors.New("model unavailable")
	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)

	// Recovery within the same day does not refire the slot
	gen.postErr = nil
	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)

	clock.set(time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC))
	require.NoError(t, p.Process(ctx))
	assert.Len(t, pub.published, 1)
}

func TestCustomPostPublished(t *testing.T) {
	p, svc, _, pub, clock := newTestPolicy(t, nil, 5)
	ctx := context.Background()

	post, err := p.ScheduleCustomPost("custom content", clock.Now().Add(time.Minute))
	require.NoError(t, err)

	// Not yet due
	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)

	clock.set(clock.Now().Add(2 * time.Minute))
	require.NoError(t, p.Process(ctx))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "custom content", pub.published[0])
	assert.Empty(t, svc.Pending())

	history := svc.History(1, clock.Now())
	require.Len(t, history, 1)
	assert.Equal(t, post.Content, history[0].Content)
	assert.Equal(t, entity.HistoryTypeScheduledCustom, history[0].Type)
}

func TestCustomPostPublishFailureIsTerminal(t *testing.T) {
	p, svc, _, pub, clock := newTestPolicy(t, nil, 5)
	ctx := context.Background()

	_, err := p.ScheduleCustomPost("doomed", clock.Now().Add(-time.Minute))
	require.NoError(t, err)

	pub.err = errors.New("upstream 500")
	require.NoError(t, p.Process(ctx))

	pending := svc.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, entity.PostStatusFailed, pending[0].Status)

	// A later healthy tick does not retry it
	pub.err = nil
	require.NoError(t, p.Process(ctx))
	assert.Empty(t, pub.published)
}

func TestScheduleThread(t *testing.T) {
	p, svc, _, _, clock := newTestPolicy(t, nil, 5)

	posts, err := p.ScheduleThread(context.Background(), "go concurrency", 3, nil)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	start := clock.Now().Add(entity.DefaultThreadLead)
	for i, post := range posts {
		assert.Equal(t, start.Add(time.Duration(i)*entity.ThreadGap), post.ScheduledAt)
	}
	assert.Len(t, svc.Pending(), 3)
}

func TestScheduleThreadExplicitStart(t *testing.T) {
	p, _, _, _, clock := newTestPolicy(t, nil, 5)

	start := clock.Now().Add(3 * time.Hour)
	posts, err := p.ScheduleThread(context.Background(), "releases", 2, &start)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, start, posts[0].ScheduledAt)
	assert.Equal(t, start.Add(entity.ThreadGap), posts[1].ScheduledAt)
}

func TestScheduleThreadGenerationFailureLeavesNoState(t *testing.T) {
	p, svc, gen, _, _ := newTestPolicy(t, nil, 5)
	gen.threadErr = errors.New("model unavailable")

	_, err := p.ScheduleThread(context.Background(), "topic", 3, nil)
	require.Error(t, err)
	assert.Empty(t, svc.Pending())
}

func TestScheduleThreadInvalidLength(t *testing.T) {
	p, _, _, _, _ := newTestPolicy(t, nil, 5)

	_, err := p.ScheduleThread(context.Background(), "topic", 0, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidThreadLength)
}
