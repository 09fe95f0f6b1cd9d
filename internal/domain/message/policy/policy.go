package policy

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/maksim/feather/internal/domain/message/classifier"
	"github.com/maksim/feather/internal/domain/message/entity"
	"github.com/maksim/feather/internal/domain/message/service"
	"github.com/maksim/feather/internal/scheduler"
)

// Number of inbound messages fetched per poll
const fetchLimit = 20

// ResponseGenerator produces contextual replies
// Interface is defined here (consumer) not in the upstream package (provider)
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, sourceText, userID, contextHint string) (string, error)
}

// Messenger fetches inbound messages and delivers replies
type Messenger interface {
	Reply(ctx context.Context, targetID, text string) (string, error)
	SendDirect(ctx context.Context, userID, text string) error
	FetchMentions(ctx context.Context, limit int) ([]entity.InboundMessage, error)
	FetchDirectMessages(ctx context.Context, limit int) ([]entity.InboundMessage, error)
}

// Tracker records sent responses for analytics
type Tracker interface {
	TrackResponse(ctx context.Context, replyID, sourceID, userID string, kind string)
}

// Policy is the message dispatcher: it classifies unseen inbound
// messages, applies the throttle, and sends generated replies with a
// randomized delay.
type Policy struct {
	svc        *service.Service
	classifier *classifier.Classifier
	generator  ResponseGenerator
	messenger  Messenger
	tracker    Tracker
	clock      scheduler.Clock
	logger     *slog.Logger

	delayMin time.Duration
	delayMax time.Duration
}

// New creates a new dispatcher policy
func New(
	svc *service.Service,
	cls *classifier.Classifier,
	generator ResponseGenerator,
	messenger Messenger,
	tracker Tracker,
	clock scheduler.Clock,
	logger *slog.Logger,
	delayMin, delayMax time.Duration,
) *Policy {
	return &Policy{
		svc:        svc,
		classifier: cls,
		generator:  generator,
		messenger:  messenger,
		tracker:    tracker,
		clock:      clock,
		logger:     logger,
		delayMin:   delayMin,
		delayMax:   delayMax,
	}
}

// Process is one dispatcher iteration: handle new mentions, then new
// direct messages
func (p *Policy) Process(ctx context.Context) error {
	if err := p.ProcessMentions(ctx); err != nil {
		return err
	}
	return p.ProcessDirectMessages(ctx)
}

// ProcessMentions answers unseen mentions in arrival order
func (p *Policy) ProcessMentions(ctx context.Context) error {
	mentions, err := p.messenger.FetchMentions(ctx, fetchLimit)
	if err != nil {
		return err
	}

	for _, m := range mentions {
		p.dispatch(ctx, entity.ChannelMentions, m)
	}
	return nil
}

// ProcessDirectMessages answers unseen DMs in arrival order
func (p *Policy) ProcessDirectMessages(ctx context.Context) error {
	dms, err := p.messenger.FetchDirectMessages(ctx, fetchLimit)
	if err != nil {
		return err
	}

	for _, m := range dms {
		p.dispatch(ctx, entity.ChannelDMs, m)
	}
	return nil
}

// ManualResponse replies to a message on operator request, bypassing
// classification and throttling
func (p *Policy) ManualResponse(ctx context.Context, targetID, text string) (string, error) {
	if targetID == "" {
		return "", entity.ErrEmptyTargetID
	}
	if text == "" {
		return "", entity.ErrEmptyResponse
	}

	replyID, err := p.messenger.Reply(ctx, targetID, text)
	if err != nil {
		return "", err
	}

	if err := p.svc.AddResponse(entity.ResponseHistoryEntry{
		Kind:      entity.ResponseKindManualReply,
		SourceID:  targetID,
		ReplyID:   replyID,
		Response:  text,
		Timestamp: p.clock.Now(),
	}); err != nil {
		p.logger.Error("recording manual response failed", "reply_id", replyID, "error", err)
	}

	p.logger.Info("manual response sent", "target_id", targetID, "reply_id", replyID)
	return replyID, nil
}

// Statistics summarizes response activity
func (p *Policy) Statistics() entity.Statistics {
	return p.svc.Statistics(p.clock.Now())
}

// dispatch handles a single inbound message. Whatever happens past the
// throttle gate, the message ends up marked processed: replies are
// never retried.
func (p *Policy) dispatch(ctx context.Context, channel entity.Channel, msg entity.InboundMessage) {
	if p.svc.IsProcessed(channel, msg.ID) {
		return
	}

	msgType := p.classifier.Classify(msg.Text)

	if !p.svc.ShouldRespond(msgType, msg.AuthorID, p.clock.Now()) {
		p.markProcessed(channel, msg.ID)
		return
	}

	response, err := p.generator.GenerateResponse(ctx, msg.Text, msg.AuthorID, contextHint(msgType))
	if err != nil {
		p.logger.Error("response generation failed", "message_id", msg.ID, "error", err)
		p.markProcessed(channel, msg.ID)
		return
	}

	if !p.sleep(ctx) {
		// Engine is shutting down; leave the message unprocessed so the
		// next run answers it
		return
	}

	switch channel {
	case entity.ChannelMentions:
		p.sendMentionReply(ctx, msg, msgType, response)
	case entity.ChannelDMs:
		p.sendDMReply(ctx, msg, msgType, response)
	}

	p.markProcessed(channel, msg.ID)
}

func (p *Policy) sendMentionReply(ctx context.Context, msg entity.InboundMessage, msgType entity.MessageType, response string) {
	replyID, err := p.messenger.Reply(ctx, msg.ID, response)
	if err != nil {
		p.logger.Error("mention reply failed", "message_id", msg.ID, "error", err)
		return
	}

	p.recordResponse(ctx, entity.ResponseHistoryEntry{
		Kind:        entity.ResponseKindMentionReply,
		SourceID:    msg.ID,
		ReplyID:     replyID,
		UserID:      msg.AuthorID,
		MessageType: msgType,
		Response:    response,
		Timestamp:   p.clock.Now(),
	})
	p.logger.Info("mention reply sent", "message_id", msg.ID, "reply_id", replyID)
}

func (p *Policy) sendDMReply(ctx context.Context, msg entity.InboundMessage, msgType entity.MessageType, response string) {
	if err := p.messenger.SendDirect(ctx, msg.AuthorID, response); err != nil {
		p.logger.Error("dm reply failed", "message_id", msg.ID, "error", err)
		return
	}

	p.recordResponse(ctx, entity.ResponseHistoryEntry{
		Kind:        entity.ResponseKindDMReply,
		SourceID:    msg.ID,
		UserID:      msg.AuthorID,
		MessageType: msgType,
		Response:    response,
		Timestamp:   p.clock.Now(),
	})
	p.logger.Info("dm reply sent", "message_id", msg.ID, "user_id", msg.AuthorID)
}

func (p *Policy) recordResponse(ctx context.Context, e entity.ResponseHistoryEntry) {
	if err := p.svc.AddResponse(e); err != nil {
		p.logger.Error("recording response failed", "source_id", e.SourceID, "error", err)
	}
	if p.tracker != nil {
		p.tracker.TrackResponse(ctx, e.ReplyID, e.SourceID, e.UserID, string(e.Kind))
	}
}

func (p *Policy) markProcessed(channel entity.Channel, id string) {
	if err := p.svc.MarkProcessed(channel, id); err != nil {
		p.logger.Error("marking message processed failed", "message_id", id, "error", err)
	}
}

// sleep waits a uniformly random delay between the configured bounds
// to avoid a robotic response cadence. Returns false if the context
// was cancelled while waiting.
func (p *Policy) sleep(ctx context.Context) bool {
	delay := p.delayMin
	if spread := p.delayMax - p.delayMin; spread > 0 {
		delay += time.Duration(rand.Int64N(int64(spread) + 1))
	}
	if delay <= 0 {
		return true
	}

	select {
	case <-p.clock.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func contextHint(t entity.MessageType) string {
	switch t {
	case entity.MessageTypeGreeting:
		return "This is a greeting, answer warmly and briefly"
	case entity.MessageTypeQuestion:
		return "This is a question, give a useful and constructive answer"
	case entity.MessageTypeHelp:
		return "The user is asking for help, offer support options"
	default:
		return "Answer politely and constructively to a general message"
	}
}
