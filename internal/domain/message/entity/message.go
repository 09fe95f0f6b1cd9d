package entity

import "time"

// Channel partitions processed-message ids by where they arrived
type Channel string

const (
	ChannelMentions Channel = "mentions"
	ChannelDMs      Channel = "dms"
)

// MessageType is the classification of an inbound message
type MessageType string

const (
	MessageTypeGreeting MessageType = "greeting"
	MessageTypeQuestion MessageType = "question"
	MessageTypeHelp     MessageType = "help"
	MessageTypeSpam     MessageType = "spam"
	MessageTypeGeneral  MessageType = "general"
)

// ResponseKind distinguishes how a response was triggered
type ResponseKind string

const (
	ResponseKindMentionReply ResponseKind = "mention_reply"
	ResponseKindDMReply      ResponseKind = "dm_reply"
	ResponseKindManualReply  ResponseKind = "manual_reply"
)

// InboundMessage is a mention or direct message fetched from the
// platform
type InboundMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ResponseHistoryEntry is an append-only record of a sent response
type ResponseHistoryEntry struct {
	Kind        ResponseKind `json:"kind"`
	SourceID    string       `json:"source_id"`
	ReplyID     string       `json:"reply_id,omitempty"`
	UserID      string       `json:"user_id,omitempty"`
	MessageType MessageType  `json:"message_type,omitempty"`
	Response    string       `json:"response"`
	Timestamp   time.Time    `json:"timestamp"`
}

// MaxHistoryEntries bounds the response history; oldest entries are
// dropped first.
const MaxHistoryEntries = 1000

// Per-user sliding-window throttle: at most UserResponseCap responses
// within the trailing ResponseWindow, recomputed from history on every
// check.
const (
	UserResponseCap = 3
	ResponseWindow  = time.Hour
)

// Statistics summarizes response activity
type Statistics struct {
	TotalResponses    int                  `json:"total_responses"`
	Recent24h         int                  `json:"recent_responses_24h"`
	MessageTypes      map[MessageType]int  `json:"message_types"`
	ResponseKinds     map[ResponseKind]int `json:"response_kinds"`
	ProcessedMentions int                  `json:"processed_mentions"`
	ProcessedDMs      int                  `json:"processed_dms"`
}
