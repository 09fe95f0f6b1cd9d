package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maksim/feather/internal/domain/message/entity"
)

type mentionsResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		AuthorID  string    `json:"author_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
}

// FetchMentions returns the most recent tweets mentioning the bot
// account, oldest first
func (c *Client) FetchMentions(ctx context.Context, limit int) ([]entity.InboundMessage, error) {
	endpoint := fmt.Sprintf("%s/2/users/%s/mentions", c.baseURL, c.botUserID)

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("tweet.fields", "author_id,created_at")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out mentionsResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	// API returns newest first; the dispatcher wants arrival order
	msgs := make([]entity.InboundMessage, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		m := out.Data[i]
		msgs = append(msgs, entity.InboundMessage{
			ID:        m.ID,
			Text:      m.Text,
			AuthorID:  m.AuthorID,
			CreatedAt: m.CreatedAt,
		})
	}
	return msgs, nil
}

type dmEventsResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		EventType string    `json:"event_type"`
		Text      string    `json:"text"`
		SenderID  string    `json:"sender_id"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
}

// FetchDirectMessages returns the most recent incoming DM events,
// oldest first. Messages sent by the bot itself are filtered out.
func (c *Client) FetchDirectMessages(ctx context.Context, limit int) ([]entity.InboundMessage, error) {
	endpoint := fmt.Sprintf("%s/2/dm_events", c.baseURL)

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("dm_event.fields", "sender_id,created_at,text,event_type")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out dmEventsResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	msgs := make([]entity.InboundMessage, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		m := out.Data[i]
		if m.EventType != "MessageCreate" || m.SenderID == c.botUserID {
			continue
		}
		msgs = append(msgs, entity.InboundMessage{
			ID:        m.ID,
			Text:      m.Text,
			AuthorID:  m.SenderID,
			CreatedAt: m.CreatedAt,
		})
	}
	return msgs, nil
}

type sendDMRequest struct {
	Text string `json:"text"`
}

// SendDirect sends a direct message to the user
func (c *Client) SendDirect(ctx context.Context, userID, text string) error {
	body, err := json.Marshal(sendDMRequest{Text: text})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2/dm_conversations/with/%s/messages", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}
