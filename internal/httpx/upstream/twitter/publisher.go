package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// createTweetRequest is the POST /2/tweets request body
type createTweetRequest struct {
	Text  string         `json:"text"`
	Reply *tweetReplyRef `json:"reply,omitempty"`
}

type tweetReplyRef struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts a standalone tweet and returns its remote id
func (c *Client) Publish(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, createTweetRequest{Text: text})
}

// Reply posts a tweet in reply to the target tweet and returns the
// reply's remote id
func (c *Client) Reply(ctx context.Context, targetID, text string) (string, error) {
	return c.createTweet(ctx, createTweetRequest{
		Text:  text,
		Reply: &tweetReplyRef{InReplyToTweetID: targetID},
	})
}

func (c *Client) createTweet(ctx context.Context, in createTweetRequest) (string, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encoding tweet: %w", err)
	}

	endpoint := fmt.Sprintf("%s/2/tweets", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out createTweetResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("twitter returned no tweet id")
	}

	return out.Data.ID, nil
}
