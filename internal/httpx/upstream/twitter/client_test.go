package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req createTweetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello world", req.Text)
		assert.Nil(t, req.Reply)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "1901", "text": req.Text},
		})
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	id, err := c.Publish(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "1901", id)
}

func TestReplySetsTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTweetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Reply)
		assert.Equal(t, "777", req.Reply.InReplyToTweetID)

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "1902"},
		})
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	id, err := c.Reply(context.Background(), "777", "good point")
	require.NoError(t, err)
	assert.Equal(t, "1902", id)
}

func TestPublishAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"title":  "Forbidden",
			"detail": "duplicate content",
			"type":   "about:blank",
		})
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	_, err := c.Publish(context.Background(), "again")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Forbidden", apiErr.Title)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
}

func TestFetchMentionsReversesToArrivalOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/bot-1/mentions", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("max_results"))

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "3", "text": "newest", "author_id": "u3"},
				{"id": "2", "text": "middle", "author_id": "u2"},
				{"id": "1", "text": "oldest", "author_id": "u1"},
			},
		})
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	msgs, err := c.FetchMentions(context.Background(), 20)
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "1", msgs[0].ID)
	assert.Equal(t, "3", msgs[2].ID)
}

func TestFetchDirectMessagesFiltersOwnAndNonMessageEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/dm_events", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "5", "event_type": "MessageCreate", "text": "from user", "sender_id": "u1"},
				{"id": "4", "event_type": "MessageCreate", "text": "from bot", "sender_id": "bot-1"},
				{"id": "3", "event_type": "ParticipantsJoin", "sender_id": "u2"},
			},
		})
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	msgs, err := c.FetchDirectMessages(context.Background(), 20)
	require.NoError(t, err)

	require.Len(t, msgs, 1)
	assert.Equal(t, "5", msgs[0].ID)
	assert.Equal(t, "u1", msgs[0].AuthorID)
}

func TestSendDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/dm_conversations/with/u9/messages", r.URL.Path)

		var req sendDMRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "thanks!", req.Text)

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New("test-token", "bot-1", WithBaseURL(srv.URL))
	err := c.SendDirect(context.Background(), "u9", "thanks!")
	assert.NoError(t, err)
}
