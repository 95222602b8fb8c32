package xclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"twitbot/internal/config"
)

func newTestClient(serverURL string) *Client {
	c := NewClient(config.CredentialsConfig{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	})
	c.baseURL = serverURL
	c.streamURL = serverURL
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	c.maxAttempts = 3
	c.baseBackoff = time.Millisecond
	return c
}

func TestGetUserByScreenName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/show.json", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("screen_name"))
		auth := r.Header.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, "OAuth "))
		assert.Contains(t, auth, `oauth_consumer_key="ck"`)
		assert.Contains(t, auth, "oauth_signature=")
		w.Write([]byte(`{"id_str": "5", "screen_name": "alice", "followers_count": 42, "friends_count": 7}`))
	}))
	defer srv.Close()

	u, err := newTestClient(srv.URL).GetUserByScreenName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "5", u.ID)
	assert.Equal(t, "alice", u.ScreenName)
	assert.Equal(t, 42, u.FollowersCount)
}

func TestGetUserRejectsEmptyScreenName(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:0").GetUserByScreenName(context.Background(), "")
	assert.Error(t, err)
}

func TestReadsRetryOnTooManyRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"id_str": "5", "screen_name": "alice"}`))
	}))
	defer srv.Close()

	u, err := newTestClient(srv.URL).GetUserByScreenName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ScreenName)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestWritesAreNeverRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Retweet(context.Background(), "42")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "a write must be issued exactly once")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestStructuredErrorCodeParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors": [{"code": 327, "message": "You have already retweeted this Tweet."}]}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Retweet(context.Background(), "42")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasCode())
	assert.Equal(t, CodeAlreadyRetweeted, apiErr.Code)
	assert.False(t, apiErr.RateLimited())
}

func TestUnstructuredErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream unavailable`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Favorite(context.Background(), "42")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.HasCode())
	assert.Contains(t, apiErr.Message, "upstream unavailable")
}

func TestFriendship(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/friendships/show.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("source_id"))
		assert.Equal(t, "2", r.URL.Query().Get("target_id"))
		w.Write([]byte(`{"relationship": {"source": {"following": true, "followed_by": false}}}`))
	}))
	defer srv.Close()

	rel, err := newTestClient(srv.URL).Friendship(context.Background(), "1", "2")
	require.NoError(t, err)
	assert.True(t, rel.Following)
	assert.False(t, rel.FollowedBy)
}

func TestFollowersPageCursors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			w.Write([]byte(`{"users": [{"id_str": "10", "screen_name": "a", "following": true}], "next_cursor_str": "1500"}`))
		case "1500":
			w.Write([]byte(`{"users": [{"id_str": "11", "screen_name": "b"}], "next_cursor_str": "0"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page1, next, err := c.FollowersPage(context.Background(), "1", "")
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, "10", page1[0].ID)
	assert.True(t, page1[0].Following)
	assert.Equal(t, "1500", next)

	page2, next, err := c.FollowersPage(context.Background(), "1", next)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "11", page2[0].ID)
	assert.Empty(t, next, "final page ends the cursor walk")
}

func TestFriendIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("stringify_ids"))
		w.Write([]byte(`{"ids": ["7", "8", "9"]}`))
	}))
	defer srv.Close()

	ids, err := newTestClient(srv.URL).FriendIDs(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "8", "9"}, ids)
}

func TestOpenStreamDeliversLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/statuses/filter.json", r.URL.Path)
		assert.Equal(t, "go,golang", r.URL.Query().Get("track"))
		fl := w.(http.Flusher)
		w.Write([]byte(`{"id_str": "1"}` + "\r\n"))
		fl.Flush()
		// Keepalive blank line between records.
		w.Write([]byte("\r\n"))
		fl.Flush()
		w.Write([]byte(`{"id_str": "2"}` + "\n"))
		fl.Flush()
	}))
	defer srv.Close()

	ctx := context.Background()
	conn, err := newTestClient(srv.URL).OpenStream(ctx, StreamFilter{Track: []string{"go", "golang"}})
	require.NoError(t, err)
	defer conn.Close()

	first, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_str": "1"}`, string(first))

	second, err := conn.Next(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_str": "2"}`, string(second))

	_, err = conn.Next(ctx)
	assert.Error(t, err, "server closed the stream")
}

func TestOpenStreamAuthRejection(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, 420} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := newTestClient(srv.URL).OpenStream(context.Background(), StreamFilter{Track: []string{"go"}})
		assert.ErrorIs(t, err, ErrStreamAuth, "status %d", status)
		srv.Close()
	}
}
