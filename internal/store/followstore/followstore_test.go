package followstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitbot/internal/model"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutAndGetFollowed(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := model.User{ID: "5", ScreenName: "alice", Location: "Berlin", FollowersCount: 100, FriendsCount: 50}
	require.NoError(t, db.PutFollowed(ctx, u, time.Now()))

	got, ok, err := db.GetFollowed(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, u, got)

	_, ok, err = db.GetFollowed(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutFollowedUpserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	u := model.User{ID: "5", ScreenName: "alice", FollowersCount: 100}
	require.NoError(t, db.PutFollowed(ctx, u, time.Now()))
	u.FollowersCount = 250
	require.NoError(t, db.PutFollowed(ctx, u, time.Now()))

	got, ok, err := db.GetFollowed(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 250, got.FollowersCount)
}

func TestActionsWithinRangeAndType(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordAction(ctx, base, "retweet", "1"))
	require.NoError(t, db.RecordAction(ctx, base.Add(time.Hour), "favorite", "2"))
	require.NoError(t, db.RecordAction(ctx, base.Add(2*time.Hour), "retweet", "3"))
	require.NoError(t, db.RecordAction(ctx, base.Add(48*time.Hour), "retweet", "4"))

	all, err := db.ActionsWithin(ctx, base, base.Add(24*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "1", all[0].Target)
	assert.Equal(t, base, all[0].Timestamp)

	rts, err := db.ActionsWithin(ctx, base, base.Add(24*time.Hour), "retweet")
	require.NoError(t, err)
	require.Len(t, rts, 2)
	assert.Equal(t, "3", rts[1].Target)
}

func TestNilDBIsInert(t *testing.T) {
	var db *DB
	ctx := context.Background()

	assert.NoError(t, db.PutFollowed(ctx, model.User{ScreenName: "x"}, time.Now()))
	assert.NoError(t, db.RecordAction(ctx, time.Now(), "follow", "1"))
	_, ok, err := db.GetFollowed(ctx, "x")
	assert.NoError(t, err)
	assert.False(t, ok)
	events, err := db.ActionsWithin(ctx, time.Time{}, time.Now(), "")
	assert.NoError(t, err)
	assert.Nil(t, events)
	assert.NoError(t, db.Close())
}
