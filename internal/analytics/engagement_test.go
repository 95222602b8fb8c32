package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twitbot/internal/model"
)

func TestHourlyEngagement(t *testing.T) {
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	events := []model.EngagementEvent{
		{Timestamp: base.Add(5 * time.Minute), Type: "retweet", Target: "1"},
		{Timestamp: base.Add(40 * time.Minute), Type: "retweet", Target: "2"},
		{Timestamp: base.Add(50 * time.Minute), Type: "favorite", Target: "3"},
		{Timestamp: base.Add(90 * time.Minute), Type: "follow", Target: "4"},
	}

	buckets := HourlyEngagement(events)
	require.Len(t, buckets, 2)
	assert.Equal(t, map[string]int{"retweet": 2, "favorite": 1}, buckets[base])
	assert.Equal(t, map[string]int{"follow": 1}, buckets[base.Add(time.Hour)])
}

func TestHourlyEngagementEmpty(t *testing.T) {
	assert.Empty(t, HourlyEngagement(nil))
}

func TestSortedBucketKeys(t *testing.T) {
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	m := map[time.Time]map[string]int{
		base.Add(3 * time.Hour): {},
		base:                    {},
		base.Add(time.Hour):     {},
	}
	keys := SortedBucketKeys(m)
	require.Len(t, keys, 3)
	assert.True(t, keys[0].Equal(base))
	assert.True(t, keys[2].Equal(base.Add(3*time.Hour)))
}
