package model

import "time"

// User represents a subset of X user fields used by the bot.
type User struct {
	ID             string
	ScreenName     string
	Name           string
	Location       string
	FollowersCount int
	FriendsCount   int
}

// Status is the normalized view of a stream status event. It is derived
// once at the stream boundary and never mutated afterwards.
type Status struct {
	ID                  string
	Text                string
	CreatedAt           time.Time
	Lang                string
	Author              User
	Mentions            []string
	IsRetweet           bool
	InReplyToStatusID   string
	InReplyToScreenName string
	PossiblySensitive   bool
	Retweeted           bool
	Favorited           bool
	RetweetCount        int
	FavoriteCount       int
}

// EngagementEvent captures an engagement action we performed.
type EngagementEvent struct {
	Timestamp time.Time
	Type      string // follow, retweet, favorite, unfollow
	Target    string // tweet id or user id
}
