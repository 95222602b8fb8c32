package stream

import (
	"encoding/json"
	"time"

	"twitbot/internal/model"
)

// Kind discriminates the stream event variants.
type Kind string

const (
	KindStatus        Kind = "status"
	KindDelete        Kind = "delete"
	KindLimit         Kind = "limit"
	KindWarning       Kind = "warning"
	KindDisconnect    Kind = "disconnect"
	KindFriends       Kind = "friends"
	KindDirectMessage Kind = "direct_message"
	KindEvent         Kind = "event"
	KindUnknown       Kind = "unknown"
)

// Event is the closed tagged-variant view of one raw stream record.
// Exactly the payload matching Kind is non-zero.
type Event struct {
	Kind       Kind
	Status     *model.Status
	Limit      *LimitNotice
	Warning    *WarningNotice
	Disconnect *DisconnectNotice
}

// LimitNotice signals the stream is dropping messages.
type LimitNotice struct {
	Track int `json:"track"`
}

type WarningNotice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DisconnectNotice struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

type rawStreamUser struct {
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
}

type rawRecord struct {
	Delete        json.RawMessage   `json:"delete"`
	Limit         *LimitNotice      `json:"limit"`
	Warning       *WarningNotice    `json:"warning"`
	Disconnect    *DisconnectNotice `json:"disconnect"`
	Friends       json.RawMessage   `json:"friends"`
	DirectMessage json.RawMessage   `json:"direct_message"`
	Event         json.RawMessage   `json:"event"`

	Text          *string         `json:"text"`
	ExtendedTweet json.RawMessage `json:"extended_tweet"`
	User          *rawStreamUser  `json:"user"`
	IDStr         string          `json:"id_str"`
	CreatedAt     string          `json:"created_at"`
	Lang          string          `json:"lang"`
	Entities      struct {
		UserMentions []struct {
			IDStr string `json:"id_str"`
		} `json:"user_mentions"`
	} `json:"entities"`
	RetweetedStatus     json.RawMessage `json:"retweeted_status"`
	InReplyToStatusID   *string         `json:"in_reply_to_status_id_str"`
	InReplyToScreenName *string         `json:"in_reply_to_screen_name"`
	PossiblySensitive   bool            `json:"possibly_sensitive"`
	Retweeted           bool            `json:"retweeted"`
	Favorited           bool            `json:"favorited"`
	RetweetCount        int             `json:"retweet_count"`
	FavoriteCount       int             `json:"favorite_count"`
}

// Decode parses one raw stream record into its tagged variant. It is
// total: malformed or unrecognized records come back as KindUnknown.
func Decode(raw []byte) Event {
	var rec rawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Event{Kind: KindUnknown}
	}
	switch {
	case rec.Delete != nil:
		return Event{Kind: KindDelete}
	case rec.Limit != nil:
		return Event{Kind: KindLimit, Limit: rec.Limit}
	case rec.Warning != nil:
		return Event{Kind: KindWarning, Warning: rec.Warning}
	case rec.Disconnect != nil:
		return Event{Kind: KindDisconnect, Disconnect: rec.Disconnect}
	case rec.Friends != nil:
		return Event{Kind: KindFriends}
	case rec.DirectMessage != nil:
		return Event{Kind: KindDirectMessage}
	case rec.Event != nil:
		return Event{Kind: KindEvent}
	case rec.User != nil && rec.Text != nil:
		return Event{Kind: KindStatus, Status: rec.toStatus()}
	default:
		return Event{Kind: KindUnknown}
	}
}

func (rec *rawRecord) toStatus() *model.Status {
	st := &model.Status{
		ID:                rec.IDStr,
		Text:              rec.tweetText(),
		Lang:              rec.Lang,
		IsRetweet:         rec.RetweetedStatus != nil,
		PossiblySensitive: rec.PossiblySensitive,
		Retweeted:         rec.Retweeted,
		Favorited:         rec.Favorited,
		RetweetCount:      rec.RetweetCount,
		FavoriteCount:     rec.FavoriteCount,
		Author: model.User{
			ID:             rec.User.IDStr,
			ScreenName:     rec.User.ScreenName,
			Name:           rec.User.Name,
			Location:       rec.User.Location,
			FollowersCount: rec.User.FollowersCount,
			FriendsCount:   rec.User.FriendsCount,
		},
	}
	if rec.InReplyToStatusID != nil {
		st.InReplyToStatusID = *rec.InReplyToStatusID
	}
	if rec.InReplyToScreenName != nil {
		st.InReplyToScreenName = *rec.InReplyToScreenName
	}
	for _, m := range rec.Entities.UserMentions {
		st.Mentions = append(st.Mentions, m.IDStr)
	}
	if ts, err := time.Parse(time.RubyDate, rec.CreatedAt); err == nil {
		st.CreatedAt = ts
	}
	return st
}

// tweetText prefers the extended full text, falling back to the plain
// text field, then to empty.
func (rec *rawRecord) tweetText() string {
	if rec.ExtendedTweet != nil {
		var ext struct {
			FullText string `json:"full_text"`
		}
		if err := json.Unmarshal(rec.ExtendedTweet, &ext); err == nil && ext.FullText != "" {
			return ext.FullText
		}
	}
	if rec.Text != nil {
		return *rec.Text
	}
	return ""
}
