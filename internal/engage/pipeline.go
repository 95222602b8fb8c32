package engage

import (
	"context"
	"time"

	"twitbot/internal/config"
	"twitbot/internal/logging"
	"twitbot/internal/metrics"
	"twitbot/internal/model"
	"twitbot/internal/pacing"
	"twitbot/internal/quota"
	"twitbot/internal/store/followstore"
	"twitbot/internal/words"
	"twitbot/internal/xclient"
)

const (
	followJitterMax   = 3 * time.Minute
	retweetJitterMax  = 3 * time.Minute
	favoriteJitterMax = 2 * time.Minute
)

// Mode carries the per-stream decision flags.
type Mode struct {
	ForceRetweet bool
	ForceFollow  bool
	Watch        bool
}

// Pipeline applies the per-status decision sequence: sensitivity, reply,
// keyword filter, then follow/retweet/favorite. It performs zero or more
// remote actions and never lets a failure escape its boundary.
type Pipeline struct {
	Client xclient.XClient
	Quota  *quota.Tracker
	Store  *followstore.DB
	Me     model.User
	Rule   *words.Rule
	Params config.Params
	Mode   Mode

	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
}

func New(client xclient.XClient, q *quota.Tracker, store *followstore.DB, me model.User, rule *words.Rule, params config.Params, mode Mode) *Pipeline {
	return &Pipeline{
		Client: client,
		Quota:  q,
		Store:  store,
		Me:     me,
		Rule:   rule,
		Params: params,
		Mode:   mode,
		sleep:  pacing.Sleep,
		jitter: pacing.Jitter,
	}
}

// Process runs the full decision sequence for one status.
func (p *Pipeline) Process(ctx context.Context, st *model.Status) {
	start := time.Now()
	defer metrics.ObservePipelineDuration(start)

	logging.Info("processing_status", map[string]any{
		"id": st.ID, "screen_name": st.Author.ScreenName, "location": st.Author.Location,
	})

	if st.PossiblySensitive {
		logging.Info("sensitive_status", map[string]any{"id": st.ID})
		return
	}
	if st.InReplyToStatusID != "" {
		logging.Info("reply_skipped", map[string]any{"id": st.ID})
		return
	}
	if p.Mode.Watch && st.InReplyToScreenName != "" {
		logging.Info("reply_skipped", map[string]any{"id": st.ID})
		return
	}
	if !p.Rule.Allows(st.Text) {
		logging.Info("status_filtered", map[string]any{"id": st.ID})
		return
	}

	p.maybeFollow(ctx, st)
	p.maybeRetweet(ctx, st)
	p.maybeFavorite(ctx, st)
}

func (p *Pipeline) maybeFollow(ctx context.Context, st *model.Status) {
	eligible := p.Mode.ForceFollow ||
		(st.Author.FollowersCount >= p.Params.MinFollowersCount &&
			st.Author.FriendsCount <= p.Params.MaxFriendsCount)
	if !eligible {
		return
	}
	rel, err := p.Client.Friendship(ctx, p.Me.ID, st.Author.ID)
	if err != nil {
		logging.Error("friendship_check_failed", map[string]any{"user": st.Author.ScreenName, "error": err.Error()})
		return
	}
	if rel.Following {
		logging.Info("already_following", map[string]any{"user": st.Author.ScreenName})
		return
	}
	wait := p.jitter(followJitterMax)
	logging.Info("waiting_to_follow", map[string]any{"user": st.Author.ScreenName, "seconds": int(wait.Seconds())})
	if p.sleep(ctx, wait) != nil {
		return
	}
	if err := p.Client.Follow(ctx, st.Author.ID); err != nil {
		out := Classify(err, p.Params.StrictRateLimit)
		metrics.IncAction("follow", out.String())
		if out == OutcomeAlreadyDone {
			logging.Info("already_followed", map[string]any{"user": st.Author.ScreenName})
		} else {
			logging.Error("follow_failed", map[string]any{"user": st.Author.ScreenName, "error": err.Error()})
		}
		return
	}
	metrics.IncAction("follow", OutcomeSuccess.String())
	logging.Info("followed", map[string]any{"user": st.Author.ScreenName})
	p.recordFollow(ctx, st.Author)
}

func (p *Pipeline) recordFollow(ctx context.Context, u model.User) {
	if p.Store == nil {
		return
	}
	// Sink failures never affect the follow outcome.
	if err := p.Store.PutFollowed(ctx, u, time.Now().UTC()); err != nil {
		logging.Error("follow_record_failed", map[string]any{"user": u.ScreenName, "error": err.Error()})
		return
	}
	if err := p.Store.RecordAction(ctx, time.Now().UTC(), "follow", u.ID); err != nil {
		logging.Error("action_log_failed", map[string]any{"error": err.Error()})
	}
	logging.Info("follow_recorded", map[string]any{"user": u.ScreenName})
}

func (p *Pipeline) maybeRetweet(ctx context.Context, st *model.Status) {
	eligible := p.Mode.ForceRetweet ||
		(!st.Retweeted && !st.IsRetweet &&
			st.RetweetCount >= p.Params.MinRetweetCount &&
			st.Author.FollowersCount >= p.Params.MinFollowersCount)
	if !eligible {
		return
	}
	if !p.Quota.Reserve(quota.KindRetweet) {
		metrics.QuotaExhausted.WithLabelValues("retweet").Inc()
		logging.Info("retweet_quota_spent", map[string]any{"id": st.ID})
		return
	}
	wait := p.jitter(retweetJitterMax)
	logging.Info("waiting_to_retweet", map[string]any{"id": st.ID, "seconds": int(wait.Seconds())})
	if p.sleep(ctx, wait) != nil {
		p.Quota.Release(quota.KindRetweet)
		return
	}
	err := p.Client.Retweet(ctx, st.ID)
	if err == nil {
		metrics.IncAction("retweet", OutcomeSuccess.String())
		logging.Info("retweeted", map[string]any{"id": st.ID})
		p.logAction(ctx, "retweet", st.ID)
		return
	}
	p.Quota.Release(quota.KindRetweet)
	p.handleActionFailure(ctx, "retweet", st.ID, err)
}

func (p *Pipeline) maybeFavorite(ctx context.Context, st *model.Status) {
	if st.Favorited {
		return
	}
	if !p.Quota.Reserve(quota.KindFavorite) {
		metrics.QuotaExhausted.WithLabelValues("favorite").Inc()
		logging.Info("favorite_quota_spent", map[string]any{"id": st.ID})
		return
	}
	wait := p.jitter(favoriteJitterMax)
	logging.Info("waiting_to_favorite", map[string]any{"id": st.ID, "seconds": int(wait.Seconds())})
	if p.sleep(ctx, wait) != nil {
		p.Quota.Release(quota.KindFavorite)
		return
	}
	err := p.Client.Favorite(ctx, st.ID)
	if err == nil {
		metrics.IncAction("favorite", OutcomeSuccess.String())
		logging.Info("favorited", map[string]any{"id": st.ID})
		p.logAction(ctx, "favorite", st.ID)
		return
	}
	p.Quota.Release(quota.KindFavorite)
	p.handleActionFailure(ctx, "favorite", st.ID, err)
}

// handleActionFailure classifies a failed retweet/favorite and, for a
// rate-limit signal, takes one blocking cooldown before returning
// control to the caller. The triggering action is not retried.
func (p *Pipeline) handleActionFailure(ctx context.Context, typ, id string, err error) {
	out := Classify(err, p.Params.StrictRateLimit)
	metrics.IncAction(typ, out.String())
	switch out {
	case OutcomeAlreadyDone:
		logging.Info("already_done", map[string]any{"type": typ, "id": id})
	case OutcomeRateLimited:
		logging.Error("rate_limited", map[string]any{
			"type": typ, "id": id, "error": err.Error(), "mins_sleep": p.Params.MinsSleep,
		})
		if limits, lerr := p.Client.RateLimitStatus(ctx); lerr == nil {
			logging.Debug("rate_limit_status", map[string]any{"raw": string(limits)})
		}
		metrics.Cooldowns.Inc()
		_ = p.sleep(ctx, time.Duration(p.Params.MinsSleep)*time.Minute)
	default:
		logging.Error("action_failed", map[string]any{"type": typ, "id": id, "error": err.Error()})
	}
}

func (p *Pipeline) logAction(ctx context.Context, typ, target string) {
	if p.Store == nil {
		return
	}
	if err := p.Store.RecordAction(ctx, time.Now().UTC(), typ, target); err != nil {
		logging.Error("action_log_failed", map[string]any{"error": err.Error()})
	}
}
