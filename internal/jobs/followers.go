package jobs

import (
	"context"
	"time"

	"twitbot/internal/config"
	"twitbot/internal/logging"
	"twitbot/internal/metrics"
	"twitbot/internal/pacing"
	"twitbot/internal/store/followstore"
	"twitbot/internal/xclient"
)

// FollowerBatch follows eligible followers of a target account in
// throttled batches. One-shot; runs to completion synchronously.
type FollowerBatch struct {
	Client xclient.XClient
	Store  *followstore.DB
	Cfg    config.Config

	sleep func(context.Context, time.Duration) error
}

func NewFollowerBatch(client xclient.XClient, store *followstore.DB, cfg config.Config) *FollowerBatch {
	return &FollowerBatch{Client: client, Store: store, Cfg: cfg, sleep: pacing.Sleep}
}

// Run iterates target's follower listing in stream order, following each
// eligible entry, pausing for 2x the configured cooldown every StepBatch
// processed followers. target "" or "me" means the bot account.
func (b *FollowerBatch) Run(ctx context.Context, target string, maxBatch int) error {
	p := b.Cfg.Params
	if maxBatch <= 0 {
		maxBatch = p.MaxBatch
	}
	if target == "" || target == "me" {
		target = b.Cfg.Account.ScreenName
	}
	ref, err := b.Client.GetUserByScreenName(ctx, target)
	if err != nil {
		logging.Error("follower_batch_target_failed", map[string]any{"target": target, "error": err.Error()})
		return err
	}
	logging.Info("processing_followers", map[string]any{
		"screen_name": ref.ScreenName, "followers_count": ref.FollowersCount,
	})

	batchCount := 0
	seen := 0
	cursor := ""
	for seen < maxBatch {
		page, next, err := b.Client.FollowersPage(ctx, ref.ID, cursor)
		if err != nil {
			return err
		}
		for _, follower := range page {
			if seen >= maxBatch {
				break
			}
			seen++
			if !b.shouldFollow(follower) {
				continue
			}
			batchCount++
			logging.Info("processing_follower", map[string]any{
				"screen_name": follower.ScreenName, "batch": batchCount,
			})
			if p.StepBatch > 0 && batchCount%p.StepBatch == 0 {
				pause := time.Duration(p.MinsSleep) * 2 * time.Minute
				logging.Info("batch_pause", map[string]any{"seconds": int(pause.Seconds())})
				if err := b.sleep(ctx, pause); err != nil {
					return err
				}
			}
			if err := b.Client.Follow(ctx, follower.ID); err != nil {
				metrics.IncAction("follow", "failed")
				logging.Error("follow_failed", map[string]any{"screen_name": follower.ScreenName, "error": err.Error()})
				continue
			}
			metrics.IncAction("follow", "success")
			logging.Info("followed", map[string]any{"screen_name": follower.ScreenName})
			if b.Store != nil {
				if err := b.Store.PutFollowed(ctx, follower.User, time.Now().UTC()); err != nil {
					logging.Error("follow_record_failed", map[string]any{"screen_name": follower.ScreenName, "error": err.Error()})
				}
				_ = b.Store.RecordAction(ctx, time.Now().UTC(), "follow", follower.ID)
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return nil
}

// shouldFollow applies the eligibility filters: skip reciprocal friends,
// accounts below the follower floor, and accounts whose friend count
// meaningfully exceeds their followers unless they are already
// well-followed.
func (b *FollowerBatch) shouldFollow(f xclient.Follower) bool {
	p := b.Cfg.Params
	if f.Following {
		logging.Info("already_following", map[string]any{"screen_name": f.ScreenName})
		return false
	}
	if f.FollowersCount < p.MinFollowersCount {
		logging.Info("not_enough_followers", map[string]any{
			"screen_name": f.ScreenName, "followers_count": f.FollowersCount,
		})
		return false
	}
	if f.FollowersCount+p.AddFollowersCount < f.FriendsCount &&
		f.FollowersCount < p.MinFollowersExtended {
		logging.Info("poor_follower_ratio", map[string]any{
			"screen_name": f.ScreenName, "friends_count": f.FriendsCount,
		})
		return false
	}
	return true
}
