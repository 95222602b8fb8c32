package jobs

import (
	"context"
	"time"

	"twitbot/internal/config"
	"twitbot/internal/logging"
	"twitbot/internal/metrics"
	"twitbot/internal/store/followstore"
	"twitbot/internal/xclient"
)

// RunUnfollowSweep makes one pass over the current friend listing and
// unfollows every non-reciprocal friend not on the whitelist. Failures
// are skipped silently; enumeration errors are not distinguished from
// idempotent no-ops.
func RunUnfollowSweep(ctx context.Context, client xclient.XClient, store *followstore.DB, cfg config.Config) error {
	omit := make(map[string]bool, len(cfg.Omit))
	for _, id := range cfg.Omit {
		omit[id] = true
	}
	logging.Info("unfollow_whitelist", map[string]any{"omit": cfg.Omit})

	me, err := client.GetUserByScreenName(ctx, cfg.Account.ScreenName)
	if err != nil {
		return err
	}
	friendIDs, err := client.FriendIDs(ctx, me.ID)
	if err != nil {
		return err
	}
	for _, friendID := range friendIDs {
		if omit[friendID] {
			continue
		}
		rel, err := client.Friendship(ctx, me.ID, friendID)
		if err != nil {
			continue
		}
		if rel.FollowedBy {
			continue
		}
		if err := client.Unfollow(ctx, friendID); err != nil {
			continue
		}
		metrics.IncAction("unfollow", "success")
		logging.Info("unfollowed", map[string]any{"user_id": friendID})
		if store != nil {
			_ = store.RecordAction(ctx, time.Now().UTC(), "unfollow", friendID)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
