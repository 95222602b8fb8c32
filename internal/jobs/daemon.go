package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"twitbot/internal/config"
	"twitbot/internal/engage"
	"twitbot/internal/logging"
	"twitbot/internal/model"
	"twitbot/internal/pacing"
	"twitbot/internal/quota"
	"twitbot/internal/store/followstore"
	"twitbot/internal/stream"
	"twitbot/internal/words"
	"twitbot/internal/xclient"
)

// Daemon runs the two stream consumers: the keyword tracker and the
// followed-account watcher. Both share one quota tracker so the daily
// caps hold across streams.
type Daemon struct {
	Client *xclient.Client
	Store  *followstore.DB
	Cfg    config.Config
}

// Run connects both streams and consumes them until ctx is cancelled or
// a stream fails fatally. A stream auth rejection is the only error
// treated as fatal; it tears the whole daemon down.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.Cfg
	me, err := d.Client.GetUserByScreenName(ctx, cfg.Account.ScreenName)
	if err != nil {
		return fmt.Errorf("resolve own account: %w", err)
	}
	q := quota.New(cfg.Params.MaxDailyRetweets, cfg.Params.MaxDailyLikes)

	g, ctx := errgroup.WithContext(ctx)
	if len(cfg.Track) > 0 {
		g.Go(func() error {
			return d.runStream(ctx, streamSpec{
				role:    stream.RoleTrack,
				me:      me,
				quota:   q,
				rule:    trackRule(cfg.Words),
				mode:    engage.Mode{ForceRetweet: cfg.Params.RetweetTracker, ForceFollow: cfg.Params.FollowTracker},
				filter:  xclient.StreamFilter{Track: cfg.Track, Languages: cfg.Languages},
				watched: nil,
			})
		})
	}
	if len(cfg.Follow) > 0 {
		g.Go(func() error {
			return d.runStream(ctx, streamSpec{
				role:    stream.RoleWatch,
				me:      me,
				quota:   q,
				rule:    nil,
				mode:    engage.Mode{ForceRetweet: cfg.Params.RetweetWatcher, ForceFollow: cfg.Params.FollowWatcher, Watch: true},
				filter:  xclient.StreamFilter{Follow: cfg.Follow},
				watched: cfg.Follow,
			})
		})
	}
	return g.Wait()
}

type streamSpec struct {
	role    stream.Role
	me      model.User
	quota   *quota.Tracker
	rule    *words.Rule
	mode    engage.Mode
	filter  xclient.StreamFilter
	watched []string
}

// runStream consumes one stream, reconnecting after transient failures.
// An auth rejection or context cancellation ends the loop.
func (d *Daemon) runStream(ctx context.Context, spec streamSpec) error {
	pipe := engage.New(d.Client, spec.quota, d.Store, spec.me, spec.rule, d.Cfg.Params, spec.mode)
	pool := stream.NewPool(d.Cfg.Params.Workers, d.Cfg.Params.QueueSize)
	defer pool.Shutdown()
	disp := stream.NewDispatcher(spec.role, spec.me, spec.watched, pipe, pool, d.Cfg.Params.MinsSleep)

	for {
		if err := d.consumeOnce(ctx, spec, disp); err != nil {
			if errors.Is(err, xclient.ErrStreamAuth) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error("stream_stopped", map[string]any{"stream": string(spec.role), "error": err.Error()})
		}
		wait := time.Duration(d.Cfg.Params.MinsSleep) * time.Minute
		logging.Info("stream_reconnect_wait", map[string]any{"stream": string(spec.role), "seconds": int(wait.Seconds())})
		if err := pacing.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (d *Daemon) consumeOnce(ctx context.Context, spec streamSpec, disp *stream.Dispatcher) error {
	conn, err := d.Client.OpenStream(ctx, spec.filter)
	if err != nil {
		if errors.Is(err, xclient.ErrStreamAuth) {
			return err
		}
		return fmt.Errorf("open %s stream: %w", spec.role, err)
	}
	defer conn.Close()
	logging.Info("stream_launched", map[string]any{"stream": string(spec.role)})
	return disp.Run(ctx, conn)
}

func trackRule(w *config.WordsConfig) *words.Rule {
	if w == nil {
		return nil
	}
	return &words.Rule{Look: w.Look, Block: w.Block}
}
