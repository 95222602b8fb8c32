package stream

import (
	"context"
	"time"

	"twitbot/internal/logging"
	"twitbot/internal/metrics"
	"twitbot/internal/model"
	"twitbot/internal/pacing"
)

// Role distinguishes the keyword-tracking stream from the
// followed-account watch stream; classification differs between them.
type Role string

const (
	RoleTrack Role = "track"
	RoleWatch Role = "watch"
)

// Source produces raw event records, one at a time.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Processor consumes one classified status. *engage.Pipeline is the
// production implementation.
type Processor interface {
	Process(ctx context.Context, st *model.Status)
}

// Dispatcher consumes a stream, classifies each record, and hands
// qualifying statuses to the worker pool. Protocol-control events are
// handled inline so the consumer loop stays fast except for limit
// notices, which stall it deliberately.
type Dispatcher struct {
	Role      Role
	Me        model.User
	Watched   map[string]bool
	Pipeline  Processor
	Pool      *Pool
	MinsSleep int

	sleep func(context.Context, time.Duration) error
}

func NewDispatcher(role Role, me model.User, watched []string, pipe Processor, pool *Pool, minsSleep int) *Dispatcher {
	w := make(map[string]bool, len(watched))
	for _, id := range watched {
		w[id] = true
	}
	return &Dispatcher{
		Role:      role,
		Me:        me,
		Watched:   w,
		Pipeline:  pipe,
		Pool:      pool,
		MinsSleep: minsSleep,
		sleep:     pacing.Sleep,
	}
}

// Run consumes the source until it fails or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	for {
		raw, err := src.Next(ctx)
		if err != nil {
			return err
		}
		d.Handle(ctx, raw)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Handle classifies one raw record and reacts to it.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	ev := Decode(raw)
	metrics.StreamEvents.WithLabelValues(string(d.Role), string(ev.Kind)).Inc()
	switch ev.Kind {
	case KindStatus:
		d.handleStatus(ctx, ev.Status)
	case KindLimit:
		// The platform is dropping messages; stall the whole consumer.
		logging.Error("limit_reached", map[string]any{"stream": string(d.Role), "track": ev.Limit.Track})
		_ = d.sleep(ctx, time.Duration(d.MinsSleep)*time.Minute)
	case KindWarning:
		logging.Error("stream_warning", map[string]any{"stream": string(d.Role), "code": ev.Warning.Code, "message": ev.Warning.Message})
	case KindDisconnect:
		logging.Error("stream_disconnect", map[string]any{"stream": string(d.Role), "code": ev.Disconnect.Code, "reason": ev.Disconnect.Reason})
	case KindDelete, KindFriends, KindDirectMessage, KindEvent:
		// No engagement value; drop quietly.
	default:
		logging.Error("unknown_event", map[string]any{"stream": string(d.Role), "raw": string(raw)})
	}
}

// handleStatus applies the protocol-level filters in first-match-wins
// order and dispatches survivors to the pipeline via the pool.
func (d *Dispatcher) handleStatus(ctx context.Context, st *model.Status) {
	if st.Author.ScreenName == d.Me.ScreenName {
		d.drop("self", st)
		return
	}
	if st.IsRetweet && d.Role == RoleTrack {
		logging.Info("retweet_detected", map[string]any{"id": st.ID})
		d.drop("retweet", st)
		return
	}
	if st.InReplyToStatusID != "" && d.Role == RoleTrack {
		logging.Info("reply_detected", map[string]any{"id": st.ID})
		d.drop("reply", st)
		return
	}
	if d.Role == RoleWatch && d.mentionsWatched(st) {
		// A watched account's own outward mention, not an organic match.
		logging.Info("mention_to_watched_detected", map[string]any{"id": st.ID})
		d.drop("watched_mention", st)
		return
	}
	if err := d.Pool.Submit(ctx, func() { d.Pipeline.Process(ctx, st) }); err != nil {
		d.drop("shutdown", st)
		return
	}
	metrics.StatusesDispatched.WithLabelValues(string(d.Role)).Inc()
}

func (d *Dispatcher) drop(reason string, st *model.Status) {
	metrics.StatusesDropped.WithLabelValues(string(d.Role), reason).Inc()
	_ = st
}

func (d *Dispatcher) mentionsWatched(st *model.Status) bool {
	for _, id := range st.Mentions {
		if d.Watched[id] {
			return true
		}
	}
	return false
}
