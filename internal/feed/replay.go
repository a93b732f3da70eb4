package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cppi/internal/clock"
	"cppi/internal/domain"
	"cppi/internal/pubsub"
)

// Compile-time interface check.
var _ Source = (*Replay)(nil)

const (
	// replayVolume stands in for bid/ask volume, which paths do not carry.
	replayVolume = 1e9

	// startOffset anchors the replay clock just before the first observation.
	startOffset = time.Second
)

// Replay replays one column of a Paths table as a price series. Bid and ask
// are both set to the column value.
type Replay struct {
	paths  *domain.Paths
	column int

	values []float64
	cursor int
	tick   domain.Tick

	clock       *clock.Clock
	subscribers pubsub.Topic[Source]
	stopped     atomic.Bool
}

// NewReplay creates a Replay over column of paths.
func NewReplay(paths *domain.Paths, column int) *Replay {
	return &Replay{
		paths:  paths,
		column: column,
		clock:  clock.New(),
	}
}

// Name returns the column name of the replayed path.
func (r *Replay) Name() string {
	if r.paths == nil {
		return ""
	}
	return r.paths.ColumnName(r.column)
}

// Prepare validates the selected column and rewinds the replay.
func (r *Replay) Prepare(_ context.Context) error {
	if r.paths == nil {
		return fmt.Errorf("replay: no paths loaded")
	}
	values, ok := r.paths.Column(r.column)
	if !ok {
		return fmt.Errorf("replay: column %d out of range (%d columns)", r.column, r.paths.Columns())
	}
	if len(values) != r.paths.Len() {
		return fmt.Errorf("replay: column %d has %d values for %d timestamps", r.column, len(values), r.paths.Len())
	}

	r.values = values
	r.cursor = 0
	r.tick = domain.Tick{}
	r.stopped.Store(false)
	if r.paths.Len() > 0 {
		r.clock.Reset(r.paths.Times[0].Add(-startOffset))
	}
	return nil
}

// Start replays every remaining observation in order. A subscriber returning
// domain.ErrEarlyTermination or domain.ErrMaturityReached ends the replay
// without error.
func (r *Replay) Start(ctx context.Context) error {
	if r.values == nil {
		if err := r.Prepare(ctx); err != nil {
			return err
		}
	}

	for !r.stopped.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := r.Step(ctx)
		if err != nil {
			if domain.IsEndOfRun(err) {
				return nil
			}
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Step advances to the next observation and notifies subscribers.
func (r *Replay) Step(_ context.Context) (bool, error) {
	if r.cursor >= len(r.values) {
		return false, nil
	}

	ts := r.paths.Times[r.cursor]
	if err := r.clock.Advance(ts); err != nil {
		return false, fmt.Errorf("replay %s row %d: %w", r.Name(), r.cursor, err)
	}

	price := r.values[r.cursor]
	r.tick = domain.Tick{
		Time:      ts,
		Bid:       price,
		Ask:       price,
		BidVolume: replayVolume,
		AskVolume: replayVolume,
	}
	r.cursor++

	if err := r.subscribers.Notify(r); err != nil {
		return false, err
	}
	return r.cursor < len(r.values), nil
}

// Stop makes Start return before the next tick.
func (r *Replay) Stop() {
	r.stopped.Store(true)
}

// Subscribe registers s for tick notifications.
func (r *Replay) Subscribe(s Subscriber) {
	r.subscribers.Subscribe(s)
}

// Unsubscribe removes s.
func (r *Replay) Unsubscribe(s Subscriber) {
	r.subscribers.Unsubscribe(s)
}

// Tick returns the current observation.
func (r *Replay) Tick() domain.Tick {
	return r.tick
}

// Time returns the current simulation time.
func (r *Replay) Time() (time.Time, error) {
	return r.clock.Now()
}

func (r *Replay) Bid() float64       { return r.tick.Bid }
func (r *Replay) Ask() float64       { return r.tick.Ask }
func (r *Replay) BidVolume() float64 { return r.tick.BidVolume }
func (r *Replay) AskVolume() float64 { return r.tick.AskVolume }

// Remaining returns the number of observations not yet replayed.
func (r *Replay) Remaining() int {
	return len(r.values) - r.cursor
}
