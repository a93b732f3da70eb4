// Package feed defines the price sources that drive a simulation tick by tick
// and provides a replay source over pre-loaded price paths.
package feed

import (
	"context"
	"time"

	"cppi/internal/domain"
	"cppi/internal/pubsub"
)

// Subscriber receives one notification per tick produced by a Source.
type Subscriber = pubsub.Subscriber[Source]

// Source produces ticks and notifies its subscribers synchronously. The
// accessors are only meaningful during or right after a notification.
type Source interface {
	// Name identifies the path this source replays.
	Name() string

	// Prepare loads and validates the data. It must not notify.
	Prepare(ctx context.Context) error

	// Start produces every remaining tick, notifying subscribers for each one
	// before moving to the next. It returns when the data is exhausted, Stop
	// was called, or a subscriber failed.
	Start(ctx context.Context) error

	// Step produces a single tick. It returns false once the data is
	// exhausted.
	Step(ctx context.Context) (bool, error)

	// Stop asks Start to return before the next tick.
	Stop()

	Subscribe(s Subscriber)
	Unsubscribe(s Subscriber)

	Tick() domain.Tick
	Time() (time.Time, error)
	Bid() float64
	Ask() float64
	BidVolume() float64
	AskVolume() float64
}
