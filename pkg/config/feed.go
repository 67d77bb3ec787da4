package config

import "context"

// Feed is the opaque source of configuration events (spec §6): something
// that can be polled or subscribed to for raw JSON documents describing
// add/remove changes to the five record classes. Production wiring sits
// behind a concrete implementation (e.g. a Redis pub/sub channel or an
// IF-MAP-style discovery client); tests supply a channel-backed fake.
type Feed interface {
	// Next blocks until the next raw config event is available, or ctx is
	// canceled. addChange reports whether the event is an add/update
	// (true) or a remove (false).
	Next(ctx context.Context) (raw []byte, addChange bool, err error)
}

// Run drains feed into reg until ctx is canceled or feed returns a
// non-transient error. Malformed individual events are logged and
// skipped by Registry.ReceiveConfig; Run itself only stops on feed
// failure or cancellation.
func Run(ctx context.Context, feed Feed, reg *Registry) error {
	for {
		raw, addChange, err := feed.Next(ctx)
		if err != nil {
			return err
		}
		_ = reg.ReceiveConfig(raw, addChange)
	}
}

// ChanFeed adapts a channel of (raw, addChange) pairs into a Feed, used
// by tests and by simple in-process producers.
type ChanFeed struct {
	C chan ChanFeedEvent
}

// ChanFeedEvent is one event delivered over a ChanFeed.
type ChanFeedEvent struct {
	Raw       []byte
	AddChange bool
}

// NewChanFeed creates a ChanFeed with the given buffer size.
func NewChanFeed(buffer int) *ChanFeed {
	return &ChanFeed{C: make(chan ChanFeedEvent, buffer)}
}

// Next implements Feed.
func (f *ChanFeed) Next(ctx context.Context) ([]byte, bool, error) {
	select {
	case ev, ok := <-f.C:
		if !ok {
			return nil, false, context.Canceled
		}
		return ev.Raw, ev.AddChange, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
