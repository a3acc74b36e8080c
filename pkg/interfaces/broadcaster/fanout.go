package broadcaster

import (
	"context"
	"errors"
	"fmt"
)

// Func adapts a function to the Broadcaster interface.
type Func func(ctx context.Context, event Event) error

// Broadcast satisfies the Broadcaster interface.
func (f Func) Broadcast(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Fanout relays every event to several broker nodes in order.
type Fanout struct {
	targets []Broadcaster
}

// NewFanout skips nil and Nop targets.
func NewFanout(targets ...Broadcaster) *Fanout {
	filtered := make([]Broadcaster, 0, len(targets))
	for _, target := range targets {
		if skipRelay(target) {
			continue
		}
		filtered = append(filtered, target)
	}
	return &Fanout{targets: filtered}
}

// Join collapses relays into one Broadcaster: nil when none are left, the
// relay itself when only one is, a Fanout otherwise.
func Join(relays ...Broadcaster) Broadcaster {
	f := NewFanout(relays...)
	switch len(f.targets) {
	case 0:
		return nil
	case 1:
		return f.targets[0]
	}
	return f
}

var _ Broadcaster = (*Fanout)(nil)

// Len reports how many relays the fanout forwards to.
func (f *Fanout) Len() int { return len(f.targets) }

// Broadcast forwards to each target and joins their failures. A failing
// target does not stop the rest; a done ctx does.
func (f *Fanout) Broadcast(ctx context.Context, event Event) error {
	var errs []error
	for i, target := range f.targets {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := target.Broadcast(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("relay %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func skipRelay(target Broadcaster) bool {
	switch t := target.(type) {
	case nil:
		return true
	case *Nop:
		return true
	case Func:
		return t == nil
	}
	return false
}
