package broadcaster

import (
	"context"
	"errors"
	"testing"
)

func TestFanoutBroadcast(t *testing.T) {
	var received []Event
	fn := Func(func(ctx context.Context, evt Event) error {
		received = append(received, evt)
		return nil
	})
	f := NewFanout(fn, nil, &Nop{}, fn)
	if f.Len() != 2 {
		t.Fatalf("expected nil and nop relays to be skipped, got %d", f.Len())
	}
	if err := f.Broadcast(context.Background(), Event{Topic: "author.activity/1", Kind: "ACTIVITY_UPDATED"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("expected event fanout, got %d", len(received))
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	first, second := errors.New("node a down"), errors.New("node b down")
	calls := 0
	f := NewFanout(
		Func(func(ctx context.Context, evt Event) error { calls++; return first }),
		Func(func(ctx context.Context, evt Event) error { calls++; return nil }),
		Func(func(ctx context.Context, evt Event) error { calls++; return second }),
	)
	err := f.Broadcast(context.Background(), Event{})
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both failures, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected every relay invoked, got %d", calls)
	}
}

func TestFanoutStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	fn := Func(func(ctx context.Context, evt Event) error { calls++; return nil })
	err := NewFanout(fn, fn).Broadcast(ctx, Event{})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any relay, err=%v calls=%d", err, calls)
	}
}

func TestJoin(t *testing.T) {
	if Join(nil, &Nop{}) != nil {
		t.Fatalf("expected nil when no relay is left")
	}
	single := Func(func(ctx context.Context, evt Event) error { return nil })
	if _, ok := Join(nil, single).(Func); !ok {
		t.Fatalf("expected single relay returned as is")
	}
	if f, ok := Join(single, single).(*Fanout); !ok || f.Len() != 2 {
		t.Fatalf("expected fanout of two relays")
	}
}
