package topics

import (
	"context"
	"sync"
	"testing"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
	"github.com/google/uuid"
)

type stubConn struct {
	id domain.ClientID
}

func (s *stubConn) ClientID() domain.ClientID                   { return s.id }
func (s *stubConn) Send(ctx context.Context, frame []byte) error { return nil }

func newSub(id string) transport.Subscriber {
	return transport.Subscriber{Conn: &stubConn{id: domain.NewClientID()}, SubscriptionID: id}
}

func activityTopic() domain.Topic {
	return For("author", domain.ElementPathway, uuid.New())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	topic := activityTopic()
	sub := newSub("s1")

	added, err := reg.Subscribe(topic, sub)
	if err != nil || !added {
		t.Fatalf("first subscribe: added=%v err=%v", added, err)
	}
	added, err = reg.Subscribe(topic, sub)
	if err != nil || added {
		t.Fatalf("second subscribe: added=%v err=%v", added, err)
	}
	if reg.Count(topic) != 1 {
		t.Fatalf("expected one subscriber, got %d", reg.Count(topic))
	}

	renamed := transport.Subscriber{Conn: sub.Conn, SubscriptionID: "s2"}
	if _, err := reg.Subscribe(topic, renamed); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	snap := reg.Snapshot(topic)
	if len(snap) != 1 || snap[0].SubscriptionID != "s2" {
		t.Fatalf("expected refreshed subscription id, got %+v", snap)
	}
}

func TestSubscribeValidation(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Subscribe(domain.Topic{}, newSub("s")); err != ErrTopicRequired {
		t.Fatalf("expected topic error, got %v", err)
	}
	anon := transport.Subscriber{Conn: &stubConn{}}
	if _, err := reg.Subscribe(activityTopic(), anon); err != ErrConnectionRequired {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestUnsubscribeRemovesEmptyTopic(t *testing.T) {
	reg := NewRegistry()
	topic := activityTopic()
	sub := newSub("s1")
	if _, err := reg.Subscribe(topic, sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !reg.Unsubscribe(topic, sub.ClientID()) {
		t.Fatalf("expected unsubscribe to remove the client")
	}
	if reg.Unsubscribe(topic, sub.ClientID()) {
		t.Fatalf("expected second unsubscribe to be a no-op")
	}
	if len(reg.Topics()) != 0 {
		t.Fatalf("expected topic to be dropped, got %v", reg.Topics())
	}
	if len(reg.TopicsOf(sub.ClientID())) != 0 {
		t.Fatalf("expected client index to be cleared")
	}
}

func TestSnapshotIsStable(t *testing.T) {
	reg := NewRegistry()
	topic := activityTopic()
	first := newSub("a")
	if _, err := reg.Subscribe(topic, first); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	snap := reg.Snapshot(topic)

	if _, err := reg.Subscribe(topic, newSub("b")); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	reg.Unsubscribe(topic, first.ClientID())

	if len(snap) != 1 || snap[0].SubscriptionID != "a" {
		t.Fatalf("snapshot changed underneath reader: %+v", snap)
	}
	now := reg.Snapshot(topic)
	if len(now) != 1 || now[0].SubscriptionID != "b" {
		t.Fatalf("unexpected current membership: %+v", now)
	}
}

func TestRemoveConnectionLeavesAllTopics(t *testing.T) {
	reg := NewRegistry()
	sub := newSub("s")
	other := newSub("o")
	t1, t2 := activityTopic(), For("author", domain.ElementWorkspace, uuid.New())
	for _, topic := range []domain.Topic{t1, t2} {
		if _, err := reg.Subscribe(topic, sub); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	if _, err := reg.Subscribe(t1, other); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	left := reg.RemoveConnection(sub.ClientID())
	if len(left) != 2 {
		t.Fatalf("expected to leave two topics, got %v", left)
	}
	if reg.Count(t1) != 1 || reg.Count(t2) != 0 {
		t.Fatalf("unexpected counts t1=%d t2=%d", reg.Count(t1), reg.Count(t2))
	}
	if reg.RemoveConnection(sub.ClientID()) != nil {
		t.Fatalf("expected second removal to be empty")
	}
}

func TestConcurrentMembershipChanges(t *testing.T) {
	reg := NewRegistry()
	topic := activityTopic()
	stable := newSub("stable")
	if _, err := reg.Subscribe(topic, stable); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := newSub("churn")
			for j := 0; j < 100; j++ {
				_, _ = reg.Subscribe(topic, sub)
				reg.Unsubscribe(topic, sub.ClientID())
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 1000; j++ {
			if len(reg.Snapshot(topic)) == 0 {
				t.Errorf("reader observed an empty subscriber set")
				return
			}
		}
	}()
	wg.Wait()

	if reg.Count(topic) != 1 {
		t.Fatalf("expected only the stable subscriber, got %d", reg.Count(topic))
	}
}

func TestTopicNamingIsPure(t *testing.T) {
	root := uuid.New()
	a := For("author", domain.ElementInteractive, root)
	b := For("author", domain.ElementActivity, root)
	if a.Name() != b.Name() {
		t.Fatalf("elements of the same activity must share a topic: %s vs %s", a.Name(), b.Name())
	}
	if For("", domain.ElementWorkspace, root).Namespace() != DefaultNamespace {
		t.Fatalf("expected default namespace")
	}
}
