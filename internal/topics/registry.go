package topics

import (
	"errors"
	"slices"
	"sort"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrTopicRequired      = errors.New("topics: topic is required")
	ErrConnectionRequired = errors.New("topics: connection with a client id is required")
)

// members is an immutable subscriber list; updates always build a new slice
// so readers holding a snapshot never see it change.
type members []transport.Subscriber

// Registry keeps the live subscriber set of every topic. Entries appear on
// first subscribe and disappear when the last subscriber leaves.
type Registry struct {
	topics  *xsync.MapOf[string, members]
	clients *xsync.MapOf[domain.ClientID, []string]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		topics:  xsync.NewMapOf[string, members](),
		clients: xsync.NewMapOf[domain.ClientID, []string](),
	}
}

// Subscribe adds sub to topic. Subscribing an already registered connection
// only refreshes its subscription id. It reports whether the connection was
// newly added.
func (r *Registry) Subscribe(topic domain.Topic, sub transport.Subscriber) (bool, error) {
	if topic.IsZero() {
		return false, ErrTopicRequired
	}
	client := sub.ClientID()
	if sub.Conn == nil || client.IsZero() {
		return false, ErrConnectionRequired
	}

	name := topic.Name()
	added := false
	r.topics.Compute(name, func(old members, loaded bool) (members, bool) {
		idx := indexOf(old, client)
		if idx >= 0 {
			next := slices.Clone(old)
			next[idx] = sub
			return next, false
		}
		added = true
		next := make(members, 0, len(old)+1)
		next = append(next, old...)
		return append(next, sub), false
	})

	if added {
		r.clients.Compute(client, func(old []string, loaded bool) ([]string, bool) {
			if slices.Contains(old, name) {
				return old, false
			}
			next := make([]string, 0, len(old)+1)
			next = append(next, old...)
			return append(next, name), false
		})
	}
	return added, nil
}

// Unsubscribe removes client from topic and reports whether it was present.
func (r *Registry) Unsubscribe(topic domain.Topic, client domain.ClientID) bool {
	return r.unsubscribeName(topic.Name(), client, true)
}

func (r *Registry) unsubscribeName(name string, client domain.ClientID, trackClient bool) bool {
	if name == "" {
		return false
	}
	removed := false
	r.topics.Compute(name, func(old members, loaded bool) (members, bool) {
		idx := indexOf(old, client)
		if idx < 0 {
			return old, !loaded || len(old) == 0
		}
		removed = true
		next := make(members, 0, len(old)-1)
		next = append(next, old[:idx]...)
		next = append(next, old[idx+1:]...)
		return next, len(next) == 0
	})

	if removed && trackClient {
		r.clients.Compute(client, func(old []string, loaded bool) ([]string, bool) {
			next := slices.DeleteFunc(slices.Clone(old), func(n string) bool { return n == name })
			return next, len(next) == 0
		})
	}
	return removed
}

// RemoveConnection drops client from every topic it joined and returns the
// topic names it left. The connection lifecycle manager calls this on
// disconnect.
func (r *Registry) RemoveConnection(client domain.ClientID) []string {
	names, ok := r.clients.LoadAndDelete(client)
	if !ok {
		return nil
	}
	left := make([]string, 0, len(names))
	for _, name := range names {
		if r.unsubscribeName(name, client, false) {
			left = append(left, name)
		}
	}
	return left
}

// Snapshot returns the subscribers of topic at this instant. Subscribers
// added later are not part of the returned slice. The slice is shared and
// must be treated as read-only.
func (r *Registry) Snapshot(topic domain.Topic) []transport.Subscriber {
	return r.SnapshotName(topic.Name())
}

// SnapshotName is Snapshot keyed by the rendered topic name.
func (r *Registry) SnapshotName(name string) []transport.Subscriber {
	if name == "" {
		return nil
	}
	subs, ok := r.topics.Load(name)
	if !ok {
		return nil
	}
	return subs
}

// Count returns the number of subscribers on topic.
func (r *Registry) Count(topic domain.Topic) int {
	return len(r.Snapshot(topic))
}

// Topics lists topic names with at least one subscriber, sorted.
func (r *Registry) Topics() []string {
	out := make([]string, 0, r.topics.Size())
	r.topics.Range(func(name string, subs members) bool {
		if len(subs) > 0 {
			out = append(out, name)
		}
		return true
	})
	sort.Strings(out)
	return out
}

// TopicsOf returns the topic names client is subscribed to.
func (r *Registry) TopicsOf(client domain.ClientID) []string {
	names, _ := r.clients.Load(client)
	return slices.Clone(names)
}

func indexOf(subs members, client domain.ClientID) int {
	for i, s := range subs {
		if s.ClientID().Equal(client) {
			return i
		}
	}
	return -1
}
