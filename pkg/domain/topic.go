package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RootKind is the aggregate root type that owns a topic.
type RootKind string

const (
	RootActivity  RootKind = "activity"
	RootWorkspace RootKind = "workspace"
	RootDocument  RootKind = "document"
)

// ParseRootKind validates a root kind string.
func ParseRootKind(s string) (RootKind, error) {
	switch RootKind(strings.ToLower(strings.TrimSpace(s))) {
	case RootActivity:
		return RootActivity, nil
	case RootWorkspace:
		return RootWorkspace, nil
	case RootDocument:
		return RootDocument, nil
	}
	return "", fmt.Errorf("%w: unknown root kind %q", ErrInvalidInput, s)
}

// RootRef points at the aggregate root owning a mutated element.
type RootRef struct {
	Kind RootKind
	ID   uuid.UUID
}

// IsZero reports whether the reference is empty.
func (r RootRef) IsZero() bool { return r.Kind == "" && r.ID == uuid.Nil }

// Topic is the channel subscribers listen on for one aggregate root. Its name
// is computed from the namespace and root alone, so producers and subscribers
// agree on it without a naming service.
type Topic struct {
	namespace string
	root      RootRef
}

// NewTopic builds the topic for root inside namespace.
func NewTopic(namespace string, root RootRef) Topic {
	return Topic{namespace: namespace, root: root}
}

// Namespace returns the topic namespace (for example "author").
func (t Topic) Namespace() string { return t.namespace }

// Root returns the owning aggregate.
func (t Topic) Root() RootRef { return t.root }

// Name renders "<namespace>.<rootKind>/<rootId>".
func (t Topic) Name() string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s.%s/%s", t.namespace, t.root.Kind, t.root.ID)
}

// ChannelType renders the envelope type "<namespace>.<rootKind>.broadcast".
func (t Topic) ChannelType() string {
	return fmt.Sprintf("%s.%s.broadcast", t.namespace, t.root.Kind)
}

// IsZero reports whether the topic was never initialised.
func (t Topic) IsZero() bool { return t.namespace == "" && t.root.IsZero() }

func (t Topic) String() string { return t.Name() }
