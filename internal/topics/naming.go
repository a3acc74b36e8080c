package topics

import (
	"github.com/goliatone/go-rtm/internal/catalog"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/google/uuid"
)

// DefaultNamespace is used when configuration does not set one.
const DefaultNamespace = "author"

// For returns the topic an element of the given type publishes on when its
// aggregate root has id rootID.
func For(namespace string, element domain.ElementType, rootID uuid.UUID) domain.Topic {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return domain.NewTopic(namespace, domain.RootRef{Kind: catalog.RootKindOf(element), ID: rootID})
}

// ForRoot returns the topic for an explicit root reference.
func ForRoot(namespace string, root domain.RootRef) domain.Topic {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return domain.NewTopic(namespace, root)
}
