package domain

import (
	"fmt"
	"strings"
)

// ElementType tags the kind of courseware entity a broadcast refers to.
type ElementType string

const (
	ElementActivity    ElementType = "ACTIVITY"
	ElementPathway     ElementType = "PATHWAY"
	ElementComponent   ElementType = "COMPONENT"
	ElementFeedback    ElementType = "FEEDBACK"
	ElementInteractive ElementType = "INTERACTIVE"
	ElementScenario    ElementType = "SCENARIO"
	ElementWorkspace   ElementType = "WORKSPACE"
	ElementDocument    ElementType = "DOCUMENT"
	ElementAssociation ElementType = "ASSOCIATION"
)

// ElementTypes lists every element type known to the default catalog.
func ElementTypes() []ElementType {
	return []ElementType{
		ElementActivity,
		ElementPathway,
		ElementComponent,
		ElementFeedback,
		ElementInteractive,
		ElementScenario,
		ElementWorkspace,
		ElementDocument,
		ElementAssociation,
	}
}

// ParseElementType normalises s and returns the matching element type.
func ParseElementType(s string) (ElementType, error) {
	candidate := ElementType(strings.ToUpper(strings.TrimSpace(s)))
	for _, et := range ElementTypes() {
		if et == candidate {
			return et, nil
		}
	}
	return "", fmt.Errorf("%w: unknown element type %q", ErrInvalidInput, s)
}

// Action is the mutation that happened to an element.
type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionDeleted       Action = "DELETED"
	ActionUpdated       Action = "UPDATED"
	ActionConfigChange  Action = "CONFIG_CHANGE"
	ActionReordered     Action = "REORDERED"
	ActionMoved         Action = "MOVED"
	ActionAccessGranted Action = "ACCESS_GRANTED"
	ActionAccessRevoked Action = "ACCESS_REVOKED"
)

// Actions lists every action known to the default catalog.
func Actions() []Action {
	return []Action{
		ActionCreated,
		ActionDeleted,
		ActionUpdated,
		ActionConfigChange,
		ActionReordered,
		ActionMoved,
		ActionAccessGranted,
		ActionAccessRevoked,
	}
}

// ParseAction normalises s and returns the matching action.
func ParseAction(s string) (Action, error) {
	candidate := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, a := range Actions() {
		if a == candidate {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, s)
}

// EventKind describes one broadcast event type. The canonical name is unique
// per element/action pair; the legacy name is the coarser action name older
// clients still switch on.
type EventKind struct {
	name   string
	legacy string
}

// NewEventKind derives the kind for an element/action pair.
func NewEventKind(element ElementType, action Action) EventKind {
	return EventKind{
		name:   string(element) + "_" + string(action),
		legacy: string(action),
	}
}

// EventKindOf builds a kind from explicit names, for kinds that do not follow
// the element/action convention.
func EventKindOf(name, legacy string) EventKind {
	return EventKind{name: name, legacy: legacy}
}

// Name returns the canonical event name (sent as rtmEvent).
func (k EventKind) Name() string { return k.name }

// LegacyName returns the backward compatible name (sent as action).
func (k EventKind) LegacyName() string { return k.legacy }

// IsZero reports whether the kind was never initialised.
func (k EventKind) IsZero() bool { return k.name == "" }

// Equal compares kinds by canonical name only.
func (k EventKind) Equal(other EventKind) bool { return k.name == other.name }

func (k EventKind) String() string { return k.name }
