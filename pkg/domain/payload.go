package domain

import (
	"slices"

	"github.com/google/uuid"
)

// Payload carries the event specific fields of a broadcast. ElementID and
// ElementType are always set; everything else depends on the event kind.
type Payload struct {
	ElementID           uuid.UUID   `json:"elementId"`
	ElementType         ElementType `json:"elementType"`
	ParentElementID     *uuid.UUID  `json:"parentElementId,omitempty"`
	ParentElementType   ElementType `json:"parentElementType,omitempty"`
	FromParentElementID *uuid.UUID  `json:"fromParentElementId,omitempty"`
	Config              *string     `json:"config,omitempty"`
	OrderedIDs          []uuid.UUID `json:"orderedIds,omitempty"`
	*AccessGrant
}

// AccessGrant describes a permission change on a workspace or activity.
type AccessGrant struct {
	AccountID       *uuid.UUID `json:"accountId,omitempty"`
	TeamID          *uuid.UUID `json:"teamId,omitempty"`
	PermissionLevel string     `json:"permissionLevel,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate a built consumable.
func (p Payload) Clone() Payload {
	out := p
	out.ParentElementID = cloneID(p.ParentElementID)
	out.FromParentElementID = cloneID(p.FromParentElementID)
	if p.Config != nil {
		cfg := *p.Config
		out.Config = &cfg
	}
	if p.OrderedIDs != nil {
		out.OrderedIDs = slices.Clone(p.OrderedIDs)
	}
	if p.AccessGrant != nil {
		grant := *p.AccessGrant
		grant.AccountID = cloneID(p.AccessGrant.AccountID)
		grant.TeamID = cloneID(p.AccessGrant.TeamID)
		out.AccessGrant = &grant
	}
	return out
}

// Equal compares payloads field by field, following pointers.
func (p Payload) Equal(other Payload) bool {
	if p.ElementID != other.ElementID || p.ElementType != other.ElementType {
		return false
	}
	if p.ParentElementType != other.ParentElementType {
		return false
	}
	if !equalID(p.ParentElementID, other.ParentElementID) || !equalID(p.FromParentElementID, other.FromParentElementID) {
		return false
	}
	if (p.Config == nil) != (other.Config == nil) {
		return false
	}
	if p.Config != nil && *p.Config != *other.Config {
		return false
	}
	if !slices.Equal(p.OrderedIDs, other.OrderedIDs) {
		return false
	}
	if (p.AccessGrant == nil) != (other.AccessGrant == nil) {
		return false
	}
	if p.AccessGrant != nil {
		a, b := p.AccessGrant, other.AccessGrant
		if a.PermissionLevel != b.PermissionLevel || !equalID(a.AccountID, b.AccountID) || !equalID(a.TeamID, b.TeamID) {
			return false
		}
	}
	return true
}

// IDRef returns a pointer to id, or nil for uuid.Nil.
func IDRef(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func equalID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
