package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordMeta captures identifiers and audit fields shared across entities.
type RecordMeta struct {
	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:",soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureID assigns a UUID when the struct is about to be persisted.
func (m *RecordMeta) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// JSONMap persists arbitrary metadata fields as JSON.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value any) error {
	if m == nil {
		return errors.New("JSONMap: Scan on nil pointer")
	}
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("JSONMap: unsupported type %T", value)
	}
}

// DeliveryRecord is the audit trail of a single broadcast delivery attempt.
// It is never replayed.
type DeliveryRecord struct {
	bun.BaseModel `bun:"table:rtm_delivery_records"`
	RecordMeta

	Event          string  `bun:",nullzero,notnull" json:"event"`
	LegacyEvent    string  `bun:",nullzero" json:"legacy_event"`
	Topic          string  `bun:",nullzero,notnull" json:"topic"`
	ElementID      string  `bun:",nullzero" json:"element_id"`
	ClientID       string  `bun:",nullzero" json:"client_id"`
	SubscriptionID string  `bun:",nullzero" json:"subscription_id"`
	ProducerID     string  `bun:",nullzero" json:"producer_id"`
	Status         string  `bun:",nullzero,notnull" json:"status"`
	Error          string  `bun:",nullzero" json:"error,omitempty"`
	Metadata       JSONMap `bun:"type:jsonb,nullzero" json:"metadata,omitempty"`
}

// Delivery statuses.
const (
	DeliveryStatusDelivered  = "delivered"
	DeliveryStatusSuppressed = "suppressed"
	DeliveryStatusFailed     = "failed"
)
