package bunrepo

import (
	"context"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DeliveryRepository persists delivery records through go-repository-bun.
type DeliveryRepository struct {
	base baseRepository[domain.DeliveryRecord]
}

var _ store.DeliveryRecordRepository = (*DeliveryRepository)(nil)

func NewDeliveryRepository(db *bun.DB) *DeliveryRepository {
	handlers := repository.ModelHandlers[*domain.DeliveryRecord]{
		NewRecord:          func() *domain.DeliveryRecord { return &domain.DeliveryRecord{} },
		GetID:              func(d *domain.DeliveryRecord) uuid.UUID { return d.ID },
		SetID:              func(d *domain.DeliveryRecord, id uuid.UUID) { d.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(d *domain.DeliveryRecord) string { return d.ID.String() },
	}
	return &DeliveryRepository{
		base: newBaseRepository[domain.DeliveryRecord](db, handlers, func(d *domain.DeliveryRecord) *domain.RecordMeta { return &d.RecordMeta }),
	}
}

func (r *DeliveryRepository) Create(ctx context.Context, record *domain.DeliveryRecord) error {
	if record.Status == "" {
		record.Status = domain.DeliveryStatusDelivered
	}
	return r.base.create(ctx, record)
}

func (r *DeliveryRepository) Update(ctx context.Context, record *domain.DeliveryRecord) error {
	return r.base.update(ctx, record)
}

func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryRecord, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *DeliveryRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.DeliveryRecord], error) {
	return r.base.list(ctx, opts)
}

func (r *DeliveryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *DeliveryRepository) ListByTopic(ctx context.Context, topic string, opts store.ListOptions) (store.ListResult[domain.DeliveryRecord], error) {
	return r.base.list(ctx, opts, withColumn("topic", topic))
}

func (r *DeliveryRepository) ListByClient(ctx context.Context, clientID string, opts store.ListOptions) (store.ListResult[domain.DeliveryRecord], error) {
	return r.base.list(ctx, opts, withColumn("client_id", clientID))
}
