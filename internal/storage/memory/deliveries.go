package memory

import (
	"context"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/store"
	"github.com/google/uuid"
)

// DeliveryRepository keeps delivery records in process memory.
type DeliveryRepository struct {
	base *baseMemoryRepo[domain.DeliveryRecord]
}

var _ store.DeliveryRecordRepository = (*DeliveryRepository)(nil)

func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{
		base: newBaseMemoryRepo("delivery_record", func(d *domain.DeliveryRecord) *domain.RecordMeta { return &d.RecordMeta }),
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
	return r.base.list(ctx, opts, nil)
}

func (r *DeliveryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *DeliveryRepository) ListByTopic(ctx context.Context, topic string, opts store.ListOptions) (store.ListResult[domain.DeliveryRecord], error) {
	return r.base.list(ctx, opts, func(d *domain.DeliveryRecord) bool { return d.Topic == topic })
}

func (r *DeliveryRepository) ListByClient(ctx context.Context, clientID string, opts store.ListOptions) (store.ListResult[domain.DeliveryRecord], error) {
	return r.base.list(ctx, opts, func(d *domain.DeliveryRecord) bool { return d.ClientID == clientID })
}
