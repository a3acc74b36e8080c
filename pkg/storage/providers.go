package storage

import (
	"context"
	"database/sql"

	bunrepo "github.com/goliatone/go-rtm/internal/storage/bun"
	"github.com/goliatone/go-rtm/internal/storage/memory"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// Providers exposes the repositories used by the delivery log.
type Providers struct {
	Deliveries  store.DeliveryRecordRepository
	Transaction store.TransactionManager
}

type Option func(*Providers)

// WithDeliveryRepository overrides the delivery record repository.
func WithDeliveryRepository(repo store.DeliveryRecordRepository) Option {
	return func(p *Providers) {
		if repo != nil {
			p.Deliveries = repo
		}
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders(opts ...Option) Providers {
	providers := Providers{
		Deliveries:  memory.NewDeliveryRepository(),
		Transaction: &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller owns the *bun.DB lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.DeliveryRecord)(nil),
	)

	providers := Providers{
		Deliveries:  bunrepo.NewDeliveryRepository(db),
		Transaction: &bunTxManager{db: db},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// CreateSchema creates the tables for every registered model when missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*domain.DeliveryRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
