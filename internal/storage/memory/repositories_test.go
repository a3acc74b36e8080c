package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/store"
)

func TestDeliveryRepositoryMemory(t *testing.T) {
	repo := NewDeliveryRepository()
	ctx := context.Background()

	records := []*domain.DeliveryRecord{
		{Event: "ACTIVITY_UPDATED", Topic: "author.activity/a", ClientID: "c1"},
		{Event: "ACTIVITY_UPDATED", Topic: "author.activity/a", ClientID: "c2", Status: domain.DeliveryStatusFailed},
		{Event: "WORKSPACE_UPDATED", Topic: "author.workspace/w", ClientID: "c1"},
	}
	for _, rec := range records {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if records[0].Status != domain.DeliveryStatusDelivered {
		t.Fatalf("expected default status, got %s", records[0].Status)
	}

	byTopic, err := repo.ListByTopic(ctx, "author.activity/a", store.ListOptions{})
	if err != nil {
		t.Fatalf("list by topic: %v", err)
	}
	if byTopic.Total != 2 {
		t.Fatalf("expected 2 records for topic, got %d", byTopic.Total)
	}

	byClient, err := repo.ListByClient(ctx, "c1", store.ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("list by client: %v", err)
	}
	if byClient.Total != 2 || len(byClient.Items) != 1 {
		t.Fatalf("unexpected page total=%d items=%d", byClient.Total, len(byClient.Items))
	}

	if err := repo.SoftDelete(ctx, records[1].ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, records[1].ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after soft delete, got %v", err)
	}
	all, err := repo.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected 2 live records, got %d", all.Total)
	}
}
