package roots

import (
	"context"
	"errors"
	"testing"
	"time"

	rtmcache "github.com/goliatone/go-rtm/pkg/cache"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/google/uuid"
)

func TestStaticResolver(t *testing.T) {
	ctx := context.Background()
	r := NewStatic()

	activity := uuid.New()
	root, err := r.ResolveRoot(ctx, domain.ElementActivity, activity)
	if err != nil {
		t.Fatalf("resolve activity: %v", err)
	}
	if root.Kind != domain.RootActivity || root.ID != activity {
		t.Fatalf("activity should be its own root, got %+v", root)
	}

	pathway := uuid.New()
	if _, err := r.ResolveRoot(ctx, domain.ElementPathway, pathway); !errors.Is(err, ErrRootNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	r.Register(domain.ElementPathway, pathway, domain.RootRef{Kind: domain.RootActivity, ID: activity})
	root, err = r.ResolveRoot(ctx, domain.ElementPathway, pathway)
	if err != nil || root.ID != activity {
		t.Fatalf("unexpected root %+v err=%v", root, err)
	}

	if _, err := r.ResolveRoot(ctx, domain.ElementPathway, uuid.Nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCachedResolverMemoizes(t *testing.T) {
	ctx := context.Background()
	calls := 0
	root := domain.RootRef{Kind: domain.RootActivity, ID: uuid.New()}
	next := Func(func(ctx context.Context, element domain.ElementType, id uuid.UUID) (domain.RootRef, error) {
		calls++
		return root, nil
	})
	store := rtmcache.NewTTL(time.Minute)
	defer store.Stop()
	r := NewCached(next, store, time.Minute, nil)

	id := uuid.New()
	for i := 0; i < 3; i++ {
		got, err := r.ResolveRoot(ctx, domain.ElementComponent, id)
		if err != nil || got != root {
			t.Fatalf("resolve: got=%+v err=%v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}

	r.Invalidate(ctx, domain.ElementComponent, id)
	if _, err := r.ResolveRoot(ctx, domain.ElementComponent, id); err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", calls)
	}
}

func TestCachedResolverDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	calls := 0
	next := Func(func(ctx context.Context, element domain.ElementType, id uuid.UUID) (domain.RootRef, error) {
		calls++
		return domain.RootRef{}, ErrRootNotFound
	})
	r := NewCached(next, nil, time.Minute, nil)
	id := uuid.New()
	for i := 0; i < 2; i++ {
		if _, err := r.ResolveRoot(ctx, domain.ElementFeedback, id); !errors.Is(err, ErrRootNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected misses to hit upstream, got %d", calls)
	}
}
