package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-rtm/internal/consumer"
	"github.com/goliatone/go-rtm/pkg/domain"
	"github.com/goliatone/go-rtm/pkg/interfaces/transport"
)

func TestDefaultCatalogCoversTaxonomy(t *testing.T) {
	reg := NewDefault(nil)
	for _, element := range domain.ElementTypes() {
		for _, action := range []domain.Action{
			domain.ActionCreated,
			domain.ActionDeleted,
			domain.ActionConfigChange,
			domain.ActionReordered,
			domain.ActionUpdated,
		} {
			def, err := reg.Resolve(element, action)
			if err != nil {
				t.Fatalf("resolve %s/%s: %v", element, action, err)
			}
			if def.Root == "" {
				t.Fatalf("expected root kind for %s", def.Kind)
			}
			if def.Consumer == nil {
				t.Fatalf("expected default consumer for %s", def.Kind)
			}
		}
	}
	if _, err := reg.Resolve(domain.ElementDocument, domain.ActionMoved); !errors.Is(err, domain.ErrUnknownEventKind) {
		t.Fatalf("expected unknown kind, got %v", err)
	}
}

func TestTopicRootsFollowAggregate(t *testing.T) {
	reg := NewDefault(nil)
	cases := map[domain.ElementType]domain.RootKind{
		domain.ElementInteractive: domain.RootActivity,
		domain.ElementPathway:     domain.RootActivity,
		domain.ElementWorkspace:   domain.RootWorkspace,
		domain.ElementAssociation: domain.RootDocument,
	}
	for element, root := range cases {
		def, err := reg.Resolve(element, domain.ActionCreated)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if def.Root != root {
			t.Fatalf("%s: expected root %s, got %s", element, root, def.Root)
		}
	}
}

func TestShapes(t *testing.T) {
	reg := NewDefault(nil)
	def, _ := reg.Resolve(domain.ElementActivity, domain.ActionConfigChange)
	if !def.Shape.Requires(FieldConfig) {
		t.Fatalf("config change must require config")
	}
	def, _ = reg.Resolve(domain.ElementPathway, domain.ActionDeleted)
	if def.Shape.Requires(FieldParent) || !def.Shape.Allows(FieldParent) {
		t.Fatalf("pathway deletion parent should be optional")
	}
	def, _ = reg.Resolve(domain.ElementComponent, domain.ActionMoved)
	if !def.Shape.Requires(FieldParent) || !def.Shape.Requires(FieldFromParent) {
		t.Fatalf("move must require both parents")
	}
	def, _ = reg.Resolve(domain.ElementActivity, domain.ActionCreated)
	if def.Shape.Requires(FieldParent) || !def.Shape.Allows(FieldParent) {
		t.Fatalf("activity creation parent should be optional")
	}
	def, _ = reg.Resolve(domain.ElementComponent, domain.ActionReordered)
	if !def.Shape.Requires(FieldOrderedIDs) {
		t.Fatalf("reorder must require ordered ids")
	}
}

func TestRegisterCustomKind(t *testing.T) {
	reg := NewDefault(nil)
	calls := 0
	custom := consumer.Func(func(ctx context.Context, sub transport.Subscriber, c domain.Consumable) error {
		calls++
		return nil
	})
	kind := domain.EventKindOf("ACTIVITY_THEME_CHANGE", "THEME_CHANGE")
	if err := reg.Register(Definition{Kind: kind, Element: domain.ElementActivity, Root: domain.RootActivity, Consumer: custom}); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, ok := reg.ConsumerFor(kind)
	if !ok {
		t.Fatalf("expected consumer for custom kind")
	}
	_ = got.Accept(context.Background(), transport.Subscriber{}, domain.Consumable{})
	if calls != 1 {
		t.Fatalf("expected custom consumer to be used")
	}
	if err := reg.Register(Definition{Kind: kind, Root: domain.RootActivity}); !errors.Is(err, ErrDuplicateKind) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := reg.Register(Definition{Kind: domain.EventKindOf("X", "X")}); err == nil {
		t.Fatalf("expected root kind validation error")
	}
}
