package memgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/graphloader/internal/data/graph"
	"github.com/yungbote/graphloader/internal/data/graph/testutil"
	"github.com/yungbote/graphloader/internal/domain/kg"
)

func TestStoreContract(t *testing.T) {
	testutil.RunTripleStoreContract(t, func(t *testing.T) graph.TripleStore {
		return New()
	})
}

func TestStore_FailOnLeavesStateUntouched(t *testing.T) {
	s := New()
	s.FailOn = func(start, relType, end string) error {
		if start == "bad" {
			return errors.New("injected")
		}
		return nil
	}
	applied, err := s.Upsert(context.Background(), "bad", "R", "b", "doc1")
	if applied || !kg.IsCode(err, kg.CodeInternal) {
		t.Fatalf("expected internal failure, got applied=%v err=%v", applied, err)
	}
	if _, ok, _ := s.Entity(context.Background(), "b"); ok {
		t.Fatalf("failed unit of work must not create endpoints")
	}
	if s.Upserts() != 0 {
		t.Fatalf("expected zero applied upserts, got %d", s.Upserts())
	}
}

func TestStore_FailOnKeepsClassifiedCode(t *testing.T) {
	s := New()
	s.FailOn = func(start, relType, end string) error {
		return kg.NewUpsertError(kg.CodeConnectivity, start, relType, end, kg.ErrStoreUnavailable)
	}
	_, err := s.Upsert(context.Background(), "a", "R", "b", "doc1")
	if !kg.IsCode(err, kg.CodeConnectivity) {
		t.Fatalf("expected connectivity code, got %v", err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Upsert(ctx, "a", "R", "b", "doc1")
	if !kg.IsCode(err, kg.CodeTimeout) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
}

func TestStore_EntityReturnsCopy(t *testing.T) {
	s := New()
	if _, err := s.Upsert(context.Background(), "a", "R", "b", "doc1"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	e, _, _ := s.Entity(context.Background(), "a")
	e.Sources[0] = "mutated"
	again, _, _ := s.Entity(context.Background(), "a")
	if again.Sources[0] != "doc1" {
		t.Fatalf("store state leaked through Entity result")
	}
}
