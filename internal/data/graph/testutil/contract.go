package testutil

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/yungbote/graphloader/internal/data/graph"
	"github.com/yungbote/graphloader/internal/domain/kg"
)

// RunTripleStoreContract exercises the merge semantics every TripleStore must
// share. newStore must return an empty store.
func RunTripleStoreContract(t *testing.T, newStore func(t *testing.T) graph.TripleStore) {
	t.Helper()

	t.Run("idempotent merge grows provenance", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustUpsert(t, s, "a", "LINKS", "b", "doc1")
		mustUpsert(t, s, "a", "LINKS", "b", "doc1")

		edges, err := s.Edges(ctx, "a", "LINKS", "b")
		if err != nil {
			t.Fatalf("edges: %v", err)
		}
		if len(edges) != 1 {
			t.Fatalf("expected exactly one edge, got %d", len(edges))
		}
		if want := []string{"doc1", "doc1"}; !reflect.DeepEqual(edges[0].Sources, want) {
			t.Fatalf("edge sources = %v, want %v", edges[0].Sources, want)
		}
		assertEntitySources(t, s, "a", []string{"doc1", "doc1"})
		assertEntitySources(t, s, "b", []string{"doc1", "doc1"})
		assertCounts(t, s, map[string]int64{kg.EntityLabel: 2}, map[string]int64{"LINKS": 1})
	})

	t.Run("edge identity is ordered pair plus type", func(t *testing.T) {
		s := newStore(t)
		mustUpsert(t, s, "a", "LINKS", "b", "doc1")
		mustUpsert(t, s, "b", "LINKS", "a", "doc1")
		mustUpsert(t, s, "a", "OTHER", "b", "doc1")
		assertCounts(t, s, map[string]int64{kg.EntityLabel: 2}, map[string]int64{"LINKS": 2, "OTHER": 1})
	})

	t.Run("empty edge filters match anything", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		mustUpsert(t, s, "a", "R", "b", "doc1")
		mustUpsert(t, s, "a", "S", "c", "doc1")
		mustUpsert(t, s, "d", "R", "b", "doc2")

		cases := []struct {
			start, rel, end string
			want            []string
		}{
			{"a", "", "", []string{"a-R->b", "a-S->c"}},
			{"", "R", "", []string{"a-R->b", "d-R->b"}},
			{"", "", "b", []string{"a-R->b", "d-R->b"}},
			{"a", "R", "b", []string{"a-R->b"}},
			{"", "", "", []string{"a-R->b", "a-S->c", "d-R->b"}},
			{"a", "R", "c", nil},
		}
		for _, tc := range cases {
			edges, err := s.Edges(ctx, tc.start, tc.rel, tc.end)
			if err != nil {
				t.Fatalf("edges(%q, %q, %q): %v", tc.start, tc.rel, tc.end, err)
			}
			var got []string
			for _, e := range edges {
				got = append(got, e.Start+"-"+e.Type+"->"+e.End)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("edges(%q, %q, %q) = %v, want %v", tc.start, tc.rel, tc.end, got, tc.want)
			}
		}
	})

	t.Run("self loop appends twice to the single entity", func(t *testing.T) {
		s := newStore(t)
		mustUpsert(t, s, "x", "SELF", "x", "doc1")
		assertEntitySources(t, s, "x", []string{"doc1", "doc1"})
		assertCounts(t, s, map[string]int64{kg.EntityLabel: 1}, map[string]int64{"SELF": 1})
	})

	t.Run("invalid relation type is refused", func(t *testing.T) {
		s := newStore(t)
		applied, err := s.Upsert(context.Background(), "a", "", "b", "doc1")
		if applied || !kg.IsCode(err, kg.CodeInvalidRelationType) {
			t.Fatalf("expected invalid relation type, got applied=%v err=%v", applied, err)
		}
		assertCounts(t, s, map[string]int64{}, map[string]int64{})
	})

	t.Run("degenerate relation type is accepted", func(t *testing.T) {
		s := newStore(t)
		mustUpsert(t, s, "低温", "__", "完全氧化", "doc1")
		assertCounts(t, s, map[string]int64{kg.EntityLabel: 2}, map[string]int64{"__": 1})
	})

	t.Run("concurrent upserts converge", func(t *testing.T) {
		s := newStore(t)
		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				applied, err := s.Upsert(context.Background(), "hub", "FEEDS", "sink", fmt.Sprintf("doc%d", i))
				if err != nil || !applied {
					errs <- fmt.Errorf("worker %d: applied=%v err=%v", i, applied, err)
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatal(err)
		}
		edges, err := s.Edges(context.Background(), "hub", "FEEDS", "sink")
		if err != nil {
			t.Fatalf("edges: %v", err)
		}
		if len(edges) != 1 || len(edges[0].Sources) != workers {
			t.Fatalf("expected one edge with %d sources, got %+v", workers, edges)
		}
		assertCounts(t, s, map[string]int64{kg.EntityLabel: 2}, map[string]int64{"FEEDS": 1})
	})

	t.Run("clear removes everything", func(t *testing.T) {
		s := newStore(t)
		mustUpsert(t, s, "a", "LINKS", "b", "doc1")
		if err := s.Clear(context.Background()); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if _, ok, err := s.Entity(context.Background(), "a"); err != nil || ok {
			t.Fatalf("expected entity gone, ok=%v err=%v", ok, err)
		}
		assertCounts(t, s, map[string]int64{}, map[string]int64{})
	})
}

func mustUpsert(t *testing.T, s graph.TripleStore, start, rel, end, tag string) {
	t.Helper()
	applied, err := s.Upsert(context.Background(), start, rel, end, tag)
	if err != nil {
		t.Fatalf("upsert %s -[%s]-> %s: %v", start, rel, end, err)
	}
	if !applied {
		t.Fatalf("upsert %s -[%s]-> %s not applied", start, rel, end)
	}
}

func assertEntitySources(t *testing.T, s graph.TripleStore, name string, want []string) {
	t.Helper()
	e, ok, err := s.Entity(context.Background(), name)
	if err != nil {
		t.Fatalf("entity %q: %v", name, err)
	}
	if !ok {
		t.Fatalf("entity %q not found", name)
	}
	if !reflect.DeepEqual(e.Sources, want) {
		t.Fatalf("entity %q sources = %v, want %v", name, e.Sources, want)
	}
}

func assertCounts(t *testing.T, s graph.TripleStore, nodes, rels map[string]int64) {
	t.Helper()
	ctx := context.Background()
	gotNodes, err := s.NodeCounts(ctx)
	if err != nil {
		t.Fatalf("node counts: %v", err)
	}
	if !reflect.DeepEqual(gotNodes, nodes) {
		t.Fatalf("node counts = %v, want %v", gotNodes, nodes)
	}
	gotRels, err := s.RelationCounts(ctx)
	if err != nil {
		t.Fatalf("relation counts: %v", err)
	}
	if !reflect.DeepEqual(gotRels, rels) {
		t.Fatalf("relation counts = %v, want %v", gotRels, rels)
	}
}
