// Package memgraph is an in-process TripleStore with the same merge semantics as
// the Neo4j store. It backs unit tests and dry runs.
package memgraph

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/graphloader/internal/data/graph"
	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/normalization"
)

type edgeKey struct {
	start, relType, end string
}

// FailFunc lets tests inject a store failure for a specific triple.
type FailFunc func(start, relType, end string) error

type Store struct {
	mu       sync.RWMutex
	entities map[string][]string
	edges    map[edgeKey][]string
	upserts  int

	// FailOn, when set, is consulted before every Upsert; a non-nil result aborts
	// that unit of work without touching state.
	FailOn FailFunc
}

var _ graph.TripleStore = (*Store)(nil)

func New() *Store {
	return &Store{
		entities: map[string][]string{},
		edges:    map[edgeKey][]string{},
	}
}

func (s *Store) Upsert(ctx context.Context, start, relType, end, sourceTag string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, kg.NewUpsertError(kg.CodeTimeout, start, relType, end, err)
	}
	if !normalization.IsValidSymbol(relType) {
		return false, kg.NewUpsertError(kg.CodeInvalidRelationType, start, relType, end,
			fmt.Errorf("relation type %q is not a valid identifier", relType))
	}
	if s.FailOn != nil {
		if err := s.FailOn(start, relType, end); err != nil {
			if kg.CodeOf(err) != "" {
				return false, err
			}
			return false, kg.NewUpsertError(kg.CodeInternal, start, relType, end, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[start] = append(s.entities[start], sourceTag)
	s.entities[end] = append(s.entities[end], sourceTag)
	k := edgeKey{start: start, relType: relType, end: end}
	s.edges[k] = append(s.edges[k], sourceTag)
	s.upserts++
	return true, nil
}

func (s *Store) EnsureConstraints(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = map[string][]string{}
	s.edges = map[edgeKey][]string{}
	return nil
}

func (s *Store) NodeCounts(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &kg.AggregationError{Query: "node_counts", Cause: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int64{}
	if n := len(s.entities); n > 0 {
		out[kg.EntityLabel] = int64(n)
	}
	return out, nil
}

func (s *Store) RelationCounts(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &kg.AggregationError{Query: "relation_counts", Cause: err}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int64{}
	for k := range s.edges {
		out[k.relType]++
	}
	return out, nil
}

func (s *Store) Entity(ctx context.Context, name string) (kg.Entity, bool, error) {
	if err := ctx.Err(); err != nil {
		return kg.Entity{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.entities[name]
	if !ok {
		return kg.Entity{}, false, nil
	}
	return kg.Entity{Name: name, Sources: append([]string(nil), src...)}, true, nil
}

// Edges lists matching edges ordered by start, type and end. An empty argument
// matches any value.
func (s *Store) Edges(ctx context.Context, start, relType, end string) ([]kg.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []kg.Edge{}
	for k, src := range s.edges {
		if (start != "" && k.start != start) ||
			(relType != "" && k.relType != relType) ||
			(end != "" && k.end != end) {
			continue
		}
		out = append(out, kg.Edge{
			Start:   k.start,
			Type:    k.relType,
			End:     k.end,
			Sources: append([]string(nil), src...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].End < out[j].End
	})
	return out, nil
}

// Upserts reports how many units of work have been applied.
func (s *Store) Upserts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts
}
