package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/normalization"
)

// Statistics reads node counts per label and edge counts per relation type.
// Failures come back as *kg.AggregationError and never touch graph state.
func (u *Usecases) Statistics(ctx context.Context) (kg.Stats, error) {
	nodes, err := u.aggregate(ctx, "node_counts", u.deps.Store.NodeCounts)
	if err != nil {
		return kg.Stats{}, err
	}
	rels, err := u.aggregate(ctx, "relation_counts", u.deps.Store.RelationCounts)
	if err != nil {
		return kg.Stats{}, err
	}
	return kg.Stats{Nodes: nodes, Relations: rels}, nil
}

func (u *Usecases) aggregate(ctx context.Context, query string, fn func(context.Context) (map[string]int64, error)) (map[string]int64, error) {
	started := time.Now()
	out, err := fn(ctx)
	u.deps.Metrics.ObserveStatsQuery(query, err, time.Since(started))
	if err != nil {
		var aggErr *kg.AggregationError
		if !errors.As(err, &aggErr) {
			err = &kg.AggregationError{Query: query, Cause: err}
		}
		u.log.Warn("statistics query failed", logFields(ctx, "query", query, "error", err)...)
		return nil, err
	}
	if out == nil {
		out = map[string]int64{}
	}
	return out, nil
}

// FormatStats renders stats as the summary block printed after an import.
func FormatStats(st kg.Stats) string {
	var b strings.Builder
	b.WriteString("Nodes:\n")
	writeCounts(&b, st.Nodes)
	b.WriteString("Relations:\n")
	writeCounts(&b, st.Relations)
	return b.String()
}

func writeCounts(b *strings.Builder, counts map[string]int64) {
	if len(counts) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %d\n", k, counts[k])
	}
}

// Entity returns one entity with its provenance list.
func (u *Usecases) Entity(ctx context.Context, name string) (kg.Entity, bool, error) {
	return u.deps.Store.Entity(ctx, strings.TrimSpace(name))
}

// Edges looks up the edge a triple with this raw relationship label would have
// produced.
func (u *Usecases) Edges(ctx context.Context, start, relationship, end string) ([]kg.Edge, error) {
	relType := normalization.RelationType(strings.TrimSpace(relationship))
	return u.deps.Store.Edges(ctx, strings.TrimSpace(start), relType, strings.TrimSpace(end))
}

// Clear deletes every node and edge. Administrative only.
func (u *Usecases) Clear(ctx context.Context) error {
	if err := u.deps.Store.Clear(ctx); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	u.log.Warn("graph cleared", logFields(ctx)...)
	return nil
}

// EnsureConstraints installs the entity-name uniqueness constraint.
func (u *Usecases) EnsureConstraints(ctx context.Context) error {
	return u.deps.Store.EnsureConstraints(ctx)
}
