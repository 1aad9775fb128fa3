package graph

import (
	"context"

	"github.com/yungbote/graphloader/internal/domain/kg"
)

// TripleStore is the graph-store boundary used by ingestion. Upsert is the only
// write on the hot path; everything else is administrative or read-only.
type TripleStore interface {
	// Upsert merges start and end entities and one edge of relType between them,
	// appending sourceTag to the provenance list of all three, as one unit of work.
	Upsert(ctx context.Context, start, relType, end, sourceTag string) (bool, error)

	EnsureConstraints(ctx context.Context) error
	Clear(ctx context.Context) error

	NodeCounts(ctx context.Context) (map[string]int64, error)
	RelationCounts(ctx context.Context) (map[string]int64, error)

	Entity(ctx context.Context, name string) (kg.Entity, bool, error)
	Edges(ctx context.Context, start, relType, end string) ([]kg.Edge, error)
}
