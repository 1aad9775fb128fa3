package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/normalization"
	"github.com/yungbote/graphloader/internal/platform/logger"
	"github.com/yungbote/graphloader/internal/platform/neo4jdb"
)

const (
	entityNameConstraint = `CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE`
	clearGraphQuery      = `MATCH (n) DETACH DELETE n`
	nodeCountsQuery      = `MATCH (n) RETURN labels(n)[0] AS label, count(n) AS count`
	relationCountsQuery  = `MATCH ()-[r]->() RETURN type(r) AS type, count(r) AS count`
	entityQuery          = `MATCH (e:Entity {name: $name}) RETURN e.name AS name, e.source AS source`

	// UnlabeledNode is the NodeCounts key for nodes without any label.
	UnlabeledNode = "(none)"
)

var errUnconfirmed = errors.New("upsert returned no confirmable record")

type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

var _ TripleStore = (*Neo4jStore)(nil)

func NewNeo4jStore(client *neo4jdb.Client, log *logger.Logger) *Neo4jStore {
	return &Neo4jStore{client: client, log: log.With("store", "Neo4jTripleStore")}
}

// upsertTripleQuery builds the merge statement for one triple. Relationship types
// cannot be parameterized in Cypher, so relType is spliced in; callers must have
// checked it with normalization.IsValidSymbol first.
func upsertTripleQuery(relType string) string {
	return `
MERGE (a:Entity {name: $start})
SET a.source = COALESCE(a.source, []) + $source
MERGE (b:Entity {name: $end})
SET b.source = COALESCE(b.source, []) + $source
MERGE (a)-[r:` + "`" + relType + "`" + `]->(b)
SET r.source = COALESCE(r.source, []) + $source
RETURN a.name AS start, type(r) AS rel, b.name AS end
`
}

func (s *Neo4jStore) Upsert(ctx context.Context, start, relType, end, sourceTag string) (bool, error) {
	if !normalization.IsValidSymbol(relType) {
		return false, kg.NewUpsertError(kg.CodeInvalidRelationType, start, relType, end,
			fmt.Errorf("relation type %q is not a valid identifier", relType))
	}
	if s == nil || !s.client.Ready() {
		return false, kg.NewUpsertError(kg.CodeConnectivity, start, relType, end, kg.ErrStoreUnavailable)
	}

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, upsertTripleQuery(relType), map[string]any{
			"start":  start,
			"end":    end,
			"source": []any{sourceTag},
		})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			if err := res.Err(); err != nil {
				return nil, err
			}
			return nil, errUnconfirmed
		}
		rec := res.Record()
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return confirmUpsert(rec, start, relType, end)
	})
	if err != nil {
		return false, classifyNeo4jError(start, relType, end, err)
	}
	applied, _ := out.(bool)
	if !applied {
		return false, kg.NewUpsertError(kg.CodeUnconfirmed, start, relType, end, errUnconfirmed)
	}
	return true, nil
}

// confirmUpsert reads the merged endpoints and relation type back from the
// result record; the write only counts as applied if all three match.
func confirmUpsert(rec *neo4j.Record, start, relType, end string) (bool, error) {
	if rec == nil {
		return false, errUnconfirmed
	}
	gotStart := recordString(rec, "start")
	gotRel := recordString(rec, "rel")
	gotEnd := recordString(rec, "end")
	if gotStart != start || gotRel != relType || gotEnd != end {
		return false, fmt.Errorf("%w: got %q -[%q]-> %q", errUnconfirmed, gotStart, gotRel, gotEnd)
	}
	return true, nil
}

func (s *Neo4jStore) EnsureConstraints(ctx context.Context) error {
	if s == nil || !s.client.Ready() {
		return kg.ErrStoreUnavailable
	}
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	res, err := session.Run(ctx, entityNameConstraint, nil)
	if err != nil {
		return fmt.Errorf("create entity_name constraint: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("create entity_name constraint: %w", err)
	}
	s.log.Info("entity_name unique constraint ensured")
	return nil
}

// Clear removes every node and relationship. Administrative only; ingestion
// never calls it.
func (s *Neo4jStore) Clear(ctx context.Context) error {
	if s == nil || !s.client.Ready() {
		return kg.ErrStoreUnavailable
	}
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, clearGraphQuery, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	s.log.Warn("graph cleared")
	return nil
}

func (s *Neo4jStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, "node_counts", nodeCountsQuery, "label")
}

func (s *Neo4jStore) RelationCounts(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, "relation_counts", relationCountsQuery, "type")
}

func (s *Neo4jStore) countBy(ctx context.Context, name, query, keyField string) (map[string]int64, error) {
	if s == nil || !s.client.Ready() {
		return nil, &kg.AggregationError{Query: name, Cause: kg.ErrStoreUnavailable}
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(records))
		for _, rec := range records {
			key := recordString(rec, keyField)
			if key == "" {
				key = UnlabeledNode
			}
			n, _ := rec.Get("count")
			if v, ok := n.(int64); ok {
				counts[key] += v
			}
		}
		return counts, nil
	})
	if err != nil {
		return nil, &kg.AggregationError{Query: name, Cause: err}
	}
	counts, _ := out.(map[string]int64)
	if counts == nil {
		counts = map[string]int64{}
	}
	return counts, nil
}

func (s *Neo4jStore) Entity(ctx context.Context, name string) (kg.Entity, bool, error) {
	if s == nil || !s.client.Ready() {
		return kg.Entity{}, false, kg.ErrStoreUnavailable
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, entityQuery, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, res.Err()
		}
		rec := res.Record()
		return &kg.Entity{
			Name:    recordString(rec, "name"),
			Sources: recordStrings(rec, "source"),
		}, nil
	})
	if err != nil {
		return kg.Entity{}, false, fmt.Errorf("read entity %q: %w", name, err)
	}
	e, ok := out.(*kg.Entity)
	if !ok || e == nil {
		return kg.Entity{}, false, nil
	}
	return *e, true, nil
}

func (s *Neo4jStore) Edges(ctx context.Context, start, relType, end string) ([]kg.Edge, error) {
	if s == nil || !s.client.Ready() {
		return nil, kg.ErrStoreUnavailable
	}
	if relType != "" && !normalization.IsValidSymbol(relType) {
		return nil, fmt.Errorf("relation type %q is not a valid identifier", relType)
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	query := edgesQuery(relType)
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"start": start, "end": end})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]kg.Edge, 0, len(records))
		for _, rec := range records {
			edges = append(edges, kg.Edge{
				Start:   recordString(rec, "start"),
				Type:    recordString(rec, "rel"),
				End:     recordString(rec, "end"),
				Sources: recordStrings(rec, "source"),
			})
		}
		return edges, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read edges %s -[%s]-> %s: %w", start, relType, end, err)
	}
	edges, _ := out.([]kg.Edge)
	return edges, nil
}

// edgesQuery matches edges between entities. Empty $start or $end parameters
// and an empty relType match anything.
func edgesQuery(relType string) string {
	rel := "[r]"
	if relType != "" {
		rel = "[r:`" + relType + "`]"
	}
	return `
MATCH (a:Entity)-` + rel + `->(b:Entity)
WHERE ($start = '' OR a.name = $start) AND ($end = '' OR b.name = $end)
RETURN a.name AS start, type(r) AS rel, b.name AS end, r.source AS source
ORDER BY a.name, type(r), b.name
`
}

func recordString(rec *neo4j.Record, key string) string {
	if rec == nil {
		return ""
	}
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func recordStrings(rec *neo4j.Record, key string) []string {
	if rec == nil {
		return nil
	}
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return []string{}
	}
	raw, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
