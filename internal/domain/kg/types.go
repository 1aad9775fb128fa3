// Package kg holds the knowledge-graph ingestion domain: raw records, validated
// triples, graph entities and edges with provenance, and the classified errors
// produced along the ingestion pipeline.
package kg

// Record field names produced by the triple-extraction step.
const (
	FieldStart        = "start_node"
	FieldRelationship = "relationship"
	FieldEnd          = "end_node"
)

// EntityLabel is the node label every ingested entity carries.
const EntityLabel = "Entity"

// Record is one loosely-typed extraction result as decoded from JSON.
type Record map[string]any

// Triple is a validated (start, relationship, end) statement. Fields are trimmed
// and non-empty; Relationship is still the raw label, not the normalized type.
type Triple struct {
	Start        string `json:"start_node"`
	Relationship string `json:"relationship"`
	End          string `json:"end_node"`
}

// Entity is a graph node keyed by Name. Sources is the append-only provenance list.
type Entity struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
}

// Edge is a typed, directed relationship between two entities.
type Edge struct {
	Start   string   `json:"start"`
	Type    string   `json:"type"`
	End     string   `json:"end"`
	Sources []string `json:"sources"`
}

// BatchResult tallies the outcome of ingesting one source unit.
type BatchResult struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
	Invalid int `json:"invalid"`
}

func (r BatchResult) Add(o BatchResult) BatchResult {
	return BatchResult{
		Success: r.Success + o.Success,
		Errors:  r.Errors + o.Errors,
		Invalid: r.Invalid + o.Invalid,
	}
}

func (r BatchResult) Total() int {
	return r.Success + r.Errors + r.Invalid
}

// Stats is the aggregate view of the graph: node count per label and edge count
// per relation type.
type Stats struct {
	Nodes     map[string]int64 `json:"nodes"`
	Relations map[string]int64 `json:"relations"`
}
