package ingestion

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/normalization"
	"github.com/yungbote/graphloader/internal/observability"
	"github.com/yungbote/graphloader/internal/platform/ctxutil"
)

// IngestBatch upserts every triple independently under tag. A failed triple is
// logged and counted; it never stops the batch. An unreachable store shows up
// here only as errors; IngestSource and the multi-source runs report it as
// kg.ErrStoreUnavailable.
func (u *Usecases) IngestBatch(ctx context.Context, triples []kg.Triple, tag string) kg.BatchResult {
	res, _ := u.ingestBatch(ctx, triples, tag)
	return res
}

// ingestBatch also reports whether any triple failed because the store could not
// be reached at all.
func (u *Usecases) ingestBatch(ctx context.Context, triples []kg.Triple, tag string) (kg.BatchResult, bool) {
	var (
		res         kg.BatchResult
		unavailable bool
	)
	for _, t := range triples {
		if err := u.upsertTriple(ctx, t, tag); err != nil {
			res.Errors++
			if errors.Is(err, kg.ErrStoreUnavailable) {
				unavailable = true
			}
			continue
		}
		res.Success++
	}
	return res, unavailable
}

func (u *Usecases) upsertTriple(ctx context.Context, t kg.Triple, tag string) error {
	relType := normalization.RelationType(t.Relationship)
	if relType != "" && normalization.IsDegenerate(relType) {
		u.deps.Metrics.IncDegenerateRelation()
		u.log.Warn("relationship normalized to a degenerate type",
			logFields(ctx, "source", tag, "relationship", t.Relationship, "relation_type", relType)...)
	}

	ctx, cancel := context.WithTimeout(ctx, u.deps.Config.UpsertTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "graph.upsert",
		attribute.String("graph.source", tag),
		attribute.String("graph.relation_type", relType),
	)
	defer span.End()

	started := time.Now()
	ok, err := u.deps.Store.Upsert(ctx, t.Start, relType, t.End, tag)
	if err == nil && !ok {
		err = kg.NewUpsertError(kg.CodeUnconfirmed, t.Start, relType, t.End, nil)
	}

	code := kg.CodeOf(err)
	if err != nil && code == "" {
		code = kg.CodeInternal
	}
	u.deps.Metrics.ObserveUpsert(string(code), time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		u.log.Warn("triple upsert failed",
			logFields(ctx,
				"source", tag,
				"start", t.Start,
				"relationship", t.Relationship,
				"relation_type", relType,
				"end", t.End,
				"code", string(code),
				"error", err,
			)...)
		return err
	}
	return nil
}

func logFields(ctx context.Context, kv ...interface{}) []interface{} {
	return append(ctxutil.LogFields(ctx), kv...)
}
