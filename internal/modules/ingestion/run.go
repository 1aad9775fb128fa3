package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/modules/ingestion/source"
	"github.com/yungbote/graphloader/internal/observability"
	"github.com/yungbote/graphloader/internal/platform/ctxutil"
	"github.com/yungbote/graphloader/internal/realtime/bus"
)

// SourceOutcome is the result of one source unit within a run. Err is set when
// the unit could not be loaded or the store was unreachable.
type SourceOutcome struct {
	Tag    string
	Result kg.BatchResult
	Status runlog.Status
	Err    error
}

type RunSummary struct {
	RunID   uuid.UUID
	Sources []SourceOutcome
	Totals  kg.BatchResult
}

// IngestRecords validates and ingests raw records under tag as one source unit.
func (u *Usecases) IngestRecords(ctx context.Context, tag string, recs []kg.Record) (kg.BatchResult, error) {
	return u.IngestSource(ctx, source.Source{Tag: tag, Records: recs})
}

// IngestSource validates src, ingests the valid triples, then records the
// outcome in the run log and on the progress bus. The only error returned is a
// wrapped kg.ErrStoreUnavailable; per-triple failures are counted instead.
func (u *Usecases) IngestSource(ctx context.Context, src source.Source) (kg.BatchResult, error) {
	ctx, runID := withRunID(ctx)
	out := u.ingestSource(ctx, runID, src)
	return out.Result, out.Err
}

func (u *Usecases) ingestSource(ctx context.Context, runID uuid.UUID, src source.Source) SourceOutcome {
	ctx, span := observability.StartSpan(ctx, "ingest.source", attribute.String("graph.source", src.Tag))
	defer span.End()

	valid, rejected := ValidateAll(ctx, src.Records)
	reasons := map[string]int{}
	for _, rej := range rejected {
		reason := string(kg.ReasonOf(rej.Err))
		if reason == "" {
			reason = "cancelled"
		}
		reasons[reason]++
		u.deps.Metrics.IncInvalid(reason)
		u.log.Warn("invalid record skipped",
			logFields(ctx, "source", src.Tag, "index", rej.Index, "reason", reason, "error", rej.Err)...)
	}
	if src.NotObjects > 0 {
		reasons[string(kg.ReasonNotObject)] += src.NotObjects
		for i := 0; i < src.NotObjects; i++ {
			u.deps.Metrics.IncInvalid(string(kg.ReasonNotObject))
		}
	}

	res, unavailable := u.ingestBatch(ctx, valid, src.Tag)
	res.Invalid = len(rejected) + src.NotObjects

	out := SourceOutcome{Tag: src.Tag, Result: res, Status: runlog.StatusFor(res)}
	switch {
	case unavailable:
		out.Err = fmt.Errorf("ingest %s: %w", src.Tag, kg.ErrStoreUnavailable)
	case ctx.Err() != nil:
		// Records left unscanned or unsent must not read as an empty source.
		out.Status = runlog.StatusFailed
		out.Err = abortErr(ctx, src.Tag)
	}
	span.SetAttributes(
		attribute.Int("graph.success", res.Success),
		attribute.Int("graph.errors", res.Errors),
		attribute.Int("graph.invalid", res.Invalid),
	)
	u.finishSource(ctx, runID, out, reasons)
	return out
}

// finishSource writes the run log entry and progress event for one unit. Both
// are best effort.
func (u *Usecases) finishSource(ctx context.Context, runID uuid.UUID, out SourceOutcome, reasons map[string]int) {
	now := time.Now().UTC()
	entry := runlog.Entry{
		RunID:     runID,
		Source:    out.Tag,
		Result:    out.Result,
		Status:    out.Status,
		Reasons:   reasons,
		CreatedAt: now,
	}
	if out.Err != nil {
		entry.Message = out.Err.Error()
	}
	// Use a detached context so a cancelled run still leaves its status behind.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := u.deps.RunLog.Append(logCtx, entry); err != nil {
		u.log.Warn("run log append failed", logFields(ctx, "source", out.Tag, "error", err)...)
	}
	ev := bus.Event{
		Type:    bus.EventSourceCompleted,
		RunID:   runID,
		Source:  out.Tag,
		Status:  string(out.Status),
		Success: out.Result.Success,
		Errors:  out.Result.Errors,
		Invalid: out.Result.Invalid,
		At:      now,
	}
	if err := u.deps.Bus.Publish(logCtx, ev); err != nil {
		u.log.Warn("progress publish failed", logFields(ctx, "source", out.Tag, "error", err)...)
	}
	u.deps.Metrics.IncSource(string(out.Status))

	if out.Err != nil {
		u.log.Error("source failed", logFields(ctx, "source", out.Tag, "error", out.Err)...)
		return
	}
	u.log.Info("source ingested",
		logFields(ctx,
			"source", out.Tag,
			"status", string(out.Status),
			"success", out.Result.Success,
			"errors", out.Result.Errors,
			"invalid", out.Result.Invalid,
		)...)
}

// IngestSources ingests srcs concurrently. Outcomes keep the input order. The
// returned error is non-nil only when the store was unreachable.
func (u *Usecases) IngestSources(ctx context.Context, srcs []source.Source) (RunSummary, error) {
	tags := make([]string, len(srcs))
	for i, src := range srcs {
		tags[i] = src.Tag
	}
	return u.run(ctx, tags, func(i int) (source.Source, error) { return srcs[i], nil })
}

// IngestFiles loads and ingests each file as its own source unit. A file that
// cannot be read or decoded is recorded as failed and the run continues.
func (u *Usecases) IngestFiles(ctx context.Context, paths []string) (RunSummary, error) {
	tags := make([]string, len(paths))
	for i, p := range paths {
		tags[i] = filepath.Base(p)
	}
	return u.run(ctx, tags, func(i int) (source.Source, error) { return source.LoadFile(paths[i]) })
}

func (u *Usecases) run(ctx context.Context, tags []string, load func(i int) (source.Source, error)) (RunSummary, error) {
	ctx, runID := withRunID(ctx)
	n := len(tags)
	summary := RunSummary{RunID: runID, Sources: make([]SourceOutcome, n)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.deps.Config.Concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			var out SourceOutcome
			if gctx.Err() != nil {
				out = u.loadFailed(gctx, runID, tags[i], abortErr(gctx, tags[i]))
			} else if src, err := load(i); err != nil {
				out = u.loadFailed(gctx, runID, tags[i], err)
			} else {
				out = u.ingestSource(gctx, runID, src)
			}
			// each goroutine owns its slot
			summary.Sources[i] = out
			if errors.Is(out.Err, kg.ErrStoreUnavailable) {
				return out.Err
			}
			return nil
		})
	}
	err := g.Wait()
	for _, out := range summary.Sources {
		summary.Totals = summary.Totals.Add(out.Result)
	}
	return summary, err
}

func (u *Usecases) loadFailed(ctx context.Context, runID uuid.UUID, tag string, err error) SourceOutcome {
	out := SourceOutcome{Tag: tag, Status: runlog.StatusFailed, Err: err}
	u.finishSource(ctx, runID, out, nil)
	return out
}

// abortErr reports a source cut short because its run was cancelled, keeping
// the cancellation cause reachable.
func abortErr(ctx context.Context, tag string) error {
	return fmt.Errorf("ingest %s: run aborted: %w", tag, context.Cause(ctx))
}

func withRunID(ctx context.Context) (context.Context, uuid.UUID) {
	td := ctxutil.GetTraceData(ctx)
	if td != nil && td.RunID != "" {
		if id, err := uuid.Parse(td.RunID); err == nil {
			return ctx, id
		}
	}
	id := uuid.New()
	next := &ctxutil.TraceData{RunID: id.String()}
	if td != nil {
		next.TraceID = td.TraceID
		next.RequestID = td.RequestID
	}
	return ctxutil.WithTraceData(ctx, next), id
}
