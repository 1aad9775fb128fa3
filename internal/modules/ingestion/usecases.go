// Package ingestion turns validated triples into graph upserts: it validates raw
// records, normalizes relationship labels, drives the store one triple at a time
// and reports per-source outcomes.
package ingestion

import (
	"time"

	"github.com/yungbote/graphloader/internal/data/graph"
	"github.com/yungbote/graphloader/internal/data/runlog"
	"github.com/yungbote/graphloader/internal/observability"
	"github.com/yungbote/graphloader/internal/platform/logger"
	"github.com/yungbote/graphloader/internal/realtime/bus"
)

const (
	DefaultConcurrency   = 4
	DefaultUpsertTimeout = 15 * time.Second
)

type Config struct {
	// Concurrency bounds how many sources IngestSources runs at once.
	Concurrency   int           `yaml:"concurrency"`
	UpsertTimeout time.Duration `yaml:"upsert_timeout"`
}

type UsecasesDeps struct {
	Log   *logger.Logger
	Store graph.TripleStore

	// Optional.
	RunLog  runlog.Sink
	Bus     bus.Bus
	Metrics *observability.Metrics

	Config Config
}

type Usecases struct {
	deps UsecasesDeps
	log  *logger.Logger
}

func New(deps UsecasesDeps) *Usecases {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.RunLog == nil {
		deps.RunLog = runlog.Discard{}
	}
	if deps.Bus == nil {
		deps.Bus = bus.Noop{}
	}
	if deps.Config.Concurrency <= 0 {
		deps.Config.Concurrency = DefaultConcurrency
	}
	if deps.Config.UpsertTimeout <= 0 {
		deps.Config.UpsertTimeout = DefaultUpsertTimeout
	}
	return &Usecases{deps: deps, log: deps.Log.With("service", "IngestionService")}
}

func (u *Usecases) Store() graph.TripleStore { return u.deps.Store }
